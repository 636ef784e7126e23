package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/thimc/edsafe/internal/config"
)

func TestSetupStderr(t *testing.T) {
	var (
		b bytes.Buffer
		l = logrus.New()
	)
	c, err := Setup(l, config.Log{Level: "info"}, &b, false)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	l.Debug("hidden")
	l.Info("shown")
	if strings.Contains(b.String(), "hidden") || !strings.Contains(b.String(), "shown") {
		t.Fatalf("unexpected output %q", b.String())
	}
	if _, err := Setup(l, config.Log{Level: "info"}, &b, true); err != nil {
		t.Fatal(err)
	}
	if l.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", l.GetLevel())
	}
}

func TestSetupFile(t *testing.T) {
	var (
		b    bytes.Buffer
		l    = logrus.New()
		path = filepath.Join(t.TempDir(), "ed.log")
	)
	c, err := Setup(l, config.Log{Level: "debug", File: path, MaxSizeMB: 1}, &b, false)
	if err != nil {
		t.Fatal(err)
	}
	l.WithField("signal", "hangup").Debug("signal received")
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(buf), "signal=hangup") {
		t.Fatalf("expected the record in the log file, got %q", buf)
	}
	if b.Len() != 0 {
		t.Fatalf("expected nothing on stderr, got %q", b.String())
	}
}

func TestSetupBadLevel(t *testing.T) {
	if _, err := Setup(logrus.New(), config.Log{Level: "loud"}, &bytes.Buffer{}, false); err == nil {
		t.Fatal("expected an error")
	}
}
