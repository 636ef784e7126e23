// Package logging configures the logrus logger shared by the editor and
// the signal coordinator.
package logging

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/thimc/edsafe/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup points l at stderr, or at a rotating file when cfg.File is set, and
// sets its level. debug forces the debug level. The returned Closer flushes
// the log file.
func Setup(l *logrus.Logger, cfg config.Log, stderr io.Writer, debug bool) (io.Closer, error) {
	level := logrus.WarnLevel
	if cfg.Level != "" {
		var err error
		if level, err = logrus.ParseLevel(cfg.Level); err != nil {
			return nil, errors.Wrap(err, "log level")
		}
	}
	if debug {
		level = logrus.DebugLevel
	}
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	if cfg.File == "" {
		l.SetOutput(stderr)
		return nopCloser{}, nil
	}
	lj := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: 3,
		MaxAge:     28,
	}
	l.SetOutput(lj)
	return lj, nil
}
