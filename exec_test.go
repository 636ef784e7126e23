package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/thimc/edsafe/internal/parse"
	"github.com/thimc/edsafe/internal/signals"
)

var (
	dummy = file{
		lines: []string{
			"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M",
			"N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z",
		},
		path: "#dummy",
	}
	subBuffer = file{
		lines: []string{
			"A A A A A",
			"A A A A A",
			"B B B B B",
			"B B B B B",
			"C C C C C",
			"C C C C C",
			"D D D D D",
			"D D D D D",
		},
	}
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// testCoordinator never exits the process and reports a 24x80 terminal.
func testCoordinator(exit func(int)) *signals.Coordinator {
	if exit == nil {
		exit = func(int) {}
	}
	return signals.New(
		signals.WithLogger(quietLogger()),
		signals.WithExit(exit),
		signals.WithSizeFunc(func() (int, int, error) { return 24, 80, nil }),
		signals.WithTerminalFunc(func() bool { return false }),
		signals.WithGetenv(func(string) (string, bool) { return "", false }),
	)
}

// withBuffer loads a copy of f with the cursor on its last line.
func withBuffer(f file) Option {
	return func(ed *Editor) {
		f.lines = append([]string(nil), f.lines...)
		ed.file, ed.dot = f, len(f.lines)
	}
}

func newTestEditor(f file, opts ...Option) (*Editor, *bytes.Buffer) {
	var stdout bytes.Buffer
	base := []Option{
		WithStdin(strings.NewReader("")),
		WithStdout(&stdout),
		WithStderr(io.Discard),
		WithLogger(quietLogger()),
		WithCoordinator(testCoordinator(nil)),
		withBuffer(f),
	}
	return NewEditor(append(base, opts...)...), &stdout
}

// runCmd executes the first line of cmd as a command. Any further lines
// are the input of a, c and i.
func runCmd(ed *Editor, cmd string) error {
	ed.input = newInput(strings.NewReader(cmd))
	return ed.run(context.Background())
}

func TestCommands(t *testing.T) {
	lc := len(dummy.lines)
	tests := []struct {
		name   string
		cmds   []string
		start  file // dummy when it has no lines
		dot    int
		output string
		err    error
		buf    []string
	}{
		// a, i, c
		{name: "append", cmds: []string{"ap\nhello\nworld\n."}, dot: lc + 2, output: "world\n", buf: append(append([]string(nil), dummy.lines...), "hello", "world")},
		{name: "insert", cmds: []string{"1i\nfirst\n."}, dot: 1, buf: append([]string{"first"}, dummy.lines...)},
		{name: "insert empty", cmds: []string{"i\nx\n."}, start: file{lines: []string{}}, dot: 1, buf: []string{"x"}},
		{name: "append at eof", cmds: []string{"a\nx"}, dot: lc + 1, buf: append(append([]string(nil), dummy.lines...), "x")},
		{name: "change", cmds: []string{"2,3c\nX\n."}, dot: 2, buf: append([]string{"A", "X"}, dummy.lines[3:]...)},

		// d, j, m, t
		{name: "delete", cmds: []string{"d"}, dot: lc - 1, buf: dummy.lines[:lc-1]},
		{name: "delete all", cmds: []string{",d"}, dot: 0, buf: []string{}},
		{name: "join", cmds: []string{"1,3j"}, dot: 1, buf: append([]string{"ABC"}, dummy.lines[3:]...)},
		{name: "move", cmds: []string{"1,5m9"}, dot: 9, buf: []string{"F", "G", "H", "I", "A", "B", "C", "D", "E", "J", "K", "L", "M", "N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z"}},
		{name: "move to top", cmds: []string{"m0"}, dot: 1, buf: append([]string{"Z"}, dummy.lines[:lc-1]...)},
		{name: "transfer", cmds: []string{"1,2t$"}, dot: lc + 2, buf: append(append([]string(nil), dummy.lines...), "A", "B")},

		// p, n, l, =
		{name: "print all", cmds: []string{",p"}, dot: lc, output: strings.Join(dummy.lines, "\n") + "\n"},
		{name: "number", cmds: []string{"n"}, dot: lc, output: "26\tZ\n"},
		{name: "list", cmds: []string{"l"}, dot: lc, output: "Z$\n"},
		{name: "list escapes", cmds: []string{"l"}, start: file{lines: []string{"a\tb$\\"}}, dot: 1, output: `a\tb\$\\$` + "\n"},
		{name: "line count", cmds: []string{"="}, dot: lc, output: "26\n"},
		{name: "line count range", cmds: []string{"3,5="}, dot: lc, output: "5\n"},
		{name: "line count print", cmds: []string{"=p"}, dot: lc, output: "26\nZ\n"},
		{name: "newline", cmds: []string{"1", "\n"}, dot: 2, output: "A\nB\n"},

		// k, addresses
		{name: "mark", cmds: []string{"3kd", "'dp"}, dot: 3, output: "C\n"},
		{name: "search forward", cmds: []string{"/M/"}, dot: 13, output: "M\n"},
		{name: "search backward", cmds: []string{"?C?p"}, dot: 3, output: "C\n"},
		{name: "search reuse", cmds: []string{"/M/", "//"}, dot: 13, output: "M\nM\n"},

		// z
		{name: "scroll", cmds: []string{"2z6"}, dot: 7, output: strings.Join(dummy.lines[1:7], "\n") + "\n"},
		{name: "scroll window", cmds: []string{"1z"}, dot: 22, output: strings.Join(dummy.lines[:22], "\n") + "\n"},
		{name: "scroll keeps size", cmds: []string{"1z2", "z"}, dot: 4, output: "A\nB\nC\nD\n"},

		// s
		{name: "substitute global", cmds: []string{",s/A/X/gp"}, start: subBuffer, dot: 2, output: "X X X X X\n", buf: []string{"X X X X X", "X X X X X", "B B B B B", "B B B B B", "C C C C C", "C C C C C", "D D D D D", "D D D D D"}},
		{name: "substitute nth", cmds: []string{"1s/A/&X/3"}, start: subBuffer, dot: 1, buf: []string{"A A AX A A", "A A A A A", "B B B B B", "B B B B B", "C C C C C", "C C C C C", "D D D D D", "D D D D D"}},
		{name: "substitute groups", cmds: []string{`3,5s/ (.)(.)/_\2_\1X\2_/`}, start: subBuffer, dot: 5, buf: []string{"A A A A A", "A A A A A", "B_ _BX _B B B", "B_ _BX _B B B", "C_ _CX _C C C", "C C C C C", "D D D D D", "D D D D D"}},
		{name: "substitute suffix", cmds: []string{"s/.*/some/nl"}, start: subBuffer, dot: 8, output: "8\tsome$\n"},
		{name: "substitute unclosed", cmds: []string{",s/B.*/test"}, start: subBuffer, dot: 4, output: "test\n"},
		{name: "substitute repeat", cmds: []string{"1s/A/TEST/", "s", "s3", "sgp"}, start: subBuffer, dot: 1, output: "TEST TEST TEST TEST TEST\n", buf: append([]string{"TEST TEST TEST TEST TEST"}, subBuffer.lines[1:]...)},
		{name: "substitute previous replacement", cmds: []string{",s/A/X/", ",s/B/%/"}, start: subBuffer, dot: 4, buf: []string{"X A A A A", "X A A A A", "X B B B B", "X B B B B", "C C C C C", "C C C C C", "D D D D D", "D D D D D"}},

		// u
		{name: "undo", cmds: []string{"1d", "u"}, dot: lc, buf: dummy.lines},
		{name: "redo", cmds: []string{"1d", "u", "u"}, dot: 1, buf: dummy.lines[1:]},
		{name: "undo substitute", cmds: []string{",s/A/X/g", "u"}, start: subBuffer, dot: 8, buf: subBuffer.lines},

		// h, H, P, f
		{name: "help", cmds: []string{"h"}, dot: lc},
		{name: "prompt", cmds: []string{"P"}, dot: lc},
		{name: "filename", cmds: []string{"f"}, dot: lc, output: "#dummy\n"},
		{name: "set filename", cmds: []string{"f test", "f"}, dot: lc, output: "test\ntest\n"},

		// errors
		{name: "append suffix", cmds: []string{"az"}, dot: lc, err: ErrInvalidCmdSuffix},
		{name: "address too large", cmds: []string{"1,27d"}, dot: lc, err: ErrInvalidAddress},
		{name: "address reversed", cmds: []string{"2,1p"}, dot: lc, err: ErrInvalidAddress},
		{name: "delete empty", cmds: []string{"d"}, start: file{lines: []string{}}, err: ErrInvalidAddress},
		{name: "change empty", cmds: []string{"c"}, start: file{lines: []string{}}, err: ErrInvalidAddress},
		{name: "edit address", cmds: []string{"1e"}, dot: lc, err: ErrUnexpectedAddress},
		{name: "edit suffix", cmds: []string{"ez"}, dot: lc, err: ErrUnexpectedCmdSuffix},
		{name: "edit redirection", cmds: []string{"e !ls"}, dot: lc, err: ErrInvalidRedirection},
		{name: "edit modified", cmds: []string{"1d", "e"}, dot: 1, err: ErrFileModified},
		{name: "filename redirection", cmds: []string{"f !"}, dot: lc, err: ErrInvalidRedirection},
		{name: "filename missing", cmds: []string{"f"}, start: subBuffer, dot: 8, err: ErrNoFileName},
		{name: "mark invalid", cmds: []string{"k!"}, dot: lc, err: ErrInvalidMark},
		{name: "mark suffix", cmds: []string{"k!z"}, dot: lc, err: ErrInvalidCmdSuffix},
		{name: "mark unset", cmds: []string{"'q"}, dot: lc, err: ErrInvalidAddress},
		{name: "move no destination", cmds: []string{"1,5mz"}, dot: lc, err: ErrDestinationExpected},
		{name: "move missing destination", cmds: []string{"m"}, dot: lc, err: ErrDestinationExpected},
		{name: "move into range", cmds: []string{"1,5m2"}, dot: lc, err: ErrInvalidDestination},
		{name: "transfer suffix", cmds: []string{"1,5t5z"}, dot: lc, err: ErrInvalidCmdSuffix},
		{name: "prompt address", cmds: []string{"1P"}, dot: lc, err: ErrUnexpectedAddress},
		{name: "prompt suffix", cmds: []string{"Pq"}, dot: lc, err: ErrInvalidCmdSuffix},
		{name: "quit modified", cmds: []string{"1d", "q"}, dot: 1, err: ErrFileModified},
		{name: "quit suffix", cmds: []string{"qq"}, dot: lc, err: ErrInvalidCmdSuffix},
		{name: "quit address", cmds: []string{"1Q"}, dot: lc, err: ErrUnexpectedAddress},
		{name: "quit", cmds: []string{"Q"}, dot: lc, err: errQuit},
		{name: "read suffix", cmds: []string{"rq"}, dot: lc, err: ErrUnexpectedCmdSuffix},
		{name: "read missing", cmds: []string{"r /nonexistent/ed-test"}, dot: lc, err: ErrCannotOpenFile},
		{name: "substitute no match", cmds: []string{",s/X/Y/"}, start: subBuffer, dot: 8, err: ErrNoMatch},
		{name: "substitute no pattern", cmds: []string{",s//Y/"}, start: subBuffer, dot: 8, err: ErrNoPrevPattern},
		{name: "substitute no replacement", cmds: []string{",s/A/%/p"}, start: subBuffer, dot: 8, err: ErrNoPreviousSub},
		{name: "substitute no previous", cmds: []string{"s"}, dot: lc, err: ErrNoPreviousSub},
		{name: "substitute backref", cmds: []string{`s/A/\1/`}, dot: lc, err: ErrNumberOutOfRange},
		{name: "substitute delimiter", cmds: []string{"s A B "}, dot: lc, err: ErrInvalidPatternDelim},
		{name: "undo nothing", cmds: []string{"u"}, dot: lc, err: ErrNothingToUndo},
		{name: "undo suffix", cmds: []string{"uq"}, dot: lc, err: ErrInvalidCmdSuffix},
		{name: "undo address", cmds: []string{"1u"}, dot: lc, err: ErrUnexpectedAddress},
		{name: "write no filename", cmds: []string{"w"}, start: subBuffer, dot: 8, err: ErrNoFileName},
		{name: "scroll overflow", cmds: []string{"1z1234567891234567891234567890"}, dot: lc, err: parse.ErrOutOfRange},
		{name: "scroll wraps to one", cmds: []string{"1z4294967297"}, dot: lc, err: parse.ErrOutOfRange},
		{name: "scroll wraps negative", cmds: []string{"1z3000000000"}, dot: lc, err: parse.ErrOutOfRange},
		{name: "scroll past end", cmds: []string{"z"}, dot: lc, err: ErrInvalidAddress},
		{name: "scroll suffix", cmds: []string{"5zq"}, dot: lc, err: ErrInvalidCmdSuffix},
		{name: "line count suffix", cmds: []string{"=q"}, dot: lc, err: ErrInvalidCmdSuffix},
		{name: "search no match", cmds: []string{"/nomatch/"}, dot: lc, err: ErrNoMatch},
		{name: "newline past end", cmds: []string{"\n"}, dot: lc, err: ErrInvalidAddress},
		{name: "unknown", cmds: []string{"@"}, dot: lc, err: ErrUnknownCmd},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			start := test.start
			if start.lines == nil {
				start = dummy
			}
			ed, stdout := newTestEditor(start)
			var err error
			for i, cmd := range test.cmds {
				err = runCmd(ed, cmd)
				if i < len(test.cmds)-1 && err != nil {
					t.Fatalf("command %q: unexpected error %q", cmd, err)
				}
			}
			if !errors.Is(err, test.err) {
				t.Fatalf("expected error %v, got %v", test.err, err)
			}
			if test.buf != nil && strings.Join(test.buf, "\n") != strings.Join(ed.file.lines, "\n") {
				t.Fatalf("expected buffer\n%+q\ngot buffer\n%+q", test.buf, ed.file.lines)
			}
			if ed.dot != test.dot {
				t.Fatalf("expected dot %d, got %d", test.dot, ed.dot)
			}
			if stdout.String() != test.output {
				t.Fatalf("expected stdout %q, got %q", test.output, stdout.String())
			}
		})
	}
}

// TestScrollSizeOutOfRange checks that a page size too large to keep is
// rejected without changing the current one.
func TestScrollSizeOutOfRange(t *testing.T) {
	for _, size := range []string{"4294967297", "3000000000", "2147483648"} {
		t.Run(size, func(t *testing.T) {
			ed, stdout := newTestEditor(dummy)
			if err := runCmd(ed, "1z3"); err != nil {
				t.Fatal(err)
			}
			if err := runCmd(ed, "1z"+size); !errors.Is(err, parse.ErrOutOfRange) {
				t.Fatalf("expected error %v, got %v", parse.ErrOutOfRange, err)
			}
			if n := ed.sig.WindowLines(); n != 3 {
				t.Fatalf("expected window of 3 lines, got %d", n)
			}
			stdout.Reset()
			if err := runCmd(ed, "1z"); err != nil {
				t.Fatal(err)
			}
			if want := "A\nB\nC\n"; stdout.String() != want {
				t.Fatalf("expected stdout %q, got %q", want, stdout.String())
			}
		})
	}
}

func TestFileCommands(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	content := strings.Join(dummy.lines, "\n") + "\n"
	if err := os.WriteFile(src, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")

	tests := []struct {
		name   string
		cmds   []string
		start  file
		output string
		dot    int
		lines  int
		dirty  bool
		want   string // contents of out, when set
	}{
		{name: "edit", cmds: []string{"e " + src}, output: "52\n", dot: 26, lines: 26},
		{name: "edit forced", cmds: []string{"1d", "E " + src}, start: dummy, output: "52\n", dot: 26, lines: 26},
		{name: "read", cmds: []string{"r " + src}, start: dummy, output: "52\n", dot: 52, lines: 52, dirty: true},
		{name: "read after line", cmds: []string{"0r " + src}, start: dummy, output: "52\n", dot: 26, lines: 52, dirty: true},
		{name: "write", cmds: []string{"w " + out}, start: dummy, output: "52\n", dot: 26, lines: 26, want: content},
		{name: "write range", cmds: []string{"1,2w " + out}, start: dummy, output: "4\n", dot: 26, lines: 26, want: "A\nB\n"},
		{name: "write append", cmds: []string{"1w " + out, "2W " + out}, start: dummy, output: "2\n2\n", dot: 26, lines: 26, want: "A\nB\n"},
		{name: "write clears modified", cmds: []string{"1d", "w " + out}, start: dummy, output: "50\n", dot: 1, lines: 25, want: strings.Join(dummy.lines[1:], "\n") + "\n"},
		{name: "write empty", cmds: []string{"w " + out}, start: file{lines: []string{}}, output: "0\n", want: ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			os.Remove(out)
			start := test.start
			if start.lines == nil {
				start = file{lines: []string{}}
			}
			ed, stdout := newTestEditor(start)
			for _, cmd := range test.cmds {
				if err := runCmd(ed, cmd); err != nil {
					t.Fatalf("command %q: unexpected error %q", cmd, err)
				}
			}
			if stdout.String() != test.output {
				t.Fatalf("expected stdout %q, got %q", test.output, stdout.String())
			}
			if ed.dot != test.dot {
				t.Fatalf("expected dot %d, got %d", test.dot, ed.dot)
			}
			if len(ed.file.lines) != test.lines {
				t.Fatalf("expected %d lines, got %d", test.lines, len(ed.file.lines))
			}
			if ed.dirty != test.dirty {
				t.Fatalf("expected modified %t, got %t", test.dirty, ed.dirty)
			}
			if test.want != "" || strings.HasPrefix(test.name, "write") {
				b, err := os.ReadFile(out)
				if err != nil {
					t.Fatal(err)
				}
				if string(b) != test.want {
					t.Fatalf("expected file %q, got %q", test.want, b)
				}
			}
		})
	}
}

func TestWriteQuit(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	ed, _ := newTestEditor(dummy)
	if err := runCmd(ed, "wq "+out); !errors.Is(err, errQuit) {
		t.Fatalf("expected %v, got %v", errQuit, err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatal(err)
	}
}
