package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/thimc/edsafe/internal/parse"
	"github.com/thimc/edsafe/internal/signals"
)

// Ed is limited to displaying these error messages with the exception
// of regular expression and number parsing errors.
var (
	ErrDefault             = errors.New("?") // descriptive error message, don't you think?
	ErrCannotOpenFile      = errors.New("cannot open input file")
	ErrCannotWriteFile     = errors.New("cannot write file")
	ErrDestinationExpected = errors.New("destination expected")
	ErrFileModified        = errors.New("warning: buffer modified")
	ErrInterrupt           = signals.ErrInterrupt
	ErrInvalidAddress      = errors.New("invalid address")
	ErrInvalidCmdSuffix    = errors.New("invalid command suffix")
	ErrInvalidDestination  = errors.New("invalid destination")
	ErrInvalidMark         = errors.New("invalid mark character")
	ErrInvalidPatternDelim = errors.New("invalid pattern delimiter")
	ErrInvalidRedirection  = errors.New("invalid redirection")
	ErrNoFileName          = errors.New("no current filename")
	ErrNoMatch             = errors.New("no match")
	ErrNoPrevPattern       = errors.New("no previous pattern")
	ErrNoPreviousSub       = errors.New("no previous substitution")
	ErrNothingToUndo       = errors.New("nothing to undo")
	ErrNumberOutOfRange    = errors.New("number out of range")
	ErrUnexpectedAddress   = errors.New("unexpected address")
	ErrUnexpectedCmdSuffix = errors.New("unexpected command suffix")
	ErrUnknownCmd          = errors.New("unknown command")

	errQuit = errors.New("quit")
)

type suffix int

const (
	suffixPrint suffix = 1 << iota
	suffixList
	suffixEnumerate
)

const DefaultPrompt = "*"

type Editor struct {
	file
	cursor
	undo
	input

	re      *regexp.Regexp // previous regex
	replace string         // previous replacement text
	err     error          // previous error

	prompt  bool   // state for rendering the prompt
	up      string // user prompt
	verbose bool   // toggle verbose errors
	silent  bool   // suppress diagnostics
	script  bool   // stdin is not a terminal
	failed  bool   // an error occurred in script mode

	cs suffix // command suffix

	sig   *signals.Coordinator
	names *parse.Unescaper
	log   *logrus.Logger
	start string // file named on the command line

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type Option func(*Editor)

func WithStdin(stdin io.Reader) Option {
	return func(ed *Editor) { ed.stdin = stdin }
}

func WithStdout(stdout io.Writer) Option {
	return func(ed *Editor) { ed.stdout = stdout }
}

func WithStderr(stderr io.Writer) Option {
	return func(ed *Editor) { ed.stderr = stderr }
}

func WithSilent(t bool) Option {
	return func(ed *Editor) { ed.silent = t }
}

func WithVerbose(t bool) Option {
	return func(ed *Editor) { ed.verbose = t }
}

func WithPrompt(prompt string) Option {
	return func(ed *Editor) {
		ed.up = prompt
		ed.prompt = ed.up != ""
	}
}

func WithFile(path string) Option {
	return func(ed *Editor) { ed.start = path }
}

// WithCoordinator sets the signal coordinator guarding the buffer.
// NewEditor registers the editor with it as the content saved on hangup.
func WithCoordinator(co *signals.Coordinator) Option {
	return func(ed *Editor) { ed.sig = co }
}

func WithLogger(l *logrus.Logger) Option {
	return func(ed *Editor) { ed.log = l }
}

func NewEditor(opts ...Option) *Editor {
	ed := &Editor{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(ed)
	}
	if ed.sig == nil {
		ed.sig = signals.New(signals.WithLogger(ed.log))
	}
	ed.sig.SetContent(ed)
	ed.names = parse.NewUnescaper(ed.sig, signals.PathMax)
	if f, ok := ed.stdin.(*os.File); ok {
		ed.script = !term.IsTerminal(int(f.Fd()))
	}
	ed.input = newInput(ed.stdin)
	if ed.start != "" {
		ed.file.path = ed.start
		if err := ed.edit(context.Background(), ed.start); err != nil {
			ed.errorln(err)
		}
	}
	return ed
}

// HasContent reports whether the buffer holds any lines.
func (ed *Editor) HasContent() bool { return len(ed.file.lines) > 0 }

// WriteContent writes the whole buffer to path. It runs from the hangup
// handler and must not enter the gate.
func (ed *Editor) WriteContent(path string) error {
	_, err := writeLines(path, ed.file.lines, false)
	return err
}

// Failed reports whether a command failed while reading a script.
func (ed *Editor) Failed() bool { return ed.failed }

// mutate runs fn with signal effects deferred until it returns. If the
// command was interrupted before the gate closed, fn does not run and the
// cancellation cause is returned.
func (ed *Editor) mutate(ctx context.Context, fn func()) error {
	ed.sig.Enter()
	if ctx.Err() != nil {
		if err := ed.sig.Leave(); err != nil {
			return err
		}
		return context.Cause(ctx)
	}
	fn()
	return ed.sig.Leave()
}

// commit is mutate with the undo checkpoint taken in the same section.
func (ed *Editor) commit(ctx context.Context, fn func()) error {
	return ed.mutate(ctx, func() {
		ed.undo.checkpoint(ed.file.lines, ed.dot)
		fn()
	})
}

func (ed *Editor) validatePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if ed.file.path == "" {
		return "", ErrNoFileName
	}
	return ed.file.path, nil
}

func (ed *Editor) validate(f, s int) error {
	if ed.addrc == 0 {
		ed.first = f
		ed.second = s
	}
	if ed.first > ed.second || ed.first < 1 || ed.second > len(ed.file.lines) {
		return ErrInvalidAddress
	}
	return nil
}

func (ed *Editor) doPrompt() {
	if ed.prompt && ed.up != "" {
		fmt.Fprint(ed.stdout, ed.up)
	}
}

func (ed *Editor) errorln(err error) {
	ed.err = err
	if ed.script {
		ed.failed = true
	}
	fmt.Fprintln(ed.stderr, ErrDefault)
	if ed.verbose {
		fmt.Fprintln(ed.stderr, err)
	}
}

func (ed *Editor) run(ctx context.Context) error {
	ed.cs = 0
	ed.doPrompt()
	if err := ed.scan(ctx); err != nil {
		return err
	}
	if err := ed.parse(); err != nil {
		return err
	}
	if err := ed.exec(ctx); err != nil {
		return err
	}
	return ed.display(ctx, ed.dot, ed.dot, ed.cs)
}

// Run executes commands until quit or the end of input. Each command runs
// under a fresh recovery point; an interrupt abandons the command, prints
// "?" and starts the next one.
func (ed *Editor) Run(ctx context.Context) error {
	for {
		cctx, how := ed.sig.Arm(ctx)
		if how == signals.Interrupted {
			fmt.Fprintf(ed.stderr, "\n%s\n", ErrDefault)
			ed.err = ErrInterrupt
		}
		err := ed.run(cctx)
		switch {
		case err == nil:
		case errors.Is(err, errQuit):
			return nil
		case errors.Is(err, io.EOF):
			if !ed.dirty {
				return nil
			}
			ed.dirty = false
			ed.errorln(ErrFileModified)
		case errors.Is(err, ErrInterrupt):
			ed.log.Debug("command interrupted")
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			ed.log.WithError(err).Debug("command failed")
			ed.errorln(err)
		}
	}
}

// load reads path as lines and returns them with the file size.
func (ed *Editor) load(path string) ([]string, int, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		ed.log.WithError(err).WithField("path", path).Debug("read failed")
		return nil, 0, ErrCannotOpenFile
	}
	var lines []string
	if len(buf) > 0 {
		lines = strings.Split(strings.TrimSuffix(string(buf), "\n"), "\n")
	}
	return lines, len(buf), nil
}

func (ed *Editor) printSize(n int64) {
	if !ed.silent {
		fmt.Fprintln(ed.stdout, n)
	}
}

// read inserts the contents of path after line n and prints its size.
func (ed *Editor) read(ctx context.Context, path string, n int) error {
	lines, size, err := ed.load(path)
	if err != nil {
		return err
	}
	if err := ed.commit(ctx, func() {
		ed.file.append(n, lines)
		if len(lines) > 0 {
			ed.dot = n + len(lines)
			ed.dirty = true
		}
	}); err != nil {
		return err
	}
	ed.printSize(int64(size))
	return nil
}

// edit replaces the buffer with the contents of path.
func (ed *Editor) edit(ctx context.Context, path string) error {
	lines, size, err := ed.load(path)
	if err != nil {
		return err
	}
	if err := ed.mutate(ctx, func() {
		ed.file = file{path: path, lines: lines}
		ed.undo.reset()
		ed.dot = len(lines)
	}); err != nil {
		return err
	}
	ed.printSize(int64(size))
	return nil
}

// write stores lines start through end in path and prints the size.
func (ed *Editor) write(path string, start, end int, appending bool) error {
	var lines []string
	if start > 0 {
		lines = ed.file.lines[start-1 : end]
	}
	n, err := writeLines(path, lines, appending)
	if err != nil {
		ed.log.WithError(err).WithField("path", path).Debug("write failed")
		return ErrCannotWriteFile
	}
	if start <= 1 && end == len(ed.file.lines) {
		ed.dirty = false
	}
	ed.printSize(n)
	return nil
}

// appendLines reads lines up to a single "." and inserts them after line
// n. Each line is added on its own, so an interrupt keeps the lines
// already entered. With checkpoint set, the first line saves the buffer
// for undo.
func (ed *Editor) appendLines(ctx context.Context, n int, checkpoint bool) error {
	for {
		if err := ed.scan(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		ln := ed.input.buf
		if ln == "." {
			return nil
		}
		apply := ed.mutate
		if checkpoint {
			apply, checkpoint = ed.commit, false
		}
		if err := apply(ctx, func() {
			ed.file.append(n, []string{ln})
			n++
			ed.dot = n
			ed.dirty = true
		}); err != nil {
			return err
		}
	}
}

func (ed *Editor) delete(ctx context.Context, start, end int) error {
	return ed.commit(ctx, func() {
		ed.file.delete(start, end)
		ed.dot = start
		if ed.dot > len(ed.file.lines) {
			ed.dot = len(ed.file.lines)
		}
		ed.dirty = true
	})
}

func (ed *Editor) display(ctx context.Context, start, end int, flags suffix) error {
	if flags == 0 {
		return nil
	}
	if start < 1 {
		return ErrInvalidAddress
	}
	for i := start; i <= end; i++ {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		ed.dot = i
		var ln string
		if flags&suffixEnumerate > 0 {
			ln = fmt.Sprintf("%d\t", i)
		}
		if flags&suffixList > 0 {
			ln += ed.list(ed.file.lines[i-1])
		} else {
			ln += ed.file.lines[i-1]
		}
		fmt.Fprintln(ed.stdout, ln)
	}
	ed.cs = 0
	return nil
}

// list escapes ln for the l command, folding it with a trailing backslash
// so that no output line is wider than the window.
func (ed *Editor) list(ln string) string {
	var (
		sb    strings.Builder
		col   int
		width = ed.sig.WindowColumns()
	)
	put := func(s string) {
		if col+len(s) > width {
			sb.WriteString("\\\n")
			col = 0
		}
		sb.WriteString(s)
		col += len(s)
	}
	for i := 0; i < len(ln); i++ {
		switch c := ln[i]; c {
		case '\a':
			put(`\a`)
		case '\b':
			put(`\b`)
		case '\f':
			put(`\f`)
		case '\r':
			put(`\r`)
		case '\t':
			put(`\t`)
		case '\v':
			put(`\v`)
		case '\\':
			put(`\\`)
		case '$':
			put(`\$`)
		default:
			if c < ' ' || c >= 0x7f {
				put(fmt.Sprintf("\\%03o", c))
			} else {
				put(string(c))
			}
		}
	}
	sb.WriteByte('$')
	return sb.String()
}

func (ed *Editor) getSuffix() error {
	for {
		switch ed.token() {
		case 'n':
			ed.cs |= suffixEnumerate
		case 'l':
			ed.cs |= suffixList
		case 'p':
			ed.cs |= suffixPrint
		default:
			if !ed.input.eof() {
				return ErrInvalidCmdSuffix
			}
			return nil
		}
		ed.consume()
	}
}

// substitute replaces the nth match of re (every match if nth < 1) on
// each addressed line. The result is built on a copy and swapped in at
// the end, so an interrupt leaves the buffer as it was.
func (ed *Editor) substitute(ctx context.Context, re *regexp.Regexp, replace string, nth int) error {
	var (
		lines = make([]string, len(ed.file.lines))
		last  int
	)
	copy(lines, ed.file.lines)
	for i := ed.first - 1; i < ed.second; i++ {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		ln, ok := subst(re, replace, lines[i], nth)
		if !ok {
			continue
		}
		lines[i] = ln
		last = i + 1
	}
	ed.re = re
	ed.replace = replace
	if last == 0 {
		return ErrNoMatch
	}
	return ed.commit(ctx, func() {
		ed.file.lines = lines
		ed.dot = last
		ed.dirty = true
	})
}

func subst(re *regexp.Regexp, replace, ln string, nth int) (string, bool) {
	var (
		b    []byte
		prev int
		done bool
	)
	for k, m := range re.FindAllStringSubmatchIndex(ln, -1) {
		if nth > 0 && k != nth-1 {
			continue
		}
		b = append(b, ln[prev:m[0]]...)
		b = expand(b, replace, ln, m)
		prev = m[1]
		done = true
	}
	if !done {
		return ln, false
	}
	b = append(b, ln[prev:]...)
	return string(b), true
}

// expand appends the replacement to dst: & is the match, \1 to \9 the
// submatches and any other escaped byte stands for itself.
func expand(dst []byte, replace, src string, m []int) []byte {
	for i := 0; i < len(replace); i++ {
		c := replace[i]
		switch {
		case c == '&':
			dst = append(dst, src[m[0]:m[1]]...)
		case c == '\\' && i+1 < len(replace):
			i++
			c = replace[i]
			if '1' <= c && c <= '9' {
				if g := int(c - '0'); 2*g+1 < len(m) && m[2*g] >= 0 {
					dst = append(dst, src[m[2*g]:m[2*g+1]]...)
				}
				continue
			}
			dst = append(dst, c)
		default:
			dst = append(dst, c)
		}
	}
	return dst
}
