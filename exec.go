package main

import (
	"context"
	"fmt"
	"math"
	"unicode"

	"github.com/thimc/edsafe/internal/parse"
)

type cmd func(ctx context.Context, ed *Editor) error

var cmds map[rune]cmd

func init() {
	cmds = map[rune]cmd{
		'a': cmdAppend,
		'c': cmdChange,
		'd': cmdDelete,
		'E': cmdEdit,
		'e': cmdEdit,
		'f': cmdFilename,
		'H': cmdHelp,
		'h': cmdHelp,
		'i': cmdInsert,
		'j': cmdJoin,
		'k': cmdMark,
		'l': cmdPrint,
		'n': cmdPrint,
		'p': cmdPrint,
		'm': cmdMove,
		'P': cmdPrompt,
		'Q': cmdQuit,
		'q': cmdQuit,
		'r': cmdRead,
		's': cmdSubstitute,
		't': cmdTransfer,
		'u': cmdUndo,
		'W': cmdWrite,
		'w': cmdWrite,
		'z': cmdScroll,
		'=': cmdLineCount,
		EOF: cmdNone,
	}
}

func (ed *Editor) exec(ctx context.Context) error {
	ed.skipWhitespace()
	if cmd, ok := cmds[ed.token()]; ok {
		ed.log.WithField("cmd", ed.input.buf).Debug("exec")
		return cmd(ctx, ed)
	}
	return ErrUnknownCmd
}

func cmdAppend(ctx context.Context, ed *Editor) error {
	ed.consume()
	if err := ed.getSuffix(); err != nil {
		return err
	}
	return ed.appendLines(ctx, ed.second, true)
}

func cmdInsert(ctx context.Context, ed *Editor) error {
	ed.consume()
	if err := ed.getSuffix(); err != nil {
		return err
	}
	n := ed.second - 1
	if n < 0 {
		n = 0
	}
	return ed.appendLines(ctx, n, true)
}

func cmdChange(ctx context.Context, ed *Editor) error {
	ed.consume()
	if err := ed.validate(ed.dot, ed.dot); err != nil {
		return err
	}
	if err := ed.getSuffix(); err != nil {
		return err
	}
	first := ed.first
	if err := ed.delete(ctx, ed.first, ed.second); err != nil {
		return err
	}
	ed.dot = first - 1
	return ed.appendLines(ctx, first-1, false)
}

func cmdDelete(ctx context.Context, ed *Editor) error {
	ed.consume()
	if err := ed.validate(ed.dot, ed.dot); err != nil {
		return err
	}
	if err := ed.getSuffix(); err != nil {
		return err
	}
	return ed.delete(ctx, ed.first, ed.second)
}

func cmdEdit(ctx context.Context, ed *Editor) error {
	r := ed.token()
	ed.consume()
	if ed.addrc > 0 {
		return ErrUnexpectedAddress
	} else if !unicode.IsSpace(ed.token()) && ed.token() != EOF {
		return ErrUnexpectedCmdSuffix
	}
	name, err := ed.filename()
	if err != nil {
		return err
	}
	path, err := ed.validatePath(name)
	if err != nil {
		return err
	}
	if r == 'e' && ed.dirty {
		ed.dirty = false
		return ErrFileModified
	}
	return ed.edit(ctx, path)
}

func cmdFilename(ctx context.Context, ed *Editor) error {
	ed.consume()
	if ed.addrc > 0 {
		return ErrUnexpectedAddress
	} else if !unicode.IsSpace(ed.token()) && ed.token() != EOF {
		return ErrUnexpectedCmdSuffix
	}
	name, err := ed.filename()
	if err != nil {
		return err
	}
	path, err := ed.validatePath(name)
	if err != nil {
		return err
	}
	ed.file.path = path
	fmt.Fprintln(ed.stdout, path)
	return nil
}

func cmdHelp(ctx context.Context, ed *Editor) error {
	r := ed.token()
	ed.consume()
	if ed.addrc > 0 {
		return ErrUnexpectedAddress
	}
	if err := ed.getSuffix(); err != nil {
		return err
	}
	if r == 'H' {
		ed.verbose = !ed.verbose
		if !ed.verbose {
			return nil
		}
	}
	if ed.err != nil {
		fmt.Fprintln(ed.stderr, ed.err)
	}
	return nil
}

func cmdJoin(ctx context.Context, ed *Editor) error {
	ed.consume()
	if err := ed.validate(ed.dot, ed.dot+1); err != nil {
		return err
	}
	if err := ed.getSuffix(); err != nil {
		return err
	}
	if ed.first == ed.second {
		return nil
	}
	return ed.commit(ctx, func() {
		ed.file.join(ed.first, ed.second)
		ed.dot = ed.first
		ed.dirty = true
	})
}

func cmdMark(ctx context.Context, ed *Editor) error {
	ed.consume()
	if ed.second == 0 {
		return ErrInvalidAddress
	}
	r := ed.token()
	ed.consume()
	if err := ed.getSuffix(); err != nil {
		return err
	}
	if r < 'a' || r > 'z' {
		return ErrInvalidMark
	}
	ed.mark[r-'a'] = ed.second
	return nil
}

func cmdPrint(ctx context.Context, ed *Editor) error {
	if err := ed.validate(ed.dot, ed.dot); err != nil {
		return err
	}
	if err := ed.getSuffix(); err != nil {
		return err
	}
	return ed.display(ctx, ed.first, ed.second, ed.cs)
}

func cmdMove(ctx context.Context, ed *Editor) error {
	ed.consume()
	if err := ed.validate(ed.dot, ed.dot); err != nil {
		return err
	}
	addr, err := ed.getThirdAddr()
	if err != nil {
		return err
	}
	if ed.first <= addr && addr < ed.second {
		return ErrInvalidDestination
	}
	if err := ed.getSuffix(); err != nil {
		return err
	}
	return ed.commit(ctx, func() {
		ed.dot = ed.file.move(ed.first, ed.second, addr)
		ed.dirty = true
	})
}

func cmdPrompt(ctx context.Context, ed *Editor) error {
	ed.consume()
	if ed.addrc > 0 {
		return ErrUnexpectedAddress
	}
	if err := ed.getSuffix(); err != nil {
		return err
	}
	if ed.up == "" {
		ed.up = DefaultPrompt
	}
	ed.prompt = !ed.prompt
	return nil
}

func cmdQuit(ctx context.Context, ed *Editor) error {
	r := ed.token()
	ed.consume()
	if ed.addrc > 0 {
		return ErrUnexpectedAddress
	}
	if err := ed.getSuffix(); err != nil {
		return err
	}
	if r == 'q' && ed.dirty {
		ed.dirty = false
		return ErrFileModified
	}
	return errQuit
}

func cmdRead(ctx context.Context, ed *Editor) error {
	ed.consume()
	if !unicode.IsSpace(ed.token()) && ed.token() != EOF {
		return ErrUnexpectedCmdSuffix
	} else if ed.addrc == 0 {
		ed.second = len(ed.file.lines)
	}
	name, err := ed.filename()
	if err != nil {
		return err
	}
	path, err := ed.validatePath(name)
	if err != nil {
		return err
	}
	if ed.file.path == "" {
		ed.file.path = path
	}
	return ed.read(ctx, path, ed.second)
}

func cmdSubstitute(ctx context.Context, ed *Editor) error {
	ed.consume()
	var (
		re      = ed.re
		replace = ed.replace
		nth     = 1
		err     error
	)
	if delim := ed.token(); delim == EOF || ed.match("gpln0123456789") {
		if re == nil {
			return ErrNoPreviousSub
		}
	} else {
		if unicode.IsSpace(delim) || delim == '\\' {
			return ErrInvalidPatternDelim
		}
		ed.consume()
		search, _ := ed.scanStringUntil(delim)
		if re, err = ed.compile(search); err != nil {
			return err
		}
		var closed bool
		replace, closed = ed.scanStringUntil(delim)
		if replace == "%" {
			if ed.replace == "" {
				return ErrNoPreviousSub
			}
			replace = ed.replace
		}
		if !closed {
			ed.cs |= suffixPrint
		}
	}
	switch r := ed.token(); {
	case r == 'g':
		nth = -1
		ed.consume()
	case unicode.IsDigit(r):
		if nth, err = ed.scanNumber(); err != nil {
			return err
		}
		if nth < 1 {
			return ErrNumberOutOfRange
		}
	}
	if err := ed.getSuffix(); err != nil {
		return err
	}
	if err := checkBackrefs(replace, re.NumSubexp()); err != nil {
		return err
	}
	if err := ed.validate(ed.dot, ed.dot); err != nil {
		return err
	}
	return ed.substitute(ctx, re, replace, nth)
}

// checkBackrefs rejects \N references to groups the pattern lacks.
func checkBackrefs(replace string, groups int) error {
	for i := 0; i+1 < len(replace); i++ {
		if replace[i] != '\\' {
			continue
		}
		i++
		if c := replace[i]; '1' <= c && c <= '9' && int(c-'0') > groups {
			return ErrNumberOutOfRange
		}
	}
	return nil
}

func cmdTransfer(ctx context.Context, ed *Editor) error {
	ed.consume()
	if err := ed.validate(ed.dot, ed.dot); err != nil {
		return err
	}
	addr, err := ed.getThirdAddr()
	if err != nil {
		return err
	}
	if err := ed.getSuffix(); err != nil {
		return err
	}
	return ed.commit(ctx, func() {
		n := ed.file.yank(ed.first, ed.second, addr)
		ed.dot = addr + n
		ed.dirty = true
	})
}

func cmdUndo(ctx context.Context, ed *Editor) error {
	ed.consume()
	if ed.addrc > 0 {
		return ErrUnexpectedAddress
	}
	if err := ed.getSuffix(); err != nil {
		return err
	}
	var err error
	if lerr := ed.mutate(ctx, func() { err = ed.undo.pop(ed) }); lerr != nil {
		return lerr
	}
	return err
}

func cmdWrite(ctx context.Context, ed *Editor) error {
	r := ed.token()
	ed.consume()
	quit := ed.token()
	if quit == 'q' || quit == 'Q' {
		ed.consume()
	}
	if !unicode.IsSpace(ed.token()) && ed.token() != EOF {
		return ErrUnexpectedCmdSuffix
	}
	name, err := ed.filename()
	if err != nil {
		return err
	}
	path, err := ed.validatePath(name)
	if err != nil {
		return err
	}
	if ed.addrc == 0 && len(ed.file.lines) < 1 {
		ed.first, ed.second = 0, 0
	} else if err := ed.validate(1, len(ed.file.lines)); err != nil {
		return err
	}
	if ed.file.path == "" {
		ed.file.path = path
	}
	if err := ed.write(path, ed.first, ed.second, r == 'W'); err != nil {
		return err
	}
	if quit == 'q' || quit == 'Q' {
		return errQuit
	}
	return nil
}

func cmdScroll(ctx context.Context, ed *Editor) error {
	ed.consume()
	if ed.addrc == 0 {
		ed.second = ed.dot + 1
	}
	if ed.second < 1 || ed.second > len(ed.file.lines) {
		return ErrInvalidAddress
	}
	if unicode.IsDigit(ed.token()) {
		n, err := ed.scanNumber()
		if err != nil {
			return err
		}
		if n > math.MaxInt32 {
			return parse.ErrOutOfRange
		}
		if n > 0 {
			ed.sig.SetWindowLines(n)
		}
	}
	ed.cs = suffixPrint
	if err := ed.getSuffix(); err != nil {
		return err
	}
	end := ed.second + ed.sig.WindowLines() - 1
	if end > len(ed.file.lines) {
		end = len(ed.file.lines)
	}
	return ed.display(ctx, ed.second, end, ed.cs)
}

func cmdLineCount(ctx context.Context, ed *Editor) error {
	ed.consume()
	if err := ed.getSuffix(); err != nil {
		return err
	}
	n := ed.second
	if ed.addrc < 1 {
		n = len(ed.file.lines)
	}
	fmt.Fprintln(ed.stdout, n)
	return nil
}

func cmdNone(ctx context.Context, ed *Editor) error {
	if ed.addrc == 0 {
		ed.second = ed.dot + 1
	}
	if ed.second < 1 || ed.second > len(ed.file.lines) {
		return ErrInvalidAddress
	}
	return ed.display(ctx, ed.second, ed.second, suffixPrint)
}
