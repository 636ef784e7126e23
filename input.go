package main

import (
	"bufio"
	"context"
	"io"
	"strings"
	"unicode/utf8"
)

const EOF rune = -1

// input holds the command line being parsed. Lines are read by a separate
// goroutine so that a read can be abandoned when the command is
// interrupted; the line is then handed to the next read.
type input struct {
	feed <-chan string
	buf  string
	pos  int
}

func newInput(r io.Reader) input {
	ch := make(chan string)
	go func() {
		defer close(ch)
		if r == nil {
			return
		}
		s := bufio.NewScanner(r)
		for s.Scan() {
			ch <- s.Text()
		}
	}()
	return input{feed: ch}
}

func (i *input) match(s string) bool { return strings.ContainsRune(s, i.token()) }

func (i *input) doInput(s string) { i.buf, i.pos = s, 0 }

func (i *input) eof() bool { return i.pos >= len(i.buf) }

func (i *input) consume() {
	if i.eof() {
		return
	}
	_, n := utf8.DecodeRuneInString(i.buf[i.pos:])
	i.pos += n
}

func (i *input) token() rune {
	if i.eof() {
		return EOF
	}
	tok, _ := utf8.DecodeRuneInString(i.buf[i.pos:])
	return tok
}

// rest returns the unparsed part of the line.
func (i *input) rest() string { return i.buf[i.pos:] }

// scan reads the next line. It returns io.EOF at the end of input and the
// cancellation cause if ctx is done first.
func (i *input) scan(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case ln, ok := <-i.feed:
		if !ok {
			return io.EOF
		}
		i.doInput(ln)
		return nil
	}
}
