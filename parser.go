package main

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/thimc/edsafe/internal/parse"
)

// parse reads the addresses in front of the command. Afterwards first and
// second hold the range and addrc the number of addresses given, at most 2.
func (ed *Editor) parse() error {
	ed.addrc = 0
	ed.first, ed.second = ed.dot, ed.dot
	ed.skipWhitespace()
	if ed.match(",%;") {
		r := ed.token()
		ed.consume()
		ed.first = 1
		if r == ';' {
			ed.first = ed.dot
		}
		addr, err := ed.nextAddress()
		if err != nil {
			return err
		}
		if addr < 0 {
			addr = len(ed.file.lines)
		}
		ed.second = addr
		ed.addrc = 2
		return nil
	}
	for {
		addr, err := ed.nextAddress()
		if err != nil {
			return err
		}
		if addr < 0 {
			break
		}
		ed.addrc++
		ed.first, ed.second = ed.second, addr
		ed.skipWhitespace()
		r := ed.token()
		if r != ',' && r != ';' {
			break
		}
		ed.consume()
		if r == ';' {
			ed.dot = addr
		}
	}
	if ed.addrc > 2 {
		ed.addrc = 2
	}
	if ed.addrc == 1 {
		ed.first = ed.second
	}
	return nil
}

// nextAddress reads a single address and its offsets. It returns -1 when
// there is no address at the current position.
func (ed *Editor) nextAddress() (int, error) {
	var (
		addr = ed.dot
		seen bool
		err  error
	)
	ed.skipWhitespace()
	switch r := ed.token(); {
	case unicode.IsDigit(r):
		if addr, err = ed.scanNumber(); err != nil {
			return -1, err
		}
		seen = true
	case r == '.' || r == '$':
		ed.consume()
		if r == '$' {
			addr = len(ed.file.lines)
		}
		seen = true
	case r == '/' || r == '?':
		ed.consume()
		if addr, err = ed.search(r); err != nil {
			return -1, err
		}
		seen = true
	case r == '\'':
		ed.consume()
		m := ed.token()
		if m < 'a' || m > 'z' {
			return -1, ErrInvalidMark
		}
		ed.consume()
		addr = ed.mark[m-'a']
		if addr < 1 || addr > len(ed.file.lines) {
			return -1, ErrInvalidAddress
		}
		seen = true
	}
	for {
		ed.skipWhitespace()
		r := ed.token()
		if r != '+' && r != '-' && r != '^' {
			break
		}
		ed.consume()
		n := 1
		if unicode.IsDigit(ed.token()) {
			if n, err = ed.scanNumber(); err != nil {
				return -1, err
			}
		}
		if r == '+' {
			addr += n
		} else {
			addr -= n
		}
		seen = true
	}
	if !seen {
		return -1, nil
	}
	if addr < 0 || addr > len(ed.file.lines) {
		return -1, ErrInvalidAddress
	}
	return addr, nil
}

// search finds the next line matching the pattern that follows, forwards
// for / and backwards for ?, wrapping around the buffer.
func (ed *Editor) search(dir rune) (int, error) {
	pattern, _ := ed.scanStringUntil(dir)
	re, err := ed.compile(pattern)
	if err != nil {
		return -1, err
	}
	n := len(ed.file.lines)
	for k := 1; k <= n; k++ {
		i := (ed.dot + k - 1) % n
		if dir == '?' {
			i = ((ed.dot-1-k)%n + n) % n
		}
		if re.MatchString(ed.file.lines[i]) {
			return i + 1, nil
		}
	}
	return -1, ErrNoMatch
}

// compile compiles pattern and remembers it. An empty pattern reuses the
// previous one.
func (ed *Editor) compile(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		if ed.re == nil {
			return nil, ErrNoPrevPattern
		}
		return ed.re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	ed.re = re
	return re, nil
}

// getThirdAddr parses the destination of m and t, leaving the range as it
// was.
func (ed *Editor) getThirdAddr() (int, error) {
	first, second, addrc := ed.first, ed.second, ed.addrc
	defer func() { ed.first, ed.second, ed.addrc = first, second, addrc }()
	if err := ed.parse(); err != nil {
		return 0, err
	}
	if ed.addrc == 0 {
		return 0, ErrDestinationExpected
	}
	return ed.second, nil
}

// scanNumber reads a decimal number at the current position.
func (ed *Editor) scanNumber() (int, error) {
	n, rest, err := parse.ParseInt(ed.rest())
	if err != nil {
		return 0, err
	}
	ed.pos = len(ed.buf) - len(rest)
	return n, nil
}

// scanStringUntil reads up to and including an unescaped delim. An
// escaped delim loses its backslash; other escapes are kept as they are.
// The boolean reports whether delim was found before the end of the line.
func (ed *Editor) scanStringUntil(delim rune) (string, bool) {
	var sb strings.Builder
	for r := ed.token(); r != EOF; r = ed.token() {
		ed.consume()
		if r == delim {
			return sb.String(), true
		}
		if r == '\\' && ed.token() != EOF {
			if next := ed.token(); next != delim {
				sb.WriteRune(r)
			}
			r = ed.token()
			ed.consume()
		}
		sb.WriteRune(r)
	}
	return sb.String(), false
}

// filename returns the rest of the line as a file name with its escapes
// removed.
func (ed *Editor) filename() (string, error) {
	name := parse.SkipBlanks(ed.rest())
	ed.pos = len(ed.buf)
	if strings.HasPrefix(name, "!") {
		return "", ErrInvalidRedirection
	}
	return ed.names.Strip(name)
}

func (ed *Editor) skipWhitespace() {
	for ed.token() == ' ' || ed.token() == '\t' {
		ed.consume()
	}
}
