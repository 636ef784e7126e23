// Package parse holds the small scanners shared by the command parser.
package parse

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

var (
	ErrBadNumber  = errors.New("bad numerical result")
	ErrOutOfRange = errors.New("numerical result out of range")
)

// ParseInt reads a base-10 integer from the front of text, after optional
// blanks and sign, and returns it with the unread remainder. On failure the
// value is 0; if no digits were found the remainder is text itself.
func ParseInt(text string) (int, string, error) {
	s := strings.TrimLeftFunc(text, unicode.IsSpace)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := i
	for i < len(s) && '0' <= s[i] && s[i] <= '9' {
		i++
	}
	if i == digits {
		return 0, text, ErrBadNumber
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, s[i:], ErrOutOfRange
		}
		return 0, text, ErrBadNumber
	}
	return n, s[i:], nil
}

// SkipBlanks drops leading white space other than newlines.
func SkipBlanks(s string) string {
	return strings.TrimLeftFunc(s, func(r rune) bool {
		return r != '\n' && unicode.IsSpace(r)
	})
}
