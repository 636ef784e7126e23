package parse

import (
	"github.com/pkg/errors"

	"github.com/thimc/edsafe/internal/buffer"
)

var ErrTooLong = errors.New("filename too long")

// Unescaper removes backslash escapes from names of at most limit bytes.
// It keeps one scratch buffer for its lifetime.
type Unescaper struct {
	gate  buffer.Gate
	limit int
	buf   buffer.Buffer
}

func NewUnescaper(g buffer.Gate, limit int) *Unescaper {
	return &Unescaper{gate: g, limit: limit}
}

// Strip returns s with every backslash replaced by the byte that follows
// it. A trailing backslash is kept.
func (u *Unescaper) Strip(s string) (string, error) {
	if len(s) > u.limit {
		return "", ErrTooLong
	}
	if err := buffer.Grow(u.gate, &u.buf, u.limit+1); err != nil {
		return "", err
	}
	p := u.buf.Bytes()
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		p[n] = s[i]
		n++
	}
	return string(p[:n]), nil
}
