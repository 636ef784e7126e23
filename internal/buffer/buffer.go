// Package buffer grows scratch buffers inside the signal gate so a handler
// never sees one half-reallocated.
package buffer

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrMemoryExhausted is returned when a buffer cannot be grown.
var ErrMemoryExhausted = errors.New("memory exhausted")

const chunk = 512

// Gate defers signal effects between Enter and Leave.
type Gate interface {
	Enter()
	Leave() error
}

// Buffer is a scratch byte region owned by a single caller. Its capacity
// only grows.
type Buffer struct {
	b []byte
}

// Bytes returns the whole region; its length is Cap.
func (b *Buffer) Bytes() []byte { return b.b }

// Cap returns the size of the region.
func (b *Buffer) Cap() int { return len(b.b) }

// Release drops the region.
func (b *Buffer) Release() { b.b = nil }

// Size returns the capacity Grow allocates for a request of min bytes.
func Size(min int) int {
	if min < chunk {
		return chunk
	}
	return (min / chunk) * 2 * chunk
}

var alloc = func(n int) []byte { return make([]byte, n) }

// Grow makes sure b holds at least min bytes, keeping its contents. The
// reallocation happens inside g. A failed allocation is reported as
// ErrMemoryExhausted after the gate is released; an interrupt replayed by
// the release takes precedence.
func Grow(g Gate, b *Buffer, min int) error {
	if b.Cap() > 0 && b.Cap() >= min {
		return nil
	}
	size := Size(min)
	g.Enter()
	p, err := allocate(size)
	if err == nil && size < min {
		err = errors.Wrapf(ErrMemoryExhausted, "%d bytes requested", min)
	}
	if err != nil {
		if lerr := g.Leave(); lerr != nil {
			logrus.WithError(err).WithField("size", size).Debug("allocation failure superseded by interrupt")
			return lerr
		}
		return err
	}
	copy(p, b.b)
	b.b = p
	return g.Leave()
}

func allocate(n int) (p []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrap(ErrMemoryExhausted, fmt.Sprint(r))
		}
	}()
	return alloc(n), nil
}
