package signals

import (
	"math"
	"sync/atomic"
)

const (
	defaultLines   = 22
	defaultColumns = 72
)

// geometry is written by the resize handler and read by paging code. The
// two values are independent; a reader may see a new row count with an
// old column count.
type geometry struct {
	lines   atomic.Int32
	columns atomic.Int32
}

func (g *geometry) reset() {
	g.lines.Store(defaultLines)
	g.columns.Store(defaultColumns)
}

// WindowLines returns the number of lines shown per page.
func (co *Coordinator) WindowLines() int { return int(co.geo.lines.Load()) }

// WindowColumns returns the width available for a listed line.
func (co *Coordinator) WindowColumns() int { return int(co.geo.columns.Load()) }

// SetWindowLines overrides the page size. Sizes below one or beyond the
// range of the stored value are ignored.
func (co *Coordinator) SetWindowLines(n int) {
	if n < 1 || n > math.MaxInt32 {
		return
	}
	co.geo.lines.Store(int32(n))
}

// SetGeometry records a terminal size of rows x cols, keeping two rows and
// eight columns for the editor itself. Readings outside 2 < rows < 600 or
// 8 < cols < 1800 are ignored.
func (co *Coordinator) SetGeometry(rows, cols int) {
	if rows > 2 && rows < 600 {
		co.geo.lines.Store(int32(rows - 2))
	}
	if cols > 8 && cols < 1800 {
		co.geo.columns.Store(int32(cols - 8))
	}
}

// Resize is the SIGWINCH handler.
func (co *Coordinator) Resize() {
	rows, cols, err := co.size()
	if err != nil {
		co.log.WithError(err).Debug("terminal size unavailable")
		return
	}
	co.SetGeometry(rows, cols)
}
