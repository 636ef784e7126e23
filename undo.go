package main

// undo keeps the buffer as it was before the last command that changed
// it. Undoing swaps the two, so a second undo redoes.
type undo struct {
	prev    []string
	prevDot int
	ok      bool
}

func (u *undo) checkpoint(lines []string, dot int) {
	u.prev = append(u.prev[:0:0], lines...)
	u.prevDot = dot
	u.ok = true
}

func (u *undo) reset() { *u = undo{} }

func (u *undo) pop(ed *Editor) error {
	if !u.ok {
		return ErrNothingToUndo
	}
	lines, dot := u.prev, u.prevDot
	u.prev, u.prevDot = ed.file.lines, ed.dot
	ed.file.lines, ed.dot = lines, dot
	ed.file.dirty = true
	return nil
}
