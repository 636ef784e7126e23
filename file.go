package main

import (
	"bufio"
	"os"
	"strings"
)

type cursor struct {
	first  int
	second int
	dot    int // current address
	addrc  int // address count
}

type file struct {
	dirty bool               // modified state
	lines []string           // file content
	mark  ['z' - 'a' + 1]int // a to z
	path  string             // full file path to the file
}

func (f *file) append(dest int, lines []string) {
	buf := make([]string, 0, len(f.lines)+len(lines))
	buf = append(buf, f.lines[:dest]...)
	buf = append(buf, lines...)
	f.lines = append(buf, f.lines[dest:]...)
}

func (f *file) yank(start, end, dest int) int {
	buf := make([]string, end-start+1)
	copy(buf, f.lines[start-1:end])
	f.append(dest, buf)
	return len(buf)
}

func (f *file) delete(start, end int) {
	buf := make([]string, 0, len(f.lines)-(end-start+1))
	buf = append(buf, f.lines[:start-1]...)
	f.lines = append(buf, f.lines[end:]...)
}

func (f *file) join(start, end int) {
	joined := strings.Join(f.lines[start-1:end], "")
	f.delete(start, end)
	f.append(start-1, []string{joined})
}

func (f *file) move(start, end, dest int) int {
	buf := make([]string, end-start+1)
	copy(buf, f.lines[start-1:end])
	f.delete(start, end)
	if dest > start {
		dest -= (end - start + 1)
	}
	f.append(dest, buf)
	return dest + len(buf)
}

// size returns the number of bytes the lines occupy on disk.
func size(lines []string) int64 {
	n := int64(len(lines))
	for _, ln := range lines {
		n += int64(len(ln))
	}
	return n
}

// writeLines writes lines to path, each followed by a newline, creating or
// truncating the file unless appending.
func writeLines(path string, lines []string, appending bool) (int64, error) {
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if appending {
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	fp, err := os.OpenFile(path, flag, 0o666)
	if err != nil {
		return 0, err
	}
	w := bufio.NewWriter(fp)
	for _, ln := range lines {
		w.WriteString(ln)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		fp.Close()
		return 0, err
	}
	if err := fp.Close(); err != nil {
		return 0, err
	}
	return size(lines), nil
}
