// Package source models a single source file as mutable text with a line
// table. Rules locate findings as byte ranges against the current
// contents, apply edits in memory, and write the result back. Offsets are
// byte offsets; lines and columns follow the index convention (0-based,
// columns counted in bytes).
package source

import (
	"io/fs"
	"os"
	"regexp"
)

// Range is a half-open byte range [Start, End) within a file.
type Range struct {
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() uint32 {
	return r.End - r.Start
}

// File holds the contents of one source file plus its line table.
type File struct {
	path       string
	contents   []byte
	mode       fs.FileMode
	lineStarts []uint32
}

// Load reads a file from disk.
func Load(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f := &File{path: path, contents: data, mode: info.Mode().Perm()}
	f.reindex()
	return f, nil
}

// New creates an in-memory file. Write stores it at path with mode 0644.
func New(path string, contents []byte) *File {
	f := &File{path: path, contents: contents, mode: 0o644}
	f.reindex()
	return f
}

// Path returns the file's path.
func (f *File) Path() string {
	return f.path
}

// Contents returns the current (possibly edited) contents.
func (f *File) Contents() []byte {
	return f.contents
}

// Len returns the current length in bytes.
func (f *File) Len() uint32 {
	return uint32(len(f.contents))
}

// Reload re-reads the file from disk, discarding in-memory edits.
func (f *File) Reload() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	f.contents = data
	f.reindex()
	return nil
}

// Write stores the current contents back to disk.
func (f *File) Write() error {
	return os.WriteFile(f.path, f.contents, f.mode)
}

func (f *File) reindex() {
	f.lineStarts = f.lineStarts[:0]
	f.lineStarts = append(f.lineStarts, 0)
	for i, b := range f.contents {
		if b == '\n' && i+1 < len(f.contents) {
			f.lineStarts = append(f.lineStarts, uint32(i+1))
		}
	}
}

// LineCount returns the number of lines (a trailing newline does not open
// a new line).
func (f *File) LineCount() int {
	if len(f.contents) == 0 {
		return 0
	}
	return len(f.lineStarts)
}

// Offset converts a 0-based line and byte column to an absolute offset.
// Returns false when the position does not lie on the named line.
func (f *File) Offset(line, column uint32) (uint32, bool) {
	if int(line) >= len(f.lineStarts) {
		return 0, false
	}
	off := f.lineStarts[line] + column
	end := f.lineEnd(line)
	if off > end {
		return 0, false
	}
	return off, true
}

// Position converts an absolute offset back to a 0-based line and column.
func (f *File) Position(offset uint32) (line, column uint32) {
	if offset > f.Len() {
		offset = f.Len()
	}
	lo, hi := 0, len(f.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if f.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return uint32(lo), offset - f.lineStarts[lo]
}

// lineEnd returns the offset one past the last byte of the line,
// excluding its newline.
func (f *File) lineEnd(line uint32) uint32 {
	next := f.Len()
	if int(line)+1 < len(f.lineStarts) {
		next = f.lineStarts[line+1]
	}
	if next > f.lineStarts[line] && next <= f.Len() && next > 0 && f.contents[next-1] == '\n' {
		return next - 1
	}
	return next
}

// LineRange expands an offset to the whole line containing it, including
// the trailing newline when present.
func (f *File) LineRange(offset uint32) Range {
	line, _ := f.Position(offset)
	start := f.lineStarts[line]
	end := f.Len()
	if int(line)+1 < len(f.lineStarts) {
		end = f.lineStarts[line+1]
	}
	return Range{Start: start, End: end}
}

// LineStart returns the offset of the first byte of the line containing
// offset.
func (f *File) LineStart(offset uint32) uint32 {
	line, _ := f.Position(offset)
	return f.lineStarts[line]
}

// LineText returns the text of the 0-based line without its newline.
func (f *File) LineText(line uint32) string {
	if int(line) >= len(f.lineStarts) {
		return ""
	}
	return string(f.contents[f.lineStarts[line]:f.lineEnd(line)])
}

// Erase removes the bytes in r from the file and rebuilds the line table.
func (f *File) Erase(r Range) {
	if r.Start > f.Len() {
		return
	}
	if r.End > f.Len() {
		r.End = f.Len()
	}
	f.contents = append(f.contents[:r.Start:r.Start], f.contents[r.End:]...)
	f.reindex()
}

// Insert places text at offset and rebuilds the line table.
func (f *File) Insert(offset uint32, text string) {
	if offset > f.Len() {
		offset = f.Len()
	}
	out := make([]byte, 0, len(f.contents)+len(text))
	out = append(out, f.contents[:offset]...)
	out = append(out, text...)
	out = append(out, f.contents[offset:]...)
	f.contents = out
	f.reindex()
}

// Search returns the ranges of all matches of re in the current contents.
func (f *File) Search(re *regexp.Regexp) []Range {
	matches := re.FindAllIndex(f.contents, -1)
	if matches == nil {
		return nil
	}
	ranges := make([]Range, len(matches))
	for i, m := range matches {
		ranges[i] = Range{Start: uint32(m[0]), End: uint32(m[1])}
	}
	return ranges
}

// SearchFirst returns the range of the first match of re, if any.
func (f *File) SearchFirst(re *regexp.Regexp) (Range, bool) {
	m := re.FindIndex(f.contents)
	if m == nil {
		return Range{}, false
	}
	return Range{Start: uint32(m[0]), End: uint32(m[1])}, true
}
