package sortedimports

import (
	"regexp"
	"sort"
	"strings"

	"implint/internal/source"
)

// importLineRe matches one import declaration line and captures the
// imported module path. Attributes and import-kind keywords sit outside
// the capture so they do not affect ordering.
var importLineRe = regexp.MustCompile(`^[ \t]*(?:@\w+(?:\([^)\n]*\))?[ \t]+)*import[ \t]+(?:\w+[ \t]+)?([A-Za-z_][\w.]*)`)

// importLine is one line of an import block.
type importLine struct {
	line   uint32
	text   string // without trailing newline
	module string
}

// key is the ordering key: the module path, case-insensitive.
func (l importLine) key() string {
	return strings.ToLower(l.module)
}

// block is a maximal run of consecutive import lines. Any other line,
// blank lines included, ends a run.
type block struct {
	lines []importLine
}

func (b block) start() uint32 { return b.lines[0].line }
func (b block) end() uint32   { return b.lines[len(b.lines)-1].line }

// sorted reports whether the block is already in ascending order.
func (b block) sorted() bool {
	for i := 1; i < len(b.lines); i++ {
		if b.lines[i].key() < b.lines[i-1].key() {
			return false
		}
	}
	return true
}

// sortedLines returns the block's lines reordered by key. The sort is
// stable, so duplicate modules keep their relative order.
func (b block) sortedLines() []importLine {
	out := make([]importLine, len(b.lines))
	copy(out, b.lines)
	sort.SliceStable(out, func(i, j int) bool { return out[i].key() < out[j].key() })
	return out
}

// byteRange returns the block's span in the file, through the last
// line's newline when it has one.
func (b block) byteRange(f *source.File) source.Range {
	start, _ := f.Offset(b.start(), 0)
	end := f.Len()
	if next := int(b.end()) + 1; next < f.LineCount() {
		if off, ok := f.Offset(uint32(next), 0); ok {
			end = off
		}
	}
	return source.Range{Start: start, End: end}
}

// render rebuilds the block text in sorted order. trailingNewline
// mirrors whether the original block's last line ended with one.
func (b block) render(trailingNewline bool) string {
	var out strings.Builder
	lines := b.sortedLines()
	for i, l := range lines {
		out.WriteString(l.text)
		if i < len(lines)-1 || trailingNewline {
			out.WriteByte('\n')
		}
	}
	return out.String()
}

// scanBlocks finds every import block in the file, in document order.
func scanBlocks(f *source.File) []block {
	var blocks []block
	var current []importLine

	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, block{lines: current})
			current = nil
		}
	}

	for line := 0; line < f.LineCount(); line++ {
		text := f.LineText(uint32(line))
		m := importLineRe.FindStringSubmatch(text)
		if m == nil {
			flush()
			continue
		}
		current = append(current, importLine{line: uint32(line), text: text, module: m[1]})
	}
	flush()
	return blocks
}
