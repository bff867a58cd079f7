package unusedimport

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"implint/internal/rule"
)

// importAnchorRe locates the first import statement; missing imports
// are inserted at the start of its line.
var importAnchorRe = regexp.MustCompile(`(?m)^[ \t]*(?:@\w+(?:\([^)\n]*\))?[ \t]+)*import[ \t]+\w`)

// applyCorrections mutates the file: unused import lines are erased
// from the highest offset down, then missing imports are inserted as
// one sorted block, then the sorter pass (when wired) normalizes the
// surviving import order. The file is written back after every
// mutation, so an interrupted pass leaves behind only whole edits.
//
// Deletion order is a hard invariant: erasing a later range never
// shifts an earlier one, while the reverse order would invalidate every
// range behind the first edit.
func (r *Rule) applyCorrections(ctx context.Context, target *rule.Target, c classification) ([]rule.Correction, error) {
	var corrections []rule.Correction

	suppressions := rule.ParseSuppressions(target.File)

	deletions := make([]unusedImport, 0, len(c.unused))
	for _, u := range c.unused {
		if !u.hasRange {
			// No locatable line; reportable, but not erasable.
			continue
		}
		line, _ := target.File.Position(u.rng.Start)
		if suppressions.Suppressed(r.Name(), line) {
			continue
		}
		deletions = append(deletions, u)
	}
	sort.Slice(deletions, func(i, j int) bool { return deletions[i].rng.Start > deletions[j].rng.Start })

	for _, u := range deletions {
		line, column := target.File.Position(u.rng.Start)
		target.File.Erase(u.rng)
		if err := target.File.Write(); err != nil {
			return corrections, err
		}
		corrections = append(corrections, rule.Correction{
			Rule:     r.Name(),
			Location: rule.Location{Path: target.RelPath, Offset: u.rng.Start, Line: line, Column: column},
			Message:  fmt.Sprintf("Removed unused import '%s'", u.module),
		})
	}
	sort.Slice(corrections, func(i, j int) bool { return corrections[i].Location.Offset < corrections[j].Location.Offset })

	if len(c.missing) > 0 {
		offset := uint32(0)
		if rng, ok := target.File.SearchFirst(importAnchorRe); ok {
			offset = target.File.LineStart(rng.Start)
		}

		var block strings.Builder
		for _, module := range c.missing {
			block.WriteString("import ")
			block.WriteString(module)
			block.WriteString("\n")
		}
		target.File.Insert(offset, block.String())
		if err := target.File.Write(); err != nil {
			return corrections, err
		}

		line, column := target.File.Position(offset)
		for _, module := range c.missing {
			corrections = append(corrections, rule.Correction{
				Rule:     r.Name(),
				Location: rule.Location{Path: target.RelPath, Offset: offset, Line: line, Column: column},
				Message:  fmt.Sprintf("Added missing import '%s'", module),
			})
		}

		if r.sorter != nil {
			sorted, err := r.sorter.Fix(ctx, target)
			if err != nil {
				return corrections, err
			}
			corrections = append(corrections, sorted...)
		}
	}

	return corrections, nil
}
