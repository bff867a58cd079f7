// Package sortedimports implements the sorted_imports rule: each
// contiguous block of import declarations must be in ascending
// case-insensitive order. Its fix pass doubles as the ordering step the
// unused_import corrector runs after inserting missing imports.
package sortedimports

import (
	"context"
	"fmt"
	"sort"

	"implint/internal/config"
	"implint/internal/logging"
	"implint/internal/rule"
)

// RuleName is the identifier in config, reports, and suppressions.
const RuleName = "sorted_imports"

// Rule carries the configured state of one lint run.
type Rule struct {
	logger   *logging.Logger
	severity rule.Severity
}

// New creates the rule with default settings.
func New(logger *logging.Logger) *Rule {
	return &Rule{logger: logger, severity: rule.SeverityWarning}
}

func (r *Rule) Name() string { return RuleName }

func (r *Rule) Description() string {
	return "Import declarations must be sorted in ascending case-insensitive order"
}

func (r *Rule) DefaultSeverity() rule.Severity { return rule.SeverityWarning }

func (r *Rule) EnabledByDefault() bool { return true }

func (r *Rule) Configure(cfg config.RuleConfig) error {
	r.severity = rule.ParseSeverity(cfg.Severity, r.DefaultSeverity())
	return nil
}

// Check reports one violation per import line that sorts before its
// predecessor within a block.
func (r *Rule) Check(ctx context.Context, target *rule.Target) ([]rule.Violation, error) {
	var violations []rule.Violation
	for _, b := range scanBlocks(target.File) {
		for i := 1; i < len(b.lines); i++ {
			if b.lines[i].key() >= b.lines[i-1].key() {
				continue
			}
			offset, _ := target.File.Offset(b.lines[i].line, 0)
			violations = append(violations, rule.Violation{
				Rule:     RuleName,
				Severity: r.severity,
				Location: rule.Location{Path: target.RelPath, Offset: offset, Line: b.lines[i].line},
				Message:  fmt.Sprintf("Import of '%s' is out of sorted order", b.lines[i].module),
				Module:   b.lines[i].module,
			})
		}
	}
	return violations, nil
}

// Fix rewrites every unsorted block in place. Blocks are processed from
// the bottom of the file up so the ranges of earlier blocks stay valid,
// and the file is written back after each rewrite.
func (r *Rule) Fix(ctx context.Context, target *rule.Target) ([]rule.Correction, error) {
	suppressions := rule.ParseSuppressions(target.File)

	blocks := scanBlocks(target.File)
	var corrections []rule.Correction
	for i := len(blocks) - 1; i >= 0; i-- {
		b := blocks[i]
		if b.sorted() || suppressions.Suppressed(RuleName, b.start()) {
			continue
		}

		rng := b.byteRange(target.File)
		trailingNewline := rng.End > rng.Start && target.File.Contents()[rng.End-1] == '\n'

		target.File.Erase(rng)
		target.File.Insert(rng.Start, b.render(trailingNewline))
		if err := target.File.Write(); err != nil {
			return corrections, err
		}

		line, column := target.File.Position(rng.Start)
		corrections = append(corrections, rule.Correction{
			Rule:     RuleName,
			Location: rule.Location{Path: target.RelPath, Offset: rng.Start, Line: line, Column: column},
			Message:  fmt.Sprintf("Sorted %d imports", len(b.lines)),
		})
	}

	sort.Slice(corrections, func(i, j int) bool {
		return corrections[i].Location.Offset < corrections[j].Location.Offset
	})
	return corrections, nil
}
