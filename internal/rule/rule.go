// Package rule defines the lint rule contract: what a rule receives,
// what it reports, and how inline suppression comments are honored.
package rule

import (
	"context"

	"implint/internal/config"
	"implint/internal/semantic"
	"implint/internal/source"
	"implint/internal/syntax"
)

// Severity ranks a violation.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ParseSeverity maps a config string to a Severity, falling back to the
// given default for empty or unknown values.
func ParseSeverity(s string, fallback Severity) Severity {
	switch s {
	case "error":
		return SeverityError
	case "warning":
		return SeverityWarning
	}
	return fallback
}

// Location points at a byte in a file. Line and Column are 0-based.
type Location struct {
	Path   string `json:"path"`
	Offset uint32 `json:"offset"`
	Line   uint32 `json:"line"`
	Column uint32 `json:"column"`
}

// Violation is one finding against one file.
type Violation struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Location Location `json:"location"`
	Message  string   `json:"message"`

	// Module is the import the finding is about, when the rule deals
	// in modules. Baseline fingerprints include it.
	Module string `json:"module,omitempty"`
}

// Correction records one applied fix.
type Correction struct {
	Rule     string   `json:"rule"`
	Location Location `json:"location"`
	Message  string   `json:"message"`
}

// Target is the unit of work handed to a rule: one file plus everything
// known about how it is built. Tokens is nil when no parser is
// available; rules must degrade without it.
type Target struct {
	RepoRoot  string
	RelPath   string
	File      *source.File
	BuildArgs []string
	Tokens    []syntax.Token
	Service   semantic.Service
}

// Rule is the common surface of every lint rule.
type Rule interface {
	// Name is the rule identifier used in config, suppression
	// comments, and reports (lower_snake_case).
	Name() string

	// Description is a one-line summary for `implint rules`.
	Description() string

	// DefaultSeverity is used when config does not override it.
	DefaultSeverity() Severity

	// EnabledByDefault reports whether the rule runs without config.
	EnabledByDefault() bool

	// Configure applies rule settings. Called once before any checks.
	Configure(cfg config.RuleConfig) error
}

// CheckRule reports violations without touching the file.
type CheckRule interface {
	Rule
	Check(ctx context.Context, target *Target) ([]Violation, error)
}

// FixRule rewrites the file in place and reports what it changed.
// Implementations must leave the file untouched when nothing applies.
type FixRule interface {
	Rule
	Fix(ctx context.Context, target *Target) ([]Correction, error)
}
