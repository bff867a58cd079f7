package lint

import (
	"implint/internal/rule"
)

// FileResult is the outcome for one analyzed file.
type FileResult struct {
	// Path is relative to the repo root, forward slashes.
	Path string `json:"path"`

	// Violations found by check mode, after suppression and baseline
	// filtering.
	Violations []rule.Violation `json:"violations,omitempty"`

	// Corrections applied by fix mode.
	Corrections []rule.Correction `json:"corrections,omitempty"`

	// Stale marks a file modified after the semantic index was built;
	// its findings may not reflect the current text.
	Stale bool `json:"stale,omitempty"`

	// Skipped carries the reason when the file could not be analyzed.
	Skipped string `json:"skipped,omitempty"`
}

// Summary provides aggregate statistics for a run.
type Summary struct {
	// Files is the number of files analyzed.
	Files int `json:"files"`

	// Violations is the number reported after filtering.
	Violations int `json:"violations"`

	// Errors is the subset of violations at error severity.
	Errors int `json:"errors"`

	// Warnings is the subset of violations at warning severity.
	Warnings int `json:"warnings"`

	// Corrections is the number of applied fixes.
	Corrections int `json:"corrections"`

	// Suppressed counts violations silenced by in-source commands.
	Suppressed int `json:"suppressed,omitempty"`

	// Baselined counts violations filtered by the baseline.
	Baselined int `json:"baselined,omitempty"`

	// ByRule breaks down reported violations by rule name.
	ByRule map[string]int `json:"byRule,omitempty"`
}

// Report is the output of one lint run.
type Report struct {
	// RunID uniquely identifies the run.
	RunID string `json:"runId"`

	// Mode is "check" or "fix".
	Mode string `json:"mode"`

	// DurationMs is the wall-clock run time.
	DurationMs int64 `json:"durationMs"`

	// StaleFiles counts files newer than the semantic index.
	StaleFiles int `json:"staleFiles,omitempty"`

	// Results holds one entry per analyzed file, in path order.
	Results []FileResult `json:"results"`

	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`
}

// Violations flattens the per-file violations in report order.
func (r *Report) Violations() []rule.Violation {
	var out []rule.Violation
	for _, res := range r.Results {
		out = append(out, res.Violations...)
	}
	return out
}
