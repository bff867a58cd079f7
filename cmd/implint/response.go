package main

import (
	"implint/internal/lint"
	"implint/internal/rule"
)

// ViolationCLI is a single finding in CLI format. Line and Column are
// 1-based for display; the engine works in 0-based positions.
type ViolationCLI struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Line     uint32 `json:"line"`
	Column   uint32 `json:"column"`
	Message  string `json:"message"`
	Module   string `json:"module,omitempty"`
}

// CorrectionCLI is a single applied fix in CLI format.
type CorrectionCLI struct {
	Rule    string `json:"rule"`
	Line    uint32 `json:"line"`
	Message string `json:"message"`
}

// FileReportCLI is the per-file slice of a lint report. Only files with
// something to report are included.
type FileReportCLI struct {
	Path        string          `json:"path"`
	Violations  []ViolationCLI  `json:"violations,omitempty"`
	Corrections []CorrectionCLI `json:"corrections,omitempty"`
	Stale       bool            `json:"stale,omitempty"`
	Skipped     string          `json:"skipped,omitempty"`
}

// SummaryCLI aggregates a lint run in CLI format.
type SummaryCLI struct {
	Files       int            `json:"files"`
	Violations  int            `json:"violations"`
	Errors      int            `json:"errors"`
	Warnings    int            `json:"warnings"`
	Corrections int            `json:"corrections,omitempty"`
	Suppressed  int            `json:"suppressed,omitempty"`
	Baselined   int            `json:"baselined,omitempty"`
	ByRule      map[string]int `json:"byRule,omitempty"`
}

func convertViolation(v rule.Violation) ViolationCLI {
	return ViolationCLI{
		Rule:     v.Rule,
		Severity: string(v.Severity),
		Line:     v.Location.Line + 1,
		Column:   v.Location.Column + 1,
		Message:  v.Message,
		Module:   v.Module,
	}
}

func convertCorrection(c rule.Correction) CorrectionCLI {
	return CorrectionCLI{
		Rule:    c.Rule,
		Line:    c.Location.Line + 1,
		Message: c.Message,
	}
}

// convertFileReports keeps the files worth mentioning: those with
// findings, corrections, a stale index, or a skip reason.
func convertFileReports(report *lint.Report) []FileReportCLI {
	var files []FileReportCLI
	for _, res := range report.Results {
		if len(res.Violations) == 0 && len(res.Corrections) == 0 && !res.Stale && res.Skipped == "" {
			continue
		}
		fr := FileReportCLI{
			Path:    res.Path,
			Stale:   res.Stale,
			Skipped: res.Skipped,
		}
		for _, v := range res.Violations {
			fr.Violations = append(fr.Violations, convertViolation(v))
		}
		for _, c := range res.Corrections {
			fr.Corrections = append(fr.Corrections, convertCorrection(c))
		}
		files = append(files, fr)
	}
	return files
}

func convertSummary(s lint.Summary) SummaryCLI {
	return SummaryCLI{
		Files:       s.Files,
		Violations:  s.Violations,
		Errors:      s.Errors,
		Warnings:    s.Warnings,
		Corrections: s.Corrections,
		Suppressed:  s.Suppressed,
		Baselined:   s.Baselined,
		ByRule:      s.ByRule,
	}
}
