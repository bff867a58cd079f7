package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"implint/internal/lint"
)

var (
	checkFormat   string
	checkStrict   bool
	checkBaseline bool
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Report unused and missing imports without changing files",
	Long: `Check Swift sources against the semantic index and report imports that
are never used. With --strict, modules that are used without an explicit
import are reported as well.

Paths may name files or directories; without paths the configured include
roots are checked. Exits 1 when any violation has error severity.

Examples:
  implint check
  implint check Sources/App
  implint check --strict
  implint check --baseline
  implint check --format human`,
	Run: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkFormat, "format", "json", "Output format (json, human)")
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "Also report modules used without an explicit import")
	checkCmd.Flags().BoolVar(&checkBaseline, "baseline", false, "Filter out findings recorded in the baseline")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(checkFormat)

	repoRoot := mustGetRepoRoot()
	engine := mustGetEngine(repoRoot, logger)
	ctx := newContext()

	opts := lint.RunOptions{
		Paths: args,
		Mode:  lint.ModeCheck,
	}
	if checkBaseline {
		store := mustOpenBaseline(repoRoot, engine, logger, true)
		defer func() { _ = store.Close() }()
		opts.Baseline = store
	}

	report, err := engine.Run(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running check: %v\n", err)
		os.Exit(1)
	}

	cliResponse := convertCheckResponse(report)

	output, err := FormatResponse(cliResponse, OutputFormat(checkFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)

	logger.Debug("Check completed", map[string]interface{}{
		"violations": report.Summary.Violations,
		"duration":   time.Since(start).Milliseconds(),
	})

	if report.Summary.Errors > 0 {
		os.Exit(1)
	}
}

// CheckResponseCLI is the CLI response format for check runs.
type CheckResponseCLI struct {
	RunID      string          `json:"runId"`
	Files      []FileReportCLI `json:"files,omitempty"`
	Summary    SummaryCLI      `json:"summary"`
	StaleFiles int             `json:"staleFiles,omitempty"`
	DurationMs int64           `json:"durationMs"`
}

func convertCheckResponse(report *lint.Report) *CheckResponseCLI {
	return &CheckResponseCLI{
		RunID:      report.RunID,
		Files:      convertFileReports(report),
		Summary:    convertSummary(report.Summary),
		StaleFiles: report.StaleFiles,
		DurationMs: report.DurationMs,
	}
}

// formatCheckHuman formats a check response for human reading.
func formatCheckHuman(resp *CheckResponseCLI) string {
	var sb strings.Builder

	sb.WriteString("Import Check\n")
	sb.WriteString("━━━━━━━━━━━━\n\n")

	if resp.Summary.Violations == 0 {
		sb.WriteString("No violations found.\n")
	}

	for _, file := range resp.Files {
		if file.Skipped != "" {
			sb.WriteString(fmt.Sprintf("  ~ %s (skipped: %s)\n\n", file.Path, file.Skipped))
			continue
		}
		for _, v := range file.Violations {
			marker := "!"
			if v.Severity == "error" {
				marker = "✗"
			}
			sb.WriteString(fmt.Sprintf("  %s %s:%d:%d\n", marker, file.Path, v.Line, v.Column))
			sb.WriteString(fmt.Sprintf("    %s (%s)\n", v.Message, v.Rule))
			sb.WriteString("\n")
		}
	}

	if resp.StaleFiles > 0 {
		sb.WriteString(fmt.Sprintf("Warning: %d file(s) changed since the index was built; findings may be out of date.\n\n", resp.StaleFiles))
	}

	sb.WriteString("Summary:\n")
	sb.WriteString("━━━━━━━\n")
	sb.WriteString(fmt.Sprintf("  Files analyzed: %d\n", resp.Summary.Files))
	sb.WriteString(fmt.Sprintf("  Violations: %d (%d errors, %d warnings)\n",
		resp.Summary.Violations, resp.Summary.Errors, resp.Summary.Warnings))
	if resp.Summary.Suppressed > 0 {
		sb.WriteString(fmt.Sprintf("  Suppressed: %d\n", resp.Summary.Suppressed))
	}
	if resp.Summary.Baselined > 0 {
		sb.WriteString(fmt.Sprintf("  Baselined: %d\n", resp.Summary.Baselined))
	}

	return sb.String()
}
