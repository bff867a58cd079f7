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
	fixFormat string
	fixStrict bool
)

var fixCmd = &cobra.Command{
	Use:   "fix [paths...]",
	Short: "Remove unused imports and sort import blocks in place",
	Long: `Rewrite Swift sources: delete imports that are never used and re-sort
import blocks. With --strict, imports for modules that are used without a
declaration are inserted as well.

Fix honors inline suppression comments and leaves files without findings
untouched.

Examples:
  implint fix
  implint fix Sources/App
  implint fix --strict`,
	Run: runFix,
}

func init() {
	fixCmd.Flags().StringVar(&fixFormat, "format", "json", "Output format (json, human)")
	fixCmd.Flags().BoolVar(&fixStrict, "strict", false, "Also insert imports for modules used without one")
	rootCmd.AddCommand(fixCmd)
}

func runFix(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(fixFormat)

	repoRoot := mustGetRepoRoot()
	engine := mustGetEngine(repoRoot, logger)
	ctx := newContext()

	report, err := engine.Run(ctx, lint.RunOptions{
		Paths: args,
		Mode:  lint.ModeFix,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running fix: %v\n", err)
		os.Exit(1)
	}

	cliResponse := convertFixResponse(report)

	output, err := FormatResponse(cliResponse, OutputFormat(fixFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)

	logger.Debug("Fix completed", map[string]interface{}{
		"corrections": report.Summary.Corrections,
		"duration":    time.Since(start).Milliseconds(),
	})
}

// FixResponseCLI is the CLI response format for fix runs.
type FixResponseCLI struct {
	RunID      string          `json:"runId"`
	Files      []FileReportCLI `json:"files,omitempty"`
	Summary    SummaryCLI      `json:"summary"`
	StaleFiles int             `json:"staleFiles,omitempty"`
	DurationMs int64           `json:"durationMs"`
}

func convertFixResponse(report *lint.Report) *FixResponseCLI {
	return &FixResponseCLI{
		RunID:      report.RunID,
		Files:      convertFileReports(report),
		Summary:    convertSummary(report.Summary),
		StaleFiles: report.StaleFiles,
		DurationMs: report.DurationMs,
	}
}

// formatFixHuman formats a fix response for human reading.
func formatFixHuman(resp *FixResponseCLI) string {
	var sb strings.Builder

	sb.WriteString("Import Fix\n")
	sb.WriteString("━━━━━━━━━━\n\n")

	if resp.Summary.Corrections == 0 {
		sb.WriteString("Nothing to fix.\n")
	}

	for _, file := range resp.Files {
		if file.Skipped != "" {
			sb.WriteString(fmt.Sprintf("  ~ %s (skipped: %s)\n", file.Path, file.Skipped))
			continue
		}
		if len(file.Corrections) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s:\n", file.Path))
		for _, c := range file.Corrections {
			sb.WriteString(fmt.Sprintf("    ✓ %s (line %d)\n", c.Message, c.Line))
		}
		sb.WriteString("\n")
	}

	if resp.StaleFiles > 0 {
		sb.WriteString(fmt.Sprintf("Warning: %d file(s) changed since the index was built; fixes were based on stale data.\n\n", resp.StaleFiles))
	}

	sb.WriteString("Summary:\n")
	sb.WriteString("━━━━━━━\n")
	sb.WriteString(fmt.Sprintf("  Files analyzed: %d\n", resp.Summary.Files))
	sb.WriteString(fmt.Sprintf("  Corrections applied: %d\n", resp.Summary.Corrections))

	return sb.String()
}
