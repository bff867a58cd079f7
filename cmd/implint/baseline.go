package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"implint/internal/baseline"
	"implint/internal/lint"
	"implint/internal/logging"
	"implint/internal/paths"
)

var baselineFormat string

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Record and inspect accepted findings",
	Long: `Manage the finding baseline. Baselined findings are filtered out of
checks run with --baseline, so existing debt does not drown out new
violations.

Examples:
  implint baseline update
  implint baseline show
  implint check --baseline`,
}

var baselineUpdateCmd = &cobra.Command{
	Use:   "update [paths...]",
	Short: "Record the current findings as the accepted baseline",
	Long: `Run a full check and record every finding in the baseline database,
replacing the previous baseline.

Examples:
  implint baseline update
  implint baseline update Sources/App`,
	Run: runBaselineUpdate,
}

var baselineShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the recorded baseline findings",
	Run:   runBaselineShow,
}

func init() {
	baselineUpdateCmd.Flags().StringVar(&baselineFormat, "format", "json", "Output format (json, human)")
	baselineShowCmd.Flags().StringVar(&baselineFormat, "format", "json", "Output format (json, human)")

	baselineCmd.AddCommand(baselineUpdateCmd)
	baselineCmd.AddCommand(baselineShowCmd)
	rootCmd.AddCommand(baselineCmd)
}

// mustOpenBaseline opens the baseline database at the configured path.
// With mustExist set, a missing database is an error instead of being
// created empty.
func mustOpenBaseline(repoRoot string, engine *lint.Engine, logger *logging.Logger, mustExist bool) *baseline.Store {
	dbPath := paths.JoinRepoPath(repoRoot, engine.Config().Baseline.Path)

	if mustExist {
		if _, err := os.Stat(dbPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: no baseline recorded at %s\n", dbPath)
			fmt.Fprintln(os.Stderr, "Run 'implint baseline update' to record one.")
			os.Exit(1)
		}
	}

	store, err := baseline.OpenStore(dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening baseline: %v\n", err)
		os.Exit(1)
	}
	return store
}

func runBaselineUpdate(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(baselineFormat)

	repoRoot := mustGetRepoRoot()
	engine := mustGetEngine(repoRoot, logger)
	ctx := newContext()

	report, err := engine.Run(ctx, lint.RunOptions{
		Paths: args,
		Mode:  lint.ModeCheck,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running check: %v\n", err)
		os.Exit(1)
	}

	store := mustOpenBaseline(repoRoot, engine, logger, false)
	defer func() { _ = store.Close() }()

	if err := store.Update(report.RunID, report.Violations()); err != nil {
		fmt.Fprintf(os.Stderr, "Error updating baseline: %v\n", err)
		os.Exit(1)
	}

	cliResponse := &BaselineUpdateResponseCLI{
		RunID:    report.RunID,
		Recorded: report.Summary.Violations,
		Path:     store.Path(),
	}

	output, err := FormatResponse(cliResponse, OutputFormat(baselineFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)

	logger.Debug("Baseline update completed", map[string]interface{}{
		"recorded": report.Summary.Violations,
		"duration": time.Since(start).Milliseconds(),
	})
}

func runBaselineShow(cmd *cobra.Command, args []string) {
	logger := newLogger(baselineFormat)

	repoRoot := mustGetRepoRoot()
	engine := mustGetEngine(repoRoot, logger)

	store := mustOpenBaseline(repoRoot, engine, logger, true)
	defer func() { _ = store.Close() }()

	entries, err := store.Entries()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading baseline: %v\n", err)
		os.Exit(1)
	}
	lastRun, err := store.LastRun()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading baseline: %v\n", err)
		os.Exit(1)
	}

	cliResponse := convertBaselineShowResponse(store.Path(), entries, lastRun)

	output, err := FormatResponse(cliResponse, OutputFormat(baselineFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)
}

// BaselineUpdateResponseCLI is the CLI response format for baseline updates.
type BaselineUpdateResponseCLI struct {
	RunID    string `json:"runId"`
	Recorded int    `json:"recorded"`
	Path     string `json:"path"`
}

// BaselineShowResponseCLI is the CLI response format for baseline listing.
type BaselineShowResponseCLI struct {
	Path    string             `json:"path"`
	LastRun *BaselineRunCLI    `json:"lastRun,omitempty"`
	Entries []BaselineEntryCLI `json:"entries"`
}

// BaselineRunCLI describes the run that recorded the baseline.
type BaselineRunCLI struct {
	RunID      string `json:"runId"`
	RecordedAt string `json:"recordedAt"`
	Findings   int    `json:"findings"`
}

// BaselineEntryCLI is one accepted finding.
type BaselineEntryCLI struct {
	Rule    string `json:"rule"`
	Path    string `json:"path"`
	Module  string `json:"module,omitempty"`
	Message string `json:"message"`
}

func convertBaselineShowResponse(path string, entries []baseline.Entry, lastRun *baseline.Run) *BaselineShowResponseCLI {
	resp := &BaselineShowResponseCLI{
		Path:    path,
		Entries: make([]BaselineEntryCLI, 0, len(entries)),
	}
	if lastRun != nil {
		resp.LastRun = &BaselineRunCLI{
			RunID:      lastRun.ID,
			RecordedAt: lastRun.RecordedAt.Format(time.RFC3339),
			Findings:   lastRun.FindingCount,
		}
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, BaselineEntryCLI{
			Rule:    e.Rule,
			Path:    e.Path,
			Module:  e.Module,
			Message: e.Message,
		})
	}
	return resp
}

// formatBaselineUpdateHuman formats a baseline update for human reading.
func formatBaselineUpdateHuman(resp *BaselineUpdateResponseCLI) string {
	var sb strings.Builder

	sb.WriteString("Baseline Updated\n")
	sb.WriteString("━━━━━━━━━━━━━━━━\n\n")
	sb.WriteString(fmt.Sprintf("  Recorded %d finding(s) at %s\n", resp.Recorded, resp.Path))
	sb.WriteString("\nChecks run with --baseline will not report these findings again.\n")

	return sb.String()
}

// formatBaselineShowHuman formats the baseline listing for human reading.
func formatBaselineShowHuman(resp *BaselineShowResponseCLI) string {
	var sb strings.Builder

	sb.WriteString("Baseline\n")
	sb.WriteString("━━━━━━━━\n\n")

	if resp.LastRun != nil {
		sb.WriteString(fmt.Sprintf("  Recorded: %s (%d findings)\n\n", resp.LastRun.RecordedAt, resp.LastRun.Findings))
	}

	if len(resp.Entries) == 0 {
		sb.WriteString("  Baseline is empty.\n")
		return sb.String()
	}

	for _, e := range resp.Entries {
		sb.WriteString(fmt.Sprintf("  %s  %s\n", e.Path, e.Message))
	}

	return sb.String()
}
