package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"implint/internal/lint"
)

var rulesFormat string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the available lint rules",
	Long: `List every registered rule with its enabled state, default severity,
and a one-line description.

Examples:
  implint rules
  implint rules --format human`,
	Run: runRules,
}

func init() {
	rulesCmd.Flags().StringVar(&rulesFormat, "format", "json", "Output format (json, human)")
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) {
	logger := newLogger(rulesFormat)

	repoRoot := mustGetRepoRoot()
	engine := mustGetEngine(repoRoot, logger)

	cliResponse := &RulesResponseCLI{Rules: engine.Rules()}

	output, err := FormatResponse(cliResponse, OutputFormat(rulesFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)
}

// RulesResponseCLI is the CLI response format for the rule listing.
type RulesResponseCLI struct {
	Rules []lint.RuleInfo `json:"rules"`
}

// formatRulesHuman formats the rule listing for human reading.
func formatRulesHuman(resp *RulesResponseCLI) string {
	var sb strings.Builder

	sb.WriteString("Rules\n")
	sb.WriteString("━━━━━\n\n")

	for _, r := range resp.Rules {
		state := "enabled"
		if !r.Enabled {
			state = "disabled"
		}
		sb.WriteString(fmt.Sprintf("  %s (%s, %s)\n", r.Name, state, r.DefaultSeverity))
		sb.WriteString(fmt.Sprintf("    %s\n\n", r.Description))
	}

	return sb.String()
}
