package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"implint/internal/buildcfg"
	"implint/internal/config"
	"implint/internal/errors"
	"implint/internal/logging"
	"implint/internal/modules"
	"implint/internal/paths"
	"implint/internal/semantic/scip"
	"implint/internal/syntax"
)

var doctorFormat string

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose implint configuration and index issues",
	Long: `Check that implint can do its job in this repository: configuration
parses, the SCIP index exists and loads, the Swift grammar is compiled in,
and the optional manifests are readable.

Exits non-zero when any check fails.`,
	Run: runDoctor,
}

func init() {
	doctorCmd.Flags().StringVar(&doctorFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(doctorFormat)
	repoRoot := mustGetRepoRoot()
	ctx := newContext()

	var checks []DoctorCheckCLI

	// Configuration
	cfg, err := config.LoadConfig(repoRoot)
	if err != nil {
		checks = append(checks, failCheck("config", fmt.Sprintf("could not load configuration: %v", err), errors.ConfigInvalid))
		cfg = config.DefaultConfig()
	} else if err := cfg.Validate(); err != nil {
		checks = append(checks, failCheck("config", err.Error(), errors.ConfigInvalid))
	} else {
		checks = append(checks, passCheck("config", "configuration valid"))
	}

	// SCIP index
	indexPath := paths.JoinRepoPath(repoRoot, cfg.Index.Path)
	if _, err := os.Stat(indexPath); err != nil {
		check := failCheck("index", fmt.Sprintf("SCIP index not found at %s", cfg.Index.Path), errors.IndexMissing)
		if cfg.Index.Command != "" {
			check.SuggestedFixes = append(check.SuggestedFixes, FixActionCLI{
				Type:        string(errors.RunCommand),
				Command:     cfg.Index.Command,
				Description: "Generate the SCIP index",
				Safe:        true,
			})
		}
		checks = append(checks, check)
	} else {
		adapter := scip.NewAdapter(scip.Config{
			RepoRoot:     repoRoot,
			IndexPath:    indexPath,
			QueryTimeout: time.Duration(cfg.Index.QueryTimeoutMs) * time.Millisecond,
		}, quietDoctorLogger())

		info, err := adapter.IndexInfo(ctx)
		if err != nil {
			checks = append(checks, failCheck("index", fmt.Sprintf("index could not be loaded: %v", err), ""))
		} else {
			age := time.Since(info.ModTime()).Round(time.Minute)
			checks = append(checks, passCheck("index",
				fmt.Sprintf("index loaded: %d documents, built by %s, %s old",
					info.DocumentCount(), info.ToolName(), age)))
		}
	}

	// Swift grammar
	if syntax.IsAvailable() {
		checks = append(checks, passCheck("grammar", "Swift grammar compiled in"))
	} else {
		checks = append(checks, warnCheck("grammar",
			"Swift grammar not available; position-drift recovery is disabled", errors.GrammarUnavailable))
	}

	// Module manifest
	manifest, err := modules.LoadManifest(repoRoot, cfg.Modules.ManifestPath)
	switch {
	case err != nil:
		checks = append(checks, failCheck("modules", fmt.Sprintf("could not read %s: %v", cfg.Modules.ManifestPath, err), ""))
	case manifest == nil:
		checks = append(checks, passCheck("modules",
			fmt.Sprintf("no %s; transitive allowances come from rule options only", cfg.Modules.ManifestPath)))
	default:
		checks = append(checks, passCheck("modules",
			fmt.Sprintf("%s: %d module declarations", cfg.Modules.ManifestPath, len(manifest.Modules))))
	}

	// Build manifest
	build, err := buildcfg.LoadFromRepo(repoRoot, cfg.Modules.BuildConfigPath)
	switch {
	case err != nil:
		checks = append(checks, failCheck("build-config", fmt.Sprintf("could not read %s: %v", cfg.Modules.BuildConfigPath, err), ""))
	case build == nil:
		checks = append(checks, warnCheck("build-config",
			fmt.Sprintf("no %s; strict mode cannot tell which module a file belongs to", cfg.Modules.BuildConfigPath), ""))
	default:
		checks = append(checks, passCheck("build-config",
			fmt.Sprintf("%s: %d targets", cfg.Modules.BuildConfigPath, len(build.Targets))))
	}

	// Baseline
	baselineDB := paths.JoinRepoPath(repoRoot, cfg.Baseline.Path)
	if _, err := os.Stat(baselineDB); err != nil {
		checks = append(checks, passCheck("baseline", "no baseline recorded"))
	} else {
		checks = append(checks, passCheck("baseline", fmt.Sprintf("baseline present at %s", cfg.Baseline.Path)))
	}

	healthy := true
	for _, c := range checks {
		if c.Status == "fail" {
			healthy = false
		}
	}

	cliResponse := &DoctorResponseCLI{
		Healthy: healthy,
		Checks:  checks,
	}

	output, err := FormatResponse(cliResponse, OutputFormat(doctorFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)

	logger.Debug("Doctor completed", map[string]interface{}{
		"healthy":  healthy,
		"duration": time.Since(start).Milliseconds(),
	})

	if !healthy {
		os.Exit(1)
	}
}

// quietDoctorLogger keeps adapter noise out of the diagnostic output.
func quietDoctorLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{
		Format: logging.JSONFormat,
		Level:  logging.ErrorLevel,
	})
}

// DoctorResponseCLI contains diagnostic results for CLI output.
type DoctorResponseCLI struct {
	Healthy bool             `json:"healthy"`
	Checks  []DoctorCheckCLI `json:"checks"`
}

// DoctorCheckCLI represents a single diagnostic check.
type DoctorCheckCLI struct {
	Name           string         `json:"name"`
	Status         string         `json:"status"` // "pass", "warn", "fail"
	Message        string         `json:"message"`
	SuggestedFixes []FixActionCLI `json:"suggestedFixes,omitempty"`
}

// FixActionCLI represents a suggested fix.
type FixActionCLI struct {
	Type        string `json:"type"`
	Command     string `json:"command,omitempty"`
	Description string `json:"description"`
	Safe        bool   `json:"safe"`
}

func passCheck(name, message string) DoctorCheckCLI {
	return DoctorCheckCLI{Name: name, Status: "pass", Message: message}
}

func warnCheck(name, message string, code errors.ErrorCode) DoctorCheckCLI {
	return DoctorCheckCLI{Name: name, Status: "warn", Message: message, SuggestedFixes: convertFixes(code)}
}

func failCheck(name, message string, code errors.ErrorCode) DoctorCheckCLI {
	return DoctorCheckCLI{Name: name, Status: "fail", Message: message, SuggestedFixes: convertFixes(code)}
}

func convertFixes(code errors.ErrorCode) []FixActionCLI {
	if code == "" {
		return nil
	}
	var fixes []FixActionCLI
	for _, f := range errors.GetSuggestedFixes(code) {
		fixes = append(fixes, FixActionCLI{
			Type:        string(f.Type),
			Command:     f.Command,
			Description: f.Description,
			Safe:        f.Safe,
		})
	}
	return fixes
}

// formatDoctorHuman formats doctor results for human reading.
func formatDoctorHuman(resp *DoctorResponseCLI) string {
	var sb strings.Builder

	sb.WriteString("implint Doctor\n")
	sb.WriteString("━━━━━━━━━━━━━━\n\n")

	healthIcon := "✓"
	healthText := "All checks passed"
	if !resp.Healthy {
		healthIcon = "✗"
		healthText = "Issues found"
	}
	sb.WriteString(fmt.Sprintf("%s %s\n\n", healthIcon, healthText))

	for _, check := range resp.Checks {
		var icon string
		switch check.Status {
		case "pass":
			icon = "✓"
		case "warn":
			icon = "⚠"
		case "fail":
			icon = "✗"
		default:
			icon = "?"
		}

		sb.WriteString(fmt.Sprintf("%s %s: %s\n", icon, check.Name, check.Message))

		if len(check.SuggestedFixes) > 0 {
			sb.WriteString("  Suggested fixes:\n")
			for _, fix := range check.SuggestedFixes {
				sb.WriteString(fmt.Sprintf("    - %s\n", fix.Description))
				if fix.Command != "" {
					sb.WriteString(fmt.Sprintf("      $ %s\n", fix.Command))
				}
			}
		}
	}

	return sb.String()
}
