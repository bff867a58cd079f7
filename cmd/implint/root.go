package main

import (
	"implint/internal/version"

	"github.com/spf13/cobra"
)

var (
	// repoFlag is the CLI --repo flag value
	repoFlag string
)

var rootCmd = &cobra.Command{
	Use:   "implint",
	Short: "implint - semantic import linter for Swift",
	Long: `implint checks Swift sources against their SCIP semantic index to find
imports that are never used and, in strict mode, modules that are used without
an explicit import. Fix mode rewrites the files in place.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("implint version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "",
		"Repository root (default: current directory)")
}
