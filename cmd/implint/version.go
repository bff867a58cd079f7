package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"implint/internal/version"
)

var versionFormat string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run:   runVersion,
}

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) {
	cliResponse := &VersionResponseCLI{
		Version:   version.Version,
		Commit:    version.Commit,
		BuildDate: version.BuildDate,
	}

	output, err := FormatResponse(cliResponse, OutputFormat(versionFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)
}

// VersionResponseCLI is the CLI response format for version info.
type VersionResponseCLI struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
}

// formatVersionHuman formats version info for human reading.
func formatVersionHuman(resp *VersionResponseCLI) string {
	return fmt.Sprintf("implint version %s\nCommit: %s\nBuilt: %s", resp.Version, resp.Commit, resp.BuildDate)
}
