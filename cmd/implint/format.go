package main

import (
	"encoding/json"
	"fmt"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *CheckResponseCLI:
		return formatCheckHuman(v), nil
	case *FixResponseCLI:
		return formatFixHuman(v), nil
	case *RulesResponseCLI:
		return formatRulesHuman(v), nil
	case *DoctorResponseCLI:
		return formatDoctorHuman(v), nil
	case *BaselineUpdateResponseCLI:
		return formatBaselineUpdateHuman(v), nil
	case *BaselineShowResponseCLI:
		return formatBaselineShowHuman(v), nil
	case *VersionResponseCLI:
		return formatVersionHuman(v), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}
