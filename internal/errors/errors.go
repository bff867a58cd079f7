// Package errors defines stable error codes and structured errors for
// implint. Every failure surfaced by the CLI carries a code, a message,
// and optionally suggested fix actions the user can run.
package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// IndexMissing indicates the SCIP index file was not found
	IndexMissing ErrorCode = "INDEX_MISSING"
	// IndexCorrupt indicates the SCIP index could not be decoded
	IndexCorrupt ErrorCode = "INDEX_CORRUPT"
	// IndexStale indicates sources changed after the index was built
	IndexStale ErrorCode = "INDEX_STALE"
	// FileNotFound indicates a lint target does not exist
	FileNotFound ErrorCode = "FILE_NOT_FOUND"
	// FileNotIndexed indicates the index has no document for a file
	FileNotIndexed ErrorCode = "FILE_NOT_INDEXED"
	// ParseFailed indicates the syntax layer could not parse a file
	ParseFailed ErrorCode = "PARSE_FAILED"
	// GrammarUnavailable indicates the tree-sitter grammar is not compiled in
	GrammarUnavailable ErrorCode = "GRAMMAR_UNAVAILABLE"
	// SymbolNotFound indicates no symbol occupies a queried offset
	SymbolNotFound ErrorCode = "SYMBOL_NOT_FOUND"
	// ConfigInvalid indicates configuration failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// RuleUnknown indicates a rule name that is not registered
	RuleUnknown ErrorCode = "RULE_UNKNOWN"
	// BaselineMissing indicates no baseline database exists yet
	BaselineMissing ErrorCode = "BASELINE_MISSING"
	// WriteFailed indicates a correction could not be written back
	WriteFailed ErrorCode = "WRITE_FAILED"
	// Timeout indicates a semantic query timed out
	Timeout ErrorCode = "TIMEOUT"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
	// InstallTool suggests installing a tool
	InstallTool FixActionType = "install-tool"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
	Tool        string        `json:"tool,omitempty"`
}

// Drilldown represents a suggested follow-up command
type Drilldown struct {
	Label string `json:"label"`
	Query string `json:"query"`
}

// LintError represents an implint error with code, message, and suggestions
type LintError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	Drilldowns     []Drilldown `json:"drilldowns,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// NewLintError creates a new LintError
func NewLintError(code ErrorCode, message string, cause error) *LintError {
	return &LintError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Error implements the error interface
func (e *LintError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *LintError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *LintError) WithDetails(details interface{}) *LintError {
	e.Details = details
	return e
}

// WithDrilldowns adds follow-up suggestions to the error
func (e *LintError) WithDrilldowns(drilldowns []Drilldown) *LintError {
	e.Drilldowns = drilldowns
	return e
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	IndexMissing: {
		{
			Type:        RunCommand,
			Command:     "implint doctor",
			Safe:        true,
			Description: "Check index configuration and how to generate the index",
		},
	},
	IndexStale: {
		{
			Type:        RunCommand,
			Command:     "${index_command}",
			Safe:        true,
			Description: "Regenerate the SCIP index",
		},
	},
	BaselineMissing: {
		{
			Type:        RunCommand,
			Command:     "implint baseline update",
			Safe:        true,
			Description: "Record the current findings as the baseline",
		},
	},
	GrammarUnavailable: {
		{
			Type:        InstallTool,
			Tool:        "cgo-enabled implint build",
			Description: "Rebuild with CGO_ENABLED=1 to include the Swift grammar",
		},
	},
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "implint doctor",
			Safe:        true,
			Description: "Validate configuration files",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
