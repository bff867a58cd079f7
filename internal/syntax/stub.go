//go:build !cgo

package syntax

import (
	"context"
)

// IsAvailable reports whether tree-sitter parsing was compiled in.
// This stub is used when CGO is not available.
func IsAvailable() bool {
	return false
}

// Parser tokenizes Swift source text.
// This is a stub implementation when CGO is not available.
type Parser struct{}

// NewParser creates a parser.
// Returns nil when CGO is not available.
func NewParser() *Parser {
	return nil
}

// Tokenize parses src and returns its leaf tokens in source order.
// Returns ErrNoCGO when CGO is not available.
func (p *Parser) Tokenize(ctx context.Context, src []byte) ([]Token, error) {
	return nil, ErrNoCGO
}
