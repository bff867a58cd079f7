// Package syntax provides a lexical token stream for Swift sources using
// tree-sitter. The stream feeds the resolver's bounded rescan when a point
// query disagrees with the index. Builds without CGO get a stub parser
// that reports unavailability; rules degrade gracefully without tokens.
package syntax

import (
	"errors"
	"sort"
	"strings"
)

// ErrNoCGO is returned by Tokenize in builds compiled without CGO.
var ErrNoCGO = errors.New("tree-sitter parsing requires a cgo-enabled build")

// TokenKind is a coarse lexical class.
type TokenKind string

const (
	TokenIdentifier TokenKind = "identifier"
	TokenKeyword    TokenKind = "keyword"
	TokenString     TokenKind = "string"
	TokenNumber     TokenKind = "number"
	TokenComment    TokenKind = "comment"
	TokenOperator   TokenKind = "operator"
	TokenOther      TokenKind = "other"
)

// Token is one lexical token with its byte position in the file.
type Token struct {
	Offset uint32
	Length uint32
	Kind   TokenKind
	Text   string
}

// classifyToken maps a tree-sitter leaf to a token kind. Anonymous nodes
// are keywords when they look like words, operators otherwise.
func classifyToken(nodeType string, named bool, text string) TokenKind {
	switch nodeType {
	case "simple_identifier", "type_identifier":
		return TokenIdentifier
	case "integer_literal", "real_literal", "hex_literal", "oct_literal", "bin_literal":
		return TokenNumber
	case "comment", "multiline_comment":
		return TokenComment
	case "line_str_text", "multi_line_str_text", "str_escaped_char":
		return TokenString
	}
	if !named {
		if isWord(text) {
			return TokenKeyword
		}
		return TokenOperator
	}
	return TokenOther
}

func isWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		lower := r >= 'a' && r <= 'z'
		upper := r >= 'A' && r <= 'Z'
		if !lower && !upper {
			return false
		}
	}
	return true
}

// After returns the tokens whose offset is strictly greater than offset,
// in stream order. The input must be sorted by offset, which Tokenize
// guarantees.
func After(tokens []Token, offset uint32) []Token {
	i := sort.Search(len(tokens), func(i int) bool {
		return tokens[i].Offset > offset
	})
	return tokens[i:]
}

// IsScannable reports whether a token is worth a point query during a
// rescan. Comments and strings never resolve to symbols.
func (t Token) IsScannable() bool {
	switch t.Kind {
	case TokenComment, TokenString:
		return false
	}
	return strings.TrimSpace(t.Text) != ""
}
