// Package scip implements semantic.Service on top of a SCIP index file.
// The index is loaded once and queried in memory; point queries work by
// range containment over document occurrences.
package scip

import (
	"strings"
	"time"

	"implint/internal/semantic"
)

// SCIP symbol role bitfield values.
const (
	roleDefinition int32 = 1
	roleImport     int32 = 2
	roleWrite      int32 = 4
	roleRead       int32 = 8
)

// occurrence is one symbol occurrence in a document. rng keeps the SCIP
// encoding: [startLine, startCol, endCol] when the occurrence is on one
// line, [startLine, startCol, endLine, endCol] otherwise. All 0-based.
type occurrence struct {
	rng    []int32
	symbol string
	roles  int32
}

// document is one indexed source file.
type document struct {
	path        string
	occurrences []occurrence
	names       map[string]string // symbol -> display name
}

// Index is a fully decoded SCIP index.
type Index struct {
	path      string
	modTime   time.Time
	documents map[string]*document // repo-relative path -> document
	toolName  string
}

// Path returns the index file location.
func (ix *Index) Path() string { return ix.path }

// ModTime returns the index file's modification time.
func (ix *Index) ModTime() time.Time { return ix.modTime }

// DocumentCount returns the number of indexed files.
func (ix *Index) DocumentCount() int { return len(ix.documents) }

// ToolName returns the indexer that produced the index, when recorded.
func (ix *Index) ToolName() string { return ix.toolName }

// kindForRoles maps a SCIP role bitfield to an entity kind.
func kindForRoles(roles int32) semantic.EntityKind {
	switch {
	case roles&roleDefinition != 0:
		return semantic.KindDefinition
	case roles&roleImport != 0:
		return semantic.KindImport
	case roles&roleWrite != 0:
		return semantic.KindWrite
	case roles&roleRead != 0:
		return semantic.KindRead
	default:
		return semantic.KindReference
	}
}

// isLocalSymbol reports whether a symbol is file-local (no package, no
// defining module).
func isLocalSymbol(symbol string) bool {
	return strings.HasPrefix(symbol, "local ")
}

// startOf returns the start position of a SCIP range.
func startOf(rng []int32) (line, col uint32) {
	if len(rng) < 2 {
		return 0, 0
	}
	return uint32(rng[0]), uint32(rng[1])
}

// containsPosition reports whether a SCIP range contains the 0-based
// position. Handles both the 3-element and 4-element encodings.
func containsPosition(line, col uint32, rng []int32) bool {
	switch len(rng) {
	case 3: // [line, startCol, endCol]
		return uint32(rng[0]) == line &&
			uint32(rng[1]) <= col && col < uint32(rng[2])
	case 4: // [startLine, startCol, endLine, endCol]
		startLine, startCol := uint32(rng[0]), uint32(rng[1])
		endLine, endCol := uint32(rng[2]), uint32(rng[3])
		if line < startLine || line > endLine {
			return false
		}
		if line == startLine && col < startCol {
			return false
		}
		if line == endLine && col >= endCol {
			return false
		}
		return true
	default:
		return false
	}
}

// span returns the size of a range in columns, for narrowest-match
// selection. Multi-line ranges count as wide.
func span(rng []int32) uint32 {
	switch len(rng) {
	case 3:
		return uint32(rng[2] - rng[1])
	case 4:
		if rng[0] == rng[2] {
			return uint32(rng[3] - rng[1])
		}
		return uint32(1 << 30)
	default:
		return uint32(1 << 30)
	}
}
