// Package semantic defines the boundary between lint rules and the code
// intelligence index. Rules never read the index directly; they see a
// Service that answers two questions, per file: what entities does the
// file contain (with their symbol identifiers), and what symbol sits at a
// given byte offset.
package semantic

import (
	"context"
	"strings"
)

// ImplicitModule is available in every Swift file without an import. It
// never counts as declared, used, or missing.
const ImplicitModule = "Swift"

// EntityKind classifies a node in a file's entity tree.
type EntityKind string

const (
	// KindFile is the tree root.
	KindFile EntityKind = "file"
	// KindDefinition is a symbol definition site.
	KindDefinition EntityKind = "definition"
	// KindReference is a plain use of a symbol.
	KindReference EntityKind = "reference"
	// KindRead is a read access of a symbol.
	KindRead EntityKind = "read"
	// KindWrite is a write access of a symbol.
	KindWrite EntityKind = "write"
	// KindImport is the module name inside an import declaration. It names
	// the import target itself and must not count as a use.
	KindImport EntityKind = "import"
)

// IsSymbolUse reports whether the kind marks a use of a symbol, as
// opposed to a definition or the import target itself.
func (k EntityKind) IsSymbolUse() bool {
	return k == KindReference || k == KindRead || k == KindWrite
}

// Entity is one node of a file's structural tree. Line and Column are
// 0-based; Column counts bytes.
type Entity struct {
	Kind     EntityKind
	Name     string
	USR      string
	Line     uint32
	Column   uint32
	Children []Entity
}

// Dependency is a declared import in a file.
type Dependency struct {
	Module string
	Line   uint32
}

// FileIndex is everything the index knows about one file.
type FileIndex struct {
	Path    string // repo-relative, forward slashes
	Root    Entity
	Imports []Dependency
}

// SymbolAnswer is the result of a point query: the symbol at an offset
// and the module that defines it.
type SymbolAnswer struct {
	USR    string
	Module string
}

// Service answers index and point queries for files under one repository.
type Service interface {
	// ID identifies the service implementation, for logs and doctor output.
	ID() string

	// Available reports whether queries can be served at all.
	Available() bool

	// FileIndex returns the entity tree and declared imports for a file.
	// path is absolute or repo-relative; buildArgs carry the compiler
	// arguments associated with the file.
	FileIndex(ctx context.Context, path string, buildArgs []string) (*FileIndex, error)

	// ResolveAt reports the symbol at a byte offset in the file, or an
	// error when nothing resolvable sits there.
	ResolveAt(ctx context.Context, path string, offset uint32, buildArgs []string) (*SymbolAnswer, error)
}

// RootModule reduces a dotted module path to its first component. Submodule
// paths like CoreGraphics.CGGeometry attribute usage to CoreGraphics.
func RootModule(module string) string {
	if i := strings.IndexByte(module, '.'); i >= 0 {
		return module[:i]
	}
	return module
}

// NormalizeImports drops the implicit module and deduplicates declared
// imports by name, keeping the first occurrence of each.
func NormalizeImports(imports []Dependency) []Dependency {
	seen := make(map[string]bool, len(imports))
	out := imports[:0:0]
	for _, imp := range imports {
		if imp.Module == "" || imp.Module == ImplicitModule {
			continue
		}
		if seen[imp.Module] {
			continue
		}
		seen[imp.Module] = true
		out = append(out, imp)
	}
	return out
}
