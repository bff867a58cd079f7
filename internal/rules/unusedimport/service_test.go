package unusedimport

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"implint/internal/logging"
	"implint/internal/rule"
	"implint/internal/semantic"
	"implint/internal/source"
	"implint/internal/syntax"
)

// fakeSymbol is what the fake service knows about one spelling.
type fakeSymbol struct {
	usr    string
	module string
}

// fakeService resolves symbols by their spelling in the file text. The
// entity tree and declared imports are derived from the file's current
// contents on every call, so a fix pass sees its own edits. shift moves
// reported entity positions left, to force the resolver's token rescan.
type fakeService struct {
	file     *source.File
	symbols  map[string]fakeSymbol
	shift    uint32
	indexErr error
	queries  int
}

func (s *fakeService) ID() string      { return "fake" }
func (s *fakeService) Available() bool { return true }

var importStmtRe = regexp.MustCompile(`(?m)^[ \t]*(?:@\w+(?:\([^)\n]*\))?[ \t]+)*import[ \t]+(?:struct[ \t]+|class[ \t]+|enum[ \t]+|protocol[ \t]+|typealias[ \t]+|func[ \t]+|let[ \t]+|var[ \t]+)?([A-Za-z_][\w.]*)`)

func (s *fakeService) FileIndex(ctx context.Context, path string, buildArgs []string) (*semantic.FileIndex, error) {
	if s.indexErr != nil {
		return nil, s.indexErr
	}

	text := s.file.Contents()
	root := semantic.Entity{Kind: semantic.KindFile}

	for spelling, sym := range s.symbols {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(spelling) + `\b`)
		for _, m := range re.FindAllIndex(text, -1) {
			offset := uint32(m[0])
			if offset >= s.shift {
				offset -= s.shift
			}
			line, column := s.file.Position(offset)
			root.Children = append(root.Children, semantic.Entity{
				Kind:   semantic.KindReference,
				Name:   spelling,
				USR:    sym.usr,
				Line:   line,
				Column: column,
			})
		}
	}

	var imports []semantic.Dependency
	for _, m := range importStmtRe.FindAllSubmatchIndex(text, -1) {
		module := string(text[m[2]:m[3]])
		line, _ := s.file.Position(uint32(m[0]))
		imports = append(imports, semantic.Dependency{Module: module, Line: line})
	}

	return &semantic.FileIndex{Path: path, Root: root, Imports: imports}, nil
}

func (s *fakeService) ResolveAt(ctx context.Context, path string, offset uint32, buildArgs []string) (*semantic.SymbolAnswer, error) {
	s.queries++
	word := wordAt(s.file.Contents(), offset)
	if word == "" {
		return nil, fmt.Errorf("nothing at offset %d", offset)
	}
	sym, ok := s.symbols[word]
	if !ok {
		return nil, fmt.Errorf("unknown symbol %q", word)
	}
	return &semantic.SymbolAnswer{USR: sym.usr, Module: sym.module}, nil
}

func wordAt(text []byte, offset uint32) string {
	isWordByte := func(b byte) bool {
		return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
	}
	if offset >= uint32(len(text)) || !isWordByte(text[offset]) {
		return ""
	}
	start := offset
	for start > 0 && isWordByte(text[start-1]) {
		start--
	}
	end := offset
	for end < uint32(len(text)) && isWordByte(text[end]) {
		end++
	}
	return string(text[start:end])
}

var tokenRe = regexp.MustCompile(`\w+|[^\w\s]`)

var keywordSet = map[string]bool{
	"import": true, "class": true, "struct": true, "enum": true,
	"func": true, "let": true, "var": true, "return": true,
}

// lexTokens is a crude stand-in for the tree-sitter stream: words and
// punctuation with their offsets, good enough for rescan fixtures.
func lexTokens(text string) []syntax.Token {
	var tokens []syntax.Token
	for _, m := range tokenRe.FindAllStringIndex(text, -1) {
		word := text[m[0]:m[1]]
		kind := syntax.TokenOperator
		if word[0] == '_' || (word[0] >= 'a' && word[0] <= 'z') || (word[0] >= 'A' && word[0] <= 'Z') {
			if keywordSet[word] {
				kind = syntax.TokenKeyword
			} else {
				kind = syntax.TokenIdentifier
			}
		}
		tokens = append(tokens, syntax.Token{
			Offset: uint32(m[0]),
			Length: uint32(m[1] - m[0]),
			Kind:   kind,
			Text:   word,
		})
	}
	return tokens
}

func quietLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{
		Format: logging.JSONFormat,
		Level:  logging.ErrorLevel,
		Output: io.Discard,
	})
}

// fixture writes the source to disk and wires a target plus fake
// service around it.
func fixture(t *testing.T, content string, symbols map[string]fakeSymbol, buildArgs []string) (*rule.Target, *fakeService) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "Fixture.swift")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	f, err := source.Load(path)
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}

	svc := &fakeService{file: f, symbols: symbols}
	target := &rule.Target{
		RepoRoot:  dir,
		RelPath:   "Fixture.swift",
		File:      f,
		BuildArgs: buildArgs,
		Tokens:    lexTokens(content),
		Service:   svc,
	}
	return target, svc
}

func newRule(t *testing.T) *Rule {
	t.Helper()
	return New(quietLogger())
}

func violationModules(violations []rule.Violation) []string {
	var modules []string
	for _, v := range violations {
		modules = append(modules, v.Module)
	}
	return modules
}
