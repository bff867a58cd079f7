package scip

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"implint/internal/errors"
	"implint/internal/logging"
	"implint/internal/semantic"
)

func quietLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Level: logging.ErrorLevel, Output: &bytes.Buffer{}})
}

func TestContainsPosition(t *testing.T) {
	tests := []struct {
		name string
		line uint32
		col  uint32
		rng  []int32
		want bool
	}{
		{"three elem inside", 4, 18, []int32{4, 16, 23}, true},
		{"three elem at start", 4, 16, []int32{4, 16, 23}, true},
		{"three elem at end", 4, 23, []int32{4, 16, 23}, false},
		{"three elem before", 4, 15, []int32{4, 16, 23}, false},
		{"three elem wrong line", 5, 18, []int32{4, 16, 23}, false},
		{"four elem single line", 2, 5, []int32{2, 3, 2, 9}, true},
		{"four elem spanning start line", 2, 10, []int32{2, 3, 4, 1}, true},
		{"four elem middle line", 3, 0, []int32{2, 3, 4, 1}, true},
		{"four elem end line before endCol", 4, 0, []int32{2, 3, 4, 1}, true},
		{"four elem end line at endCol", 4, 1, []int32{2, 3, 4, 1}, false},
		{"four elem before start", 2, 2, []int32{2, 3, 4, 1}, false},
		{"invalid range", 0, 0, []int32{1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := containsPosition(tt.line, tt.col, tt.rng); got != tt.want {
				t.Errorf("containsPosition(%d, %d, %v) = %v, want %v",
					tt.line, tt.col, tt.rng, got, tt.want)
			}
		})
	}
}

func TestKindForRoles(t *testing.T) {
	tests := []struct {
		roles int32
		want  semantic.EntityKind
	}{
		{roleDefinition, semantic.KindDefinition},
		{roleImport, semantic.KindImport},
		{roleWrite, semantic.KindWrite},
		{roleRead, semantic.KindRead},
		{0, semantic.KindReference},
		{roleDefinition | roleWrite, semantic.KindDefinition},
	}

	for _, tt := range tests {
		if got := kindForRoles(tt.roles); got != tt.want {
			t.Errorf("kindForRoles(%d) = %v, want %v", tt.roles, got, tt.want)
		}
	}
}

func TestModuleForSymbol(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
	}{
		{"scip-swift spm UIKit 17.0 UILabel#", "UIKit"},
		{"scip-swift spm Foundation 17.0 NSObject#", "Foundation"},
		{"scip-swift spm . . foo().", ""},
		{"local 42", ""},
		{"garbage", ""},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			if got := moduleForSymbol(tt.symbol); got != tt.want {
				t.Errorf("moduleForSymbol(%q) = %q, want %q", tt.symbol, got, tt.want)
			}
		})
	}
}

func TestDecompress(t *testing.T) {
	payload := []byte("scip index payload bytes")

	t.Run("plain", func(t *testing.T) {
		out, err := decompress(payload)
		if err != nil {
			t.Fatalf("decompress failed: %v", err)
		}
		if !bytes.Equal(out, payload) {
			t.Error("plain data should pass through unchanged")
		}
	})

	t.Run("gzip", func(t *testing.T) {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(payload); err != nil {
			t.Fatalf("gzip write failed: %v", err)
		}
		if err := zw.Close(); err != nil {
			t.Fatalf("gzip close failed: %v", err)
		}

		out, err := decompress(buf.Bytes())
		if err != nil {
			t.Fatalf("decompress failed: %v", err)
		}
		if !bytes.Equal(out, payload) {
			t.Errorf("gzip round trip = %q, want %q", out, payload)
		}
	})

	t.Run("zstd", func(t *testing.T) {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			t.Fatalf("zstd writer failed: %v", err)
		}
		compressed := enc.EncodeAll(payload, nil)
		_ = enc.Close()

		out, err := decompress(compressed)
		if err != nil {
			t.Fatalf("decompress failed: %v", err)
		}
		if !bytes.Equal(out, payload) {
			t.Errorf("zstd round trip = %q, want %q", out, payload)
		}
	})
}

const greeterSource = "import UIKit\nimport Foundation\n\nclass Greeter {\n    let label = UILabel()\n}\n"

// greeterIndex builds a small index for one file:
//
//	line 0: import UIKit          (UIKit at cols 7-11)
//	line 1: import Foundation     (Foundation at cols 7-16)
//	line 3: class Greeter {       (Greeter at cols 6-12)
//	line 4: let label = UILabel() (label at 8-12, UILabel at 16-22)
func greeterIndex() *scippb.Index {
	return &scippb.Index{
		Metadata: &scippb.Metadata{
			ToolInfo: &scippb.ToolInfo{Name: "scip-swift"},
		},
		Documents: []*scippb.Document{
			{
				RelativePath: "Sources/App/Greeter.swift",
				Occurrences: []*scippb.Occurrence{
					{Range: []int32{4, 16, 23}, Symbol: "scip-swift spm UIKit 17.0 UILabel#", SymbolRoles: 0},
					{Range: []int32{0, 7, 12}, Symbol: "scip-swift spm UIKit 17.0 UIKit/", SymbolRoles: roleImport},
					{Range: []int32{1, 7, 17}, Symbol: "scip-swift spm Foundation 17.0 Foundation/", SymbolRoles: roleImport},
					{Range: []int32{3, 6, 13}, Symbol: "scip-swift spm app 1.0 Greeter#", SymbolRoles: roleDefinition},
					{Range: []int32{4, 8, 13}, Symbol: "local 1", SymbolRoles: roleDefinition},
				},
				Symbols: []*scippb.SymbolInformation{
					{Symbol: "scip-swift spm UIKit 17.0 UIKit/", DisplayName: "UIKit"},
					{Symbol: "scip-swift spm UIKit 17.0 UILabel#", DisplayName: "UILabel"},
				},
			},
		},
	}
}

// writeFixture lays out a repo with the Greeter file and a serialized
// index, returning the repo root and index path.
func writeFixture(t *testing.T, index *scippb.Index) (string, string) {
	t.Helper()
	repoRoot := t.TempDir()

	srcPath := filepath.Join(repoRoot, "Sources", "App", "Greeter.swift")
	if err := os.MkdirAll(filepath.Dir(srcPath), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(srcPath, []byte(greeterSource), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := proto.Marshal(index)
	if err != nil {
		t.Fatalf("proto.Marshal failed: %v", err)
	}
	indexPath := filepath.Join(repoRoot, "index.scip")
	if err := os.WriteFile(indexPath, data, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	return repoRoot, indexPath
}

func TestLoadIndex(t *testing.T) {
	repoRoot, indexPath := writeFixture(t, greeterIndex())
	_ = repoRoot

	ix, err := LoadIndex(indexPath)
	if err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}
	if ix.DocumentCount() != 1 {
		t.Errorf("DocumentCount = %d, want 1", ix.DocumentCount())
	}
	if ix.ToolName() != "scip-swift" {
		t.Errorf("ToolName = %q, want scip-swift", ix.ToolName())
	}

	doc := ix.documents["Sources/App/Greeter.swift"]
	if doc == nil {
		t.Fatal("document missing")
	}
	if len(doc.occurrences) != 5 {
		t.Fatalf("len(occurrences) = %d, want 5", len(doc.occurrences))
	}
	// Sorted by position despite shuffled input
	if line, _ := startOf(doc.occurrences[0].rng); line != 0 {
		t.Errorf("first occurrence line = %d, want 0 after sorting", line)
	}
	if line, _ := startOf(doc.occurrences[4].rng); line != 4 {
		t.Errorf("last occurrence line = %d, want 4 after sorting", line)
	}
}

func TestLoadIndexMissing(t *testing.T) {
	_, err := LoadIndex(filepath.Join(t.TempDir(), "nope.scip"))
	if err == nil {
		t.Fatal("expected error for missing index")
	}
	var lintErr *errors.LintError
	if !stderrors.As(err, &lintErr) || lintErr.Code != errors.IndexMissing {
		t.Errorf("error = %v, want INDEX_MISSING", err)
	}
}

func TestLoadIndexCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.scip")
	// Valid-looking varint tag followed by truncated garbage
	if err := os.WriteFile(path, []byte{0x0a, 0xff, 0x01, 0x02}, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	_, err := LoadIndex(path)
	if err == nil {
		t.Fatal("expected error for corrupt index")
	}
	var lintErr *errors.LintError
	if !stderrors.As(err, &lintErr) || lintErr.Code != errors.IndexCorrupt {
		t.Errorf("error = %v, want INDEX_CORRUPT", err)
	}
}

func TestLoadIndexCompressed(t *testing.T) {
	data, err := proto.Marshal(greeterIndex())
	if err != nil {
		t.Fatalf("proto.Marshal failed: %v", err)
	}

	t.Run("gzip", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "index.scip.gz")
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_, _ = zw.Write(data)
		_ = zw.Close()
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}

		ix, err := LoadIndex(path)
		if err != nil {
			t.Fatalf("LoadIndex failed: %v", err)
		}
		if ix.DocumentCount() != 1 {
			t.Errorf("DocumentCount = %d, want 1", ix.DocumentCount())
		}
	})

	t.Run("zstd", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "index.scip.zst")
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			t.Fatalf("zstd writer failed: %v", err)
		}
		compressed := enc.EncodeAll(data, nil)
		_ = enc.Close()
		if err := os.WriteFile(path, compressed, 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}

		ix, err := LoadIndex(path)
		if err != nil {
			t.Fatalf("LoadIndex failed: %v", err)
		}
		if ix.DocumentCount() != 1 {
			t.Errorf("DocumentCount = %d, want 1", ix.DocumentCount())
		}
	})
}

func TestAdapterFileIndex(t *testing.T) {
	repoRoot, indexPath := writeFixture(t, greeterIndex())
	adapter := NewAdapter(Config{RepoRoot: repoRoot, IndexPath: indexPath}, quietLogger())

	if !adapter.Available() {
		t.Fatal("adapter should be available")
	}

	fi, err := adapter.FileIndex(context.Background(), "Sources/App/Greeter.swift", nil)
	if err != nil {
		t.Fatalf("FileIndex failed: %v", err)
	}

	if fi.Path != "Sources/App/Greeter.swift" {
		t.Errorf("Path = %q", fi.Path)
	}
	if len(fi.Root.Children) != 5 {
		t.Errorf("len(Children) = %d, want 5", len(fi.Root.Children))
	}

	wantImports := []semantic.Dependency{
		{Module: "UIKit", Line: 0},
		{Module: "Foundation", Line: 1},
	}
	if len(fi.Imports) != len(wantImports) {
		t.Fatalf("Imports = %+v, want %+v", fi.Imports, wantImports)
	}
	for i, want := range wantImports {
		if fi.Imports[i] != want {
			t.Errorf("Imports[%d] = %+v, want %+v", i, fi.Imports[i], want)
		}
	}

	// The UILabel reference keeps its kind and display name
	var ref *semantic.Entity
	for i := range fi.Root.Children {
		if fi.Root.Children[i].Kind == semantic.KindReference {
			ref = &fi.Root.Children[i]
		}
	}
	if ref == nil {
		t.Fatal("no reference entity found")
	}
	if ref.Name != "UILabel" || ref.Line != 4 || ref.Column != 16 {
		t.Errorf("reference = %+v", ref)
	}
}

func TestAdapterFileIndexNotIndexed(t *testing.T) {
	repoRoot, indexPath := writeFixture(t, greeterIndex())
	adapter := NewAdapter(Config{RepoRoot: repoRoot, IndexPath: indexPath}, quietLogger())

	_, err := adapter.FileIndex(context.Background(), "Sources/App/Other.swift", nil)
	if err == nil {
		t.Fatal("expected error for unindexed file")
	}
	var lintErr *errors.LintError
	if !stderrors.As(err, &lintErr) || lintErr.Code != errors.FileNotIndexed {
		t.Errorf("error = %v, want FILE_NOT_INDEXED", err)
	}
}

func TestAdapterResolveAt(t *testing.T) {
	repoRoot, indexPath := writeFixture(t, greeterIndex())
	adapter := NewAdapter(Config{RepoRoot: repoRoot, IndexPath: indexPath}, quietLogger())
	ctx := context.Background()

	// Line starts: 0, 13, 31, 32, 48
	tests := []struct {
		name       string
		offset     uint32
		wantUSR    string
		wantModule string
		wantErr    bool
	}{
		{"UILabel reference", 48 + 16, "scip-swift spm UIKit 17.0 UILabel#", "UIKit", false},
		{"mid UILabel", 48 + 20, "scip-swift spm UIKit 17.0 UILabel#", "UIKit", false},
		{"Greeter definition", 32 + 6, "scip-swift spm app 1.0 Greeter#", "app", false},
		{"local symbol", 48 + 8, "local 1", "", false},
		{"whitespace", 48 + 14, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ans, err := adapter.ResolveAt(ctx, "Sources/App/Greeter.swift", tt.offset, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", ans)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveAt failed: %v", err)
			}
			if ans.USR != tt.wantUSR {
				t.Errorf("USR = %q, want %q", ans.USR, tt.wantUSR)
			}
			if ans.Module != tt.wantModule {
				t.Errorf("Module = %q, want %q", ans.Module, tt.wantModule)
			}
		})
	}
}

func TestAdapterStale(t *testing.T) {
	repoRoot, indexPath := writeFixture(t, greeterIndex())
	adapter := NewAdapter(Config{RepoRoot: repoRoot, IndexPath: indexPath}, quietLogger())
	ctx := context.Background()

	if _, err := adapter.FileIndex(ctx, "Sources/App/Greeter.swift", nil); err != nil {
		t.Fatalf("FileIndex failed: %v", err)
	}

	srcPath := filepath.Join(repoRoot, "Sources", "App", "Greeter.swift")
	ixInfo, err := os.Stat(indexPath)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}

	older := ixInfo.ModTime().Add(-time.Hour)
	if err := os.Chtimes(srcPath, older, older); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}
	if adapter.Stale("Sources/App/Greeter.swift") {
		t.Error("file older than index should not be stale")
	}

	newer := ixInfo.ModTime().Add(time.Hour)
	if err := os.Chtimes(srcPath, newer, newer); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}
	if !adapter.Stale("Sources/App/Greeter.swift") {
		t.Error("file newer than index should be stale")
	}
}
