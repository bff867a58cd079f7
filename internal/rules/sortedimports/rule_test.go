package sortedimports

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"implint/internal/logging"
	"implint/internal/rule"
	"implint/internal/source"
)

func fixture(t *testing.T, content string) *rule.Target {
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
	return &rule.Target{
		RepoRoot: dir,
		RelPath:  "Fixture.swift",
		File:     f,
	}
}

func newRule(t *testing.T) *Rule {
	t.Helper()
	return New(logging.NewLogger(logging.Config{
		Format: logging.JSONFormat,
		Level:  logging.ErrorLevel,
		Output: io.Discard,
	}))
}

func TestScanBlocks(t *testing.T) {
	target := fixture(t, `// header

import UIKit
import struct Foundation.Date

class A {}

@testable import AppCore
`)

	blocks := scanBlocks(target.File)
	if len(blocks) != 2 {
		t.Fatalf("scanBlocks() = %d blocks, want 2", len(blocks))
	}

	var modules []string
	for _, l := range blocks[0].lines {
		modules = append(modules, l.module)
	}
	if want := []string{"UIKit", "Foundation.Date"}; !reflect.DeepEqual(modules, want) {
		t.Errorf("first block modules = %v, want %v", modules, want)
	}
	if blocks[0].start() != 2 || blocks[0].end() != 3 {
		t.Errorf("first block lines = %d..%d, want 2..3", blocks[0].start(), blocks[0].end())
	}
	if blocks[1].lines[0].module != "AppCore" || blocks[1].start() != 7 {
		t.Errorf("second block = %+v", blocks[1])
	}
}

func TestCheck_SortedBlock(t *testing.T) {
	target := fixture(t, `import AVFoundation
import CoreData
import UIKit

class A {}
`)

	violations, err := newRule(t).Check(context.Background(), target)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(violations) != 0 {
		t.Errorf("Check() = %+v, want none", violations)
	}
}

func TestCheck_CaseInsensitiveOrder(t *testing.T) {
	// Byte order would put the lowercase module last; the rule compares
	// case-insensitively.
	target := fixture(t, `import avFoundation
import CoreData
`)

	violations, err := newRule(t).Check(context.Background(), target)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(violations) != 0 {
		t.Errorf("Check() = %+v, want none", violations)
	}
}

func TestCheck_UnsortedBlock(t *testing.T) {
	target := fixture(t, `import UIKit
import CoreData
import MapKit

class A {}
`)

	violations, err := newRule(t).Check(context.Background(), target)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("Check() = %d violations, want 1: %+v", len(violations), violations)
	}
	v := violations[0]
	if v.Module != "CoreData" {
		t.Errorf("violation module = %q, want CoreData", v.Module)
	}
	if v.Location.Line != 1 {
		t.Errorf("violation line = %d, want 1", v.Location.Line)
	}
	if v.Rule != "sorted_imports" {
		t.Errorf("violation rule = %q", v.Rule)
	}
}

func TestCheck_BlocksAreIndependent(t *testing.T) {
	// Each block only has to be sorted internally.
	target := fixture(t, `import UIKit

import CoreData
`)

	violations, err := newRule(t).Check(context.Background(), target)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(violations) != 0 {
		t.Errorf("Check() = %+v, want none across separate blocks", violations)
	}
}

func TestFix_SortsBlock(t *testing.T) {
	target := fixture(t, `import UIKit
import Foundation
import CoreData

class A {}
`)

	corrections, err := newRule(t).Fix(context.Background(), target)
	if err != nil {
		t.Fatalf("Fix() error = %v", err)
	}
	if len(corrections) != 1 {
		t.Fatalf("Fix() = %d corrections, want 1: %+v", len(corrections), corrections)
	}
	if corrections[0].Location.Offset != 0 {
		t.Errorf("correction offset = %d, want 0", corrections[0].Location.Offset)
	}

	want := `import CoreData
import Foundation
import UIKit

class A {}
`
	if got := string(target.File.Contents()); got != want {
		t.Errorf("contents after fix:\n%s\nwant:\n%s", got, want)
	}

	onDisk, err := os.ReadFile(filepath.Join(target.RepoRoot, target.RelPath))
	if err != nil {
		t.Fatalf("read fixed file: %v", err)
	}
	if string(onDisk) != want {
		t.Errorf("on-disk contents differ from in-memory contents")
	}
}

func TestFix_PreservesAttributesAndComments(t *testing.T) {
	target := fixture(t, `import Zlib // compression
@testable import AppCore
`)

	if _, err := newRule(t).Fix(context.Background(), target); err != nil {
		t.Fatalf("Fix() error = %v", err)
	}

	want := `@testable import AppCore
import Zlib // compression
`
	if got := string(target.File.Contents()); got != want {
		t.Errorf("contents after fix:\n%s\nwant:\n%s", got, want)
	}
}

func TestFix_MultipleBlocks(t *testing.T) {
	target := fixture(t, `import UIKit
import CoreData

class A {}

import MapKit
import AVFoundation
`)

	corrections, err := newRule(t).Fix(context.Background(), target)
	if err != nil {
		t.Fatalf("Fix() error = %v", err)
	}
	if len(corrections) != 2 {
		t.Fatalf("Fix() = %d corrections, want 2: %+v", len(corrections), corrections)
	}
	if corrections[0].Location.Offset >= corrections[1].Location.Offset {
		t.Errorf("corrections not in ascending order: %+v", corrections)
	}

	want := `import CoreData
import UIKit

class A {}

import AVFoundation
import MapKit
`
	if got := string(target.File.Contents()); got != want {
		t.Errorf("contents after fix:\n%s\nwant:\n%s", got, want)
	}
}

func TestFix_StableForDuplicateModules(t *testing.T) {
	target := fixture(t, `import Zlib
import UIKit // views
import UIKit // extras
`)

	if _, err := newRule(t).Fix(context.Background(), target); err != nil {
		t.Fatalf("Fix() error = %v", err)
	}

	want := `import UIKit // views
import UIKit // extras
import Zlib
`
	if got := string(target.File.Contents()); got != want {
		t.Errorf("contents after fix:\n%s\nwant:\n%s", got, want)
	}
}

func TestFix_NoTrailingNewlineAtEOF(t *testing.T) {
	target := fixture(t, "class A {}\n\nimport UIKit\nimport CoreData")

	if _, err := newRule(t).Fix(context.Background(), target); err != nil {
		t.Fatalf("Fix() error = %v", err)
	}

	want := "class A {}\n\nimport CoreData\nimport UIKit"
	if got := string(target.File.Contents()); got != want {
		t.Errorf("contents after fix:\n%q\nwant:\n%q", got, want)
	}
}

func TestFix_RespectsSuppression(t *testing.T) {
	content := `// implint:disable sorted_imports
import UIKit
import CoreData
`
	target := fixture(t, content)

	corrections, err := newRule(t).Fix(context.Background(), target)
	if err != nil {
		t.Fatalf("Fix() error = %v", err)
	}
	if len(corrections) != 0 {
		t.Errorf("Fix() = %+v, want none under suppression", corrections)
	}
	if got := string(target.File.Contents()); got != content {
		t.Errorf("suppressed block was rewritten:\n%s", got)
	}
}

func TestFix_Idempotent(t *testing.T) {
	target := fixture(t, `import UIKit
import CoreData
`)

	if _, err := newRule(t).Fix(context.Background(), target); err != nil {
		t.Fatalf("first Fix() error = %v", err)
	}
	after := string(target.File.Contents())

	corrections, err := newRule(t).Fix(context.Background(), target)
	if err != nil {
		t.Fatalf("second Fix() error = %v", err)
	}
	if len(corrections) != 0 {
		t.Errorf("second Fix() = %+v, want none", corrections)
	}
	if got := string(target.File.Contents()); got != after {
		t.Errorf("second Fix() changed contents:\n%s", got)
	}
}
