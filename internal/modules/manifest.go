// Package modules reads the project module manifest. The manifest
// records what each Swift module re-exports and which modules must
// never be flagged, so lint decisions can respect module boundaries
// the index alone cannot see.
package modules

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	toml "github.com/pelletier/go-toml/v2"
)

// ManifestFile is the default filename for module declarations
const ManifestFile = "modules.toml"

// ModuleDeclaration represents a declared module in modules.toml
type ModuleDeclaration struct {
	// Name is the Swift module name as it appears in import statements
	Name string `toml:"name"`

	// Reexports lists modules whose API this module re-exports.
	// Importing this module makes the listed modules reachable.
	Reexports []string `toml:"reexports,omitempty"`

	// AlwaysKeep marks the module as exempt from unused-import
	// reporting (test frameworks, linker-effect imports)
	AlwaysKeep bool `toml:"always_keep,omitempty"`
}

// Manifest represents the root structure of modules.toml
type Manifest struct {
	// Version is the schema version
	Version int `toml:"version"`

	// Modules is the list of declared modules
	Modules []ModuleDeclaration `toml:"module"`
}

// ParseManifest parses a modules.toml file from the given path
func ParseManifest(filePath string) (*Manifest, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read modules.toml: %w", err)
	}

	var manifest Manifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse modules.toml: %w", err)
	}

	// Validate version
	if manifest.Version < 1 {
		manifest.Version = 1 // Default to version 1
	}

	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	return &manifest, nil
}

// LoadManifest loads the module manifest if one exists. A missing
// manifest is not an error; both return values are nil.
func LoadManifest(repoRoot string, manifestPath string) (*Manifest, error) {
	if manifestPath == "" {
		manifestPath = ManifestFile
	}

	filePath := filepath.Join(repoRoot, manifestPath)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, nil // No manifest file
	}

	return ParseManifest(filePath)
}

// Validate checks declarations for missing names and duplicates
func (m *Manifest) Validate() error {
	seen := make(map[string]bool, len(m.Modules))
	for _, decl := range m.Modules {
		if decl.Name == "" {
			return fmt.Errorf("module declaration missing required 'name' field")
		}
		if seen[decl.Name] {
			return fmt.Errorf("duplicate module declaration %q", decl.Name)
		}
		seen[decl.Name] = true
	}
	return nil
}

// TransitiveAllowances returns, per module, the modules its import makes
// reachable. Modules without re-exports are omitted.
func (m *Manifest) TransitiveAllowances() map[string][]string {
	if m == nil {
		return nil
	}
	out := make(map[string][]string)
	for _, decl := range m.Modules {
		if len(decl.Reexports) == 0 {
			continue
		}
		out[decl.Name] = append([]string(nil), decl.Reexports...)
	}
	return out
}

// AlwaysKeep returns the sorted names of modules marked always_keep.
func (m *Manifest) AlwaysKeep() []string {
	if m == nil {
		return nil
	}
	var names []string
	for _, decl := range m.Modules {
		if decl.AlwaysKeep {
			names = append(names, decl.Name)
		}
	}
	sort.Strings(names)
	return names
}

// WriteManifest writes a Manifest to the given path
func WriteManifest(filePath string, manifest *Manifest) error {
	data, err := toml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal modules.toml: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write modules.toml: %w", err)
	}

	return nil
}

// CreateExampleManifest creates an example modules.toml file
func CreateExampleManifest(filePath string) error {
	example := &Manifest{
		Version: 1,
		Modules: []ModuleDeclaration{
			{
				Name:      "UIKit",
				Reexports: []string{"Foundation", "CoreGraphics"},
			},
			{
				Name:      "SpriteKit",
				Reexports: []string{"CoreGraphics", "simd"},
			},
			{
				Name:       "XCTest",
				AlwaysKeep: true,
			},
		},
	}

	return WriteManifest(filePath, example)
}
