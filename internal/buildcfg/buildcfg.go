// Package buildcfg reads build.toml, which maps source locations to the
// compiler arguments used when they were indexed. Rules need the
// arguments to know which module a file belongs to.
package buildcfg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"implint/internal/paths"
)

// BuildConfigFile is the default filename for the build manifest
const BuildConfigFile = "build.toml"

// Target maps a source tree prefix to its compiler arguments
type Target struct {
	Name string   `toml:"name"` // Display name
	Path string   `toml:"path"` // Repo-relative path prefix
	Args []string `toml:"args"` // Compiler arguments for files under Path
}

// BuildConfig configures compiler arguments per source location
type BuildConfig struct {
	DefaultArgs []string `toml:"default_args"` // Used when no target matches
	Targets     []Target `toml:"target"`
}

// Load loads a build manifest from a TOML file
func Load(path string) (*BuildConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read build config: %w", err)
	}

	config := &BuildConfig{}

	// Parse TOML
	if _, err := toml.Decode(string(data), config); err != nil {
		return nil, fmt.Errorf("parse build config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid build config: %w", err)
	}

	return config, nil
}

// LoadFromRepo loads the build manifest if one exists. A missing
// manifest is not an error; both return values are nil.
func LoadFromRepo(repoRoot string, relPath string) (*BuildConfig, error) {
	if relPath == "" {
		relPath = BuildConfigFile
	}

	filePath := filepath.Join(repoRoot, relPath)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, nil
	}

	return Load(filePath)
}

// Validate checks that the configuration is valid
func (c *BuildConfig) Validate() error {
	seen := make(map[string]bool)
	for i, target := range c.Targets {
		if target.Path == "" {
			return fmt.Errorf("target[%d]: path is required", i)
		}
		normalized := paths.NormalizePath(target.Path)
		if seen[normalized] {
			return fmt.Errorf("duplicate target path: %s", target.Path)
		}
		seen[normalized] = true
	}
	return nil
}

// TargetFor returns the target whose path prefix covers the given
// repo-relative file, or nil. The longest matching prefix wins.
func (c *BuildConfig) TargetFor(relPath string) *Target {
	if c == nil {
		return nil
	}
	normalized := paths.NormalizePath(relPath)

	var best *Target
	bestLen := -1
	for i := range c.Targets {
		prefix := paths.NormalizePath(c.Targets[i].Path)
		if normalized != prefix && !strings.HasPrefix(normalized, prefix+"/") {
			continue
		}
		if len(prefix) > bestLen {
			best = &c.Targets[i]
			bestLen = len(prefix)
		}
	}
	return best
}

// ArgsFor returns the compiler arguments for a repo-relative file:
// the matching target's args, or the default args.
func (c *BuildConfig) ArgsFor(relPath string) []string {
	if c == nil {
		return nil
	}
	if target := c.TargetFor(relPath); target != nil {
		return target.Args
	}
	return c.DefaultArgs
}

// ModuleName extracts the module a compile belongs to from its
// arguments: the element following "-module-name". Returns "" when the
// flag is absent or is the final element.
func ModuleName(args []string) string {
	for i, arg := range args {
		if arg == "-module-name" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
