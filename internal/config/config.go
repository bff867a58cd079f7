package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"implint/internal/paths"
)

// Config represents the complete implint configuration (v1 schema)
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	Index    IndexConfig           `json:"index" mapstructure:"index"`
	Lint     LintConfig            `json:"lint" mapstructure:"lint"`
	Modules  ModulesConfig         `json:"modules" mapstructure:"modules"`
	Baseline BaselineConfig        `json:"baseline" mapstructure:"baseline"`
	Logging  LoggingConfig         `json:"logging" mapstructure:"logging"`
	Rules    map[string]RuleConfig `json:"rules,omitempty" mapstructure:"rules"`
}

// IndexConfig contains semantic index configuration
type IndexConfig struct {
	Path           string `json:"path" mapstructure:"path"`
	Command        string `json:"command,omitempty" mapstructure:"command"`
	QueryTimeoutMs int    `json:"queryTimeoutMs" mapstructure:"queryTimeoutMs"`
}

// LintConfig contains file discovery configuration
type LintConfig struct {
	Include []string `json:"include" mapstructure:"include"`
	Exclude []string `json:"exclude" mapstructure:"exclude"`
}

// ModulesConfig locates the module manifest and build manifest
type ModulesConfig struct {
	ManifestPath    string `json:"manifestPath" mapstructure:"manifestPath"`
	BuildConfigPath string `json:"buildConfigPath" mapstructure:"buildConfigPath"`
}

// BaselineConfig contains baseline store configuration
type BaselineConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// RuleConfig holds the settings for a single rule. Enabled is a pointer
// so an absent key can be told apart from an explicit false. Options
// carries rule-specific keys that the rule itself decodes.
type RuleConfig struct {
	Enabled  *bool                  `json:"enabled,omitempty" yaml:"enabled" mapstructure:"enabled"`
	Severity string                 `json:"severity,omitempty" yaml:"severity" mapstructure:"severity"`
	Options  map[string]interface{} `json:"options,omitempty" yaml:",inline" mapstructure:"options"`
}

// IsEnabled reports whether the rule is on, falling back to the rule's
// own default when the config does not say.
func (r RuleConfig) IsEnabled(defaultOn bool) bool {
	if r.Enabled == nil {
		return defaultOn
	}
	return *r.Enabled
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		RepoRoot: ".",
		Index: IndexConfig{
			Path:           paths.WorkspaceDirName + "/index.scip",
			QueryTimeoutMs: 5000,
		},
		Lint: LintConfig{
			Include: []string{"."},
			Exclude: []string{".git", ".build", ".swiftpm", "Pods", "DerivedData"},
		},
		Modules: ModulesConfig{
			ManifestPath:    "modules.toml",
			BuildConfigPath: "build.toml",
		},
		Baseline: BaselineConfig{
			Path: paths.WorkspaceDirName + "/baseline.db",
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
		Rules: map[string]RuleConfig{},
	}
}

// LoadConfig loads configuration from .implint/config.json, then layers
// the rule overlay from .implint.yml on top when one exists.
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("version", 1)
	v.SetDefault("repoRoot", ".")

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, paths.WorkspaceDirName))

	cfg := DefaultConfig()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file: defaults plus any overlay.
	} else {
		if err := v.Unmarshal(cfg); err != nil {
			return nil, err
		}
		applyFallbacks(cfg)
	}

	overlay, err := LoadOverlay(repoRoot)
	if err != nil {
		return nil, err
	}
	cfg.ApplyOverlay(overlay)

	return cfg, nil
}

// applyFallbacks fills zero values left by a partial config file.
func applyFallbacks(cfg *Config) {
	def := DefaultConfig()
	if cfg.Index.Path == "" {
		cfg.Index.Path = def.Index.Path
	}
	if cfg.Index.QueryTimeoutMs <= 0 {
		cfg.Index.QueryTimeoutMs = def.Index.QueryTimeoutMs
	}
	if len(cfg.Lint.Include) == 0 {
		cfg.Lint.Include = def.Lint.Include
	}
	if cfg.Lint.Exclude == nil {
		cfg.Lint.Exclude = def.Lint.Exclude
	}
	if cfg.Modules.ManifestPath == "" {
		cfg.Modules.ManifestPath = def.Modules.ManifestPath
	}
	if cfg.Modules.BuildConfigPath == "" {
		cfg.Modules.BuildConfigPath = def.Modules.BuildConfigPath
	}
	if cfg.Baseline.Path == "" {
		cfg.Baseline.Path = def.Baseline.Path
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Rules == nil {
		cfg.Rules = map[string]RuleConfig{}
	}
}

// Save writes the configuration to .implint/config.json
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, paths.WorkspaceDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Marshal to JSON with indentation
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	// Write to file
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Index.Path == "" {
		return &ConfigError{Field: "index.path", Message: "index path must not be empty"}
	}
	switch c.Logging.Format {
	case "", "human", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "format must be 'human' or 'json'"}
	}
	for name, rc := range c.Rules {
		switch rc.Severity {
		case "", "error", "warning":
		default:
			return &ConfigError{Field: "rules." + name + ".severity", Message: "severity must be 'error' or 'warning'"}
		}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
