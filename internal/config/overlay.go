package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Overlay is the rule overlay read from .implint.yml at the repo root.
// It carries rule settings only; everything else lives in config.json.
// Overlay values win over config.json values.
type Overlay struct {
	Rules map[string]RuleConfig `yaml:"rules"`
}

var overlayNames = []string{".implint.yml", ".implint.yaml"}

// LoadOverlay reads the rule overlay if one exists. A missing overlay is
// not an error; both return values are nil.
func LoadOverlay(repoRoot string) (*Overlay, error) {
	for _, name := range overlayNames {
		data, err := os.ReadFile(filepath.Join(repoRoot, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		var o Overlay
		if err := yaml.Unmarshal(data, &o); err != nil {
			return nil, &ConfigError{Field: name, Message: err.Error()}
		}
		return &o, nil
	}
	return nil, nil
}

// ApplyOverlay merges overlay rule settings into the config. Severity and
// enablement replace; options merge key by key.
func (c *Config) ApplyOverlay(o *Overlay) {
	if o == nil {
		return
	}
	if c.Rules == nil {
		c.Rules = map[string]RuleConfig{}
	}
	for name, oc := range o.Rules {
		base := c.Rules[name]
		if oc.Enabled != nil {
			base.Enabled = oc.Enabled
		}
		if oc.Severity != "" {
			base.Severity = oc.Severity
		}
		if len(oc.Options) > 0 {
			if base.Options == nil {
				base.Options = map[string]interface{}{}
			}
			for k, v := range oc.Options {
				base.Options[k] = v
			}
		}
		c.Rules[name] = base
	}
}
