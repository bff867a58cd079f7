// Package unusedimport implements the unused_import rule: every
// declared import must own at least one symbol the file uses, and in
// strict mode every used module must be imported explicitly.
//
// The rule leans entirely on the semantic service for ground truth. It
// collects the file's symbol-use sites, resolves each one to its owning
// module through point queries, and compares the resolved module set
// against the declared imports. Without a working service the rule
// reports nothing rather than guessing.
package unusedimport

import (
	"context"
	"fmt"

	"implint/internal/buildcfg"
	"implint/internal/config"
	"implint/internal/logging"
	"implint/internal/rule"
)

// RuleName is the identifier in config, reports, and suppressions.
const RuleName = "unused_import"

// Rule carries the configured state of one lint run.
type Rule struct {
	logger          *logging.Logger
	severity        rule.Severity
	requireExplicit bool
	allowances      map[string][]string
	alwaysKeep      map[string]bool
	sorter          rule.FixRule
}

// New creates the rule with default settings.
func New(logger *logging.Logger) *Rule {
	return &Rule{
		logger:     logger,
		severity:   rule.SeverityWarning,
		allowances: map[string][]string{},
		alwaysKeep: map[string]bool{},
	}
}

func (r *Rule) Name() string { return RuleName }

func (r *Rule) Description() string {
	return "Imports must be used; strict mode also requires every used module to be imported explicitly"
}

func (r *Rule) DefaultSeverity() rule.Severity { return rule.SeverityWarning }

func (r *Rule) EnabledByDefault() bool { return true }

// SetSorter wires the import-sorting pass run after missing imports are
// inserted.
func (r *Rule) SetSorter(s rule.FixRule) { r.sorter = s }

// AddAllowances merges transitive-allowance rules: importing the anchor
// module also covers uses of its re-exported modules.
func (r *Rule) AddAllowances(allowances map[string][]string) {
	for anchor, transitive := range allowances {
		r.allowances[anchor] = append(r.allowances[anchor], transitive...)
	}
}

// AddAlwaysKeep exempts modules from unused-import reporting.
func (r *Rule) AddAlwaysKeep(modules []string) {
	for _, m := range modules {
		r.alwaysKeep[m] = true
	}
}

func (r *Rule) Configure(cfg config.RuleConfig) error {
	r.severity = rule.ParseSeverity(cfg.Severity, r.DefaultSeverity())

	if v, ok := cfg.Options["require_explicit_imports"]; ok {
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("unused_import: require_explicit_imports must be a boolean")
		}
		r.requireExplicit = b
	}
	if v, ok := cfg.Options["always_keep_imports"]; ok {
		list, err := stringList(v)
		if err != nil {
			return fmt.Errorf("unused_import: always_keep_imports: %w", err)
		}
		r.AddAlwaysKeep(list)
	}
	if v, ok := cfg.Options["allowed_transitive_imports"]; ok {
		m, err := stringListMap(v)
		if err != nil {
			return fmt.Errorf("unused_import: allowed_transitive_imports: %w", err)
		}
		r.AddAllowances(m)
	}
	return nil
}

// Check reports violations without touching the file.
func (r *Rule) Check(ctx context.Context, target *rule.Target) ([]rule.Violation, error) {
	c, ok := r.analyze(ctx, target)
	if !ok {
		return nil, nil
	}

	var violations []rule.Violation
	for _, u := range c.unused {
		offset := u.offset()
		line, column := target.File.Position(offset)
		violations = append(violations, rule.Violation{
			Rule:     RuleName,
			Severity: r.severity,
			Location: rule.Location{Path: target.RelPath, Offset: offset, Line: line, Column: column},
			Message:  fmt.Sprintf("Module '%s' is imported but not used", u.module),
			Module:   u.module,
		})
	}
	for _, module := range c.missing {
		violations = append(violations, rule.Violation{
			Rule:     RuleName,
			Severity: r.severity,
			Location: rule.Location{Path: target.RelPath},
			Message:  fmt.Sprintf("Module '%s' is used but not imported explicitly", module),
			Module:   module,
		})
	}
	return violations, nil
}

// Fix recomputes the analysis from the file's current contents and
// applies corrections. Findings are never carried over from an earlier
// Check; the file may have changed in between.
func (r *Rule) Fix(ctx context.Context, target *rule.Target) ([]rule.Correction, error) {
	c, ok := r.analyze(ctx, target)
	if !ok {
		return nil, nil
	}
	return r.applyCorrections(ctx, target, *c)
}

// analyze runs collection, resolution, and classification. A false
// return means the file could not be analyzed at all: the diagnostic is
// logged and the caller reports nothing, because findings computed
// without index answers would be noise.
func (r *Rule) analyze(ctx context.Context, target *rule.Target) (*classification, bool) {
	if target.Service == nil {
		r.logger.Error("No semantic service configured", map[string]interface{}{
			"file": target.RelPath,
			"rule": RuleName,
		})
		return nil, false
	}

	index, err := target.Service.FileIndex(ctx, target.RelPath, target.BuildArgs)
	if err != nil {
		r.logger.Error("Could not index file", map[string]interface{}{
			"file":  target.RelPath,
			"rule":  RuleName,
			"error": err.Error(),
		})
		return nil, false
	}

	refs := collectReferences(&index.Root)
	resolved := resolveModules(ctx, target, refs)
	if ctx.Err() != nil {
		r.logger.Warn("Analysis canceled", map[string]interface{}{"file": target.RelPath})
		return nil, false
	}

	currentModule := buildcfg.ModuleName(target.BuildArgs)
	c := r.classify(target.File, index.Imports, resolved, currentModule)
	return &c, true
}

func stringList(v interface{}) ([]string, error) {
	raw, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a list of module names")
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected a list of module names")
		}
		out = append(out, s)
	}
	return out, nil
}

func stringListMap(v interface{}) (map[string][]string, error) {
	raw, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a map of module name to re-exported modules")
	}
	out := make(map[string][]string, len(raw))
	for anchor, val := range raw {
		list, err := stringList(val)
		if err != nil {
			return nil, err
		}
		out[anchor] = list
	}
	return out, nil
}
