// Package lint runs the configured rules over a repository's Swift
// sources and aggregates the findings into a report. The engine owns
// discovery, per-file context construction, suppression and baseline
// filtering, and freshness warnings; the rules own the analysis.
package lint

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"implint/internal/baseline"
	"implint/internal/buildcfg"
	"implint/internal/config"
	"implint/internal/logging"
	"implint/internal/modules"
	"implint/internal/paths"
	"implint/internal/rule"
	"implint/internal/rules/sortedimports"
	"implint/internal/rules/unusedimport"
	"implint/internal/semantic"
	"implint/internal/semantic/scip"
	"implint/internal/source"
	"implint/internal/syntax"
)

// Mode selects what a run does with findings.
type Mode string

const (
	// ModeCheck reports violations without touching files.
	ModeCheck Mode = "check"
	// ModeFix applies corrections to files.
	ModeFix Mode = "fix"
)

// freshness is implemented by services that can compare a file's
// modification time against the index build time.
type freshness interface {
	Stale(path string) bool
}

// Options configures an Engine.
type Options struct {
	// RepoRoot anchors discovery and all relative paths.
	RepoRoot string

	// Config is the loaded configuration. Nil means defaults.
	Config *config.Config

	// Logger receives engine and rule diagnostics.
	Logger *logging.Logger

	// Service overrides the SCIP-backed default semantic service.
	Service semantic.Service
}

// RunOptions configures a single run.
type RunOptions struct {
	// Paths restricts the run to explicit files or directories
	// (repo-relative or absolute). Empty means the configured include
	// roots.
	Paths []string

	// Mode selects check or fix.
	Mode Mode

	// Baseline filters out accepted findings in check mode when set.
	Baseline *baseline.Store
}

// Engine wires configuration, the semantic service, and the rule set
// into runnable lint passes.
type Engine struct {
	repoRoot string
	cfg      *config.Config
	logger   *logging.Logger
	service  semantic.Service
	stale    func(string) bool
	manifest *modules.Manifest
	build    *buildcfg.BuildConfig
	parser   *syntax.Parser
	registry *rule.Registry
	enabled  map[string]bool
}

// NewEngine builds an engine from configuration. The module manifest and
// build manifest are optional; a missing semantic index only surfaces
// when a rule queries it.
func NewEngine(opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger(logging.Config{
			Format: logging.ParseFormat(cfg.Logging.Format),
			Level:  logging.ParseLevel(cfg.Logging.Level),
		})
	}

	manifest, err := modules.LoadManifest(opts.RepoRoot, cfg.Modules.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("module manifest: %w", err)
	}
	build, err := buildcfg.LoadFromRepo(opts.RepoRoot, cfg.Modules.BuildConfigPath)
	if err != nil {
		return nil, fmt.Errorf("build manifest: %w", err)
	}

	service := opts.Service
	if service == nil {
		service = scip.NewAdapter(scip.Config{
			RepoRoot:     opts.RepoRoot,
			IndexPath:    paths.JoinRepoPath(opts.RepoRoot, cfg.Index.Path),
			QueryTimeout: time.Duration(cfg.Index.QueryTimeoutMs) * time.Millisecond,
		}, logger)
	}

	e := &Engine{
		repoRoot: opts.RepoRoot,
		cfg:      cfg,
		logger:   logger,
		service:  service,
		manifest: manifest,
		build:    build,
		parser:   syntax.NewParser(),
		registry: rule.NewRegistry(),
		enabled:  make(map[string]bool),
	}
	if fs, ok := service.(freshness); ok {
		e.stale = fs.Stale
	}
	if e.parser == nil {
		logger.Debug("Swift grammar not compiled in; resolver token rescan disabled", nil)
	}

	if err := e.buildRules(); err != nil {
		return nil, err
	}
	return e, nil
}

// buildRules constructs and configures the rule set from the manifest
// and per-rule config.
func (e *Engine) buildRules() error {
	unused := unusedimport.New(e.logger)
	unused.AddAllowances(e.manifest.TransitiveAllowances())
	unused.AddAlwaysKeep(e.manifest.AlwaysKeep())

	sorted := sortedimports.New(e.logger)

	for _, r := range []rule.Rule{unused, sorted} {
		rc := e.cfg.Rules[r.Name()]
		if err := r.Configure(rc); err != nil {
			return &config.ConfigError{Field: "rules." + r.Name(), Message: err.Error()}
		}
		e.enabled[r.Name()] = rc.IsEnabled(r.EnabledByDefault())
		if err := e.registry.Register(r); err != nil {
			return err
		}
	}

	// The corrector's post-insertion ordering pass; only when the
	// sorting rule is on.
	if e.enabled[sorted.Name()] {
		unused.SetSorter(sorted)
	}
	return nil
}

// Rules returns the registered rules in name order, with their enabled
// state.
func (e *Engine) Rules() []RuleInfo {
	var infos []RuleInfo
	for _, r := range e.registry.All() {
		infos = append(infos, RuleInfo{
			Name:            r.Name(),
			Description:     r.Description(),
			DefaultSeverity: string(r.DefaultSeverity()),
			Enabled:         e.enabled[r.Name()],
		})
	}
	return infos
}

// RuleInfo describes one registered rule.
type RuleInfo struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	DefaultSeverity string `json:"defaultSeverity"`
	Enabled         bool   `json:"enabled"`
}

// Service exposes the engine's semantic service, for doctor checks.
func (e *Engine) Service() semantic.Service {
	return e.service
}

// Config exposes the effective configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Run lints the discovered files in the requested mode.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	start := time.Now()

	files, err := e.discover(opts.Paths)
	if err != nil {
		return nil, err
	}

	var accepted map[string]bool
	if opts.Baseline != nil && opts.Mode == ModeCheck {
		accepted, err = opts.Baseline.Fingerprints()
		if err != nil {
			return nil, err
		}
	}

	report := &Report{
		RunID:   uuid.New().String(),
		Mode:    string(opts.Mode),
		Summary: Summary{ByRule: make(map[string]int)},
	}

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result := e.lintFile(ctx, rel, opts.Mode, accepted, &report.Summary)
		if result.Stale {
			report.StaleFiles++
		}
		report.Results = append(report.Results, result)
	}

	report.Summary.Files = len(files)
	report.DurationMs = time.Since(start).Milliseconds()

	e.logger.Info("Lint run complete", map[string]interface{}{
		"runId":      report.RunID,
		"mode":       report.Mode,
		"files":      report.Summary.Files,
		"violations": report.Summary.Violations,
		"duration":   report.DurationMs,
	})
	return report, nil
}

// lintFile builds the per-file context and runs every enabled rule.
func (e *Engine) lintFile(ctx context.Context, rel string, mode Mode, accepted map[string]bool, summary *Summary) FileResult {
	result := FileResult{Path: rel}

	f, err := source.Load(paths.JoinRepoPath(e.repoRoot, rel))
	if err != nil {
		result.Skipped = fmt.Sprintf("could not read file: %v", err)
		e.logger.Warn("Skipping file", map[string]interface{}{
			"file":  rel,
			"error": err.Error(),
		})
		return result
	}

	target := &rule.Target{
		RepoRoot:  e.repoRoot,
		RelPath:   rel,
		File:      f,
		BuildArgs: e.build.ArgsFor(rel),
		Tokens:    e.tokenize(ctx, rel, f),
		Service:   e.service,
	}
	if e.stale != nil && e.stale(rel) {
		result.Stale = true
	}

	suppressions := rule.ParseSuppressions(f)

	for _, r := range e.registry.All() {
		if !e.enabled[r.Name()] {
			continue
		}
		switch mode {
		case ModeFix:
			fixer, ok := r.(rule.FixRule)
			if !ok {
				continue
			}
			corrections, err := fixer.Fix(ctx, target)
			if err != nil {
				e.logger.Error("Rule fix failed", map[string]interface{}{
					"rule":  r.Name(),
					"file":  rel,
					"error": err.Error(),
				})
				continue
			}
			result.Corrections = append(result.Corrections, corrections...)
			summary.Corrections += len(corrections)

		default:
			checker, ok := r.(rule.CheckRule)
			if !ok {
				continue
			}
			violations, err := checker.Check(ctx, target)
			if err != nil {
				e.logger.Error("Rule check failed", map[string]interface{}{
					"rule":  r.Name(),
					"file":  rel,
					"error": err.Error(),
				})
				continue
			}
			for _, v := range violations {
				if suppressions.Suppressed(v.Rule, v.Location.Line) {
					summary.Suppressed++
					continue
				}
				if accepted != nil && accepted[baseline.Fingerprint(v)] {
					summary.Baselined++
					continue
				}
				result.Violations = append(result.Violations, v)
				summary.Violations++
				summary.ByRule[v.Rule]++
				if v.Severity == rule.SeverityError {
					summary.Errors++
				} else {
					summary.Warnings++
				}
			}
		}
	}

	return result
}

// tokenize produces the syntax token stream for the resolver's rescan.
// Parse failures degrade to an empty stream; the rescan simply finds no
// candidates.
func (e *Engine) tokenize(ctx context.Context, rel string, f *source.File) []syntax.Token {
	if e.parser == nil {
		return nil
	}
	tokens, err := e.parser.Tokenize(ctx, f.Contents())
	if err != nil {
		e.logger.Debug("Tokenize failed", map[string]interface{}{
			"file":  rel,
			"error": err.Error(),
		})
		return nil
	}
	return tokens
}
