package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"implint/internal/config"
	"implint/internal/lint"
	"implint/internal/logging"
)

var (
	engineOnce   sync.Once
	sharedEngine *lint.Engine
	engineErr    error
)

// getEngine returns a shared lint engine instance.
// The engine is lazily initialized on first use.
func getEngine(repoRoot string, logger *logging.Logger) (*lint.Engine, error) {
	engineOnce.Do(func() {
		// Load configuration
		cfg, err := config.LoadConfig(repoRoot)
		if err != nil {
			logger.Warn("Failed to load config, using defaults", map[string]interface{}{
				"error": err.Error(),
			})
			cfg = config.DefaultConfig()
		}

		if checkStrict || fixStrict {
			applyStrictOverride(cfg)
		}

		engine, err := lint.NewEngine(lint.Options{
			RepoRoot: repoRoot,
			Config:   cfg,
			Logger:   logger,
		})
		if err != nil {
			engineErr = fmt.Errorf("failed to create engine: %w", err)
			return
		}

		sharedEngine = engine
	})

	return sharedEngine, engineErr
}

// applyStrictOverride forces require_explicit_imports on, regardless of
// what the config file says.
func applyStrictOverride(cfg *config.Config) {
	rc := cfg.Rules["unused_import"]
	if rc.Options == nil {
		rc.Options = map[string]interface{}{}
	}
	rc.Options["require_explicit_imports"] = true
	cfg.Rules["unused_import"] = rc
}

// mustGetEngine returns the shared lint engine or exits on error.
func mustGetEngine(repoRoot string, logger *logging.Logger) *lint.Engine {
	engine, err := getEngine(repoRoot, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing engine: %v\n", err)
		os.Exit(1)
	}
	return engine
}

// getRepoRoot returns the repository root directory: the --repo flag
// when given, otherwise the working directory.
func getRepoRoot() (string, error) {
	if repoFlag != "" {
		return repoFlag, nil
	}
	return os.Getwd()
}

// mustGetRepoRoot returns the repository root or exits on error.
func mustGetRepoRoot() string {
	repoRoot, err := getRepoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return repoRoot
}

// newContext creates a new context for command execution.
func newContext() context.Context {
	return context.Background()
}

// newLogger creates a logger with the specified format.
func newLogger(format string) *logging.Logger {
	logFormat := logging.HumanFormat
	if format == "json" {
		logFormat = logging.JSONFormat
	}
	return logging.NewLogger(logging.Config{
		Format: logFormat,
		Level:  logging.InfoLevel,
	})
}
