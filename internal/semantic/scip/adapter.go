package scip

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"implint/internal/errors"
	"implint/internal/logging"
	"implint/internal/paths"
	"implint/internal/semantic"
	"implint/internal/source"
)

// Config holds the adapter configuration.
type Config struct {
	// RepoRoot anchors canonical paths; SCIP documents are relative to it.
	RepoRoot string
	// IndexPath locates the index file. Defaults to .implint/index.scip
	// under the repo root.
	IndexPath string
	// QueryTimeout bounds a single query. Defaults to 5s.
	QueryTimeout time.Duration
}

// Adapter implements semantic.Service over a SCIP index. The index is
// loaded lazily on first query and kept in memory. Point queries convert
// byte offsets to positions against the current on-disk file text, then
// match occurrences by range containment.
type Adapter struct {
	logger *logging.Logger
	cfg    Config

	mu      sync.RWMutex
	index   *Index
	loadErr error
	loaded  bool
	files   map[string]*cachedFile
}

// cachedFile keeps a file's line table valid as long as the file on disk
// is unchanged.
type cachedFile struct {
	file    *source.File
	modTime time.Time
	size    int64
}

// NewAdapter creates a SCIP-backed semantic service.
func NewAdapter(cfg Config, logger *logging.Logger) *Adapter {
	if cfg.IndexPath == "" {
		cfg.IndexPath = paths.DefaultIndexPath(cfg.RepoRoot)
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 5 * time.Second
	}
	return &Adapter{
		logger: logger,
		cfg:    cfg,
		files:  make(map[string]*cachedFile),
	}
}

// ID identifies the adapter.
func (a *Adapter) ID() string {
	return "scip"
}

// Available reports whether the index file exists.
func (a *Adapter) Available() bool {
	_, err := os.Stat(a.cfg.IndexPath)
	return err == nil
}

// IndexInfo loads the index if needed and returns it, for doctor checks.
func (a *Adapter) IndexInfo(ctx context.Context) (*Index, error) {
	return a.ensureLoaded(ctx)
}

// ensureLoaded loads the index exactly once; the result (or failure) is
// cached for the adapter's lifetime.
func (a *Adapter) ensureLoaded(ctx context.Context) (*Index, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	a.mu.RLock()
	if a.loaded {
		ix, err := a.index, a.loadErr
		a.mu.RUnlock()
		return ix, err
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loaded {
		return a.index, a.loadErr
	}

	start := time.Now()
	ix, err := LoadIndex(a.cfg.IndexPath)
	a.index, a.loadErr, a.loaded = ix, err, true

	if err != nil {
		a.logger.Error("Failed to load SCIP index", map[string]interface{}{
			"path":  a.cfg.IndexPath,
			"error": err.Error(),
		})
		return nil, err
	}

	a.logger.Info("Loaded SCIP index", map[string]interface{}{
		"path":      a.cfg.IndexPath,
		"documents": ix.DocumentCount(),
		"tool":      ix.ToolName(),
		"duration":  time.Since(start).Milliseconds(),
	})
	return ix, nil
}

// canonical converts a lint target path to the repo-relative form used by
// SCIP documents.
func (a *Adapter) canonical(path string) (string, error) {
	if filepath.IsAbs(path) {
		return paths.CanonicalizePath(path, a.cfg.RepoRoot)
	}
	return paths.NormalizePath(path), nil
}

// absolute converts a lint target path to an absolute on-disk path.
func (a *Adapter) absolute(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return paths.JoinRepoPath(a.cfg.RepoRoot, path)
}

// document finds the index document for a path.
func (a *Adapter) document(ctx context.Context, path string) (*document, string, error) {
	ix, err := a.ensureLoaded(ctx)
	if err != nil {
		return nil, "", err
	}
	rel, err := a.canonical(path)
	if err != nil {
		return nil, "", err
	}
	doc, ok := ix.documents[rel]
	if !ok {
		return nil, rel, errors.NewLintError(
			errors.FileNotIndexed,
			fmt.Sprintf("no index document for %s", rel),
			nil,
		)
	}
	return doc, rel, nil
}

// FileIndex returns the entity tree and declared imports for a file.
func (a *Adapter) FileIndex(ctx context.Context, path string, buildArgs []string) (*semantic.FileIndex, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	doc, rel, err := a.document(ctx, path)
	if err != nil {
		return nil, err
	}

	children := make([]semantic.Entity, 0, len(doc.occurrences))
	var imports []semantic.Dependency
	for _, occ := range doc.occurrences {
		line, col := startOf(occ.rng)
		children = append(children, semantic.Entity{
			Kind:   kindForRoles(occ.roles),
			Name:   doc.names[occ.symbol],
			USR:    occ.symbol,
			Line:   line,
			Column: col,
		})
		if occ.roles&roleImport != 0 {
			module := moduleForSymbol(occ.symbol)
			if module == "" {
				module = doc.names[occ.symbol]
			}
			imports = append(imports, semantic.Dependency{Module: module, Line: line})
		}
	}

	return &semantic.FileIndex{
		Path:    rel,
		Root:    semantic.Entity{Kind: semantic.KindFile, Name: rel, Children: children},
		Imports: semantic.NormalizeImports(imports),
	}, nil
}

// ResolveAt reports the symbol at a byte offset in the file. The offset is
// interpreted against the current file contents on disk; the narrowest
// occurrence containing the resulting position wins.
func (a *Adapter) ResolveAt(ctx context.Context, path string, offset uint32, buildArgs []string) (*semantic.SymbolAnswer, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	doc, rel, err := a.document(ctx, path)
	if err != nil {
		return nil, err
	}

	f, err := a.currentFile(a.absolute(path))
	if err != nil {
		return nil, err
	}
	line, col := f.Position(offset)

	var best *occurrence
	var bestSpan uint32
	for i := range doc.occurrences {
		occ := &doc.occurrences[i]
		if !containsPosition(line, col, occ.rng) {
			continue
		}
		s := span(occ.rng)
		if best == nil || s < bestSpan {
			best, bestSpan = occ, s
		}
	}
	if best == nil {
		return nil, errors.NewLintError(
			errors.SymbolNotFound,
			fmt.Sprintf("no symbol at %s:%d:%d", rel, line+1, col+1),
			nil,
		)
	}

	return &semantic.SymbolAnswer{
		USR:    best.symbol,
		Module: moduleForSymbol(best.symbol),
	}, nil
}

// Stale reports whether a file changed after the index was built. Only
// meaningful once the index has loaded.
func (a *Adapter) Stale(path string) bool {
	a.mu.RLock()
	ix := a.index
	a.mu.RUnlock()
	if ix == nil {
		return false
	}
	info, err := os.Stat(a.absolute(path))
	if err != nil {
		return false
	}
	return info.ModTime().After(ix.modTime)
}

// currentFile returns the on-disk file, re-reading it when its stat
// signature changed since the last query.
func (a *Adapter) currentFile(absPath string) (*source.File, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}

	a.mu.RLock()
	cached := a.files[absPath]
	a.mu.RUnlock()
	if cached != nil && cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() {
		return cached.file, nil
	}

	f, err := source.Load(absPath)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.files[absPath] = &cachedFile{file: f, modTime: info.ModTime(), size: info.Size()}
	a.mu.Unlock()
	return f, nil
}
