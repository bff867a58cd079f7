package lint

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"implint/internal/errors"
	"implint/internal/paths"
)

// discover resolves the run's targets to a sorted, deduplicated list of
// repo-relative Swift files. Explicit paths win over the configured
// include roots; excluded directory names are pruned during the walk
// except when named as a root themselves.
func (e *Engine) discover(explicit []string) ([]string, error) {
	roots := explicit
	if len(roots) == 0 {
		roots = e.cfg.Lint.Include
	}

	excluded := make(map[string]bool, len(e.cfg.Lint.Exclude))
	for _, name := range e.cfg.Lint.Exclude {
		excluded[name] = true
	}

	seen := make(map[string]bool)
	var files []string
	add := func(abs string) {
		rel, err := paths.CanonicalizePath(abs, e.repoRoot)
		if err != nil || strings.HasPrefix(rel, "..") {
			return
		}
		if !seen[rel] {
			seen[rel] = true
			files = append(files, rel)
		}
	}

	for _, root := range roots {
		abs := root
		if !filepath.IsAbs(abs) {
			abs = paths.JoinRepoPath(e.repoRoot, root)
		}

		info, err := os.Stat(abs)
		if err != nil {
			return nil, errors.NewLintError(
				errors.FileNotFound,
				fmt.Sprintf("lint target not found: %s", root),
				err,
			)
		}

		if !info.IsDir() {
			if strings.HasSuffix(abs, ".swift") {
				add(abs)
			}
			continue
		}

		walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != abs && excluded[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(d.Name(), ".swift") {
				add(path)
			}
			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, walkErr)
		}
	}

	sort.Strings(files)
	return files, nil
}
