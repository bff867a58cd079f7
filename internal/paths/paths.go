// Package paths handles path canonicalization and implint workspace
// locations. SCIP documents store repo-relative forward-slash paths, so
// every lookup against the index goes through CanonicalizePath first.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// WorkspaceDirName is the per-repo directory implint keeps its state in.
const WorkspaceDirName = ".implint"

// WorkspaceDir returns the implint state directory under the repo root.
func WorkspaceDir(repoRoot string) string {
	return filepath.Join(repoRoot, WorkspaceDirName)
}

// DefaultIndexPath returns the default SCIP index location.
func DefaultIndexPath(repoRoot string) string {
	return filepath.Join(WorkspaceDir(repoRoot), "index.scip")
}

// BaselinePath returns the baseline database location.
func BaselinePath(repoRoot string) string {
	return filepath.Join(WorkspaceDir(repoRoot), "baseline.db")
}

// CanonicalizePath converts an absolute path to a repo-relative canonical path
// - Resolves symlinks to real paths
// - Makes path relative to repo root
// - Converts backslashes to forward slashes
// - Returns repo-relative path with forward slashes
func CanonicalizePath(absolutePath string, repoRoot string) (string, error) {
	// Resolve symlinks
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		// If the file doesn't exist yet, use the path as-is
		if os.IsNotExist(err) {
			resolved = absolutePath
		} else {
			return "", err
		}
	}

	repoRootResolved, err := filepath.EvalSymlinks(repoRoot)
	if err != nil {
		if os.IsNotExist(err) {
			repoRootResolved = repoRoot
		} else {
			return "", err
		}
	}

	relativePath, err := filepath.Rel(repoRootResolved, resolved)
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(relativePath), nil
}

// IsWithinRepo checks if a path is within the repository root
func IsWithinRepo(path string, repoRoot string) bool {
	canonical, err := CanonicalizePath(path, repoRoot)
	if err != nil {
		return false
	}

	// Path is outside repo if it starts with ..
	return !strings.HasPrefix(canonical, "..")
}

// NormalizePath normalizes a path by converting backslashes to forward slashes
func NormalizePath(path string) string {
	return filepath.ToSlash(path)
}

// JoinRepoPath joins a repo root with a canonical path
func JoinRepoPath(repoRoot string, canonicalPath string) string {
	normalizedPath := strings.ReplaceAll(canonicalPath, "\\", "/")
	parts := strings.Split(normalizedPath, "/")
	return filepath.Join(append([]string{repoRoot}, parts...)...)
}
