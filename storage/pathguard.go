// Package storage confines return files to a single safe root directory.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const rootDirPerm = 0o700

// ErrPathTraversal indicates a filename resolved outside the safe root.
var ErrPathTraversal = errors.New("path escapes safe directory")

// PathGuard resolves user-supplied filenames to absolute paths inside one
// fixed root directory, rejecting traversal attempts.
type PathGuard struct {
	root string
}

// NewPathGuard canonicalizes root, ensures it exists with owner-only
// permissions, and returns a guard bound to it.
func NewPathGuard(root string) (*PathGuard, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root directory: %w", err)
	}
	if err := os.MkdirAll(abs, rootDirPerm); err != nil {
		return nil, fmt.Errorf("creating root directory: %w", err)
	}
	// Resolve symlinks in the root itself so containment checks compare
	// canonical paths.
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("canonicalizing root directory: %w", err)
	}
	return &PathGuard{root: canonical}, nil
}

// Root returns the canonical safe root directory.
func (g *PathGuard) Root() string {
	return g.root
}

// Resolve joins name to the root and verifies the canonical result is still
// a descendant of the root. The name must be a bare filename: separators,
// parent references, and absolute paths are rejected.
func (g *PathGuard) Resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty filename", ErrPathTraversal)
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: absolute path not allowed", ErrPathTraversal)
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: filename must not contain path separators", ErrPathTraversal)
	}
	if name == "." || name == ".." || strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: parent reference not allowed", ErrPathTraversal)
	}

	joined := filepath.Join(g.root, name)

	// The file itself may not exist yet; canonicalize through the deepest
	// existing ancestor to catch symlinks pointing outside the root.
	canonical, err := canonicalize(joined)
	if err != nil {
		return "", fmt.Errorf("canonicalizing %q: %w", name, err)
	}

	rel, err := filepath.Rel(g.root, canonical)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrPathTraversal, name)
	}
	return canonical, nil
}

// canonicalize resolves symlinks for path, tolerating a non-existent final
// component. A dangling symlink still redirects a future write, so the
// final component is followed manually when EvalSymlinks cannot.
func canonicalize(path string) (string, error) {
	const maxLinkDepth = 8
	for depth := 0; depth < maxLinkDepth; depth++ {
		resolved, err := filepath.EvalSymlinks(path)
		if err == nil {
			return resolved, nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		dir, err := filepath.EvalSymlinks(filepath.Dir(path))
		if err != nil {
			return "", err
		}
		joined := filepath.Join(dir, filepath.Base(path))

		fi, lerr := os.Lstat(joined)
		if lerr != nil || fi.Mode()&os.ModeSymlink == 0 {
			return joined, nil
		}
		target, rerr := os.Readlink(joined)
		if rerr != nil {
			return "", rerr
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(dir, target)
		}
		path = target
	}
	return "", fmt.Errorf("too many levels of symbolic links in %q", path)
}
