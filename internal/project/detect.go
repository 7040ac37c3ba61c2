package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoRepository indicates no enclosing git repository was found.
var ErrNoRepository = errors.New("not inside a git repository")

// FindRoot walks up from dir to the first directory containing a .git
// entry. Pure file inspection; git itself is never run.
func FindRoot(dir string) (string, error) {
	cur, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(cur, ".git")); err == nil {
			return cur, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", ErrNoRepository
		}
		cur = parent
	}
}

// Detect resolves the project name for the repository containing dir: the
// repository root's directory name.
func Detect(dir string) (string, error) {
	root, err := FindRoot(dir)
	if err != nil {
		return "", err
	}
	return filepath.Base(root), nil
}

// GitDir returns the git directory for a repository root. A .git file
// (worktree or submodule) is followed through its gitdir pointer.
func GitDir(root string) (string, error) {
	p := filepath.Join(root, ".git")
	info, err := os.Stat(p)
	if err != nil {
		return "", fmt.Errorf("locating git directory: %w", err)
	}
	if info.IsDir() {
		return p, nil
	}

	data, err := os.ReadFile(p) //nolint:gosec // G304: inside the repository root
	if err != nil {
		return "", fmt.Errorf("reading .git file: %w", err)
	}
	const prefix = "gitdir:"
	line := strings.TrimSpace(string(data))
	if !strings.HasPrefix(line, prefix) {
		return "", fmt.Errorf("unrecognized .git file at %s", p)
	}
	dir := strings.TrimSpace(strings.TrimPrefix(line, prefix))
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return filepath.Clean(dir), nil
}
