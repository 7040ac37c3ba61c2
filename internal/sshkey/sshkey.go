// Package sshkey validates the SSH private keys referenced by profiles.
package sshkey

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// ErrKeyNotFound indicates the key file does not exist.
	ErrKeyNotFound = errors.New("ssh key not found")

	// ErrTraversal indicates the path escapes its base directory.
	ErrTraversal = errors.New("ssh key path escapes base directory")

	// ErrBadFormat indicates the file is not a private key.
	ErrBadFormat = errors.New("ssh key is not a valid private key")

	// ErrPermissions indicates the key is readable by other users.
	ErrPermissions = errors.New("ssh key has incorrect permissions")
)

// keyPerm is the only mode SSH accepts for private keys.
const keyPerm = 0o600

// pemHeader matches PEM-style private key headers: OpenSSH, RSA, EC,
// PKCS#8 plain and encrypted.
var pemHeader = regexp.MustCompile(`-----BEGIN [A-Z0-9 ]*PRIVATE KEY-----`)

// Validator checks SSH private key paths before they are stored or applied.
type Validator struct {
	// Home anchors ~ expansion. Empty means the current user's home.
	Home string
}

// Result describes a validated key.
type Result struct {
	// Path is the expanded path to the key.
	Path string

	// Repairs lists fixes applied when fix was requested.
	Repairs []string
}

// Validate checks the key at path. An empty path is valid and means HTTPS
// access, so no checks run. With fix set, wrong permissions are corrected
// to 0600 and reported in Repairs instead of failing the validation.
func (v *Validator) Validate(path string, fix bool) (*Result, error) {
	if path == "" {
		return &Result{}, nil
	}

	expanded, err := v.expand(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, expanded)
		}
		return nil, fmt.Errorf("checking ssh key: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrBadFormat, expanded)
	}

	data, err := os.ReadFile(expanded) //nolint:gosec // G304: path checked for traversal above
	if err != nil {
		return nil, fmt.Errorf("reading ssh key: %w", err)
	}
	if !pemHeader.Match(data) {
		return nil, fmt.Errorf("%w: %s", ErrBadFormat, expanded)
	}

	res := &Result{Path: expanded}
	if perm := info.Mode().Perm(); perm != keyPerm {
		if !fix {
			return nil, fmt.Errorf("%w: %s is %04o, want %04o", ErrPermissions, expanded, perm, keyPerm)
		}
		if err := os.Chmod(expanded, keyPerm); err != nil {
			return nil, fmt.Errorf("fixing ssh key permissions: %w", err)
		}
		res.Repairs = append(res.Repairs, "Set permissions to 600")
	}

	return res, nil
}

// expand resolves ~ against Home and rejects traversal before any
// filesystem access happens. Paths expanded from ~ must stay inside the
// home directory; other paths may live anywhere but cannot contain ..
// segments.
func (v *Validator) expand(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home := v.home()
		joined := filepath.Join(home, strings.TrimPrefix(path, "~"))
		if joined != home && !strings.HasPrefix(joined, home+string(filepath.Separator)) {
			return "", fmt.Errorf("%w: %s", ErrTraversal, path)
		}
		return joined, nil
	}

	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %s", ErrTraversal, path)
		}
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	return filepath.Abs(path)
}

func (v *Validator) home() string {
	if v.Home != "" {
		return v.Home
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}
