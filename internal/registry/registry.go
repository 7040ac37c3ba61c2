// Package registry tracks the ordered list of known usernames. Display
// numbers are 1-based positions in that list, recomputed on every read;
// only usernames are ever stored elsewhere.
package registry

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	// ErrUserNotFound indicates the username or number is not registered.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidUsername indicates the username is empty or malformed.
	ErrInvalidUsername = errors.New("invalid username")
)

// maxLineBytes caps how much of one line the loader buffers. Lines past
// the cap are corruption, not data.
const maxLineBytes = 1 << 20

// Registry provides thread-safe access to the username list file, one
// username per line in registration order.
type Registry struct {
	mu   sync.Mutex
	path string
}

// New returns a Registry over the file at path.
func New(path string) *Registry {
	return &Registry{path: path}
}

// List returns every username in file order.
func (r *Registry) List() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.loadLocked()
}

// Add appends a username. Adding a username that is already registered is
// a no-op, so callers can pair it with profile creation freely.
func (r *Registry) Add(username string) error {
	username = strings.TrimSpace(username)
	if username == "" || strings.ContainsAny(username, " \t") {
		return fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.loadLocked()
	if err != nil {
		return err
	}
	for _, u := range users {
		if u == username {
			return nil
		}
	}
	return r.saveLocked(append(users, username))
}

// Remove drops a username. Numbers of the users after it shift down.
func (r *Registry) Remove(username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.loadLocked()
	if err != nil {
		return err
	}
	for i, u := range users {
		if u == username {
			return r.saveLocked(append(users[:i], users[i+1:]...))
		}
	}
	return fmt.Errorf("%w: %s", ErrUserNotFound, username)
}

// NumberOf returns the 1-based display number for username.
func (r *Registry) NumberOf(username string) (int, error) {
	users, err := r.List()
	if err != nil {
		return 0, err
	}
	for i, u := range users {
		if u == username {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUserNotFound, username)
}

// UsernameAt resolves a display number to its username.
func (r *Registry) UsernameAt(n int) (string, error) {
	users, err := r.List()
	if err != nil {
		return "", err
	}
	if n < 1 || n > len(users) {
		return "", fmt.Errorf("%w: no user number %d", ErrUserNotFound, n)
	}
	return users[n-1], nil
}

// Resolve maps a user reference to a username. All-digit references are
// display numbers and win over usernames that happen to be numeric; other
// references pass through untouched for the profile layer to check.
func (r *Registry) Resolve(ref string) (string, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		return r.UsernameAt(n)
	}
	return ref, nil
}

// loadLocked reads the file without acquiring the lock (caller must hold it).
func (r *Registry) loadLocked() ([]string, error) {
	f, err := os.Open(r.path) //nolint:gosec // G304: path from trusted config
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading user list: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	var users []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(nil, maxLineBytes)
	for scanner.Scan() {
		u := strings.TrimSpace(scanner.Text())
		if u == "" {
			continue
		}
		users = append(users, u)
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			log.Warn().Str("file", r.path).Msg("oversized user list line, skipping the rest of the file")
			return users, nil
		}
		return nil, fmt.Errorf("reading user list: %w", err)
	}
	return users, nil
}

// saveLocked rewrites the file via an atomic rename.
func (r *Registry) saveLocked(users []string) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".users-")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath) //nolint:errcheck // cleanup in error path
		}
	}()

	for _, u := range users {
		if _, err := fmt.Fprintln(tmp, u); err != nil {
			_ = tmp.Close() //nolint:errcheck // cleanup in error path
			return fmt.Errorf("writing user list: %w", err)
		}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // cleanup in error path
		return fmt.Errorf("syncing user list: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		return fmt.Errorf("replacing user list: %w", err)
	}

	success = true
	return nil
}
