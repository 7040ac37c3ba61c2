// Package project maps repository directories to the account expected to
// commit in them.
package project

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNotAssigned indicates the project has no assignment.
	ErrNotAssigned = errors.New("project not assigned")

	// ErrInvalidProject indicates the project name is empty or malformed.
	ErrInvalidProject = errors.New("invalid project name")
)

// maxLineBytes caps how much of one line the loader buffers. Lines past
// the cap are corruption, not data.
const maxLineBytes = 1 << 20

// Assignment pairs a project with a username.
type Assignment struct {
	Project  string
	Username string
}

// Assignments provides thread-safe access to the assignment file. Each
// line is "project=username"; files written by older builds used a colon,
// which reads still accept. An assignment may outlive its profile, so
// consumers must tolerate usernames with no profile behind them.
type Assignments struct {
	mu   sync.Mutex
	path string
}

// NewAssignments returns an Assignments store over the file at path.
func NewAssignments(path string) *Assignments {
	return &Assignments{path: path}
}

// Lookup returns the username assigned to project.
func (a *Assignments) Lookup(project string) (string, error) {
	all, err := a.List()
	if err != nil {
		return "", err
	}
	for _, entry := range all {
		if entry.Project == project {
			return entry.Username, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotAssigned, project)
}

// Assign maps project to username, replacing any existing assignment.
func (a *Assignments) Assign(project, username string) error {
	if err := validateName(project); err != nil {
		return err
	}
	if err := validateName(username); err != nil {
		return fmt.Errorf("%w: bad username %q", ErrInvalidProject, username)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	all, err := a.loadLocked()
	if err != nil {
		return err
	}
	replaced := false
	for i := range all {
		if all[i].Project == project {
			all[i].Username = username
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, Assignment{Project: project, Username: username})
	}
	return a.saveLocked(all)
}

// Remove drops the assignment for project.
func (a *Assignments) Remove(project string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	all, err := a.loadLocked()
	if err != nil {
		return err
	}
	for i := range all {
		if all[i].Project == project {
			return a.saveLocked(append(all[:i], all[i+1:]...))
		}
	}
	return fmt.Errorf("%w: %s", ErrNotAssigned, project)
}

// List returns all assignments in file order.
func (a *Assignments) List() ([]Assignment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.loadLocked()
}

func (a *Assignments) loadLocked() ([]Assignment, error) {
	f, err := os.Open(a.path) //nolint:gosec // G304: path from trusted config
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading assignments: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	var all []Assignment
	lineNo := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(nil, maxLineBytes)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry, ok := parseLine(line)
		if !ok {
			log.Warn().Str("file", a.path).Int("line", lineNo).Msg("skipping malformed assignment line")
			continue
		}
		all = append(all, entry)
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			log.Warn().Str("file", a.path).Int("line", lineNo+1).
				Msg("oversized assignment line, skipping the rest of the file")
			return all, nil
		}
		return nil, fmt.Errorf("reading assignments: %w", err)
	}
	return all, nil
}

// saveLocked rewrites the file with the canonical "=" separator via an
// atomic rename.
func (a *Assignments) saveLocked(all []Assignment) error {
	dir := filepath.Dir(a.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".projects-")
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

	for _, entry := range all {
		if _, err := fmt.Fprintf(tmp, "%s=%s\n", entry.Project, entry.Username); err != nil {
			_ = tmp.Close() //nolint:errcheck // cleanup in error path
			return fmt.Errorf("writing assignments: %w", err)
		}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // cleanup in error path
		return fmt.Errorf("syncing assignments: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, a.path); err != nil {
		return fmt.Errorf("replacing assignments file: %w", err)
	}

	success = true
	return nil
}

// parseLine splits "project=username", preferring "=" so project names
// containing a colon still parse once written canonically.
func parseLine(line string) (Assignment, bool) {
	for _, sep := range []string{"=", ":"} {
		if i := strings.Index(line, sep); i > 0 && i < len(line)-1 {
			return Assignment{
				Project:  strings.TrimSpace(line[:i]),
				Username: strings.TrimSpace(line[i+1:]),
			}, true
		}
	}
	return Assignment{}, false
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidProject)
	}
	if strings.ContainsAny(name, "=:\n\r") {
		return fmt.Errorf("%w: %q contains reserved characters", ErrInvalidProject, name)
	}
	return nil
}
