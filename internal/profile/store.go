package profile

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/asaskevich/govalidator"
	"github.com/rs/zerolog/log"

	"github.com/ghswitch/ghswitch/internal/sshkey"
)

// Store provides thread-safe access to the profiles file. Concurrent
// processes race on the file itself; the last writer wins.
type Store struct {
	mu   sync.Mutex
	path string
	keys *sshkey.Validator
}

// NewStore returns a Store over the profiles file at path. The key
// validator checks ssh-key values on create and update; nil disables key
// checks.
func NewStore(path string, keys *sshkey.Validator) *Store {
	return &Store{path: path, keys: keys}
}

// Snapshot is one read of the profiles file: every parseable profile in
// file order, plus a warning per line that could not be parsed.
type Snapshot struct {
	Profiles []Profile
	Warnings []ParseWarning
}

// Find returns the profile for username.
func (s *Snapshot) Find(username string) (*Profile, bool) {
	if i, ok := s.index(username); ok {
		p := s.Profiles[i]
		return &p, true
	}
	return nil, false
}

func (s *Snapshot) index(username string) (int, bool) {
	for i := range s.Profiles {
		if s.Profiles[i].Username == username {
			return i, true
		}
	}
	return 0, false
}

// Load reads the profiles file. A missing file is an empty snapshot, and
// malformed lines become warnings rather than errors.
func (s *Store) Load() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadLocked()
}

// maxLineBytes caps how much of one line the loader buffers. Lines past
// the cap are corruption, not data.
const maxLineBytes = 1 << 20

// loadLocked reads the file without acquiring the lock (caller must hold it).
func (s *Store) loadLocked() (*Snapshot, error) {
	f, err := os.Open(s.path) //nolint:gosec // G304: path from trusted config
	if err != nil {
		if os.IsNotExist(err) {
			return &Snapshot{}, nil
		}
		return nil, fmt.Errorf("reading profiles: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	snap := &Snapshot{}
	seen := map[string]bool{}
	lineNo := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(nil, maxLineBytes)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		p, _, err := ParseLine(line)
		if err != nil {
			snap.Warnings = append(snap.Warnings, ParseWarning{Line: lineNo, Reason: err.Error()})
			log.Warn().Str("file", s.path).Int("line", lineNo).Str("reason", err.Error()).
				Msg("skipping malformed profile line")
			continue
		}
		if seen[p.Username] {
			snap.Warnings = append(snap.Warnings, ParseWarning{
				Line:   lineNo,
				Reason: fmt.Sprintf("duplicate profile %q", p.Username),
			})
			continue
		}
		seen[p.Username] = true
		snap.Profiles = append(snap.Profiles, p)
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			snap.Warnings = append(snap.Warnings, ParseWarning{
				Line:   lineNo + 1,
				Reason: "line too long, skipping the rest of the file",
			})
			log.Warn().Str("file", s.path).Int("line", lineNo+1).
				Msg("oversized profile line, skipping the rest of the file")
			return snap, nil
		}
		return nil, fmt.Errorf("reading profiles: %w", err)
	}
	return snap, nil
}

// saveLocked rewrites the whole file in the current schema via an atomic
// rename, so readers never observe a partial write.
func (s *Store) saveLocked(snap *Snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating profiles directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".profiles-")
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

	w := bufio.NewWriter(tmp)
	for _, p := range snap.Profiles {
		if _, err := fmt.Fprintln(w, Serialize(p)); err != nil {
			_ = tmp.Close() //nolint:errcheck // cleanup in error path
			return fmt.Errorf("writing profiles: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close() //nolint:errcheck // cleanup in error path
		return fmt.Errorf("writing profiles: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // cleanup in error path
		return fmt.Errorf("syncing profiles: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replacing profiles file: %w", err)
	}

	success = true
	return nil
}

// Create adds a new profile. force overwrites an existing profile in place
// instead of failing with ErrProfileExists. Missing email and name are
// derived before the write.
func (s *Store) Create(p Profile, force bool) error {
	if err := ValidateUsername(p.Username); err != nil {
		return err
	}
	p = migrate(p)
	if err := s.validate(&p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadLocked()
	if err != nil {
		return err
	}

	if i, ok := snap.index(p.Username); ok {
		if !force {
			return fmt.Errorf("%w: %s", ErrProfileExists, p.Username)
		}
		snap.Profiles[i] = p
	} else {
		snap.Profiles = append(snap.Profiles, p)
	}

	log.Debug().Str("username", p.Username).Str("host", p.Host).Msg("writing profile")
	return s.saveLocked(snap)
}

// Get returns the profile for username.
func (s *Store) Get(username string) (*Profile, error) {
	snap, err := s.Load()
	if err != nil {
		return nil, err
	}
	if p, ok := snap.Find(username); ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, username)
}

// List returns all profiles in file order.
func (s *Store) List() ([]Profile, error) {
	snap, err := s.Load()
	if err != nil {
		return nil, err
	}
	return snap.Profiles, nil
}

// Update sets one field on an existing profile and rewrites the file in
// the current schema. Fields not named keep their value; clearing the
// email re-derives it.
func (s *Store) Update(username, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadLocked()
	if err != nil {
		return err
	}
	i, ok := snap.index(username)
	if !ok {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, username)
	}

	p := snap.Profiles[i]
	switch field {
	case FieldName:
		p.Name = value
	case FieldEmail:
		p.Email = value
	case FieldGPGKey:
		p.GPGKey = value
	case FieldAutoSign:
		b, err := parseBoolStrict(value)
		if err != nil {
			return err
		}
		p.AutoSign = b
	case FieldSSHKey:
		p.SSHKeyPath = value
	case FieldHost:
		p.Host = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	p = migrate(p)
	if err := s.validate(&p); err != nil {
		return err
	}

	snap.Profiles[i] = p
	return s.saveLocked(snap)
}

// Remove deletes the profile for username.
func (s *Store) Remove(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadLocked()
	if err != nil {
		return err
	}

	if i, ok := snap.index(username); ok {
		snap.Profiles = append(snap.Profiles[:i], snap.Profiles[i+1:]...)
		return s.saveLocked(snap)
	}
	return fmt.Errorf("%w: %s", ErrProfileNotFound, username)
}

// validate checks the cross-field rules before a profile is persisted.
// Failures leave the file untouched.
func (s *Store) validate(p *Profile) error {
	for _, v := range []string{p.Name, p.Email, p.GPGKey, p.SSHKeyPath, p.Host} {
		if err := validateFieldValue(v); err != nil {
			return err
		}
	}
	if err := ValidateHost(p.Host); err != nil {
		return err
	}
	if !govalidator.IsEmail(p.Email) {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, p.Email)
	}
	if s.keys != nil && p.SSHKeyPath != "" {
		if _, err := s.keys.Validate(p.SSHKeyPath, false); err != nil {
			return err
		}
	}
	return nil
}
