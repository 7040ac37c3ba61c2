// Package gitcfg reads and writes the git settings a profile controls. It
// works directly on git's config files through a pure Go parser; the git
// binary is never invoked.
package gitcfg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gopasspw/gitconfig"
)

// Scope selects which git config file an operation touches.
type Scope int

const (
	// ScopeLocal is the repository config (.git/config).
	ScopeLocal Scope = iota
	// ScopeGlobal is the user config (~/.gitconfig).
	ScopeGlobal
)

// Identity is the git author identity pair.
type Identity struct {
	Name  string
	Email string
}

// Accessor reads and writes git identity settings. Reads return zero
// values for unset keys; they never fail.
type Accessor interface {
	// Identity returns user.name and user.email at scope.
	Identity(scope Scope) Identity

	// SetIdentity writes user.name and user.email at scope.
	SetIdentity(scope Scope, id Identity) error

	// SSHCommand returns core.sshCommand at scope, "" when unset.
	SSHCommand(scope Scope) string

	// SetSSHCommand writes core.sshCommand at scope.
	SetSSHCommand(scope Scope, command string) error

	// Signing returns user.signingkey and commit.gpgsign at scope.
	Signing(scope Scope) (key string, autoSign bool)

	// SetSigning writes user.signingkey and commit.gpgsign at scope.
	SetSigning(scope Scope, key string, autoSign bool) error
}

// Options configures Open.
type Options struct {
	// GitDir is the repository's git directory; empty disables local scope.
	GitDir string

	// GlobalPath overrides the default ~/.gitconfig location. Tests use
	// this to stay inside a temp directory.
	GlobalPath string

	// NoWrites discards writes, for tests.
	NoWrites bool
}

// FileAccessor implements Accessor over git config files.
type FileAccessor struct {
	cfgs *gitconfig.Configs
}

// Open loads the config files for a repository. The system scope is never
// read or written; profiles only ever manage local and global settings.
func Open(opts Options) *FileAccessor {
	c := gitconfig.New()
	c.SystemConfig = ""
	c.LocalConfig = "config"
	if opts.GlobalPath != "" {
		c.GlobalConfig = opts.GlobalPath
	}
	c.NoWrites = opts.NoWrites
	c.LoadAll(opts.GitDir)
	return &FileAccessor{cfgs: c}
}

// Identity returns the author identity at scope.
func (a *FileAccessor) Identity(scope Scope) Identity {
	return Identity{
		Name:  a.get(scope, "user.name"),
		Email: a.get(scope, "user.email"),
	}
}

// SetIdentity writes user.name and user.email at scope.
func (a *FileAccessor) SetIdentity(scope Scope, id Identity) error {
	if err := a.set(scope, "user.name", id.Name); err != nil {
		return fmt.Errorf("setting user.name: %w", err)
	}
	if err := a.set(scope, "user.email", id.Email); err != nil {
		return fmt.Errorf("setting user.email: %w", err)
	}
	return nil
}

// SSHCommand returns core.sshCommand at scope.
func (a *FileAccessor) SSHCommand(scope Scope) string {
	return a.get(scope, "core.sshcommand")
}

// SetSSHCommand writes core.sshCommand at scope.
func (a *FileAccessor) SetSSHCommand(scope Scope, command string) error {
	if err := a.set(scope, "core.sshcommand", command); err != nil {
		return fmt.Errorf("setting core.sshCommand: %w", err)
	}
	return nil
}

// Signing returns user.signingkey and commit.gpgsign at scope.
func (a *FileAccessor) Signing(scope Scope) (string, bool) {
	key := a.get(scope, "user.signingkey")
	sign := a.get(scope, "commit.gpgsign") == "true"
	return key, sign
}

// SetSigning writes user.signingkey and commit.gpgsign at scope. An empty
// key leaves user.signingkey alone and only toggles signing.
func (a *FileAccessor) SetSigning(scope Scope, key string, autoSign bool) error {
	if key != "" {
		if err := a.set(scope, "user.signingkey", key); err != nil {
			return fmt.Errorf("setting user.signingkey: %w", err)
		}
	}
	if err := a.set(scope, "commit.gpgsign", strconv.FormatBool(autoSign)); err != nil {
		return fmt.Errorf("setting commit.gpgsign: %w", err)
	}
	return nil
}

// HooksPath returns core.hooksPath if configured at either scope.
func (a *FileAccessor) HooksPath() string {
	if v := a.cfgs.GetLocal("core.hookspath"); v != "" {
		return v
	}
	return a.cfgs.GetGlobal("core.hookspath")
}

func (a *FileAccessor) get(scope Scope, key string) string {
	if scope == ScopeLocal {
		return a.cfgs.GetLocal(key)
	}
	return a.cfgs.GetGlobal(key)
}

func (a *FileAccessor) set(scope Scope, key, value string) error {
	if scope == ScopeLocal {
		return a.cfgs.SetLocal(key, value)
	}
	return a.cfgs.SetGlobal(key, value)
}

// ResolvedIdentity returns the identity git would use for a commit: local
// values first, then global, field by field.
func ResolvedIdentity(a Accessor) Identity {
	id := a.Identity(ScopeLocal)
	if id.Name != "" && id.Email != "" {
		return id
	}
	g := a.Identity(ScopeGlobal)
	if id.Name == "" {
		id.Name = g.Name
	}
	if id.Email == "" {
		id.Email = g.Email
	}
	return id
}

// SSHCommandFor builds the core.sshCommand value that pins a key and stops
// ssh-agent from offering other identities.
func SSHCommandFor(keyPath string) string {
	return fmt.Sprintf("ssh -i %s -o IdentitiesOnly=yes", shellQuote(keyPath))
}

// shellQuote single-quotes a path for embedding in core.sshCommand.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t'\"\\$&|;<>()*?[]#~%") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
