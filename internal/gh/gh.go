// Package gh resolves the active GitHub identity from the GitHub CLI's own
// configuration files. Nothing here runs gh or touches the network; an
// absent or unreadable config simply reads as "not authenticated".
package gh

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// IdentityProvider reports who is currently authenticated to GitHub.
// Implementations must treat every failure as "not authenticated": being
// logged out or offline is a skip condition for callers, never an error.
type IdentityProvider interface {
	// IsAuthenticated reports whether a GitHub session exists.
	IsAuthenticated() bool

	// CurrentLogin returns the active login, or "" when unknown.
	CurrentLogin() string
}

// hostEntry mirrors one host block in gh's hosts.yml. Older gh versions
// store the token at the top level; newer ones nest per-user entries and
// keep "user" pointing at the active one.
type hostEntry struct {
	User       string `yaml:"user"`
	OAuthToken string `yaml:"oauth_token"`
	Users      map[string]struct {
		OAuthToken string `yaml:"oauth_token"`
	} `yaml:"users"`
}

// ConfigFileProvider implements IdentityProvider by reading gh's hosts.yml.
type ConfigFileProvider struct {
	// Path overrides the hosts.yml location. Empty means gh's default.
	Path string

	// Host selects the host block to consult.
	Host string
}

// NewProvider returns a provider for host using gh's default config
// location.
func NewProvider(host string) *ConfigFileProvider {
	return &ConfigFileProvider{Host: host}
}

// DefaultHostsPath returns gh's hosts.yml location, honoring GH_CONFIG_DIR
// the way gh itself does.
func DefaultHostsPath() string {
	if dir := os.Getenv("GH_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "hosts.yml")
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "gh", "hosts.yml")
}

// IsAuthenticated reports whether hosts.yml has an entry for the host.
// Tokens may live in the system keyring rather than the file, so a host
// entry naming a user counts even without an inline token.
func (p *ConfigFileProvider) IsAuthenticated() bool {
	entry, ok := p.hostEntry()
	if !ok {
		return false
	}
	return entry.User != "" || entry.OAuthToken != "" || len(entry.Users) > 0
}

// CurrentLogin returns the active login for the host. When the entry does
// not name an active user but exactly one account is present, that account
// is the login.
func (p *ConfigFileProvider) CurrentLogin() string {
	entry, ok := p.hostEntry()
	if !ok {
		return ""
	}
	if entry.User != "" {
		return entry.User
	}
	if len(entry.Users) == 1 {
		for login := range entry.Users {
			return login
		}
	}
	return ""
}

func (p *ConfigFileProvider) hostEntry() (hostEntry, bool) {
	path := p.Path
	if path == "" {
		path = DefaultHostsPath()
	}
	if path == "" {
		return hostEntry{}, false
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: gh's own config location
	if err != nil {
		if !os.IsNotExist(err) {
			log.Debug().Err(err).Str("path", path).Msg("cannot read gh hosts file")
		}
		return hostEntry{}, false
	}

	hosts := map[string]hostEntry{}
	if err := yaml.Unmarshal(data, &hosts); err != nil {
		log.Debug().Err(err).Str("path", path).Msg("cannot parse gh hosts file")
		return hostEntry{}, false
	}

	entry, ok := hosts[p.Host]
	return entry, ok
}
