// Package profile stores named GitHub identity profiles in a line-oriented
// text file whose layout has evolved through five schemas. Old layouts are
// migrated on read; writes always emit the current schema.
package profile

import (
	"errors"
)

// Schema versions the profiles file has used. V1 through V3 are
// colon-delimited with the version implied by field count; V4 and V5 are
// pipe-delimited and carry an explicit version token in the second field.
const (
	SchemaV1 = 1 // username:name:email
	SchemaV2 = 2 // adds gpg key
	SchemaV3 = 3 // adds auto-sign flag
	SchemaV4 = 4 // pipe-delimited, adds ssh key path
	SchemaV5 = 5 // adds host

	// CurrentSchema is the only layout ever written.
	CurrentSchema = SchemaV5
)

// DefaultHost is assumed for profiles that predate multi-host support.
const DefaultHost = "github.com"

// Mutable profile fields accepted by Store.Update.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldGPGKey   = "gpg-key"
	FieldAutoSign = "auto-sign"
	FieldSSHKey   = "ssh-key"
	FieldHost     = "host"
)

var (
	// ErrProfileNotFound indicates the requested profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProfileExists indicates a profile with that username already exists.
	ErrProfileExists = errors.New("profile already exists")

	// ErrInvalidUsername indicates the username is empty or contains
	// characters reserved by the line format.
	ErrInvalidUsername = errors.New("invalid username")

	// ErrInvalidEmail indicates the email does not look like an address.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrUnknownField indicates Update was given a field it does not know.
	ErrUnknownField = errors.New("unknown profile field")

	// ErrInvalidFieldValue indicates a value would corrupt the line format.
	ErrInvalidFieldValue = errors.New("invalid field value")
)

// Profile is one named GitHub identity.
type Profile struct {
	// Username is the GitHub login and the unique key for the profile.
	Username string

	// Name is the display name applied to git's user.name.
	Name string

	// Email is applied to git's user.email. Never stored empty: missing
	// emails are derived from the username and host.
	Email string

	// GPGKey is an optional signing key ID.
	GPGKey string

	// AutoSign enables commit.gpgsign when the profile is applied.
	AutoSign bool

	// SSHKeyPath is an optional private key path; empty means HTTPS access.
	SSHKeyPath string

	// Host is the GitHub host this identity belongs to.
	Host string
}

// DeriveEmail returns the address used when a profile has no explicit
// email: the GitHub noreply form on github.com, username@host elsewhere.
func DeriveEmail(username, host string) string {
	if host == "" || host == DefaultHost {
		return username + "@users.noreply.github.com"
	}
	return username + "@" + host
}
