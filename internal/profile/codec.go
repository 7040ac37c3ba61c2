package profile

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	legacySep  = ":"
	currentSep = "|"
)

var versionToken = regexp.MustCompile(`^v\d+$`)

// ParseWarning records a line that could not be parsed. Loads never fail on
// malformed lines; they surface warnings instead.
type ParseWarning struct {
	Line   int
	Reason string
}

func (w ParseWarning) String() string {
	return fmt.Sprintf("line %d: %s", w.Line, w.Reason)
}

// ParseLine decodes one stored line, migrating legacy layouts to the
// current shape. The returned version reports the layout the line was
// written in.
func ParseLine(line string) (Profile, int, error) {
	if strings.TrimSpace(line) == "" {
		return Profile{}, 0, fmt.Errorf("empty line")
	}

	fields := strings.Split(line, currentSep)
	if len(fields) >= 2 && versionToken.MatchString(fields[1]) {
		return parseVersioned(fields)
	}
	return parseLegacy(line)
}

func parseVersioned(fields []string) (Profile, int, error) {
	var version, want int
	switch fields[1] {
	case "v4":
		version, want = SchemaV4, 7
	case "v5":
		version, want = SchemaV5, 8
	default:
		return Profile{}, 0, fmt.Errorf("unsupported schema version %s", fields[1])
	}

	// Extra trailing fields are tolerated so minor additions to the layout
	// do not break older binaries.
	if len(fields) < want {
		return Profile{}, 0, fmt.Errorf("%s line has %d fields, want %d", fields[1], len(fields), want)
	}

	p := Profile{
		Username:   fields[0],
		Name:       fields[2],
		Email:      fields[3],
		GPGKey:     fields[4],
		AutoSign:   storedBool(fields[5]),
		SSHKeyPath: fields[6],
	}
	if version >= SchemaV5 {
		p.Host = fields[7]
	}
	if p.Username == "" {
		return Profile{}, 0, fmt.Errorf("missing username")
	}
	return migrate(p), version, nil
}

func parseLegacy(line string) (Profile, int, error) {
	fields := strings.Split(line, legacySep)

	var version int
	switch len(fields) {
	case 3:
		version = SchemaV1
	case 4:
		version = SchemaV2
	case 5:
		version = SchemaV3
	default:
		return Profile{}, 0, fmt.Errorf("legacy line has %d fields, want 3-5", len(fields))
	}

	// The current layout joins on "|", so a legacy field holding one could
	// not be re-serialized without shifting every later field.
	for _, f := range fields {
		if strings.Contains(f, currentSep) {
			return Profile{}, 0, fmt.Errorf("legacy field contains reserved %q", currentSep)
		}
	}

	p := Profile{
		Username: fields[0],
		Name:     fields[1],
		Email:    fields[2],
	}
	if version >= SchemaV2 {
		p.GPGKey = fields[3]
	}
	if version >= SchemaV3 {
		p.AutoSign = storedBool(fields[4])
	}
	if p.Username == "" {
		return Profile{}, 0, fmt.Errorf("missing username")
	}
	return migrate(p), version, nil
}

// migrate fills the fields older layouts could not express, producing the
// canonical current-schema shape.
func migrate(p Profile) Profile {
	if p.Host == "" {
		p.Host = DefaultHost
	}
	if p.Email == "" {
		p.Email = DeriveEmail(p.Username, p.Host)
	}
	if p.Name == "" {
		p.Name = p.Username
	}
	return p
}

// Serialize encodes a profile in the current schema. Serializing a parsed
// line is stable: parse(serialize(p)) == migrate(p).
func Serialize(p Profile) string {
	p = migrate(p)
	autoSign := "false"
	if p.AutoSign {
		autoSign = "true"
	}
	return strings.Join([]string{
		p.Username,
		fmt.Sprintf("v%d", CurrentSchema),
		p.Name,
		p.Email,
		p.GPGKey,
		autoSign,
		p.SSHKeyPath,
		p.Host,
	}, currentSep)
}

// storedBool accepts the spellings that have appeared in stored files over
// the years. Anything unrecognized reads as false.
func storedBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

// parseBoolStrict is the input-side counterpart of storedBool: user input
// must name a recognized spelling.
func parseBoolStrict(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q is not a boolean", ErrInvalidFieldValue, s)
	}
}

// ValidateUsername rejects usernames that cannot key a stored line.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: empty", ErrInvalidUsername)
	}
	if strings.ContainsAny(username, currentSep+legacySep+" \t\n\r") {
		return fmt.Errorf("%w: %q contains reserved characters", ErrInvalidUsername, username)
	}
	return nil
}

// validateFieldValue rejects values that would corrupt the line format.
func validateFieldValue(value string) error {
	if strings.ContainsAny(value, currentSep+"\n\r") {
		return fmt.Errorf("%w: must not contain %q or newlines", ErrInvalidFieldValue, currentSep)
	}
	return nil
}
