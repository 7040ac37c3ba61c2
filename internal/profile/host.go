package profile

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidHost indicates a host failed validation.
var ErrInvalidHost = errors.New("invalid host")

// maxHostLength is the DNS limit on a full domain name.
const maxHostLength = 253

var portPattern = regexp.MustCompile(`:\d`)

// ValidateHost checks a GitHub host name. Rules run in a fixed order and
// the first failure wins, so callers can rely on stable error text.
func ValidateHost(host string) error {
	switch {
	case host == "":
		return fmt.Errorf("%w: %s", ErrInvalidHost, "Host cannot be empty")
	case strings.Contains(host, "://"):
		return fmt.Errorf("%w: %s", ErrInvalidHost, "Host should not include protocol")
	case portPattern.MatchString(host):
		return fmt.Errorf("%w: %s", ErrInvalidHost, "Host should not include port")
	case hostLabels(host) < 2:
		return fmt.Errorf("%w: %s", ErrInvalidHost, "Host must be a fully qualified domain")
	case len(host) > maxHostLength:
		return fmt.Errorf("%w: %s", ErrInvalidHost, "Host too long")
	}
	return nil
}

func hostLabels(host string) int {
	n := 0
	for _, label := range strings.Split(host, ".") {
		if label != "" {
			n++
		}
	}
	return n
}
