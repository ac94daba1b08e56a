package profile

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidName is returned for names that cannot be used as a profile
// directory.
var ErrInvalidName = errors.New("invalid profile name")

var namePattern = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// ValidateName accepts lowercase letters, digits, '_' and '-', up to 64
// characters. A leading '-' is refused so a name never reads as a flag.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w %q: use 1-64 of [a-z0-9_-]", ErrInvalidName, name)
	}
	if name[0] == '-' {
		return fmt.Errorf("%w %q: must not start with '-'", ErrInvalidName, name)
	}
	return nil
}
