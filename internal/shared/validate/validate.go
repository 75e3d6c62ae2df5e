package validate

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// String length limits
const (
	MaxIDLength          = 128
	MaxNameLength        = 256
	MaxDescriptionLength = 2048
	MaxHostNameLength    = 255
	MaxHostCount         = 64
)

// SafeIDPattern allows alphanumeric, hyphens, underscores
var SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ID checks a session, workspace, or tab identifier.
func ID(id, field string) error {
	if id == "" {
		return fmt.Errorf("%s is required", field)
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("%s exceeds maximum length %d", field, MaxIDLength)
	}
	if !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters", field)
	}
	return nil
}

// Name checks a user-facing name such as a snapshot label.
func Name(name, field string) error {
	if name == "" {
		return fmt.Errorf("%s is required", field)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%s is not valid UTF-8", field)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("%s exceeds maximum length %d", field, MaxNameLength)
	}
	return nil
}

// Description checks an optional free-text field.
func Description(text, field string) error {
	if !utf8.ValidString(text) {
		return fmt.Errorf("%s is not valid UTF-8", field)
	}
	if utf8.RuneCountInString(text) > MaxDescriptionLength {
		return fmt.Errorf("%s exceeds maximum length %d", field, MaxDescriptionLength)
	}
	return nil
}

// Hosts checks a host or group name list for a multi-host run.
func Hosts(names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("at least one host is required")
	}
	if len(names) > MaxHostCount {
		return fmt.Errorf("host count %d exceeds maximum %d", len(names), MaxHostCount)
	}
	for _, name := range names {
		if name == "" {
			return fmt.Errorf("host name must not be empty")
		}
		if len(name) > MaxHostNameLength {
			return fmt.Errorf("host name %q exceeds maximum length %d", name, MaxHostNameLength)
		}
	}
	return nil
}
