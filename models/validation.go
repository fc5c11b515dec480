// models/validation.go
package models

import (
	"fmt"
	"regexp"
	"strings"
)

var macAddressRe = regexp.MustCompile(`^([0-9a-fA-F]{2}[:-]){5}([0-9a-fA-F]{2})$`)

var slugInvalidRe = regexp.MustCompile(`[^a-z0-9-]+`)
var slugDashRe = regexp.MustCompile(`-{2,}`)

// ValidationError reports a structural or field-level violation. The Field
// names the offending attribute so callers can map it onto API payloads.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is a field validation error.
func IsValidationError(err error) (*ValidationError, bool) {
	verr, ok := err.(*ValidationError)
	return verr, ok
}

// Slugify derives a URL-safe label: ASCII lowercase, spaces/underscores to
// hyphens, everything else stripped.
func Slugify(value string) string {
	slug := strings.ToLower(strings.TrimSpace(value))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "_", "-")
	slug = slugInvalidRe.ReplaceAllString(slug, "")
	slug = slugDashRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func NormalizeMAC(value string) string {
	return strings.ReplaceAll(strings.ToLower(value), "-", ":")
}

func ValidateMAC(value string) error {
	if !macAddressRe.MatchString(value) {
		return NewValidationError("mac_address", "Invalid MAC address format.")
	}
	return nil
}
