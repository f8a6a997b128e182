// Package validation checks form input before anything is sent to the
// backend. Failures are reported as *ValidationError and never reach the
// network.
package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/dmitrijs2005/fieldportal/internal/client/models"
)

// ErrValidation matches every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation error")

// MinPasswordLength is counted in runes.
const MinPasswordLength = 8

// ValidationError maps field names to a human readable problem.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Credentials validates the login form.
func Credentials(c models.Credentials) error {
	return collect(
		field("email", c.Email, validation.Required, is.EmailFormat),
		field("password", c.Password, validation.Required, validation.By(passwordLength)),
	)
}

// Registration validates the sign-up form.
func Registration(r models.Registration) error {
	return collect(
		field("email", r.Email, validation.Required, is.EmailFormat),
		field("password", r.Password, validation.Required, validation.By(passwordLength)),
		field("firstName", r.FirstName, validation.Length(0, 100)),
		field("lastName", r.LastName, validation.Length(0, 100)),
	)
}

// CompanyName validates the organization name entered during onboarding.
func CompanyName(name string) error {
	return collect(
		field("name", strings.TrimSpace(name), validation.Required, validation.Length(2, 120)),
	)
}

type fieldResult struct {
	name string
	err  error
}

func field(name string, value any, rules ...validation.Rule) fieldResult {
	return fieldResult{name: name, err: validation.Validate(value, rules...)}
}

func collect(results ...fieldResult) error {
	var ve *ValidationError
	for _, r := range results {
		if r.err == nil {
			continue
		}
		if ve == nil {
			ve = &ValidationError{Fields: map[string]string{}}
		}
		ve.Fields[r.name] = r.err.Error()
	}
	if ve == nil {
		return nil
	}
	return ve
}

func passwordLength(value any) error {
	pw, _ := value.([]byte)
	if utf8.RuneCount(pw) < MinPasswordLength {
		return fmt.Errorf("must be at least %d characters", MinPasswordLength)
	}
	return nil
}
