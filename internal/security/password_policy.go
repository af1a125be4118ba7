package security

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// PasswordPolicy holds the configurable password strength thresholds.
type PasswordPolicy struct {
	MinLength      int
	MaxLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
}

// DefaultPasswordPolicy returns 12..128 characters with every character class required.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:      12,
		MaxLength:      128,
		RequireUpper:   true,
		RequireLower:   true,
		RequireDigit:   true,
		RequireSpecial: true,
	}
}

// PolicyViolationError reports every rule a password broke. It maps to a bad request.
type PolicyViolationError struct {
	Label      string
	Violations []string
}

func (e *PolicyViolationError) Error() string {
	return e.Label + " does not meet security policy: " + strings.Join(e.Violations, "; ")
}

// Validate returns the list of violated rules; an empty list means the password complies.
func (p PasswordPolicy) Validate(password string) []string {
	if strings.TrimSpace(password) == "" {
		return []string{"must not be blank"}
	}
	var violations []string
	n := utf8.RuneCountInString(password)
	if p.MinLength > 0 && n < p.MinLength {
		violations = append(violations, "must be at least "+strconv.Itoa(p.MinLength)+" characters")
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		violations = append(violations, "must be at most "+strconv.Itoa(p.MaxLength)+" characters")
	}
	if len(password) > MaxPasswordBytes {
		violations = append(violations, "must be at most "+strconv.Itoa(MaxPasswordBytes)+" bytes")
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r):
			hasSpecial = true
		}
	}
	if p.RequireUpper && !hasUpper {
		violations = append(violations, "must include at least one uppercase letter")
	}
	if p.RequireLower && !hasLower {
		violations = append(violations, "must include at least one lowercase letter")
	}
	if p.RequireDigit && !hasDigit {
		violations = append(violations, "must include at least one digit")
	}
	if p.RequireSpecial && !hasSpecial {
		violations = append(violations, "must include at least one special character")
	}
	return violations
}

// Check validates password and returns a *PolicyViolationError when any rule fails.
// label names the field in the message and defaults to "Password".
func (p PasswordPolicy) Check(password, label string) error {
	violations := p.Validate(password)
	if len(violations) == 0 {
		return nil
	}
	if strings.TrimSpace(label) == "" {
		label = "Password"
	}
	return &PolicyViolationError{Label: label, Violations: violations}
}
