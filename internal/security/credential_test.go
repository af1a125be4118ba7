package security

import (
	"strings"
	"testing"
)

func TestGenerateRootCredential(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		c, err := GenerateRootCredential()
		if err != nil {
			t.Fatalf("GenerateRootCredential: %v", err)
		}
		if len(c) != RootCredentialLength {
			t.Fatalf("len = %d, want %d", len(c), RootCredentialLength)
		}
		for _, class := range []string{credentialUpper, credentialLower, credentialDigits, credentialSpecial} {
			if !strings.ContainsAny(c, class) {
				t.Errorf("%q has no character from %q", c, class)
			}
		}
		if strings.ContainsAny(c, "IOl01") {
			t.Errorf("%q contains an ambiguous glyph", c)
		}
		if violations := DefaultPasswordPolicy().Validate(c); len(violations) != 0 {
			t.Errorf("generated credential violates default policy: %v", violations)
		}
		if seen[c] {
			t.Fatalf("duplicate credential %q", c)
		}
		seen[c] = true
	}
}
