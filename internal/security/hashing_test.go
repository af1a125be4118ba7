package security

import (
	"errors"
	"strings"
	"testing"
)

func TestHasher_HashAndMatches(t *testing.T) {
	h := NewHasher(4)
	hash, err := h.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" || hash == "secret123" {
		t.Fatalf("Hash returned %q", hash)
	}
	if !h.Matches("secret123", hash) {
		t.Fatal("Matches should accept the original password")
	}
}

func TestHasher_MatchesWrongPassword(t *testing.T) {
	h := NewHasher(4)
	hash, _ := h.Hash("secret123")
	if h.Matches("wrong", hash) {
		t.Fatal("Matches with wrong password should fail")
	}
	if h.Matches("secret123", "") {
		t.Fatal("Matches against an empty hash should fail")
	}
	if h.Matches("secret123", "not-a-bcrypt-hash") {
		t.Fatal("Matches against a malformed hash should fail")
	}
}

func TestHasher_Cost(t *testing.T) {
	if h := NewHasher(12); h.Cost != 12 {
		t.Errorf("Cost want 12, got %d", h.Cost)
	}
	if h0 := NewHasher(0); h0.Cost < 4 {
		t.Errorf("zero cost should be clamped to at least MinCost, got %d", h0.Cost)
	}
	if h := NewHasher(99); h.Cost != 31 {
		t.Errorf("cost above max should be clamped to 31, got %d", h.Cost)
	}
}

func TestHasher_HashTooLong(t *testing.T) {
	h := NewHasher(4)
	if _, err := h.Hash(strings.Repeat("x", MaxPasswordBytes)); err != nil {
		t.Fatalf("Hash at limit: %v", err)
	}
	if _, err := h.Hash(strings.Repeat("x", MaxPasswordBytes+1)); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("Hash over limit: err = %v, want ErrPasswordTooLong", err)
	}
}
