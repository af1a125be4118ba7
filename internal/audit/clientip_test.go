package audit

import (
	"context"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		addr, want string
	}{
		{"10.0.0.1:5555", "10.0.0.1"},
		{"[::1]:80", "::1"},
		{"192.168.1.9", "192.168.1.9"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ClientIPFromContext(WithClientIP(context.Background(), tt.addr)); got != tt.want {
			t.Errorf("WithClientIP(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}
