package id

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	for _, prefix := range []string{"sess", "x"} {
		t.Run(prefix, func(t *testing.T) {
			id1 := Generate(prefix)
			id2 := Generate(prefix)

			if !strings.HasPrefix(id1, prefix+"_") {
				t.Errorf("expected prefix %q, got %s", prefix+"_", id1)
			}
			if id1 == id2 {
				t.Errorf("expected unique IDs, got %s and %s", id1, id2)
			}
			if want := len(prefix) + 1 + 12; len(id1) != want {
				t.Errorf("expected length %d, got %d (%s)", want, len(id1), id1)
			}
		})
	}
}

func TestNewSession(t *testing.T) {
	s := NewSession()
	if !IsSession(s) {
		t.Errorf("IsSession(%q) = false", s)
	}
}

func TestIsSession(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"sess_0123456789ab", true},
		{"sess_0123456789AB", false},
		{"sess_0123", false},
		{"run_0123456789ab", false},
		{"sess_0123456789az", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := IsSession(tc.in); got != tc.want {
			t.Errorf("IsSession(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
