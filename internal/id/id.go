// Package id generates identifiers for hostprobe sessions.
package id

import (
	"strings"

	"github.com/google/uuid"
)

// SessionPrefix prefixes interactive session ids.
const SessionPrefix = "sess"

// Generate returns "<prefix>_<12 hex chars>", taken from a random UUID.
func Generate(prefix string) string {
	u := uuid.New()
	return prefix + "_" + strings.ReplaceAll(u.String(), "-", "")[:12]
}

// NewSession returns a fresh session id.
func NewSession() string {
	return Generate(SessionPrefix)
}

// IsSession reports whether s looks like a session id.
func IsSession(s string) bool {
	hex, ok := strings.CutPrefix(s, SessionPrefix+"_")
	if !ok || len(hex) != 12 {
		return false
	}
	for _, c := range hex {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return false
		}
	}
	return true
}
