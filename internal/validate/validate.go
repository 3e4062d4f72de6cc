// Package validate holds the input checks shared by the CLI, the HTTP API
// and the RCON client.
package validate

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 64

	// MaxInputLength bounds free-form operator input (commands, names).
	MaxInputLength = 512

	MaxServerNameLength = 64
)

// dangerous are the characters stripped from any text that ends up in a
// command line or a protocol frame body.
const dangerous = "&|;$`\n\r<>\"'"

// Sanitize removes shell and control metacharacters from s, trims
// surrounding whitespace and truncates the result to max bytes.
func Sanitize(s string, max int) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(dangerous, r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if max > 0 && len(s) > max {
		s = s[:max]
	}
	return s
}

// Port reports whether p is a usable non-privileged port.
func Port(p int) error {
	if p < 1024 || p > 65535 {
		return fmt.Errorf("port %d out of range 1024-65535", p)
	}
	return nil
}

// StrongPassword reports whether p satisfies the admin password policy.
func StrongPassword(p string) bool {
	if len(p) < MinPasswordLength || len(p) > MaxPasswordLength {
		return false
	}
	return strings.TrimSpace(p) != ""
}

// ModID reports whether s looks like a numeric workshop mod ID.
func ModID(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// BaseDir resolves dir to an absolute path and rejects traversal segments.
func BaseDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if strings.Contains(abs, "..") {
		return "", fmt.Errorf("path traversal in %q", dir)
	}
	return abs, nil
}
