// Package label validates and derives UFS2 volume labels.
//
// Labels are embedded in the image superblock by the external builder, which
// caps them at 16 bytes and only accepts a conservative character set. The
// rules here mirror that contract so bad labels are rejected before any
// external tool runs.
package label

import (
	"errors"
	"fmt"
)

// MaxLen is the maximum label length accepted by the builder.
const MaxLen = 16

// Derivation split: the generated label takes the tail of the title
// identifier (the numeric part of e.g. "CUSA12345") and the head of the
// display name.
const (
	idTailLen    = 5
	titleHeadLen = 11
)

var errEmpty = errors.New("label is empty")

// Validate reports whether s is acceptable as a volume label: non-empty,
// at most [MaxLen] characters, and restricted to letters, digits, dot,
// underscore, and hyphen.
func Validate(s string) error {
	if s == "" {
		return errEmpty
	}
	if len(s) > MaxLen {
		return fmt.Errorf("label %q is longer than %d characters", s, MaxLen)
	}
	for _, r := range s {
		if !isLabelRune(r) {
			return fmt.Errorf("label %q contains invalid character %q (allowed: letters, digits, . _ -)", s, r)
		}
	}
	return nil
}

// Generate derives a label from a title identifier and a display name:
// all non-alphanumeric characters are stripped from both inputs, then the
// last 5 characters of the identifier are concatenated with the first 11
// characters of the name. "CUSA12345" + "My Game!" yields "12345MyGame".
func Generate(titleID, displayName string) (string, error) {
	id := stripNonAlnum(titleID)
	name := stripNonAlnum(displayName)

	if len(id) > idTailLen {
		id = id[len(id)-idTailLen:]
	}
	if len(name) > titleHeadLen {
		name = name[:titleHeadLen]
	}

	out := id + name
	if out == "" {
		return "", errEmpty
	}
	return out, nil
}

func stripNonAlnum(s string) string {
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			buf = append(buf, c)
		}
	}
	return string(buf)
}

func isLabelRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r == '.' || r == '_' || r == '-':
		return true
	}
	return false
}
