// Package pathsafe validates identifiers that participate in constructed
// filesystem paths (task ids, run ids, wave ids). Every identifier must be
// validated at every trust boundary — on read from JSON, on receipt from
// the workflow engine — never assumed safe because an upstream caller
// already checked it.
package pathsafe

import (
	"fmt"
	"strings"
)

// MaxLength bounds identifiers to a sane filesystem-component size.
const MaxLength = 128

// Validate rejects empty strings, control characters, path separators,
// and "..". It allows letters, digits, underscore and hyphen — the same
// alphabet the wave engine uses to build directory and branch names.
func Validate(kind, id string) error {
	if id == "" {
		return fmt.Errorf("%s: identifier is empty", kind)
	}
	if len(id) > MaxLength {
		return fmt.Errorf("%s: identifier %q exceeds max length %d", kind, id, MaxLength)
	}
	if id == "." || id == ".." {
		return fmt.Errorf("%s: identifier %q is not allowed", kind, id)
	}
	if strings.Contains(id, "..") {
		return fmt.Errorf("%s: identifier %q must not contain \"..\"", kind, id)
	}
	for _, r := range id {
		if !isAllowed(r) {
			return fmt.Errorf("%s: identifier %q contains disallowed character %q", kind, id, r)
		}
	}
	return nil
}

func isAllowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	default:
		return false
	}
}

// ValidateAll validates a batch of identifiers of the same kind, returning
// the first error encountered.
func ValidateAll(kind string, ids []string) error {
	for _, id := range ids {
		if err := Validate(kind, id); err != nil {
			return err
		}
	}
	return nil
}
