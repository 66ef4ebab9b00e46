// Package strings provides string normalization helpers shared by the wizard
// and the registry adapters.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  required ", "required", "", "must be at least 15"})
//	// Returns: []string{"required", "must be at least 15"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// NormalizeName folds a personal name for comparison: surrounding whitespace is
// dropped, inner runs of whitespace collapse to one space, and case is folded.
//
//	NormalizeName("  Maria   de la  CRUZ ") == "maria de la cruz"
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// SameName reports whether two names are equal after NormalizeName.
func SameName(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}
