package util

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// RandomSuffix returns n lowercase hex characters (at most 32).
func RandomSuffix(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n <= 0 || n > len(s) {
		return s
	}
	return s[:n]
}

// Slugify lowercases name and joins its letter/digit runs with '-'.
// Hangul is kept as-is.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// UniqueSlug appends a short random suffix so two products with the same name never collide.
func UniqueSlug(name string) string {
	base := Slugify(name)
	if base == "" {
		base = "item"
	}
	return base + "-" + RandomSuffix(6)
}
