package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxSlugLen      = 80
	maxSlugAttempts = 50
	fallbackSlug    = "experience"
)

// Slugify folds name to a URL slug: accents are stripped, letters
// lowercased, and every run of other characters becomes a single hyphen.
// "Café Crème Tour!" becomes "cafe-creme-tour".
func Slugify(name string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			hyphen = false
			continue
		}
		if !hyphen && b.Len() > 0 {
			b.WriteByte('-')
			hyphen = true
		}
	}

	slug := strings.TrimRight(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// slugChecker reports whether a slug is already taken.
type slugChecker func(ctx context.Context, slug string) (bool, error)

// uniqueSlug returns Slugify(name), or the first free "-2", "-3", ...
// variant. After maxSlugAttempts collisions a random suffix is used.
func uniqueSlug(ctx context.Context, name string, taken slugChecker) (string, error) {
	base := Slugify(name)
	candidate := base
	for n := 2; n <= maxSlugAttempts+1; n++ {
		exists, err := taken(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("service.uniqueSlug: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}

	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("service.uniqueSlug: %w", err)
	}
	return base + "-" + hex.EncodeToString(suffix), nil
}
