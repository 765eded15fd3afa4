// Package identity generates component identifiers and computes the
// stable hashes the pipeline uses to detect source changes.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// NewComponentID returns a new random 128-bit identifier rendered as a
// canonical UUID string.
func NewComponentID() string {
	return uuid.NewString()
}

var (
	camelBound  = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	nonAlnum    = regexp.MustCompile(`[^a-z0-9]+`)
	trimDashes  = regexp.MustCompile(`^-+|-+$`)
	multiDashes = regexp.MustCompile(`-{2,}`)
)

// Kebab converts an arbitrary component name into kebab-case, the same
// way slugs and data-slot attributes are derived throughout the
// manifest builder.
func Kebab(name string) string {
	s := camelBound.ReplaceAllString(name, "${1}-${2}")
	s = nonAlnum.ReplaceAllString(strings.ToLower(s), "-")
	s = multiDashes.ReplaceAllString(s, "-")
	return trimDashes.ReplaceAllString(s, "")
}

// SlugFor builds the per-org unique slug: {kebab(name)}-{framework}-{id[0:8]}.
func SlugFor(name, framework, id string) string {
	short := strings.ReplaceAll(id, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	return Kebab(name) + "-" + framework + "-" + short
}

// SourceHash computes a stable 256-bit digest over the exact source
// text. Any whitespace change yields a different hash; this is the
// contract, not a defect.
func SourceHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
