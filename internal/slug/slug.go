// Package slug derives URL-safe identifiers from human-entered names and
// picks a unique one given the slugs already in use.
//
// The functions here are pure. Looking up which slugs are taken is the
// caller's job (see service.SlugResolver).
package slug

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Make converts s into a base slug: accents are folded to ASCII, letters are
// lowercased, and every run of characters outside [a-z0-9] becomes a single
// hyphen. Leading and trailing hyphens are dropped, so input with no letters
// or digits yields "".
//
// Make is idempotent: Make(Make(s)) == Make(s).
func Make(s string) string {
	// Chained transformers carry state, so build one per call.
	fold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	sep := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if sep && b.Len() > 0 {
				b.WriteByte('-')
			}
			sep = false
			b.WriteRune(r)
			continue
		}
		sep = true
	}
	return b.String()
}

// Pattern returns the regular expression matching base itself or base
// followed by a hyphen and any digits (including none). The expression uses
// only syntax shared by Go's regexp and Postgres POSIX regexes; callers match
// it case-insensitively ("(?i)" in Go, "~*" in Postgres).
func Pattern(base string) string {
	return "^(" + regexp.QuoteMeta(base) + ")((-[0-9]*)?)$"
}

// Matcher compiles Pattern(base) for case-insensitive matching in Go.
func Matcher(base string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + Pattern(base))
}

// WithSuffix returns base for n <= 1 and "base-n" otherwise.
func WithSuffix(base string, n int) string {
	if n <= 1 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}

// Generate derives a slug for name that does not collide with existing.
//
// It counts the entries of existing that match Pattern(Make(name)). With no
// matches the base slug is returned as is; with n matches the result is
// "base-(n+1)". Counting instead of probing for the first free number keeps
// the lookup to a single query, but two callers holding the same snapshot of
// existing will pick the same slug. The store's unique index on slug is what
// catches that.
//
// Generate returns "" when name has no letters or digits.
func Generate(name string, existing []string) string {
	base := Make(name)
	if base == "" {
		return ""
	}
	return WithSuffix(base, Count(base, existing)+1)
}

// Count returns how many entries of existing match Pattern(base).
func Count(base string, existing []string) int {
	re := Matcher(base)
	n := 0
	for _, s := range existing {
		if re.MatchString(s) {
			n++
		}
	}
	return n
}
