package identity

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/slotbook/backend/internal/domain/shared"
)

const (
	// MaxSlugLength bounds the slug including any numeric suffix
	MaxSlugLength = 48
	// MaxSlugSuffix is the last numeric suffix tried before giving up on the sequence
	MaxSlugSuffix = 10
	// FallbackSlug is used when a business name has no slug-able characters
	FallbackSlug = "merchant"
)

// reservedSlugs would shadow platform routes on the main domain
var reservedSlugs = map[string]struct{}{
	"admin": {}, "api": {}, "auth": {}, "blog": {}, "login": {}, "signup": {},
	"legal": {}, "privacy": {}, "terms": {}, "static": {}, "assets": {},
	"dashboard": {}, "account": {}, "public": {}, "health": {},
}

// Slugify converts a business name to a URL-safe slug.
// "Café Été" becomes "cafe-ete"; a name with nothing usable becomes FallbackSlug.
func Slugify(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	pendingDash := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	slug := b.String()
	if len(slug) > MaxSlugLength {
		slug = strings.TrimRight(slug[:MaxSlugLength], "-")
	}
	if slug == "" {
		return FallbackSlug
	}
	return slug
}

// SlugCandidate returns the slug to try for the given attempt: the base for
// attempt 0, then base-1, base-2 and so on. The base is shortened when needed
// so the suffixed slug stays within MaxSlugLength.
func SlugCandidate(base string, attempt int) string {
	if attempt <= 0 {
		return base
	}
	suffix := "-" + strconv.Itoa(attempt)
	return WithSlugSuffix(base, suffix)
}

// WithSlugSuffix appends suffix to base, trimming base to respect MaxSlugLength.
func WithSlugSuffix(base, suffix string) string {
	room := MaxSlugLength - len(suffix)
	if len(base) > room {
		base = strings.TrimRight(base[:room], "-")
	}
	return base + suffix
}

// IsReservedSlug reports whether slug collides with a platform route
func IsReservedSlug(slug string) bool {
	_, ok := reservedSlugs[slug]
	return ok
}

// ValidateSlug checks that slug is a well-formed, non-reserved slug
func ValidateSlug(slug string) error {
	if slug == "" {
		return shared.InvalidInput("slug is required")
	}
	if len(slug) > MaxSlugLength {
		return shared.InvalidInput("slug is too long")
	}
	if IsReservedSlug(slug) {
		return shared.InvalidInput("slug is reserved")
	}
	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") || strings.Contains(slug, "--") {
		return shared.InvalidInput("slug has misplaced dashes")
	}
	for _, r := range slug {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return shared.InvalidInput("slug may only contain lowercase letters, digits and dashes")
		}
	}
	return nil
}
