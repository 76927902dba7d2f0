// Package catalog maps event acronyms to the attendee login portal of each
// event's catalog site.
package catalog

import (
	"fmt"
	"strings"
)

// DefaultSlug is used for unknown or blank acronyms.
const DefaultSlug = "usautosummit"

// DefaultSlugs returns the portal subdomain slug for every known event acronym.
func DefaultSlugs() map[string]string {
	return map[string]string{
		"AAS":  "usautosummit",
		"AMD":  "amdsummit",
		"AAD":  "aadsummit",
		"AMS":  "manusummit",
		"BIO":  "biomanamerica",
		"ASC":  "supplychainus",
		"PMOS": "posummit",
		"APS":  "uspacksummit",
		"CIO":  "cioamerica",
		"FMS":  "foodmansummit",
		"CMS":  "chemmansummit",
	}
}

// Mapper resolves acronyms to login URLs. It is read-only after construction.
type Mapper struct {
	slugs       map[string]string
	defaultSlug string
}

// NewMapper builds a mapper over slugs keyed by acronym. A nil map uses
// DefaultSlugs and a blank defaultSlug uses DefaultSlug.
func NewMapper(slugs map[string]string, defaultSlug string) *Mapper {
	if slugs == nil {
		slugs = DefaultSlugs()
	}
	normalized := make(map[string]string, len(slugs))
	for acronym, slug := range slugs {
		normalized[normalizeAcronym(acronym)] = strings.TrimSpace(slug)
	}
	defaultSlug = strings.TrimSpace(defaultSlug)
	if defaultSlug == "" {
		defaultSlug = DefaultSlug
	}
	return &Mapper{slugs: normalized, defaultSlug: defaultSlug}
}

// Slug returns the portal slug for acronym and whether it was a known event.
func (m *Mapper) Slug(acronym string) (string, bool) {
	if slug, ok := m.slugs[normalizeAcronym(acronym)]; ok && slug != "" {
		return slug, true
	}
	return m.defaultSlug, false
}

// URL returns the login URL, e.g. "catalog.usautosummit.com/user/login".
func (m *Mapper) URL(acronym string) string {
	slug, _ := m.Slug(acronym)
	return LoginURL(slug)
}

// LoginURL formats the login URL for a slug.
func LoginURL(slug string) string {
	return fmt.Sprintf("catalog.%s.com/user/login", slug)
}

func normalizeAcronym(acronym string) string {
	return strings.ToUpper(strings.TrimSpace(acronym))
}
