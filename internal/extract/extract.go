// internal/extract/extract.go
//
// Lexical entity extraction over conversation text. Everything here is a pure
// function of (text, catalog): no guessing beyond catalog membership, no errors,
// absence is the zero value. This is a deliberately cheap heuristic layer, not
// a classifier.
package extract

import (
	"regexp"
	"strings"

	"go-advisor/internal/catalog"
)

var (
	categoryMarkerRe = regexp.MustCompile(`(?i)"category"\s*:\s*"([^"]+)"`)
	serviceMarkerRe  = regexp.MustCompile(`"service"\s*:\s*"([A-Z0-9_]+)"`)
	vendorsMarkerRe  = regexp.MustCompile(`(?i)"vendors"\s*:\s*\[([^\]]*)\]`)
	quotedTokenRe    = regexp.MustCompile(`"([A-Za-z]+)"`)
)

// selection verbs that signal an explicit vendor commitment
var vendorActionVerbs = []string{
	`proceed\s+with`,
	`select`,
	`choose`,
	`want`,
	`go\s+with`,
	`pick`,
}

// Entities is a per-turn snapshot of everything the transcript has committed to.
// It is derived on demand and never cached: transcripts grow.
type Entities struct {
	Category        string   `json:"category,omitempty"`
	Service         string   `json:"service,omitempty"`
	Vendors         []string `json:"vendors,omitempty"`
	ConfirmedVendor string   `json:"confirmed_vendor,omitempty"`
}

// FromText runs every extractor over the given text.
func FromText(c *catalog.Catalog, text string) Entities {
	return Entities{
		Category:        Category(c, text),
		Service:         Service(text),
		Vendors:         Vendors(c, text),
		ConfirmedVendor: ConfirmedVendor(c, text),
	}
}

// Category finds the committed category in text, in priority order:
// structured marker, anchored lexical patterns, plain containment, keyword
// overlap. Returns the cataloged spelling, or "" when nothing matches.
func Category(c *catalog.Catalog, text string) string {
	// 1. Structured marker, e.g. `"category": "Asset Verification"`.
	if m := categoryMarkerRe.FindStringSubmatch(text); m != nil {
		if cat, ok := c.CanonicalCategory(m[1]); ok {
			return cat
		}
	}

	lower := strings.ToLower(text)

	// 2. Anchored lexical patterns, catalog order, first hit wins.
	for _, cat := range c.Categories {
		lc := strings.ToLower(cat)
		variants := []string{
			lc + " category",
			"selected " + lc,
			"interested in " + lc,
			"interested in the " + lc,
			"want " + lc,
			"chosen " + lc,
			"category of " + lc,
			"using our platform for " + lc,
		}
		for _, v := range variants {
			if strings.Contains(lower, v) {
				return cat
			}
		}
	}

	// 3. Plain containment of the category name.
	for _, cat := range c.Categories {
		if strings.Contains(lower, strings.ToLower(cat)) {
			return cat
		}
	}

	// 4. Keyword overlap fallback. Strictly highest count wins; on a tie the
	// category reached first in catalog order keeps the lead.
	best, bestCount := "", 0
	for _, cat := range c.Categories {
		count := 0
		for _, kw := range c.Keywords(cat) {
			if strings.Contains(lower, kw) {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = cat, count
		}
	}
	return best
}

// Service finds a committed service via the structured marker only, e.g.
// `"service": "PAN_ADVANCED"`. Service names are never guessed lexically.
func Service(text string) string {
	if m := serviceMarkerRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// Vendors extracts the vendor shortlist from a structured `"vendors": [...]`
// marker, keeping only cataloged vendors in the order they appear.
func Vendors(c *catalog.Catalog, text string) []string {
	m := vendorsMarkerRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	var out []string
	for _, tok := range quotedTokenRe.FindAllStringSubmatch(m[1], -1) {
		if v, ok := c.CanonicalVendor(tok[1]); ok {
			out = append(out, v)
		}
	}
	return out
}

// ConfirmedVendor finds an explicit vendor selection ("proceed with X",
// "go with X", ...). Vendors are tried in catalog order; the first one with any
// matching action pattern wins.
func ConfirmedVendor(c *catalog.Catalog, text string) string {
	for _, v := range c.Vendors {
		for _, verb := range vendorActionVerbs {
			re := regexp.MustCompile(`(?i)\b` + verb + `\s+` + regexp.QuoteMeta(v) + `\b`)
			if re.MatchString(text) {
				return v
			}
		}
	}
	return ""
}

// FindMentions returns every whitelist item present in text as a
// case-insensitive whole word, preserving whitelist order. It is a reporting
// primitive: callers must not use it as a hard filter.
func FindMentions(text string, whitelist []string) []string {
	var found []string
	for _, item := range whitelist {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(item) + `\b`)
		if re.MatchString(text) {
			found = append(found, item)
		}
	}
	return found
}
