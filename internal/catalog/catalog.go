// internal/catalog/catalog.go
package catalog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// HealthMetrics is the fixed set of vendor health fields the platform reports.
// The advisor may only rank vendors on these.
var HealthMetrics = []string{
	"serialNumber",
	"name",
	"totalTransactions",
	"successRate",
	"userSideIssues",
	"twoXX",
	"fourXX",
	"fiveXX",
	"avgLatency",
	"p50",
	"p75",
	"p90",
	"p95",
	"p99",
}

// Catalog holds the whitelisted categories, services and vendors loaded from the
// knowledge base at startup. It is read-only after Load; iteration order of the
// slices is the catalog order used for tie-breaking everywhere downstream.
type Catalog struct {
	Categories         []string
	Services           []string
	CategoryToServices map[string][]string
	Vendors            []string

	// keyword hints per category, derived from category name tokens and
	// the tags of the category's services
	keywords map[string][]string
}

type serviceRecord struct {
	ServiceName string   `json:"service_name"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
}

type vendorHealthFile struct {
	Data struct {
		RowData []struct {
			Name string `json:"name"`
		} `json:"rowData"`
	} `json:"data"`
}

// New builds a catalog from already-resolved entries, preserving the given
// category order. Services are flattened in category order. Keyword sets are
// seeded from the category name tokens; AddKeywords extends them.
func New(categories []string, categoryToServices map[string][]string, vendors []string) *Catalog {
	c := &Catalog{
		Categories:         categories,
		CategoryToServices: make(map[string][]string, len(categoryToServices)),
		Vendors:            vendors,
		keywords:           make(map[string][]string),
	}
	for _, cat := range categories {
		svcs := categoryToServices[cat]
		c.CategoryToServices[cat] = svcs
		c.Services = append(c.Services, svcs...)
		c.AddKeywords(cat)
	}
	return c
}

// Load reads the knowledge base directory (services/*.json plus
// vendors/vendor_health.json) and builds the catalog. Individually malformed
// records are skipped with a warning; Load only fails if the directory itself
// is unreadable or nothing valid was found.
func Load(root string) (*Catalog, error) {
	c := &Catalog{
		CategoryToServices: make(map[string][]string),
		keywords:           make(map[string][]string),
	}

	servicesDir := filepath.Join(root, "services")
	entries, err := os.ReadDir(servicesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read services dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	// Stable catalog order regardless of filesystem enumeration.
	sort.Strings(names)

	seenCategory := make(map[string]bool)
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(servicesDir, name))
		if err != nil {
			log.Printf("[Catalog] WARNING: skipping %s: %v", name, err)
			continue
		}
		var rec serviceRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			log.Printf("[Catalog] WARNING: skipping %s: invalid JSON: %v", name, err)
			continue
		}
		svc := rec.ServiceName
		if svc == "" {
			svc = rec.Name
		}
		if svc == "" {
			log.Printf("[Catalog] WARNING: skipping %s: no service name", name)
			continue
		}
		cat := rec.Category
		if cat == "" {
			cat = "Other"
		}

		c.Services = append(c.Services, svc)
		if !seenCategory[cat] {
			seenCategory[cat] = true
			c.Categories = append(c.Categories, cat)
		}
		c.CategoryToServices[cat] = append(c.CategoryToServices[cat], svc)
		c.AddKeywords(cat, rec.Tags...)
	}

	if len(c.Services) == 0 {
		return nil, fmt.Errorf("no valid service records under %s", servicesDir)
	}

	if err := c.loadVendors(filepath.Join(root, "vendors", "vendor_health.json")); err != nil {
		// Vendors are loaded best-effort; the advisor can still run the
		// category and service stages without them.
		log.Printf("[Catalog] WARNING: vendor health not loaded: %v", err)
	}

	log.Printf("[Catalog] Loaded %d categories, %d services, %d vendors",
		len(c.Categories), len(c.Services), len(c.Vendors))
	return c, nil
}

func (c *Catalog) loadVendors(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var vh vendorHealthFile
	if err := json.Unmarshal(raw, &vh); err != nil {
		return fmt.Errorf("invalid vendor health JSON: %w", err)
	}
	for _, row := range vh.Data.RowData {
		if row.Name == "" {
			continue
		}
		c.Vendors = append(c.Vendors, row.Name)
	}
	return nil
}

// AddKeywords extends a category's keyword set with its name tokens and the
// given extra words, lowercased and deduplicated.
func (c *Catalog) AddKeywords(category string, words ...string) {
	existing := make(map[string]bool)
	for _, kw := range c.keywords[category] {
		existing[kw] = true
	}
	add := func(word string) {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" || existing[word] {
			return
		}
		existing[word] = true
		c.keywords[category] = append(c.keywords[category], word)
	}
	for _, tok := range strings.FieldsFunc(category, func(r rune) bool {
		return r == ' ' || r == '/' || r == '-'
	}) {
		add(tok)
	}
	for _, w := range words {
		add(w)
	}
}

// ServicesFor returns the services of a category in catalog order.
// The lookup is case-insensitive; unknown categories yield nil.
func (c *Catalog) ServicesFor(category string) []string {
	if svcs, ok := c.CategoryToServices[category]; ok {
		return svcs
	}
	for cat, svcs := range c.CategoryToServices {
		if strings.EqualFold(cat, category) {
			return svcs
		}
	}
	return nil
}

// Keywords returns the keyword hint set of a category.
func (c *Catalog) Keywords(category string) []string {
	return c.keywords[category]
}

// CanonicalCategory resolves a case-insensitive category name to its
// cataloged spelling.
func (c *Catalog) CanonicalCategory(name string) (string, bool) {
	for _, cat := range c.Categories {
		if strings.EqualFold(cat, name) {
			return cat, true
		}
	}
	return "", false
}

// CanonicalVendor resolves a case-insensitive vendor name to its
// cataloged spelling.
func (c *Catalog) CanonicalVendor(name string) (string, bool) {
	for _, v := range c.Vendors {
		if strings.EqualFold(v, name) {
			return v, true
		}
	}
	return "", false
}

// HasService reports whether the service name is cataloged (case-insensitive).
func (c *Catalog) HasService(name string) bool {
	for _, s := range c.Services {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}
