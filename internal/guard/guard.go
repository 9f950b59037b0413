// internal/guard/guard.go
//
// Post-generation scope reporting. The guard inspects what entities an
// assistant reply mentions against the catalog whitelists and logs the
// findings. It is telemetry, not a filter: replies are never blocked or
// rewritten, because the prompt layer already constrains the model and a hard
// filter here would eat legitimate answers that merely paraphrase.
package guard

import (
	"log"
	"strings"

	"go-advisor/internal/catalog"
	"go-advisor/internal/extract"
)

// Validate reports the whitelisted entities mentioned by response and always
// accepts it. The returned note summarizes the findings for the caller's own
// logging or history records.
func Validate(cat *catalog.Catalog, response string) (bool, string) {
	categories := extract.FindMentions(response, cat.Categories)
	services := extract.FindMentions(response, cat.Services)
	vendors := extract.FindMentions(response, cat.Vendors)
	metrics := extract.FindMentions(response, catalog.HealthMetrics)

	var parts []string
	if len(categories) > 0 {
		parts = append(parts, "categories: "+strings.Join(categories, ", "))
	}
	if len(services) > 0 {
		parts = append(parts, "services: "+strings.Join(services, ", "))
	}
	if len(vendors) > 0 {
		parts = append(parts, "vendors: "+strings.Join(vendors, ", "))
	}
	if len(metrics) > 0 {
		parts = append(parts, "metrics: "+strings.Join(metrics, ", "))
	}

	note := "no cataloged entities mentioned"
	if len(parts) > 0 {
		note = strings.Join(parts, "; ")
	}
	log.Printf("[Guard] %s", note)
	return true, note
}
