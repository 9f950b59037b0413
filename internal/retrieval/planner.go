// internal/retrieval/planner.go
//
// Stage-aware retrieval planning. The planner decides which similarity
// searches to issue for a turn, filters the hits by the entities the
// conversation has committed to, and merges everything into one deterministic
// bundle. It never fabricates content: when nothing relevant comes back the
// bundle is an explicit miss, not an empty list, so the prompt layer can
// surface a fixed refusal line instead of an empty context block.
package retrieval

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"go-advisor/internal/catalog"
	"go-advisor/internal/extract"
	"go-advisor/internal/session"
)

// NoContextLine is the fixed text surfaced downstream when a bundle is a miss.
const NoContextLine = "No relevant context could be retrieved."

// Result is one similarity-search hit.
type Result struct {
	Content  string
	Metadata map[string]string
}

// Searcher is the similarity-search capability the planner consumes. A nil
// filter means an unfiltered search; implementations must support equality
// filtering on the "category" metadata key at minimum.
type Searcher interface {
	Search(ctx context.Context, query string, k int, filter map[string]string) ([]Result, error)
}

// Bundle is the ordered retrieval context for one turn. Miss distinguishes
// "nothing relevant was retrieved" from a successful-but-small result set at
// the type level.
type Bundle struct {
	Chunks []string
	Miss   bool
}

func miss() Bundle {
	return Bundle{Miss: true}
}

// Text renders the bundle for prompt inclusion: the chunks joined by blank
// lines, or the fixed refusal line on a miss.
func (b Bundle) Text() string {
	if b.Miss {
		return NoContextLine
	}
	return strings.Join(b.Chunks, "\n\n")
}

// Planner issues stage-specific, entity-filtered searches and merges results.
type Planner struct {
	search Searcher
	cat    *catalog.Catalog

	serviceTopK  int // per-service targeted search depth (STAGE_2)
	baselineTopK int // unfiltered baseline search depth (STAGE_2/STAGE_3)
	finalTopK    int // pass-through search depth (STAGE_4)
}

func NewPlanner(search Searcher, cat *catalog.Catalog, serviceTopK, baselineTopK, finalTopK int) *Planner {
	if serviceTopK <= 0 {
		serviceTopK = 3
	}
	if baselineTopK <= 0 {
		baselineTopK = 10
	}
	if finalTopK <= 0 {
		finalTopK = 5
	}
	return &Planner{
		search:       search,
		cat:          cat,
		serviceTopK:  serviceTopK,
		baselineTopK: baselineTopK,
		finalTopK:    finalTopK,
	}
}

// Plan produces the context bundle for one turn. Given the same transcript and
// query it issues the same ordered set of searches and returns the same
// bundle: targeted results first in the order their source list was iterated,
// then baseline results, exact-content duplicates dropped at insertion time.
func (p *Planner) Plan(ctx context.Context, stage session.Stage, userQuery string, transcript []session.Turn) Bundle {
	switch stage {
	case session.Stage2:
		return p.planServices(ctx, userQuery, transcript)
	case session.Stage3:
		return p.planVendors(ctx, userQuery, transcript)
	case session.Stage4:
		return p.planFinal(ctx, userQuery)
	default:
		// STAGE_1 is category selection; it needs no domain context.
		return miss()
	}
}

// planServices handles STAGE_2: one targeted search per service of the
// committed category, supplemented by a metadata-restricted baseline search.
func (p *Planner) planServices(ctx context.Context, userQuery string, transcript []session.Turn) Bundle {
	category := extract.Category(p.cat, session.Render(transcript))
	if category == "" {
		category = extract.Category(p.cat, userQuery)
	}

	if category == "" {
		// No category committed anywhere: fall back to a baseline search
		// kept only where a cataloged service name appears in the content.
		var m merger
		for _, r := range p.baseline(ctx, userQuery, p.baselineTopK) {
			if p.mentionsAnyService(r.Content) {
				m.add(r.Content)
			}
		}
		return m.bundle()
	}

	services := p.cat.ServicesFor(category)
	queries := make([]string, len(services))
	for i, svc := range services {
		queries[i] = fmt.Sprintf("%s service details", svc)
	}
	perService := p.fanOut(ctx, queries, p.serviceTopK)

	var m merger
	for i, svc := range services {
		// First acceptable hit per service wins, then stop scanning.
		for _, r := range perService[i] {
			if p.acceptServiceHit(r, svc, category) {
				m.add(r.Content)
				break
			}
		}
	}
	for _, r := range p.baseline(ctx, userQuery, p.baselineTopK) {
		if r.Metadata["category"] == category || p.isServiceOf(r.Metadata["service_name"], services) {
			m.add(r.Content)
		}
	}
	return m.bundle()
}

func (p *Planner) acceptServiceHit(r Result, service, category string) bool {
	if strings.EqualFold(r.Metadata["service_name"], service) {
		return true
	}
	if strings.EqualFold(r.Metadata["category"], category) {
		return true
	}
	return strings.Contains(strings.ToLower(r.Content), strings.ToLower(service))
}

func (p *Planner) isServiceOf(name string, services []string) bool {
	for _, svc := range services {
		if strings.EqualFold(name, svc) {
			return true
		}
	}
	return false
}

func (p *Planner) mentionsAnyService(content string) bool {
	lower := strings.ToLower(content)
	for _, svc := range p.cat.Services {
		if strings.Contains(lower, strings.ToLower(svc)) {
			return true
		}
	}
	return false
}

// planVendors handles STAGE_3: one k=1 targeted search per candidate vendor
// plus baseline hits that talk about vendors, health or metrics.
func (p *Planner) planVendors(ctx context.Context, userQuery string, transcript []session.Turn) Bundle {
	candidates := extract.Vendors(p.cat, session.Render(transcript))
	if len(candidates) == 0 {
		candidates = p.cat.Vendors
	}

	queries := make([]string, len(candidates))
	for i, v := range candidates {
		queries[i] = fmt.Sprintf("%s health metrics", v)
	}
	perVendor := p.fanOut(ctx, queries, 1)

	var m merger
	for i := range candidates {
		if len(perVendor[i]) > 0 {
			m.add(perVendor[i][0].Content)
		}
	}
	for _, r := range p.baseline(ctx, userQuery, p.baselineTopK) {
		lower := strings.ToLower(r.Content)
		if strings.Contains(lower, "vendor") || strings.Contains(lower, "health") || strings.Contains(lower, "metric") {
			m.add(r.Content)
		}
	}
	return m.bundle()
}

// planFinal handles STAGE_4: every choice is already committed, so a single
// baseline search is passed through unchanged as advisory context.
func (p *Planner) planFinal(ctx context.Context, userQuery string) Bundle {
	var m merger
	for _, r := range p.baseline(ctx, userQuery, p.finalTopK) {
		m.add(r.Content)
	}
	return m.bundle()
}

// fanOut issues the targeted searches concurrently and reassembles the
// responses into slot order, so concurrency can never change the merge order.
// A failed search contributes no results; it is logged, not propagated.
func (p *Planner) fanOut(ctx context.Context, queries []string, k int) [][]Result {
	results := make([][]Result, len(queries))
	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(slot int, query string) {
			defer wg.Done()
			rs, err := p.search.Search(ctx, query, k, nil)
			if err != nil {
				log.Printf("[Retrieval] WARNING: targeted search %q: %v", query, err)
				return
			}
			results[slot] = rs
		}(i, q)
	}
	wg.Wait()
	return results
}

func (p *Planner) baseline(ctx context.Context, query string, k int) []Result {
	rs, err := p.search.Search(ctx, query, k, nil)
	if err != nil {
		log.Printf("[Retrieval] WARNING: baseline search %q: %v", query, err)
		return nil
	}
	return rs
}

// merger accumulates chunks in insertion order, dropping exact-content
// duplicates and keeping the first occurrence.
type merger struct {
	chunks []string
	seen   map[string]bool
}

func (m *merger) add(content string) {
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if content == "" || m.seen[content] {
		return
	}
	m.seen[content] = true
	m.chunks = append(m.chunks, content)
}

func (m *merger) bundle() Bundle {
	if len(m.chunks) == 0 {
		return miss()
	}
	return Bundle{Chunks: m.chunks}
}
