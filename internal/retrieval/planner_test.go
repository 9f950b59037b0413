package retrieval

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"testing"

	"go-advisor/internal/catalog"
	"go-advisor/internal/session"
)

type fakeSearcher struct {
	mu        sync.Mutex
	calls     []string
	responses map[string][]Result
	baseline  []Result // returned for any query not in responses
}

func (f *fakeSearcher) Search(ctx context.Context, query string, k int, filter map[string]string) ([]Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	f.mu.Unlock()
	if rs, ok := f.responses[query]; ok {
		if len(rs) > k {
			rs = rs[:k]
		}
		return rs, nil
	}
	if len(f.baseline) > k {
		return f.baseline[:k], nil
	}
	return f.baseline, nil
}

func (f *fakeSearcher) sortedCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.calls...)
	sort.Strings(out)
	return out
}

func testCatalog() *catalog.Catalog {
	return catalog.New(
		[]string{"Employment Verification", "Asset Verification"},
		map[string][]string{
			"Employment Verification": {"PAN_TO_UAN", "UAN_BASIC"},
			"Asset Verification":      {"PAN_TO_GST"},
		},
		[]string{"AzureRaven", "EmeraldWhale", "ScarletPanther"},
	)
}

func TestPlan_Stage1IsAlwaysAMiss(t *testing.T) {
	f := &fakeSearcher{}
	p := NewPlanner(f, testCatalog(), 3, 10, 5)
	b := p.Plan(context.Background(), session.Stage1, "anything", nil)
	if !b.Miss {
		t.Errorf("STAGE_1 must be a miss, got %+v", b)
	}
	if len(f.calls) != 0 {
		t.Errorf("STAGE_1 must issue no searches, got %v", f.calls)
	}
	if b.Text() != NoContextLine {
		t.Errorf("miss text: got %q", b.Text())
	}
}

func TestPlan_Stage2TargetedPerService(t *testing.T) {
	f := &fakeSearcher{
		responses: map[string][]Result{
			"PAN_TO_UAN service details": {
				{Content: "wrong hit", Metadata: map[string]string{"category": "Asset Verification"}},
				{Content: "pan to uan overview", Metadata: map[string]string{"service_name": "PAN_TO_UAN"}},
				{Content: "also acceptable", Metadata: map[string]string{"service_name": "PAN_TO_UAN"}},
			},
			"UAN_BASIC service details": {
				{Content: "UAN_BASIC is mentioned right here", Metadata: map[string]string{}},
			},
		},
		baseline: []Result{
			{Content: "pan to uan overview", Metadata: map[string]string{"category": "Employment Verification"}},
			{Content: "employment category extra", Metadata: map[string]string{"category": "Employment Verification"}},
			{Content: "unrelated", Metadata: map[string]string{"category": "Other"}},
		},
	}
	p := NewPlanner(f, testCatalog(), 3, 10, 5)
	transcript := []session.Turn{
		{Role: session.RoleAssistant, Text: `"category": "Employment Verification"`},
	}
	b := p.Plan(context.Background(), session.Stage2, "tell me about the services", transcript)
	if b.Miss {
		t.Fatalf("unexpected miss")
	}
	// Per-service first-acceptable-hit, then baseline restricted to matching
	// metadata, duplicates dropped at insertion.
	want := []string{
		"pan to uan overview",
		"UAN_BASIC is mentioned right here",
		"employment category extra",
	}
	if !reflect.DeepEqual(b.Chunks, want) {
		t.Errorf("merge order mismatch:\n got %v\nwant %v", b.Chunks, want)
	}
	wantCalls := []string{
		"PAN_TO_UAN service details",
		"UAN_BASIC service details",
		"tell me about the services",
	}
	if !reflect.DeepEqual(f.sortedCalls(), wantCalls) {
		t.Errorf("calls mismatch: %v", f.sortedCalls())
	}
}

func TestPlan_Stage2NoCategoryFallsBackToServiceNameScan(t *testing.T) {
	f := &fakeSearcher{
		baseline: []Result{
			{Content: "this mentions PAN_TO_GST explicitly"},
			{Content: "nothing relevant"},
		},
	}
	p := NewPlanner(f, testCatalog(), 3, 10, 5)
	b := p.Plan(context.Background(), session.Stage2, "hello", nil)
	if b.Miss {
		t.Fatalf("unexpected miss")
	}
	if len(b.Chunks) != 1 || b.Chunks[0] != "this mentions PAN_TO_GST explicitly" {
		t.Errorf("fallback filter: %v", b.Chunks)
	}
}

func TestPlan_Stage2NothingFoundIsAMiss(t *testing.T) {
	f := &fakeSearcher{baseline: []Result{{Content: "noise"}}}
	p := NewPlanner(f, testCatalog(), 3, 10, 5)
	b := p.Plan(context.Background(), session.Stage2, "hello", nil)
	if !b.Miss {
		t.Errorf("expected miss, got %+v", b)
	}
}

func TestPlan_Stage3ExtractedVendors(t *testing.T) {
	f := &fakeSearcher{
		responses: map[string][]Result{
			"AzureRaven health metrics":   {{Content: "AzureRaven | successRate: 99.2"}},
			"EmeraldWhale health metrics": {{Content: "EmeraldWhale | successRate: 98.7"}},
		},
		baseline: []Result{
			{Content: "general vendor health overview"},
			{Content: "AzureRaven | successRate: 99.2"}, // duplicate of targeted hit
			{Content: "noise"},
		},
	}
	p := NewPlanner(f, testCatalog(), 3, 10, 5)
	transcript := []session.Turn{
		{Role: session.RoleAssistant, Text: `"vendors": ["AzureRaven", "EmeraldWhale"]`},
	}
	b := p.Plan(context.Background(), session.Stage3, "which is best?", transcript)
	// Exactly two targeted searches plus one baseline.
	wantCalls := []string{
		"AzureRaven health metrics",
		"EmeraldWhale health metrics",
		"which is best?",
	}
	if !reflect.DeepEqual(f.sortedCalls(), wantCalls) {
		t.Fatalf("calls mismatch: %v", f.sortedCalls())
	}
	want := []string{
		"AzureRaven | successRate: 99.2",
		"EmeraldWhale | successRate: 98.7",
		"general vendor health overview",
	}
	if !reflect.DeepEqual(b.Chunks, want) {
		t.Errorf("merge order mismatch:\n got %v\nwant %v", b.Chunks, want)
	}
}

func TestPlan_Stage3NoExtractionUsesFullCatalog(t *testing.T) {
	f := &fakeSearcher{}
	p := NewPlanner(f, testCatalog(), 3, 10, 5)
	b := p.Plan(context.Background(), session.Stage3, "vendors?", nil)
	// One targeted search per cataloged vendor plus the baseline.
	if got := len(f.sortedCalls()); got != 4 {
		t.Errorf("expected 4 searches, got %d: %v", got, f.sortedCalls())
	}
	if !b.Miss {
		t.Errorf("no hits anywhere must be a miss")
	}
}

func TestPlan_Stage4PassThrough(t *testing.T) {
	f := &fakeSearcher{
		baseline: []Result{
			{Content: "chunk a"}, {Content: "chunk b"}, {Content: "chunk a"},
		},
	}
	p := NewPlanner(f, testCatalog(), 3, 10, 5)
	b := p.Plan(context.Background(), session.Stage4, "finalize", nil)
	want := []string{"chunk a", "chunk b"}
	if !reflect.DeepEqual(b.Chunks, want) {
		t.Errorf("pass-through mismatch: %v", b.Chunks)
	}
	if len(f.calls) != 1 {
		t.Errorf("STAGE_4 issues exactly one search, got %v", f.calls)
	}
}

func TestPlan_Deterministic(t *testing.T) {
	mk := func() *fakeSearcher {
		return &fakeSearcher{
			responses: map[string][]Result{
				"AzureRaven health metrics":     {{Content: "azure metrics"}},
				"EmeraldWhale health metrics":   {{Content: "emerald metrics"}},
				"ScarletPanther health metrics": {{Content: "scarlet metrics"}},
			},
			baseline: []Result{{Content: "vendor overview"}},
		}
	}
	p1 := NewPlanner(mk(), testCatalog(), 3, 10, 5)
	p2 := NewPlanner(mk(), testCatalog(), 3, 10, 5)
	b1 := p1.Plan(context.Background(), session.Stage3, "rank them", nil)
	b2 := p2.Plan(context.Background(), session.Stage3, "rank them", nil)
	if !reflect.DeepEqual(b1, b2) {
		t.Errorf("identical inputs produced different bundles:\n%v\n%v", b1, b2)
	}
	// Targeted results appear in catalog order even though searches fan out
	// concurrently.
	want := []string{"azure metrics", "emerald metrics", "scarlet metrics", "vendor overview"}
	if !reflect.DeepEqual(b1.Chunks, want) {
		t.Errorf("slot order mismatch: %v", b1.Chunks)
	}
}

func TestBundle_SentinelDistinctFromEmptySearch(t *testing.T) {
	empty := Bundle{Chunks: []string{}}
	if empty.Miss {
		t.Fatalf("empty successful bundle is not a miss")
	}
	m := miss()
	if !m.Miss {
		t.Fatalf("miss must be marked")
	}
}
