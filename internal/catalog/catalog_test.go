package catalog

import (
	"testing"
)

func TestLoad_SkipsBadRecords(t *testing.T) {
	c, err := Load("testdata/kb")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	// broken.json and noname.json must be skipped, the rest loaded.
	if len(c.Services) != 3 {
		t.Fatalf("expected 3 services, got %d: %v", len(c.Services), c.Services)
	}
	if len(c.Categories) != 2 {
		t.Errorf("expected 2 categories, got %v", c.Categories)
	}
}

func TestLoad_CatalogOrderIsStable(t *testing.T) {
	c, err := Load("testdata/kb")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	// Files are walked in sorted filename order: alpha, beta, gamma.
	want := []string{"ALPHA_CHECK", "BETA_LOOKUP", "GAMMA_TRACE"}
	for i, svc := range want {
		if c.Services[i] != svc {
			t.Fatalf("service order mismatch at %d: got %v, want %v", i, c.Services, want)
		}
	}
	if c.Categories[0] != "Identity Checks" || c.Categories[1] != "Asset Checks" {
		t.Errorf("category order mismatch: %v", c.Categories)
	}
}

func TestLoad_Vendors(t *testing.T) {
	c, err := Load("testdata/kb")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(c.Vendors) != 2 {
		t.Fatalf("expected 2 vendors (empty name skipped), got %v", c.Vendors)
	}
	if c.Vendors[0] != "VendorOne" || c.Vendors[1] != "VendorTwo" {
		t.Errorf("vendor order mismatch: %v", c.Vendors)
	}
}

func TestCanonicalLookups(t *testing.T) {
	c, err := Load("testdata/kb")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cat, ok := c.CanonicalCategory("identity checks"); !ok || cat != "Identity Checks" {
		t.Errorf("CanonicalCategory: got %q, %v", cat, ok)
	}
	if _, ok := c.CanonicalCategory("Unknown"); ok {
		t.Errorf("expected miss for unknown category")
	}
	if v, ok := c.CanonicalVendor("vendortwo"); !ok || v != "VendorTwo" {
		t.Errorf("CanonicalVendor: got %q, %v", v, ok)
	}
	if !c.HasService("alpha_check") {
		t.Errorf("HasService should be case-insensitive")
	}
}

func TestKeywords(t *testing.T) {
	c, err := Load("testdata/kb")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	kws := c.Keywords("Identity Checks")
	want := map[string]bool{"identity": true, "checks": true, "document": true, "lookup": true}
	for _, kw := range kws {
		if !want[kw] {
			t.Errorf("unexpected keyword %q", kw)
		}
		delete(want, kw)
	}
	if len(want) != 0 {
		t.Errorf("missing keywords: %v", want)
	}
}

func TestNew_FlattensInCategoryOrder(t *testing.T) {
	c := New(
		[]string{"B Cat", "A Cat"},
		map[string][]string{
			"B Cat": {"SVC_ONE", "SVC_TWO"},
			"A Cat": {"SVC_THREE"},
		},
		[]string{"VendorX"},
	)
	want := []string{"SVC_ONE", "SVC_TWO", "SVC_THREE"}
	for i, svc := range want {
		if c.Services[i] != svc {
			t.Fatalf("service order mismatch: %v", c.Services)
		}
	}
	if kws := c.Keywords("A Cat"); len(kws) == 0 {
		t.Errorf("expected name-token keywords for A Cat")
	}
}

func TestHealthMetricsFixed(t *testing.T) {
	if len(HealthMetrics) != 14 {
		t.Fatalf("expected 14 health metrics, got %d", len(HealthMetrics))
	}
	if HealthMetrics[0] != "serialNumber" || HealthMetrics[13] != "p99" {
		t.Errorf("health metric list changed: %v", HealthMetrics)
	}
}
