package chunk

import (
	"strings"
	"testing"
)

const sampleService = `{
  "category": "Employment Verification",
  "service_name": "PAN_TO_UAN",
  "description": "Resolve a UAN from a PAN number.",
  "llm_summary": "Maps PAN identifiers to UAN records.",
  "use_cases": ["Employee onboarding", "Background checks"],
  "tags": ["pan", "uan", "employment"],
  "available_vendors": ["AzureRaven", "EmeraldWhale"],
  "request_schema": [
    {"field": "pan", "description": "PAN number", "type": "string", "required": true}
  ],
  "response_schema": [
    {"field": "uan", "description": "Resolved UAN", "type": "string", "required": false}
  ],
  "example_request": {"pan": "ABCDE1234F"}
}`

func TestServiceChunks(t *testing.T) {
	chunks, err := ServiceChunks([]byte(sampleService))
	if err != nil {
		t.Fatalf("ServiceChunks: %v", err)
	}

	byName := map[string]Chunk{}
	for _, c := range chunks {
		byName[c.Name] = c
	}

	ov, ok := byName["Service Overview"]
	if !ok {
		t.Fatalf("missing overview chunk, got %d chunks", len(chunks))
	}
	want := "Category: Employment Verification | Service: PAN_TO_UAN | Description: Resolve a UAN from a PAN number. | Summary: Maps PAN identifiers to UAN records."
	if ov.Content != want {
		t.Errorf("overview content:\n got %q\nwant %q", ov.Content, want)
	}
	if ov.Metadata["category"] != "Employment Verification" ||
		ov.Metadata["service_name"] != "PAN_TO_UAN" ||
		ov.Metadata["type"] != "overview" {
		t.Errorf("overview metadata: %v", ov.Metadata)
	}

	uc, ok := byName["Use Cases"]
	if !ok {
		t.Fatalf("missing use cases chunk")
	}
	if uc.Content != "Use Cases: 1. Employee onboarding | 2. Background checks" {
		t.Errorf("use cases content: %q", uc.Content)
	}

	rs := byName["Request Schema"]
	if !strings.Contains(rs.Content, "- pan (string, required): PAN number") {
		t.Errorf("request schema content: %q", rs.Content)
	}
	resp := byName["Response Schema"]
	if !strings.Contains(resp.Content, "- uan (string, optional): Resolved UAN") {
		t.Errorf("response schema content: %q", resp.Content)
	}

	if _, ok := byName["Example Request"]; !ok {
		t.Errorf("missing example request chunk")
	}
	if _, ok := byName["Example Response"]; ok {
		t.Errorf("absent example response must not produce a chunk")
	}
	if byName["Tags"].Content != "Tags: pan, uan, employment" {
		t.Errorf("tags content: %q", byName["Tags"].Content)
	}
	if byName["Available Vendors"].Metadata["available_vendors"] != "AzureRaven, EmeraldWhale" {
		t.Errorf("vendor metadata: %v", byName["Available Vendors"].Metadata)
	}
}

func TestServiceChunks_NameFallback(t *testing.T) {
	chunks, err := ServiceChunks([]byte(`{"name": "GST_BASIC", "category": "Asset Verification", "description": "x"}`))
	if err != nil {
		t.Fatalf("ServiceChunks: %v", err)
	}
	if chunks[0].Metadata["service_name"] != "GST_BASIC" {
		t.Errorf("name fallback: %v", chunks[0].Metadata)
	}
}

const sampleVendorHealth = `{
  "description": "Live vendor health sheet.",
  "data": {
    "rowData": [
      {"name": "AzureRaven", "serialNumber": 1, "successRate": 99.2, "avgLatency": 180, "p99": 410},
      {"name": "", "successRate": 50},
      {"name": "EmeraldWhale", "successRate": 98.7, "region": "apac"}
    ]
  }
}`

func TestVendorHealthChunks(t *testing.T) {
	chunks, err := VendorHealthChunks([]byte(sampleVendorHealth))
	if err != nil {
		t.Fatalf("VendorHealthChunks: %v", err)
	}
	// Overview plus two named vendors; the unnamed row is skipped.
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0].Content != "Live vendor health sheet." || chunks[0].Metadata["type"] != "vendor_health" {
		t.Errorf("overview chunk: %+v", chunks[0])
	}

	azure := chunks[1]
	want := "Vendor: AzureRaven | serialNumber: 1 | successRate: 99.2 | avgLatency: 180 | p99: 410"
	if azure.Content != want {
		t.Errorf("vendor content:\n got %q\nwant %q", azure.Content, want)
	}
	if azure.Metadata["vendor_name"] != "AzureRaven" {
		t.Errorf("vendor metadata: %v", azure.Metadata)
	}

	// Non-canonical fields land after canonical metrics.
	emerald := chunks[2]
	if emerald.Content != "Vendor: EmeraldWhale | successRate: 98.7 | region: apac" {
		t.Errorf("extra-field ordering: %q", emerald.Content)
	}
}

func TestVendorHealthChunks_Deterministic(t *testing.T) {
	a, err := VendorHealthChunks([]byte(sampleVendorHealth))
	if err != nil {
		t.Fatalf("VendorHealthChunks: %v", err)
	}
	b, _ := VendorHealthChunks([]byte(sampleVendorHealth))
	for i := range a {
		if a[i].Content != b[i].Content {
			t.Errorf("chunk %d differs across runs", i)
		}
	}
}
