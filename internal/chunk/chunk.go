// internal/chunk/chunk.go
//
// Knowledge base chunking. Service records and the vendor health sheet are
// split into small self-contained chunks with filterable metadata, ready for
// embedding and upsert into the vector store. Chunk order is deterministic for
// a given input so re-indexing the same knowledge base is idempotent.
package chunk

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go-advisor/internal/catalog"
)

// Chunk is one embeddable unit of knowledge base content.
type Chunk struct {
	Name     string
	Content  string
	Metadata map[string]string
}

type schemaField struct {
	Field       string `json:"field"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
}

type serviceFile struct {
	Category         string          `json:"category"`
	ServiceName      string          `json:"service_name"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	LLMSummary       string          `json:"llm_summary"`
	UseCases         []string        `json:"use_cases"`
	Tags             []string        `json:"tags"`
	AvailableVendors []string        `json:"available_vendors"`
	RequestSchema    []schemaField   `json:"request_schema"`
	ResponseSchema   []schemaField   `json:"response_schema"`
	ExampleRequest   json.RawMessage `json:"example_request"`
	ExampleResponse  json.RawMessage `json:"example_response"`
	Integration      json.RawMessage `json:"integration"`
}

// ServiceChunks splits one service JSON document into chunks: overview, use
// cases, tags, vendors, request/response schemas, examples and integration
// details. Every chunk carries the category and service_name metadata the
// retrieval planner filters on, plus a type tag naming the section.
func ServiceChunks(raw []byte) ([]Chunk, error) {
	var svc serviceFile
	if err := json.Unmarshal(raw, &svc); err != nil {
		return nil, fmt.Errorf("failed to parse service record: %w", err)
	}
	name := svc.ServiceName
	if name == "" {
		name = svc.Name
	}

	base := func(ctype string) map[string]string {
		meta := map[string]string{
			"category":     svc.Category,
			"service_name": name,
		}
		if len(svc.Tags) > 0 {
			meta["tags"] = strings.Join(svc.Tags, ", ")
		}
		if len(svc.AvailableVendors) > 0 {
			meta["available_vendors"] = strings.Join(svc.AvailableVendors, ", ")
		}
		if ctype != "" {
			meta["type"] = ctype
		}
		return meta
	}

	var chunks []Chunk

	var overview []string
	if svc.Category != "" {
		overview = append(overview, "Category: "+svc.Category)
	}
	if name != "" {
		overview = append(overview, "Service: "+name)
	}
	if svc.Description != "" {
		overview = append(overview, "Description: "+svc.Description)
	}
	if svc.LLMSummary != "" {
		overview = append(overview, "Summary: "+svc.LLMSummary)
	}
	if len(overview) > 0 {
		chunks = append(chunks, Chunk{
			Name:     "Service Overview",
			Content:  strings.Join(overview, " | "),
			Metadata: base("overview"),
		})
	}

	if len(svc.UseCases) > 0 {
		parts := make([]string, len(svc.UseCases))
		for i, uc := range svc.UseCases {
			parts[i] = fmt.Sprintf("%d. %s", i+1, uc)
		}
		chunks = append(chunks, Chunk{
			Name:     "Use Cases",
			Content:  "Use Cases: " + strings.Join(parts, " | "),
			Metadata: base("use_cases"),
		})
	}

	if len(svc.Tags) > 0 {
		chunks = append(chunks, Chunk{
			Name:     "Tags",
			Content:  "Tags: " + strings.Join(svc.Tags, ", "),
			Metadata: base("tags"),
		})
	}
	if len(svc.AvailableVendors) > 0 {
		chunks = append(chunks, Chunk{
			Name:     "Available Vendors",
			Content:  "Available Vendors: " + strings.Join(svc.AvailableVendors, ", "),
			Metadata: base("vendors"),
		})
	}

	if len(svc.RequestSchema) > 0 {
		chunks = append(chunks, Chunk{
			Name:     "Request Schema",
			Content:  renderSchema("Request Schema:", svc.RequestSchema),
			Metadata: base("request_schema"),
		})
	}
	if len(svc.ResponseSchema) > 0 {
		chunks = append(chunks, Chunk{
			Name:     "Response Schema",
			Content:  renderSchema("Response Schema:", svc.ResponseSchema),
			Metadata: base("response_schema"),
		})
	}

	if c, ok := rawChunk("Example Request", "Example Request: ", svc.ExampleRequest, base("example_request")); ok {
		chunks = append(chunks, c)
	}
	if c, ok := rawChunk("Example Response", "Example Response: ", svc.ExampleResponse, base("example_response")); ok {
		chunks = append(chunks, c)
	}
	if c, ok := rawChunk("Integration Details", "Integration: ", svc.Integration, base("integration")); ok {
		chunks = append(chunks, c)
	}
	return chunks, nil
}

func renderSchema(header string, fields []schemaField) string {
	parts := []string{header}
	for _, f := range fields {
		req := "optional"
		if f.Required {
			req = "required"
		}
		parts = append(parts, fmt.Sprintf("- %s (%s, %s): %s", f.Field, f.Type, req, f.Description))
	}
	return strings.Join(parts, " | ")
}

func rawChunk(name, prefix string, raw json.RawMessage, meta map[string]string) (Chunk, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return Chunk{}, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Chunk{}, false
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return Chunk{}, false
	}
	return Chunk{Name: name, Content: prefix + string(pretty), Metadata: meta}, true
}

type vendorHealthFile struct {
	Description string `json:"description"`
	Data        struct {
		RowData []map[string]any `json:"rowData"`
	} `json:"data"`
}

// VendorHealthChunks splits the vendor health sheet into one overview chunk
// plus one metrics chunk per vendor. Metrics are rendered in the canonical
// health metric order so identical inputs always produce identical content.
func VendorHealthChunks(raw []byte) ([]Chunk, error) {
	var vh vendorHealthFile
	if err := json.Unmarshal(raw, &vh); err != nil {
		return nil, fmt.Errorf("failed to parse vendor health: %w", err)
	}

	base := func(vendor string) map[string]string {
		meta := map[string]string{
			"type":      "vendor_health",
			"file_path": "vendors/vendor_health.json",
		}
		if vendor != "" {
			meta["vendor_name"] = vendor
		}
		return meta
	}

	var chunks []Chunk
	if vh.Description != "" {
		chunks = append(chunks, Chunk{
			Name:     "Vendor Health Overview",
			Content:  vh.Description,
			Metadata: base(""),
		})
	}

	for _, row := range vh.Data.RowData {
		name, _ := row["name"].(string)
		if name == "" {
			continue
		}
		parts := []string{"Vendor: " + name}
		seen := map[string]bool{"name": true}
		for _, key := range catalog.HealthMetrics {
			if seen[key] {
				continue
			}
			if v, ok := row[key]; ok && v != nil {
				parts = append(parts, key+": "+formatValue(v))
				seen[key] = true
			}
		}
		// Any field outside the canonical metric set still gets indexed,
		// sorted for stability.
		var extras []string
		for key, v := range row {
			if !seen[key] && v != nil {
				extras = append(extras, key+": "+formatValue(v))
			}
		}
		sort.Strings(extras)
		parts = append(parts, extras...)

		chunks = append(chunks, Chunk{
			Name:     "Vendor Metrics: " + name,
			Content:  strings.Join(parts, " | "),
			Metadata: base(name),
		})
	}
	return chunks, nil
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}
