package guard

import (
	"strings"
	"testing"

	"go-advisor/internal/catalog"
)

func testCatalog() *catalog.Catalog {
	return catalog.New(
		[]string{"Employment Verification"},
		map[string][]string{"Employment Verification": {"PAN_TO_UAN"}},
		[]string{"AzureRaven"},
	)
}

func TestValidate_AlwaysAccepts(t *testing.T) {
	cat := testCatalog()
	ok, note := Validate(cat, "I recommend UnknownVendor with made-up metrics.")
	if !ok {
		t.Fatalf("guard must never reject")
	}
	if note != "no cataloged entities mentioned" {
		t.Errorf("note = %q", note)
	}
}

func TestValidate_ReportsMentions(t *testing.T) {
	cat := testCatalog()
	ok, note := Validate(cat, "For Employment Verification, PAN_TO_UAN via AzureRaven has the best successRate.")
	if !ok {
		t.Fatalf("guard must never reject")
	}
	for _, want := range []string{
		"categories: Employment Verification",
		"services: PAN_TO_UAN",
		"vendors: AzureRaven",
		"metrics: successRate",
	} {
		if !strings.Contains(note, want) {
			t.Errorf("note missing %q, got %q", want, note)
		}
	}
}
