package dialogue

import (
	"testing"

	"go-advisor/internal/catalog"
	"go-advisor/internal/session"
)

func testCatalog() *catalog.Catalog {
	return catalog.New(
		[]string{"Onboarding KYC/AML", "Employment Verification"},
		map[string][]string{
			"Onboarding KYC/AML":      {"PAN_ADVANCED", "GST_BASIC"},
			"Employment Verification": {"PAN_TO_UAN", "UAN_BASIC"},
		},
		[]string{"AzureRaven", "EmeraldWhale"},
	)
}

func TestNextStage_CategoryConfirmed(t *testing.T) {
	cat := testCatalog()
	got := NextStage(cat, session.Stage1,
		"It sounds like you need Employment Verification. Is that correct?",
		"yes, that's correct")
	if got != session.Stage2 {
		t.Errorf("confirmed category: got %s, want %s", got, session.Stage2)
	}
}

func TestNextStage_CategoryMentionWithoutConfirmation(t *testing.T) {
	cat := testCatalog()
	got := NextStage(cat, session.Stage1,
		"We offer Employment Verification among other things.",
		"tell me more")
	if got != session.Stage1 {
		t.Errorf("no confirmation must hold the stage: got %s", got)
	}
}

func TestNextStage_StructuredMarkerAdvances(t *testing.T) {
	cat := testCatalog()
	reply := `JSON_OUTPUT {"category": "Employment Verification"}`
	if got := NextStage(cat, session.Stage1, reply, "whatever"); got != session.Stage2 {
		t.Errorf("structured category output: got %s", got)
	}
	reply = `JSON_OUTPUT {"service": "PAN_TO_UAN"}`
	if got := NextStage(cat, session.Stage2, reply, "ok then"); got != session.Stage3 {
		t.Errorf("structured service output: got %s", got)
	}
	reply = `JSON_OUTPUT {"vendor": "AzureRaven"}`
	if got := NextStage(cat, session.Stage3, reply, ""); got != session.Stage4 {
		t.Errorf("structured vendor output: got %s", got)
	}
}

func TestNextStage_ServiceNumberedChoice(t *testing.T) {
	cat := testCatalog()
	got := NextStage(cat, session.Stage2,
		"1. PAN_TO_UAN lookup\n2. UAN_BASIC verification\nWhich service fits?",
		"option 2 please")
	if got != session.Stage3 {
		t.Errorf("numbered service choice: got %s", got)
	}
}

func TestNextStage_ServiceTopicWordsCountAsDiscussion(t *testing.T) {
	cat := testCatalog()
	got := NextStage(cat, session.Stage2,
		"Here are the use case options for your needs.",
		"okay, proceed")
	if got != session.Stage3 {
		t.Errorf("topic-word discussion plus confirmation: got %s", got)
	}
}

func TestNextStage_VendorSelection(t *testing.T) {
	cat := testCatalog()
	got := NextStage(cat, session.Stage3,
		"AzureRaven has the best success rate, EmeraldWhale the lowest latency.",
		"proceed with AzureRaven")
	if got != session.Stage4 {
		t.Errorf("vendor confirmation: got %s", got)
	}
}

func TestNextStage_MonotonicGuard(t *testing.T) {
	cat := testCatalog()
	// Nothing in the exchange matches a STAGE_4 transition, and no lower
	// stage may ever be reported.
	got := NextStage(cat, session.Stage4, "let's start over with categories", "no, go back")
	if got != session.Stage4 {
		t.Errorf("STAGE_4 is terminal: got %s", got)
	}
	got = NextStage(cat, session.Stage3, "Which category do you need?", "Employment Verification")
	if got != session.Stage3 {
		t.Errorf("stage regressed: got %s", got)
	}
}

func TestNextStage_ConfirmationLexicon(t *testing.T) {
	cat := testCatalog()
	reply := "So you need Onboarding KYC/AML, right?"
	for _, ok := range []string{"yes", "Correct", "that's right", "exactly", "OKAY"} {
		if got := NextStage(cat, session.Stage1, reply, ok); got != session.Stage2 {
			t.Errorf("confirmation %q not recognized", ok)
		}
	}
	for _, no := range []string{"no", "maybe later", "hmm"} {
		if got := NextStage(cat, session.Stage1, reply, no); got != session.Stage1 {
			t.Errorf("%q wrongly treated as confirmation", no)
		}
	}
}
