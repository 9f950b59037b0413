// internal/dialogue/stage.go
package dialogue

import (
	"strings"
	"unicode"

	"go-advisor/internal/catalog"
	"go-advisor/internal/session"
)

// jsonOutputMarker is the structured-output header the prompt layer instructs
// the model to emit. Its presence next to a field name is treated as a
// completed selection regardless of the surrounding prose.
const jsonOutputMarker = "JSON_OUTPUT"

// confirmationTokens is the fixed lexicon of user confirmations that unlock a
// stage advance.
var confirmationTokens = []string{
	"yes", "correct", "right", "okay", "confirm", "proceed", "that's right", "exactly",
}

// serviceTopicWords recognizes service discussion when the assistant describes
// offerings without naming a cataloged service verbatim.
var serviceTopicWords = []string{"service", "services", "use case"}

// NextStage computes the stage a session should be in after the assistant
// produced assistantText in reply to userText, given the stage the session was
// in when the reply was generated.
//
// The monotonic guard at the end is the only protection against stage
// regression: inputs are adversarial free text, so a candidate below the
// current rank is discarded, never reported.
func NextStage(cat *catalog.Catalog, current session.Stage, assistantText, userText string) session.Stage {
	candidate := current

	switch current {
	case session.Stage1:
		if (mentionsAny(assistantText, cat.Categories) && containsConfirmation(userText)) ||
			hasStructuredField(assistantText, "category") {
			candidate = session.Stage2
		}
	case session.Stage2:
		topical := mentionsAny(assistantText, cat.Services) || mentionsAny(assistantText, serviceTopicWords)
		if (topical && (containsConfirmation(userText) || containsDigit(userText))) ||
			hasStructuredField(assistantText, "service") {
			candidate = session.Stage3
		}
	case session.Stage3:
		if (mentionsAny(assistantText, cat.Vendors) && (containsConfirmation(userText) || containsDigit(userText))) ||
			hasStructuredField(assistantText, "vendor") {
			candidate = session.Stage4
		}
	case session.Stage4:
		// Terminal: self-loop only.
		candidate = session.Stage4
	}

	if candidate.Rank() < current.Rank() {
		return current
	}
	return candidate
}

func containsConfirmation(userText string) bool {
	lower := strings.ToLower(userText)
	for _, tok := range confirmationTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// containsDigit treats any digit as a numbered-choice selection ("option 2").
func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func mentionsAny(text string, items []string) bool {
	lower := strings.ToLower(text)
	for _, item := range items {
		if item == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(item)) {
			return true
		}
	}
	return false
}

func hasStructuredField(assistantText, field string) bool {
	return strings.Contains(assistantText, jsonOutputMarker) && strings.Contains(assistantText, field)
}
