// internal/session/session.go
package session

import (
	"strings"
)

// Stage identifies one of the four ordered phases of the advisory conversation:
// category selection, service selection, vendor selection, workflow output.
type Stage string

const (
	Stage1 Stage = "STAGE_1"
	Stage2 Stage = "STAGE_2"
	Stage3 Stage = "STAGE_3"
	Stage4 Stage = "STAGE_4"
)

var stageOrder = map[Stage]int{
	Stage1: 1,
	Stage2: 2,
	Stage3: 3,
	Stage4: 4,
}

// Rank returns the stage's position in the total order STAGE_1 < STAGE_2 <
// STAGE_3 < STAGE_4. Unknown values rank as STAGE_1 so adversarial input can
// never unlock a later stage.
func (s Stage) Rank() int {
	if r, ok := stageOrder[s]; ok {
		return r
	}
	return 1
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one utterance in a conversation. Immutable once appended; insertion
// order is conversation order.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Session is the per-conversation state: the growing transcript and the
// current stage. The stage is monotonically non-decreasing for the lifetime
// of the session.
type Session struct {
	ID         string `json:"id"`
	Transcript []Turn `json:"transcript"`
	Stage      Stage  `json:"stage"`
}

// NewSession returns a fresh session at STAGE_1.
func NewSession(id string) *Session {
	return &Session{ID: id, Stage: Stage1}
}

// Render serializes a transcript into the "User:/Assistant:" chat-log form the
// prompt layer and the extractors consume.
func Render(transcript []Turn) string {
	var b strings.Builder
	for i, turn := range transcript {
		if i > 0 {
			b.WriteString("\n")
		}
		switch turn.Role {
		case RoleAssistant:
			b.WriteString("Assistant: ")
		default:
			b.WriteString("User: ")
		}
		b.WriteString(strings.TrimSpace(turn.Text))
	}
	return b.String()
}

// Store persists sessions keyed by id. Implementations must be safe for
// concurrent use across distinct ids; serialization of turns within one id is
// the controller's job.
type Store interface {
	// Get returns the session, or nil when the id has never been seen.
	Get(id string) (*Session, error)
	Put(sess *Session) error
	Delete(id string) error
}
