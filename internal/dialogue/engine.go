// internal/dialogue/engine.go
package dialogue

import (
	"context"
	"fmt"
	"log"

	"go-advisor/internal/catalog"
	"go-advisor/internal/guard"
	"go-advisor/internal/prompt"
	"go-advisor/internal/retrieval"
	"go-advisor/internal/session"
)

// Completer produces an assistant reply for an assembled prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Recorder persists completed turns for audit. It is best-effort: recording
// failures never fail the turn.
type Recorder interface {
	Record(ctx context.Context, sessionID, userText, reply string, stage session.Stage, note string)
}

// Engine runs one full advisory turn: plan retrieval for the current stage,
// assemble the prompt, complete it, report the reply's entity scope and commit
// the exchange to the session.
type Engine struct {
	ctrl     *Controller
	planner  *retrieval.Planner
	prompts  *prompt.Builder
	llm      Completer
	cat      *catalog.Catalog
	recorder Recorder
}

func NewEngine(ctrl *Controller, planner *retrieval.Planner, prompts *prompt.Builder, llm Completer, cat *catalog.Catalog, recorder Recorder) *Engine {
	return &Engine{
		ctrl:     ctrl,
		planner:  planner,
		prompts:  prompts,
		llm:      llm,
		cat:      cat,
		recorder: recorder,
	}
}

// Turn processes userText for the session and returns the assistant reply and
// the stage the session is in afterwards. The reply is generated against the
// stage the session was in before this exchange.
func (e *Engine) Turn(ctx context.Context, sessionID, userText string) (string, session.Stage, error) {
	stage := e.ctrl.GetStage(sessionID)
	transcript := e.ctrl.Snapshot(sessionID)

	// STAGE_1 is pure category selection; the prompt whitelists already carry
	// everything the model needs, so no knowledge is attached.
	knowledge := ""
	if stage != session.Stage1 {
		bundle := e.planner.Plan(ctx, stage, userText, transcript)
		knowledge = bundle.Text()
	}

	p := e.prompts.Build(stage, userText, session.Render(transcript), knowledge)
	reply, err := e.llm.Complete(ctx, p)
	if err != nil {
		return "", stage, fmt.Errorf("completion failed: %w", err)
	}

	_, note := guard.Validate(e.cat, reply)
	next := e.ctrl.Update(sessionID, userText, reply)

	if e.recorder != nil {
		e.recorder.Record(ctx, sessionID, userText, reply, next, note)
	}
	log.Printf("[Dialogue] session %s: turn complete at %s", sessionID, next)
	return reply, next, nil
}
