// internal/dialogue/controller.go
package dialogue

import (
	"log"
	"sync"

	"go-advisor/internal/catalog"
	"go-advisor/internal/session"
)

// Controller owns the per-session stage state. Sessions are created on first
// reference; stages only ever move forward. Turns within one session id are
// serialized by a per-session mutex, so the read-compute-write of Update can
// never interleave and break monotonicity. Distinct sessions run in parallel.
type Controller struct {
	store session.Store
	cat   *catalog.Catalog

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewController(store session.Store, cat *catalog.Catalog) *Controller {
	return &Controller{
		store: store,
		cat:   cat,
		locks: make(map[string]*sync.Mutex),
	}
}

func (c *Controller) lockFor(id string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[id]
	if !ok {
		l = &sync.Mutex{}
		c.locks[id] = l
	}
	return l
}

// load returns the session for id, creating a fresh STAGE_1 session when the
// id has never been seen. Store failures degrade to a fresh session rather
// than failing the turn.
func (c *Controller) load(id string) *session.Session {
	sess, err := c.store.Get(id)
	if err != nil {
		log.Printf("[Dialogue] WARNING: session load %s: %v", id, err)
	}
	if sess == nil {
		return session.NewSession(id)
	}
	return sess
}

// Update appends the user and assistant turns and advances the stage. The
// transition is judged against the stage the session was in when the
// assistant text was produced, before either turn is appended, which keeps
// replays reproducible.
func (c *Controller) Update(id, userText, assistantText string) session.Stage {
	l := c.lockFor(id)
	l.Lock()
	defer l.Unlock()

	sess := c.load(id)
	next := NextStage(c.cat, sess.Stage, assistantText, userText)
	sess.Transcript = append(sess.Transcript,
		session.Turn{Role: session.RoleUser, Text: userText},
		session.Turn{Role: session.RoleAssistant, Text: assistantText},
	)
	if next != sess.Stage {
		log.Printf("[Dialogue] session %s: %s -> %s", id, sess.Stage, next)
	}
	sess.Stage = next
	if err := c.store.Put(sess); err != nil {
		log.Printf("[Dialogue] WARNING: session save %s: %v", id, err)
	}
	return next
}

// GetStage returns the session's current stage; unseen ids are at STAGE_1.
func (c *Controller) GetStage(id string) session.Stage {
	return c.load(id).Stage
}

// GetContext returns the serialized chat log of the session.
func (c *Controller) GetContext(id string) string {
	return session.Render(c.load(id).Transcript)
}

// Snapshot returns a copy of the session's transcript for extraction and
// retrieval planning.
func (c *Controller) Snapshot(id string) []session.Turn {
	return c.load(id).Transcript
}

// Reset clears the session back to an empty STAGE_1 state.
func (c *Controller) Reset(id string) {
	l := c.lockFor(id)
	l.Lock()
	defer l.Unlock()
	if err := c.store.Put(session.NewSession(id)); err != nil {
		log.Printf("[Dialogue] WARNING: session reset %s: %v", id, err)
	}
}
