// internal/history/history.go
package history

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"go-advisor/internal/catalog"
	"go-advisor/internal/extract"
	"go-advisor/internal/session"
)

// Conversation groups the recorded turns of one advisory session.
type Conversation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"uniqueIndex;size:64;not null" json:"sessionId"`
	Stage     string    `gorm:"size:16;not null;default:'STAGE_1'" json:"stage"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TurnRecord is one persisted exchange, with the stage reached afterwards, the
// guard's scope note and a snapshot of the entities extracted at that point.
type TurnRecord struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ConversationID uint           `gorm:"index;not null" json:"conversationId"`
	UserText       string         `gorm:"type:text;not null" json:"userText"`
	AssistantText  string         `gorm:"type:text;not null" json:"assistantText"`
	Stage          string         `gorm:"size:16;not null" json:"stage"`
	GuardNote      string         `gorm:"type:text" json:"guardNote"`
	Entities       datatypes.JSON `json:"entities"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// Recorder writes completed turns to the database. It is fire-and-forget from
// the dialogue engine's point of view; failures are logged, never returned.
type Recorder struct {
	db  *gorm.DB
	cat *catalog.Catalog
}

func NewRecorder(db *gorm.DB, cat *catalog.Catalog) *Recorder {
	return &Recorder{db: db, cat: cat}
}

// Record stores one exchange under its session's conversation, creating the
// conversation row on first use.
func (r *Recorder) Record(ctx context.Context, sessionID, userText, reply string, stage session.Stage, note string) {
	var conv Conversation
	err := r.db.WithContext(ctx).
		Where(Conversation{SessionID: sessionID}).
		FirstOrCreate(&conv).Error
	if err != nil {
		log.Printf("[History] WARNING: conversation lookup %s: %v", sessionID, err)
		return
	}

	if conv.Stage != string(stage) {
		if err := r.db.WithContext(ctx).Model(&conv).Update("stage", string(stage)).Error; err != nil {
			log.Printf("[History] WARNING: stage update %s: %v", sessionID, err)
		}
	}

	entities := extract.FromText(r.cat, userText+"\n"+reply)
	snapshot, err := json.Marshal(entities)
	if err != nil {
		snapshot = []byte("{}")
	}

	rec := TurnRecord{
		ConversationID: conv.ID,
		UserText:       userText,
		AssistantText:  reply,
		Stage:          string(stage),
		GuardNote:      note,
		Entities:       datatypes.JSON(snapshot),
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		log.Printf("[History] WARNING: turn record %s: %v", sessionID, err)
	}
}

// Turns returns the recorded exchanges of a session in order.
func (r *Recorder) Turns(ctx context.Context, sessionID string) ([]TurnRecord, error) {
	var conv Conversation
	err := r.db.WithContext(ctx).Where(Conversation{SessionID: sessionID}).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var turns []TurnRecord
	err = r.db.WithContext(ctx).
		Where(TurnRecord{ConversationID: conv.ID}).
		Order("id asc").
		Find(&turns).Error
	return turns, err
}
