package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"go-advisor/internal/dialogue"
	"go-advisor/internal/history"
)

type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	SessionID string `json:"sessionId"`
	Reply     string `json:"reply"`
	Stage     string `json:"stage"`
}

// ChatHandler runs one advisory turn. A missing sessionId starts a fresh
// session and returns its generated id with the reply.
func ChatHandler(engine *dialogue.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Message required"}})
			return
		}
		if req.SessionID == "" {
			req.SessionID = uuid.New().String()
		}

		reply, stage, err := engine.Turn(c.Request.Context(), req.SessionID, req.Message)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": gin.H{"message": "Advisor unavailable"}})
			return
		}
		c.JSON(http.StatusOK, ChatResponse{
			SessionID: req.SessionID,
			Reply:     reply,
			Stage:     string(stage),
		})
	}
}

// SessionStageHandler reports the stage a session is in. Unseen sessions are
// at STAGE_1.
func SessionStageHandler(ctrl *dialogue.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		c.JSON(http.StatusOK, gin.H{
			"sessionId": id,
			"stage":     string(ctrl.GetStage(id)),
		})
	}
}

// SessionContextHandler returns the serialized chat log of a session.
func SessionContextHandler(ctrl *dialogue.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		c.JSON(http.StatusOK, gin.H{
			"sessionId": id,
			"context":   ctrl.GetContext(id),
		})
	}
}

// SessionResetHandler clears a session back to STAGE_1.
func SessionResetHandler(ctrl *dialogue.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		ctrl.Reset(id)
		c.JSON(http.StatusOK, gin.H{
			"sessionId": id,
			"stage":     "STAGE_1",
		})
	}
}

// SessionHistoryHandler returns the recorded turns of a session from the
// database.
func SessionHistoryHandler(recorder *history.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		turns, err := recorder.Turns(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "DB error"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessionId": id, "turns": turns})
	}
}
