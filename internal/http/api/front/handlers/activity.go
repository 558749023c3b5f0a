package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/facestudio/facestudio/internal/activity"
	"github.com/facestudio/facestudio/internal/models"
	"github.com/gin-gonic/gin"
)

// ActivityHandler serves the user's recent activity log.
type ActivityHandler struct {
	recorder *activity.Recorder
}

// NewActivityHandler constructs an ActivityHandler.
func NewActivityHandler(recorder *activity.Recorder) *ActivityHandler {
	return &ActivityHandler{recorder: recorder}
}

// activityDTO defines the activity event payload. The stored IP stays
// encrypted and is never echoed back.
type activityDTO struct {
	ID         uint64    `json:"id"`
	ActionType string    `json:"action_type"`
	Path       string    `json:"path"`
	CreatedAt  time.Time `json:"created_at"`
}

// recordActivityRequest defines the request body for client-reported events.
type recordActivityRequest struct {
	Path string `json:"path"`
}

// Record stores a client-reported page visit. Login and logout events are
// recorded server-side; clients may only report visits.
func (h *ActivityHandler) Record(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body recordActivityRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.Path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	h.recorder.Record(c.Request.Context(), userID, models.ActivityPageVisit, body.Path, c.ClientIP(), c.Request.UserAgent())
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// List returns the user's recent activity events.
func (h *ActivityHandler) List(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, errRecent := h.recorder.Recent(c.Request.Context(), userID, limit)
	if errRecent != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query activity failed"})
		return
	}

	items := make([]activityDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, activityDTO{
			ID:         entry.ID,
			ActionType: entry.ActionType,
			Path:       entry.Path,
			CreatedAt:  entry.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"activity": items})
}
