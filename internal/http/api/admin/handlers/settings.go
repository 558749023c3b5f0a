package handlers

import (
	"net/http"

	"github.com/facestudio/facestudio/internal/settings"
	"github.com/gin-gonic/gin"
)

// SettingsHandler exposes runtime setting overrides.
type SettingsHandler struct {
	store       *settings.Store
	defaultCost int64
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(store *settings.Store, defaultCost int64) *SettingsHandler {
	return &SettingsHandler{store: store, defaultCost: defaultCost}
}

// Get returns the effective generation cost.
func (h *SettingsHandler) Get(c *gin.Context) {
	cost := h.store.GenerationCost(c.Request.Context(), h.defaultCost)
	c.JSON(http.StatusOK, gin.H{"generation_cost": cost})
}

// updateSettingsRequest defines the settings update body.
type updateSettingsRequest struct {
	GenerationCost int64 `json:"generation_cost"`
}

// Update overrides the per-image generation cost at runtime.
func (h *SettingsHandler) Update(c *gin.Context) {
	var body updateSettingsRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.GenerationCost <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "generation_cost must be positive"})
		return
	}

	if errSet := h.store.Set(c.Request.Context(), settings.KeyGenerationCost, body.GenerationCost); errSet != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update settings failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"generation_cost": body.GenerationCost})
}
