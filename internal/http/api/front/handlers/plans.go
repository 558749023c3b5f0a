package handlers

import (
	"net/http"

	"github.com/facestudio/facestudio/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PlanFrontHandler serves the public pricing plan list.
type PlanFrontHandler struct {
	db *gorm.DB
}

// NewPlanFrontHandler constructs a PlanFrontHandler.
func NewPlanFrontHandler(db *gorm.DB) *PlanFrontHandler {
	return &PlanFrontHandler{db: db}
}

// planDTO defines the pricing plan response payload.
type planDTO struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	Price   int64  `json:"price"`
	Credits int64  `json:"credits"`
}

// List returns active plans in display order.
func (h *PlanFrontHandler) List(c *gin.Context) {
	var plans []models.PricingPlan
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("is_active = ?", true).
		Order("sort_order ASC, id ASC").
		Find(&plans).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query plans failed"})
		return
	}

	items := make([]planDTO, 0, len(plans))
	for _, plan := range plans {
		items = append(items, planDTO{ID: plan.ID, Name: plan.Name, Price: plan.Price, Credits: plan.Credits})
	}
	c.JSON(http.StatusOK, gin.H{"plans": items})
}
