package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/facestudio/facestudio/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PlanAdminHandler manages pricing plans.
type PlanAdminHandler struct {
	db *gorm.DB
}

// NewPlanAdminHandler constructs a PlanAdminHandler.
func NewPlanAdminHandler(db *gorm.DB) *PlanAdminHandler {
	return &PlanAdminHandler{db: db}
}

// planRequest defines the plan create/update request body.
type planRequest struct {
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Credits   int64  `json:"credits"`
	SortOrder int    `json:"sort_order"`
	IsActive  *bool  `json:"is_active"`
}

// List returns all plans, including inactive ones.
func (h *PlanAdminHandler) List(c *gin.Context) {
	var plans []models.PricingPlan
	if errFind := h.db.WithContext(c.Request.Context()).
		Order("sort_order ASC, id ASC").
		Find(&plans).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query plans failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

// Create adds a new pricing plan.
func (h *PlanAdminHandler) Create(c *gin.Context) {
	var body planRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	name := strings.TrimSpace(body.Name)
	if name == "" || body.Price <= 0 || body.Credits <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, positive price and credits are required"})
		return
	}

	plan := models.PricingPlan{
		Name:      name,
		Price:     body.Price,
		Credits:   body.Credits,
		SortOrder: body.SortOrder,
		IsActive:  true,
	}
	if body.IsActive != nil {
		plan.IsActive = *body.IsActive
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&plan).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create plan failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": plan.ID})
}

// Update edits an existing plan. Price and credit changes only affect future
// purchases; existing sources keep the terms they were bought under.
func (h *PlanAdminHandler) Update(c *gin.Context) {
	planID, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || planID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan id"})
		return
	}

	var body planRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var plan models.PricingPlan
	if errFind := h.db.WithContext(c.Request.Context()).First(&plan, planID).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
		return
	}

	updates := map[string]any{"sort_order": body.SortOrder}
	if name := strings.TrimSpace(body.Name); name != "" {
		updates["name"] = name
	}
	if body.Price > 0 {
		updates["price"] = body.Price
	}
	if body.Credits > 0 {
		updates["credits"] = body.Credits
	}
	if body.IsActive != nil {
		updates["is_active"] = *body.IsActive
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&plan).Updates(updates).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update plan failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// Toggle flips a plan's active flag.
func (h *PlanAdminHandler) Toggle(c *gin.Context) {
	planID, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || planID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan id"})
		return
	}

	var plan models.PricingPlan
	if errFind := h.db.WithContext(c.Request.Context()).First(&plan, planID).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
		return
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).
		Model(&plan).
		Update("is_active", !plan.IsActive).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "toggle plan failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_active": !plan.IsActive})
}
