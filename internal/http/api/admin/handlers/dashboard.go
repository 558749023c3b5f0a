package handlers

import (
	"net/http"
	"time"

	"github.com/facestudio/facestudio/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DashboardHandler serves back-office KPI aggregates.
type DashboardHandler struct {
	db *gorm.DB
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db}
}

// KPI returns headline counts: users, revenue, generations and pending
// refunds.
func (h *DashboardHandler) KPI(c *gin.Context) {
	ctx := c.Request.Context()

	var userCount int64
	if errCount := h.db.WithContext(ctx).Model(&models.User{}).Count(&userCount).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count users failed"})
		return
	}

	var revenue int64
	if errSum := h.db.WithContext(ctx).Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusSucceeded).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&revenue).Error; errSum != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sum revenue failed"})
		return
	}

	var imageCount int64
	if errCount := h.db.WithContext(ctx).Model(&models.GeneratedImage{}).Count(&imageCount).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count images failed"})
		return
	}

	var pendingRefunds int64
	if errCount := h.db.WithContext(ctx).Model(&models.RefundRequest{}).
		Where("status = ?", models.RefundStatusPending).
		Count(&pendingRefunds).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count refunds failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":           userCount,
		"revenue":         revenue,
		"images":          imageCount,
		"pending_refunds": pendingRefunds,
	})
}

// trendPoint is one day of activity for the trend chart.
type trendPoint struct {
	Date    string `json:"date"`
	Images  int64  `json:"images"`
	Signups int64  `json:"signups"`
}

// Trend returns daily generation and signup counts for the past two weeks.
func (h *DashboardHandler) Trend(c *gin.Context) {
	ctx := c.Request.Context()
	since := time.Now().UTC().AddDate(0, 0, -13).Truncate(24 * time.Hour)

	var images []models.GeneratedImage
	if errFind := h.db.WithContext(ctx).
		Select("created_at").
		Where("created_at >= ?", since).
		Find(&images).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query images failed"})
		return
	}

	var users []models.User
	if errFind := h.db.WithContext(ctx).
		Select("created_at").
		Where("created_at >= ?", since).
		Find(&users).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query users failed"})
		return
	}

	points := make([]trendPoint, 14)
	index := make(map[string]int, 14)
	for i := range points {
		day := since.AddDate(0, 0, i).Format("2006-01-02")
		points[i] = trendPoint{Date: day}
		index[day] = i
	}
	for _, image := range images {
		if i, ok := index[image.CreatedAt.UTC().Format("2006-01-02")]; ok {
			points[i].Images++
		}
	}
	for _, user := range users {
		if i, ok := index[user.CreatedAt.UTC().Format("2006-01-02")]; ok {
			points[i].Signups++
		}
	}

	c.JSON(http.StatusOK, gin.H{"trend": points})
}
