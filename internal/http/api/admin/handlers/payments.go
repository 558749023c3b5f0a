package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/facestudio/facestudio/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PaymentAdminHandler serves payment records for the back office.
type PaymentAdminHandler struct {
	db *gorm.DB
}

// NewPaymentAdminHandler constructs a PaymentAdminHandler.
func NewPaymentAdminHandler(db *gorm.DB) *PaymentAdminHandler {
	return &PaymentAdminHandler{db: db}
}

// paymentAdminDTO defines the payment list payload.
type paymentAdminDTO struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	PlanID    uint64    `json:"plan_id"`
	OrderID   string    `json:"order_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Method    string    `json:"method"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// List returns payments, optionally filtered by user or status.
func (h *PaymentAdminHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	query := h.db.WithContext(c.Request.Context()).Model(&models.Payment{})
	if userID, errParse := strconv.ParseUint(c.Query("user_id"), 10, 64); errParse == nil && userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count payments failed"})
		return
	}

	var payments []models.Payment
	if errFind := query.Order("id DESC").Limit(limit).Offset(offset).Find(&payments).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query payments failed"})
		return
	}

	items := make([]paymentAdminDTO, 0, len(payments))
	for _, record := range payments {
		items = append(items, paymentAdminDTO{
			ID:        record.ID,
			UserID:    record.UserID,
			PlanID:    record.PlanID,
			OrderID:   record.OrderID,
			Amount:    record.Amount,
			Currency:  record.Currency,
			Method:    record.Method,
			Status:    record.Status,
			CreatedAt: record.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "payments": items})
}
