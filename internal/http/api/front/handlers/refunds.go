package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/facestudio/facestudio/internal/ledger"
	"github.com/facestudio/facestudio/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RefundFrontHandler lets users request refunds on unused credit purchases.
type RefundFrontHandler struct {
	db     *gorm.DB
	ledger *ledger.Service
}

// NewRefundFrontHandler constructs a RefundFrontHandler.
func NewRefundFrontHandler(db *gorm.DB, ledgerSvc *ledger.Service) *RefundFrontHandler {
	return &RefundFrontHandler{db: db, ledger: ledgerSvc}
}

// refundRequestBody defines the request body for a refund request.
type refundRequestBody struct {
	SourceID uint64 `json:"source_id"`
	Reason   string `json:"reason"`
}

// Create requests a refund for one of the user's credit sources.
func (h *RefundFrontHandler) Create(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body refundRequestBody
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.SourceID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source_id is required"})
		return
	}

	request, errRequest := h.ledger.RequestRefund(c.Request.Context(), userID, body.SourceID, body.Reason)
	if errRequest != nil {
		switch {
		case errors.Is(errRequest, ledger.ErrSourceNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "credit source not found"})
		case errors.Is(errRequest, ledger.ErrSourcePartiallyUsed):
			c.JSON(http.StatusConflict, gin.H{"error": "credits from this purchase were already used"})
		case errors.Is(errRequest, ledger.ErrRefundWindowExpired):
			c.JSON(http.StatusConflict, gin.H{"error": "the 7-day refund window has passed"})
		case errors.Is(errRequest, ledger.ErrSourceNotActive):
			c.JSON(http.StatusConflict, gin.H{"error": "this purchase is not refundable in its current state"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "refund request failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     request.ID,
		"status": request.Status,
	})
}

// refundDTO defines the refund request response payload.
type refundDTO struct {
	ID        uint64    `json:"id"`
	SourceID  uint64    `json:"source_id"`
	Reason    string    `json:"reason"`
	AdminNote string    `json:"admin_note,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// List returns the user's refund requests, newest first.
func (h *RefundFrontHandler) List(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var requests []models.RefundRequest
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&requests).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query refund requests failed"})
		return
	}

	items := make([]refundDTO, 0, len(requests))
	for _, request := range requests {
		items = append(items, refundDTO{
			ID:        request.ID,
			SourceID:  request.SourceID,
			Reason:    request.Reason,
			AdminNote: request.AdminNote,
			Status:    request.Status,
			CreatedAt: request.CreatedAt,
			UpdatedAt: request.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"requests": items})
}
