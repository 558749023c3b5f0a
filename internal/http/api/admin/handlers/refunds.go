package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/facestudio/facestudio/internal/ledger"
	"github.com/facestudio/facestudio/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RefundAdminHandler reviews and resolves refund requests.
type RefundAdminHandler struct {
	db     *gorm.DB
	ledger *ledger.Service
}

// NewRefundAdminHandler constructs a RefundAdminHandler.
func NewRefundAdminHandler(db *gorm.DB, ledgerSvc *ledger.Service) *RefundAdminHandler {
	return &RefundAdminHandler{db: db, ledger: ledgerSvc}
}

// refundAdminDTO defines the refund review payload.
type refundAdminDTO struct {
	ID               uint64    `json:"id"`
	UserID           uint64    `json:"user_id"`
	Username         string    `json:"username"`
	SourceID         uint64    `json:"source_id"`
	RemainingCredits int64     `json:"remaining_credits"`
	Reason           string    `json:"reason"`
	AdminNote        string    `json:"admin_note,omitempty"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// List returns refund requests, optionally filtered by status.
func (h *RefundAdminHandler) List(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).
		Model(&models.RefundRequest{}).
		Preload("Source")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []models.RefundRequest
	if errFind := query.Order("id DESC").Limit(200).Find(&requests).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query refund requests failed"})
		return
	}

	userIDs := make([]uint64, 0, len(requests))
	for _, request := range requests {
		userIDs = append(userIDs, request.UserID)
	}
	usernames := make(map[uint64]string, len(userIDs))
	if len(userIDs) > 0 {
		var users []models.User
		if errFind := h.db.WithContext(c.Request.Context()).
			Unscoped().
			Where("id IN ?", userIDs).
			Find(&users).Error; errFind == nil {
			for _, user := range users {
				usernames[user.ID] = user.Username
			}
		}
	}

	items := make([]refundAdminDTO, 0, len(requests))
	for _, request := range requests {
		item := refundAdminDTO{
			ID:        request.ID,
			UserID:    request.UserID,
			Username:  usernames[request.UserID],
			SourceID:  request.SourceID,
			Reason:    request.Reason,
			AdminNote: request.AdminNote,
			Status:    request.Status,
			CreatedAt: request.CreatedAt,
		}
		if request.Source != nil {
			item.RemainingCredits = request.Source.RemainingCredits
		}
		items = append(items, item)
	}
	c.JSON(http.StatusOK, gin.H{"requests": items})
}

// processRefundRequest defines the request body for resolving a refund.
type processRefundRequest struct {
	Approve   bool   `json:"approve"`
	AdminNote string `json:"admin_note"`
}

// Process approves or rejects a pending refund request.
func (h *RefundAdminHandler) Process(c *gin.Context) {
	requestID, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || requestID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	var body processRefundRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	errProcess := h.ledger.ProcessRefund(c.Request.Context(), requestID, body.Approve, body.AdminNote)
	if errProcess != nil {
		switch {
		case errors.Is(errProcess, ledger.ErrRequestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "refund request not found"})
		case errors.Is(errProcess, ledger.ErrRequestResolved):
			c.JSON(http.StatusConflict, gin.H{"error": "refund request already resolved"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "process refund failed"})
		}
		return
	}

	status := models.RefundStatusRejected
	if body.Approve {
		status = models.RefundStatusApproved
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}
