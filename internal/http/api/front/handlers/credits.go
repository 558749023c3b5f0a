package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/facestudio/facestudio/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreditHandler serves balance, sources and transaction history.
type CreditHandler struct {
	db *gorm.DB
}

// NewCreditHandler constructs a CreditHandler.
func NewCreditHandler(db *gorm.DB) *CreditHandler {
	return &CreditHandler{db: db}
}

// creditSourceDTO defines the credit source response payload.
type creditSourceDTO struct {
	ID               uint64    `json:"id"`
	InitialCredits   int64     `json:"initial_credits"`
	RemainingCredits int64     `json:"remaining_credits"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// Get returns the balance and the per-source breakdown.
func (h *CreditHandler) Get(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).Select("credits").First(&user, userID).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query balance failed"})
		return
	}

	var sources []models.CreditSource
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&sources).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query sources failed"})
		return
	}

	items := make([]creditSourceDTO, 0, len(sources))
	for _, source := range sources {
		items = append(items, creditSourceDTO{
			ID:               source.ID,
			InitialCredits:   source.InitialCredits,
			RemainingCredits: source.RemainingCredits,
			Status:           source.Status,
			CreatedAt:        source.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"balance": user.Credits, "sources": items})
}

// transactionDTO defines the transaction history payload.
type transactionDTO struct {
	ID          uint64    `json:"id"`
	Amount      int64     `json:"amount"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// History returns the user's credit transactions, newest first.
func (h *CreditHandler) History(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	var total int64
	if errCount := h.db.WithContext(c.Request.Context()).
		Model(&models.CreditTransaction{}).
		Where("user_id = ?", userID).
		Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count transactions failed"})
		return
	}

	var transactions []models.CreditTransaction
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&transactions).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query transactions failed"})
		return
	}

	items := make([]transactionDTO, 0, len(transactions))
	for _, transaction := range transactions {
		items = append(items, transactionDTO{
			ID:          transaction.ID,
			Amount:      transaction.Amount,
			Type:        transaction.Type,
			Description: transaction.Description,
			CreatedAt:   transaction.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"total": total, "transactions": items})
}
