package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	dbutil "github.com/facestudio/facestudio/internal/db"
	"github.com/facestudio/facestudio/internal/ledger"
	"github.com/facestudio/facestudio/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UserAdminHandler serves user accounts for the back office.
type UserAdminHandler struct {
	db     *gorm.DB
	ledger *ledger.Service
}

// NewUserAdminHandler constructs a UserAdminHandler.
func NewUserAdminHandler(db *gorm.DB, ledgerSvc *ledger.Service) *UserAdminHandler {
	return &UserAdminHandler{db: db, ledger: ledgerSvc}
}

// userAdminDTO defines the user list payload. Encrypted PII stays encrypted;
// the back office sees usernames and balances only.
type userAdminDTO struct {
	ID        uint64     `json:"id"`
	Username  string     `json:"username"`
	Role      string     `json:"role"`
	Credits   int64      `json:"credits"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// List returns users with optional username search and pagination. Withdrawn
// accounts are included so support can look up past purchases.
func (h *UserAdminHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	query := h.db.WithContext(c.Request.Context()).Model(&models.User{}).Unscoped()
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := "%" + dbutil.NormalizeLikePattern(query, search) + "%"
		query = query.Where(dbutil.CaseInsensitiveLikeExpr(query, "username"), pattern)
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count users failed"})
		return
	}

	var users []models.User
	if errFind := query.Order("id DESC").Limit(limit).Offset(offset).Find(&users).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query users failed"})
		return
	}

	items := make([]userAdminDTO, 0, len(users))
	for _, user := range users {
		item := userAdminDTO{
			ID:        user.ID,
			Username:  user.Username,
			Role:      user.Role,
			Credits:   user.Credits,
			CreatedAt: user.CreatedAt,
		}
		if user.DeletedAt.Valid {
			deletedAt := user.DeletedAt.Time
			item.DeletedAt = &deletedAt
		}
		items = append(items, item)
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "users": items})
}

// Rebalance recomputes a user's balance cache from their active sources.
func (h *UserAdminHandler) Rebalance(c *gin.Context) {
	userID, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	total, errRebalance := h.ledger.Rebalance(c.Request.Context(), userID)
	if errRebalance != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rebalance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"credits": total})
}
