package handlers

import (
	"net/http"

	"github.com/facestudio/facestudio/internal/models"
	"github.com/facestudio/facestudio/internal/security"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ProfileHandler serves the current user's profile.
type ProfileHandler struct {
	db     *gorm.DB
	cipher *security.FieldCipher
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(db *gorm.DB, cipher *security.FieldCipher) *ProfileHandler {
	return &ProfileHandler{db: db, cipher: cipher}
}

// Get returns the current user's profile with PII decrypted for display.
func (h *ProfileHandler) Get(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	email, errDecrypt := h.cipher.Decrypt(user.Email)
	if errDecrypt != nil {
		log.WithError(errDecrypt).WithField("user_id", userID).Warn("profile: email decrypt failed")
		email = ""
	}
	fullName, errDecrypt := h.cipher.Decrypt(user.FullName)
	if errDecrypt != nil {
		log.WithError(errDecrypt).WithField("user_id", userID).Warn("profile: name decrypt failed")
		fullName = ""
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"email":      email,
		"full_name":  fullName,
		"avatar_url": user.AvatarURL,
		"role":       user.Role,
		"credits":    user.Credits,
		"created_at": user.CreatedAt,
	})
}

// Withdraw soft-deletes the account. Ledger rows stay for bookkeeping; the
// soft delete blocks any further login under the same subject row.
func (h *ProfileHandler) Withdraw(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if errDelete := h.db.WithContext(c.Request.Context()).Delete(&models.User{}, userID).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "withdraw failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "withdrawn"})
}
