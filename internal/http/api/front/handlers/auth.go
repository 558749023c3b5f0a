package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/facestudio/facestudio/internal/activity"
	"github.com/facestudio/facestudio/internal/config"
	"github.com/facestudio/facestudio/internal/identity"
	"github.com/facestudio/facestudio/internal/models"
	"github.com/facestudio/facestudio/internal/security"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuthHandler exchanges OAuth logins for application sessions.
type AuthHandler struct {
	db       *gorm.DB
	jwtCfg   config.JWTConfig
	verifier *identity.Verifier
	cipher   *security.FieldCipher
	recorder *activity.Recorder
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwtCfg config.JWTConfig, verifier *identity.Verifier, cipher *security.FieldCipher, recorder *activity.Recorder) *AuthHandler {
	return &AuthHandler{db: db, jwtCfg: jwtCfg, verifier: verifier, cipher: cipher, recorder: recorder}
}

// loginRequest defines the request body for the OAuth exchange.
type loginRequest struct {
	AccessToken string `json:"access_token"`
}

// Login verifies the provider access token, upserts the account and issues a
// session JWT. Accounts are created on first login; later logins resync the
// profile claims.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.AccessToken) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "access_token is required"})
		return
	}

	claims, errVerify := h.verifier.Verify(c.Request.Context(), body.AccessToken)
	if errVerify != nil {
		if errors.Is(errVerify, identity.ErrTokenRejected) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "login rejected by identity provider"})
			return
		}
		log.WithError(errVerify).Error("auth: identity verification failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "identity provider unavailable"})
		return
	}

	user, errSync := h.syncUser(c, claims)
	if errSync != nil {
		if errors.Is(errSync, errAccountWithdrawn) {
			c.JSON(http.StatusForbidden, gin.H{"error": "this account has been withdrawn"})
			return
		}
		log.WithError(errSync).Error("auth: account sync failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "account sync failed"})
		return
	}

	token, errToken := security.GenerateToken(h.jwtCfg.Secret, user.ID, user.Username, user.Role, h.jwtCfg.Expiry)
	if errToken != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	h.recorder.Record(c.Request.Context(), user.ID, models.ActivityLogin, c.FullPath(), c.ClientIP(), c.Request.UserAgent())

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":         user.ID,
			"username":   user.Username,
			"avatar_url": user.AvatarURL,
			"role":       user.Role,
			"credits":    user.Credits,
		},
	})
}

// Logout records the logout event. The JWT itself is stateless; clients drop
// the token.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	h.recorder.Record(c.Request.Context(), userID, models.ActivityLogout, c.FullPath(), c.ClientIP(), c.Request.UserAgent())
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// errAccountWithdrawn blocks logins against soft-deleted accounts.
var errAccountWithdrawn = errors.New("account withdrawn")

// syncUser upserts the account from provider claims with PII encrypted.
// Withdrawn accounts keep their row for bookkeeping and may not log back in.
func (h *AuthHandler) syncUser(c *gin.Context, claims *identity.Claims) (*models.User, error) {
	encryptedEmail, errEncrypt := h.cipher.Encrypt(claims.Email)
	if errEncrypt != nil {
		return nil, errEncrypt
	}
	encryptedName, errEncrypt := h.cipher.Encrypt(claims.Name)
	if errEncrypt != nil {
		return nil, errEncrypt
	}

	username := claims.Name
	if at := strings.Index(claims.Email, "@"); at > 0 {
		username = claims.Email[:at]
	}

	var user models.User
	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		errFind := tx.Unscoped().Where("subject = ?", claims.Subject).First(&user).Error
		if errFind == nil && user.DeletedAt.Valid {
			return errAccountWithdrawn
		}
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			user = models.User{
				Subject:   claims.Subject,
				Username:  username,
				Email:     encryptedEmail,
				FullName:  encryptedName,
				AvatarURL: claims.AvatarURL,
				Role:      models.RoleUser,
			}
			return tx.Create(&user).Error
		}
		if errFind != nil {
			return errFind
		}

		updates := map[string]any{
			"email":      encryptedEmail,
			"full_name":  encryptedName,
			"avatar_url": claims.AvatarURL,
		}
		if errUpdate := tx.Model(&user).Updates(updates).Error; errUpdate != nil {
			return errUpdate
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return &user, nil
}
