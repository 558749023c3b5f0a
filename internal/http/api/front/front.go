// Package front registers user-facing API routes.
package front

import (
	"net/http"
	"strings"

	"github.com/facestudio/facestudio/internal/activity"
	"github.com/facestudio/facestudio/internal/config"
	"github.com/facestudio/facestudio/internal/http/api/front/handlers"
	"github.com/facestudio/facestudio/internal/identity"
	"github.com/facestudio/facestudio/internal/ledger"
	"github.com/facestudio/facestudio/internal/models"
	"github.com/facestudio/facestudio/internal/payment"
	"github.com/facestudio/facestudio/internal/pipeline"
	"github.com/facestudio/facestudio/internal/ratelimit"
	"github.com/facestudio/facestudio/internal/security"
	"github.com/facestudio/facestudio/internal/storage"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps carries everything the front routes need.
type Deps struct {
	DB       *gorm.DB
	JWT      config.JWTConfig
	Cipher   *security.FieldCipher
	Verifier *identity.Verifier
	Ledger   *ledger.Service
	Pipeline *pipeline.Pipeline
	Gateway  *payment.Client
	Store    *storage.Client
	Limiter  *ratelimit.Limiter
	Recorder *activity.Recorder
}

// RegisterFrontRoutes registers public and authenticated front-end routes.
func RegisterFrontRoutes(r *gin.Engine, deps Deps) {
	if r == nil || deps.DB == nil {
		return
	}

	front := r.Group("/v0/front")

	authHandler := handlers.NewAuthHandler(deps.DB, deps.JWT, deps.Verifier, deps.Cipher, deps.Recorder)
	front.POST("/auth/login", authHandler.Login)

	planHandler := handlers.NewPlanFrontHandler(deps.DB)
	front.GET("/plans", planHandler.List)

	authed := front.Group("")
	authed.Use(userAuthMiddleware(deps.DB, deps.JWT))

	authed.POST("/auth/logout", authHandler.Logout)

	profileHandler := handlers.NewProfileHandler(deps.DB, deps.Cipher)
	authed.GET("/profile", profileHandler.Get)
	authed.POST("/profile/withdraw", profileHandler.Withdraw)

	paymentHandler := handlers.NewPaymentHandler(deps.DB, deps.Ledger, deps.Gateway)
	authed.POST("/payments/confirm", paymentHandler.Confirm)

	creditHandler := handlers.NewCreditHandler(deps.DB)
	authed.GET("/credits", creditHandler.Get)
	authed.GET("/credits/history", creditHandler.History)

	refundHandler := handlers.NewRefundFrontHandler(deps.DB, deps.Ledger)
	authed.POST("/refunds", refundHandler.Create)
	authed.GET("/refunds", refundHandler.List)

	generateHandler := handlers.NewGenerateHandler(deps.Pipeline, deps.Limiter)
	authed.POST("/generate", generateHandler.Generate)

	imageHandler := handlers.NewImageHandler(deps.DB, deps.Store)
	authed.GET("/images", imageHandler.List)
	authed.DELETE("/images/:id", imageHandler.Delete)

	activityHandler := handlers.NewActivityHandler(deps.Recorder)
	authed.POST("/activity", activityHandler.Record)
	authed.GET("/activity", activityHandler.List)
}

// userAuthMiddleware validates user JWTs and loads the user into context.
func userAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}

		c.Set("userID", user.ID)
		c.Next()
	}
}
