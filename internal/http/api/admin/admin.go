// Package admin registers back-office API routes.
package admin

import (
	"net/http"
	"strings"

	"github.com/facestudio/facestudio/internal/config"
	"github.com/facestudio/facestudio/internal/http/api/admin/handlers"
	"github.com/facestudio/facestudio/internal/ledger"
	"github.com/facestudio/facestudio/internal/models"
	"github.com/facestudio/facestudio/internal/security"
	"github.com/facestudio/facestudio/internal/settings"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps carries everything the admin routes need.
type Deps struct {
	DB          *gorm.DB
	JWT         config.JWTConfig
	Ledger      *ledger.Service
	Settings    *settings.Store
	DefaultCost int64
}

// RegisterAdminRoutes registers back-office routes.
func RegisterAdminRoutes(r *gin.Engine, deps Deps) {
	if r == nil || deps.DB == nil {
		return
	}

	admin := r.Group("/v0/admin")

	authHandler := handlers.NewAdminAuthHandler(deps.DB, deps.JWT)
	admin.POST("/login", authHandler.Login)

	authed := admin.Group("")
	authed.Use(adminAuthMiddleware(deps.DB, deps.JWT))

	authed.POST("/totp/prepare", authHandler.PrepareTOTP)
	authed.POST("/totp/confirm", authHandler.ConfirmTOTP)

	dashboardHandler := handlers.NewDashboardHandler(deps.DB)
	authed.GET("/dashboard/kpi", dashboardHandler.KPI)
	authed.GET("/dashboard/trend", dashboardHandler.Trend)

	planHandler := handlers.NewPlanAdminHandler(deps.DB)
	authed.GET("/plans", planHandler.List)
	authed.POST("/plans", planHandler.Create)
	authed.PUT("/plans/:id", planHandler.Update)
	authed.POST("/plans/:id/toggle", planHandler.Toggle)

	refundHandler := handlers.NewRefundAdminHandler(deps.DB, deps.Ledger)
	authed.GET("/refunds", refundHandler.List)
	authed.POST("/refunds/:id/process", refundHandler.Process)

	userHandler := handlers.NewUserAdminHandler(deps.DB, deps.Ledger)
	authed.GET("/users", userHandler.List)
	authed.POST("/users/:id/rebalance", userHandler.Rebalance)

	paymentHandler := handlers.NewPaymentAdminHandler(deps.DB)
	authed.GET("/payments", paymentHandler.List)

	settingsHandler := handlers.NewSettingsHandler(deps.Settings, deps.DefaultCost)
	authed.GET("/settings", settingsHandler.Get)
	authed.PUT("/settings", settingsHandler.Update)
}

// adminAuthMiddleware validates admin JWTs and loads the admin into context.
func adminAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
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

		claims, errJWT := security.ParseAdminToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var admin models.Admin
		if errFind := db.WithContext(c.Request.Context()).
			Where("id = ? AND active = ?", claims.AdminID, true).
			First(&admin).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
			return
		}

		c.Set("adminID", admin.ID)
		c.Next()
	}
}
