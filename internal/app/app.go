// Package app boots the API server: config, logging, database, services and
// routes.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/facestudio/facestudio/internal/activity"
	"github.com/facestudio/facestudio/internal/config"
	"github.com/facestudio/facestudio/internal/db"
	"github.com/facestudio/facestudio/internal/genai"
	adminapi "github.com/facestudio/facestudio/internal/http/api/admin"
	"github.com/facestudio/facestudio/internal/http/api/front"
	"github.com/facestudio/facestudio/internal/identity"
	"github.com/facestudio/facestudio/internal/ledger"
	"github.com/facestudio/facestudio/internal/logging"
	"github.com/facestudio/facestudio/internal/payment"
	"github.com/facestudio/facestudio/internal/pipeline"
	"github.com/facestudio/facestudio/internal/ratelimit"
	"github.com/facestudio/facestudio/internal/security"
	"github.com/facestudio/facestudio/internal/settings"
	"github.com/facestudio/facestudio/internal/storage"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, configPath string) error {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return errLoad
	}
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	return ensureAdmin(conn, cfg.Admin)
}

// RunServer boots the API server and blocks until ctx is cancelled.
func RunServer(ctx context.Context, configPath string) error {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return errLoad
	}
	logging.Setup(cfg.Log)

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errAdmin := ensureAdmin(conn, cfg.Admin); errAdmin != nil {
		return errAdmin
	}

	var cipher *security.FieldCipher
	if cfg.EncryptionKey != "" {
		var errCipher error
		cipher, errCipher = security.NewFieldCipher(cfg.EncryptionKey)
		if errCipher != nil {
			return errCipher
		}
	} else {
		log.Warn("app: no encryption key configured, PII will be stored in plaintext")
	}

	ledgerSvc := ledger.NewService(conn)
	settingsStore := settings.NewStore(conn)
	genaiClient := genai.NewClient(cfg.GenAI)
	store := storage.NewClient(cfg.Storage)
	gateway := payment.NewClient(cfg.Payment)
	verifier := identity.NewVerifier(cfg.Identity)
	limiter := ratelimit.NewLimiter(cfg.Redis, cfg.Generation.RateLimitPerMinute)
	defer func() { _ = limiter.Close() }()
	recorder := activity.NewRecorder(conn, cipher)

	var objectStore pipeline.ObjectStore
	if store != nil {
		objectStore = store
	}
	pipe := pipeline.New(conn, ledgerSvc, genaiClient, objectStore, storage.NewObjectKey, func(ctx context.Context) int64 {
		return settingsStore.GenerationCost(ctx, cfg.Generation.CostPerImage)
	})

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	front.RegisterFrontRoutes(engine, front.Deps{
		DB:       conn,
		JWT:      cfg.JWT,
		Cipher:   cipher,
		Verifier: verifier,
		Ledger:   ledgerSvc,
		Pipeline: pipe,
		Gateway:  gateway,
		Store:    store,
		Limiter:  limiter,
		Recorder: recorder,
	})
	adminapi.RegisterAdminRoutes(engine, adminapi.Deps{
		DB:          conn,
		JWT:         cfg.JWT,
		Ledger:      ledgerSvc,
		Settings:    settingsStore,
		DefaultCost: cfg.Generation.CostPerImage,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Server.Addr)
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case errServe := <-errCh:
		return errServe
	}
}

// requestLogger logs one line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		}).Info("request")
	}
}
