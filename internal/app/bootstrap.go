package app

import (
	"fmt"
	"strings"

	"github.com/facestudio/facestudio/internal/config"
	"github.com/facestudio/facestudio/internal/models"
	"github.com/facestudio/facestudio/internal/security"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ensureAdmin creates the configured initial back-office admin when no admin
// row with that username exists yet. Without it a fresh deployment has no way
// into the admin API.
func ensureAdmin(db *gorm.DB, cfg config.AdminConfig) error {
	username := strings.TrimSpace(cfg.Username)
	if username == "" {
		return nil
	}
	if strings.TrimSpace(cfg.Password) == "" {
		return fmt.Errorf("app: admin password is required when an admin username is configured")
	}

	var count int64
	if errCount := db.Model(&models.Admin{}).Where("username = ?", username).Count(&count).Error; errCount != nil {
		return errCount
	}
	if count > 0 {
		return nil
	}

	hash, errHash := security.HashPassword(cfg.Password)
	if errHash != nil {
		return errHash
	}
	admin := models.Admin{Username: username, Password: hash, Active: true}
	if errCreate := db.Create(&admin).Error; errCreate != nil {
		return errCreate
	}
	log.WithField("username", username).Info("app: initial admin account created")
	return nil
}
