// Package activity records user activity events with the visitor IP
// encrypted at rest.
package activity

import (
	"context"

	"github.com/facestudio/facestudio/internal/models"
	"github.com/facestudio/facestudio/internal/security"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Recorder persists activity events. Recording is best effort; failures are
// logged and never surfaced to the request path.
type Recorder struct {
	db     *gorm.DB
	cipher *security.FieldCipher
}

// NewRecorder constructs a Recorder. cipher may be nil, in which case the IP
// is stored as received.
func NewRecorder(db *gorm.DB, cipher *security.FieldCipher) *Recorder {
	return &Recorder{db: db, cipher: cipher}
}

// Record stores one activity event. userID is zero for anonymous visits.
func (r *Recorder) Record(ctx context.Context, userID uint64, actionType, path, ip, userAgent string) {
	storedIP := ip
	if r.cipher != nil && ip != "" {
		encrypted, errEncrypt := r.cipher.Encrypt(ip)
		if errEncrypt != nil {
			log.WithError(errEncrypt).Warn("activity: encrypt ip failed, dropping ip")
			storedIP = ""
		} else {
			storedIP = encrypted
		}
	}

	entry := models.ActivityLog{
		UserID:     userID,
		ActionType: actionType,
		Path:       path,
		IPAddress:  storedIP,
		UserAgent:  userAgent,
	}
	if errCreate := r.db.WithContext(ctx).Create(&entry).Error; errCreate != nil {
		log.WithError(errCreate).Warn("activity: record event failed")
	}
}

// Recent returns the newest events for a user, capped at limit.
func (r *Recorder) Recent(ctx context.Context, userID uint64, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var entries []models.ActivityLog
	errFind := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if errFind != nil {
		return nil, errFind
	}
	return entries, nil
}
