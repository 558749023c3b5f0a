// Package settings stores runtime-tunable values as JSON rows so operators
// can adjust them without a redeploy.
package settings

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/facestudio/facestudio/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Well-known setting keys.
const (
	// KeyGenerationCost overrides the per-image credit cost.
	KeyGenerationCost = "generation_cost"
	// KeyRefundPolicyURL points users at the current refund policy document.
	KeyRefundPolicyURL = "refund_policy_url"
)

// Store reads and writes settings rows.
type Store struct {
	db *gorm.DB
}

// NewStore constructs a settings Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get unmarshals the value under key into out. Returns gorm.ErrRecordNotFound
// when the key has never been set.
func (s *Store) Get(ctx context.Context, key string, out any) error {
	var setting models.Setting
	if errFind := s.db.WithContext(ctx).First(&setting, "key = ?", key).Error; errFind != nil {
		return errFind
	}
	return json.Unmarshal(setting.Value, out)
}

// Set upserts the value under key.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	raw, errMarshal := json.Marshal(value)
	if errMarshal != nil {
		return errMarshal
	}
	setting := models.Setting{Key: key, Value: datatypes.JSON(raw)}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&setting).Error
}

// GenerationCost returns the per-image credit cost, falling back to the
// configured default when no override row exists.
func (s *Store) GenerationCost(ctx context.Context, fallback int64) int64 {
	var cost int64
	errGet := s.Get(ctx, KeyGenerationCost, &cost)
	if errGet != nil {
		if !errors.Is(errGet, gorm.ErrRecordNotFound) {
			log.WithError(errGet).Warn("settings: read generation cost failed, using default")
		}
		return fallback
	}
	if cost <= 0 {
		return fallback
	}
	return cost
}
