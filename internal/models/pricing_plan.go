package models

import "time"

// PricingPlan represents a purchasable credit package.
type PricingPlan struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name      string `gorm:"type:text;not null"`    // Plan display name.
	Price     int64  `gorm:"not null"`              // Price in the smallest currency unit (KRW).
	Credits   int64  `gorm:"not null"`              // Credits granted on purchase.
	SortOrder int    `gorm:"not null;default:0"`    // Display ordering.
	IsActive  bool   `gorm:"not null;default:true"` // Whether the plan is purchasable.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
