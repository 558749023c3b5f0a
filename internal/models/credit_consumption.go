package models

import "time"

// CreditConsumption links a usage transaction to the sources it drew from,
// with the exact amount taken from each. Never mutated after creation.
type CreditConsumption struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID        uint64 `gorm:"not null;index"` // Owning user.
	SourceID      uint64 `gorm:"not null;index"` // Source the credits were drawn from.
	TransactionID uint64 `gorm:"not null;index"` // Usage transaction this draw belongs to.

	AmountDeducted int64   `gorm:"not null"` // Credits drawn from this source.
	ImageID        *uint64 `gorm:"index"`    // Generated image paid for, if any.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
