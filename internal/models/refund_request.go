package models

import "time"

// Refund request statuses.
const (
	// RefundStatusPending marks a request awaiting admin review.
	RefundStatusPending = "pending"
	// RefundStatusApproved marks an approved request. Terminal.
	RefundStatusApproved = "approved"
	// RefundStatusRejected marks a rejected request. Terminal.
	RefundStatusRejected = "rejected"
)

// RefundRequest tracks a user's refund request for one credit source and
// its admin resolution.
type RefundRequest struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID   uint64        `gorm:"not null;index"`      // Requesting user.
	SourceID uint64        `gorm:"not null;index"`      // Credit source under refund.
	Source   *CreditSource `gorm:"foreignKey:SourceID"` // Credit source record.

	Reason    string `gorm:"type:text"`                           // User-supplied reason.
	AdminNote string `gorm:"type:text"`                           // Note recorded at resolution.
	Status    string `gorm:"type:text;not null;default:'pending'"` // pending, approved or rejected.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Request timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Resolution timestamp.
}
