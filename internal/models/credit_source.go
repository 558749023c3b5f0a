package models

import "time"

// Credit source statuses.
const (
	// SourceStatusActive marks a source available for FIFO deduction.
	SourceStatusActive = "active"
	// SourceStatusPendingRefund locks a source while a refund request is open.
	SourceStatusPendingRefund = "pending_refund"
	// SourceStatusRefunded marks a source whose credits were returned. Terminal.
	SourceStatusRefunded = "refunded"
	// SourceStatusExhausted marks a source fully consumed. Terminal.
	SourceStatusExhausted = "exhausted"
)

// CreditSource represents one purchase's worth of credits, consumed FIFO.
type CreditSource struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`      // Owning user.
	User   *User  `gorm:"foreignKey:UserID"`   // Owning user record.
	PlanID uint64 `gorm:"not null"`            // Originating pricing plan.

	InitialCredits   int64  `gorm:"not null"`                           // Credits granted at purchase.
	RemainingCredits int64  `gorm:"not null"`                           // Credits still unconsumed.
	Status           string `gorm:"type:text;not null;default:'active';index"` // Lifecycle status.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Purchase timestamp, FIFO order key.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`       // Last mutation timestamp.
}
