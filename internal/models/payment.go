package models

import "time"

// Payment statuses.
const (
	// PaymentStatusSucceeded marks a gateway-confirmed payment.
	PaymentStatusSucceeded = "succeeded"
	// PaymentStatusFailed marks a payment the gateway rejected.
	PaymentStatusFailed = "failed"
)

// Payment records a payment-gateway confirmation outcome.
type Payment struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"` // Paying user.
	PlanID uint64 `gorm:"not null"`       // Purchased plan.

	OrderID    string `gorm:"type:text;not null;uniqueIndex"` // Merchant order identifier.
	PaymentKey string `gorm:"type:text;not null"`             // Gateway payment token.
	Amount     int64  `gorm:"not null"`                       // Captured amount in the smallest currency unit.
	Currency   string `gorm:"type:text;not null;default:'KRW'"` // Payment currency.
	Method     string `gorm:"type:text"`                      // Payment method label from the gateway.
	Status     string `gorm:"type:text;not null"`             // succeeded or failed.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Confirmation timestamp.
}
