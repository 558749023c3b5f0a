package models

import "time"

// Credit transaction types.
const (
	// TransactionTypePurchase records credits granted by a confirmed purchase.
	TransactionTypePurchase = "purchase"
	// TransactionTypeUsage records credits consumed by a generation.
	TransactionTypeUsage = "usage"
	// TransactionTypeRefund records credits cancelled by an approved refund.
	TransactionTypeRefund = "refund"
)

// CreditTransaction is an append-only ledger entry. Rows are never updated
// or deleted; they provide the audit trail independent of source state.
type CreditTransaction struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"` // Owning user.

	Amount      int64  `gorm:"not null"`           // Signed credit delta, negative for usage.
	Type        string `gorm:"type:text;not null"` // purchase, usage or refund.
	Description string `gorm:"type:text"`          // Free-text description.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Entry timestamp.
}
