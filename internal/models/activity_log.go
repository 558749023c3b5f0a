package models

import "time"

// Activity action types.
const (
	// ActivityLogin records a user signing in.
	ActivityLogin = "LOGIN"
	// ActivityLogout records a user signing out.
	ActivityLogout = "LOGOUT"
	// ActivityPageVisit records a page navigation.
	ActivityPageVisit = "PAGE_VISIT"
)

// ActivityLog records user activity. The IP address is PII and is stored
// AES-GCM encrypted.
type ActivityLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"` // Acting user.

	ActionType string `gorm:"type:text;not null"` // LOGIN, LOGOUT or PAGE_VISIT.
	Path       string `gorm:"type:text"`          // Visited path, if any.
	IPAddress  string `gorm:"type:text"`          // Client IP, encrypted at rest.
	UserAgent  string `gorm:"type:text"`          // Client user agent.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Event timestamp.
}
