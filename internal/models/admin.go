package models

import "time"

// Admin represents a back-office operator account.
type Admin struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Username   string `gorm:"type:text;not null;uniqueIndex"` // Login username.
	Password   string `gorm:"type:text;not null"`             // Bcrypt password hash.
	TOTPSecret string `gorm:"type:text"`                      // TOTP secret when MFA is enrolled.

	Active bool `gorm:"not null;default:true"` // Whether the account may log in.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
