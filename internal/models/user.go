package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles.
const (
	// RoleUser is the default role for end users.
	RoleUser = "User"
	// RoleAdmin marks a user with back-office privileges.
	RoleAdmin = "Admin"
)

// User represents an end-user account created on first OAuth login.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Subject  string `gorm:"type:text;not null;uniqueIndex"` // Stable identifier from the identity provider.
	Username string `gorm:"type:text;not null;index"`       // Display username derived from the email local part.
	Email    string `gorm:"type:text"`                      // Email claim, AES-GCM encrypted at rest.
	FullName string `gorm:"type:text"`                      // Display name claim, AES-GCM encrypted at rest.

	AvatarURL string `gorm:"type:text"`                          // Avatar URL from the provider, if any.
	Role      string `gorm:"type:text;not null;default:'User'"`  // Role, User or Admin.
	Credits   int64  `gorm:"not null;default:0"`                 // Denormalized aggregate credit balance.

	CreatedAt time.Time      `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime"` // Last profile sync timestamp.
	DeletedAt gorm.DeletedAt `gorm:"index"`                   // Soft-delete timestamp set on withdrawal.
}
