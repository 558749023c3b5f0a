package models

import "time"

// GeneratedImage records a successful generation and where its bytes live.
type GeneratedImage struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"` // Owning user.

	Prompt          string `gorm:"type:text;not null"` // Original user prompt.
	FinalPrompt     string `gorm:"type:text"`          // Assembled prompt sent to the generation model.
	FaceDescription string `gorm:"type:text"`          // Vision analysis output, if an image was supplied.
	Model           string `gorm:"type:text;not null"` // Generation model identifier.

	StoragePath string `gorm:"type:text"` // Object storage key.
	StorageURL  string `gorm:"type:text"` // Public URL for the stored image.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Creation timestamp.
}
