package db

import (
	"fmt"

	"github.com/facestudio/facestudio/internal/models"
	"gorm.io/gorm"
)

// Migrate applies schema migrations for all application models.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	return conn.AutoMigrate(
		&models.User{},
		&models.Admin{},
		&models.PricingPlan{},
		&models.CreditSource{},
		&models.CreditTransaction{},
		&models.CreditConsumption{},
		&models.RefundRequest{},
		&models.GeneratedImage{},
		&models.Payment{},
		&models.ActivityLog{},
		&models.Setting{},
	)
}
