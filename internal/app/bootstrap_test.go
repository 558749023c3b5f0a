package app

import (
	"fmt"
	"testing"
	"time"

	"github.com/facestudio/facestudio/internal/config"
	"github.com/facestudio/facestudio/internal/models"
	"github.com/facestudio/facestudio/internal/security"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupBootstrapDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:bootstrap_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.AutoMigrate(&models.Admin{}); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return db
}

func TestEnsureAdminCreatesInitialAccount(t *testing.T) {
	db := setupBootstrapDB(t)

	if errEnsure := ensureAdmin(db, config.AdminConfig{Username: "root", Password: "hunter2hunter2"}); errEnsure != nil {
		t.Fatalf("ensure admin: %v", errEnsure)
	}

	var admin models.Admin
	if errFind := db.Where("username = ?", "root").First(&admin).Error; errFind != nil {
		t.Fatalf("load admin: %v", errFind)
	}
	if !admin.Active {
		t.Fatal("bootstrapped admin is not active")
	}
	if !security.CheckPassword(admin.Password, "hunter2hunter2") {
		t.Fatal("stored hash does not verify against the configured password")
	}

	// A second boot with the same config leaves the row alone.
	if errEnsure := ensureAdmin(db, config.AdminConfig{Username: "root", Password: "different"}); errEnsure != nil {
		t.Fatalf("ensure admin again: %v", errEnsure)
	}
	var count int64
	if errCount := db.Model(&models.Admin{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count admins: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("admin rows = %d, want 1", count)
	}
	if errFind := db.Where("username = ?", "root").First(&admin).Error; errFind != nil {
		t.Fatalf("reload admin: %v", errFind)
	}
	if !security.CheckPassword(admin.Password, "hunter2hunter2") {
		t.Fatal("existing admin password was overwritten")
	}
}

func TestEnsureAdminSkipsWhenUnconfigured(t *testing.T) {
	db := setupBootstrapDB(t)

	if errEnsure := ensureAdmin(db, config.AdminConfig{}); errEnsure != nil {
		t.Fatalf("ensure admin: %v", errEnsure)
	}
	var count int64
	if errCount := db.Model(&models.Admin{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count admins: %v", errCount)
	}
	if count != 0 {
		t.Fatalf("admin rows = %d, want 0", count)
	}
}

func TestEnsureAdminRequiresPassword(t *testing.T) {
	db := setupBootstrapDB(t)

	if errEnsure := ensureAdmin(db, config.AdminConfig{Username: "root"}); errEnsure == nil {
		t.Fatal("username without password accepted, want error")
	}
}
