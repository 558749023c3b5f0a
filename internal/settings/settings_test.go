package settings

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/facestudio/facestudio/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupSettingsDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:settings_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.AutoMigrate(&models.Setting{}); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return db
}

func TestGenerationCostFallsBackWhenUnset(t *testing.T) {
	store := NewStore(setupSettingsDB(t))
	if cost := store.GenerationCost(context.Background(), 2); cost != 2 {
		t.Fatalf("cost = %d, want fallback 2", cost)
	}
}

func TestSetAndGetGenerationCost(t *testing.T) {
	store := NewStore(setupSettingsDB(t))

	if errSet := store.Set(context.Background(), KeyGenerationCost, int64(3)); errSet != nil {
		t.Fatalf("set: %v", errSet)
	}
	if cost := store.GenerationCost(context.Background(), 2); cost != 3 {
		t.Fatalf("cost = %d, want override 3", cost)
	}

	// Upsert replaces the previous value.
	if errSet := store.Set(context.Background(), KeyGenerationCost, int64(5)); errSet != nil {
		t.Fatalf("set again: %v", errSet)
	}
	if cost := store.GenerationCost(context.Background(), 2); cost != 5 {
		t.Fatalf("cost = %d, want 5", cost)
	}
}

func TestGenerationCostIgnoresNonPositiveOverride(t *testing.T) {
	store := NewStore(setupSettingsDB(t))
	if errSet := store.Set(context.Background(), KeyGenerationCost, int64(0)); errSet != nil {
		t.Fatalf("set: %v", errSet)
	}
	if cost := store.GenerationCost(context.Background(), 2); cost != 2 {
		t.Fatalf("cost = %d, want fallback for zero override", cost)
	}
}
