package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/facestudio/facestudio/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupLedgerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:ledger_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := conn.AutoMigrate(
		&models.User{},
		&models.PricingPlan{},
		&models.CreditSource{},
		&models.CreditTransaction{},
		&models.CreditConsumption{},
		&models.RefundRequest{},
	); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, credits int64) models.User {
	t.Helper()
	user := models.User{
		Subject:  fmt.Sprintf("sub-%d", time.Now().UnixNano()),
		Username: "tester",
		Role:     models.RoleUser,
		Credits:  credits,
	}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	return user
}

func seedSource(t *testing.T, conn *gorm.DB, userID uint64, initial, remaining int64, status string, createdAt time.Time) models.CreditSource {
	t.Helper()
	source := models.CreditSource{
		UserID:           userID,
		PlanID:           1,
		InitialCredits:   initial,
		RemainingCredits: remaining,
		Status:           status,
		CreatedAt:        createdAt,
	}
	if errCreate := conn.Create(&source).Error; errCreate != nil {
		t.Fatalf("create source: %v", errCreate)
	}
	return source
}

func activeSourceSum(t *testing.T, conn *gorm.DB, userID uint64) int64 {
	t.Helper()
	var total int64
	if errSum := conn.Model(&models.CreditSource{}).
		Where("user_id = ? AND status = ?", userID, models.SourceStatusActive).
		Select("COALESCE(SUM(remaining_credits), 0)").
		Scan(&total).Error; errSum != nil {
		t.Fatalf("sum sources: %v", errSum)
	}
	return total
}

func TestDeductFIFOAcrossSources(t *testing.T) {
	conn := setupLedgerDB(t)
	svc := NewService(conn)
	user := seedUser(t, conn, 10)

	now := time.Now().UTC()
	older := seedSource(t, conn, user.ID, 4, 4, models.SourceStatusActive, now.Add(-2*time.Hour))
	newer := seedSource(t, conn, user.ID, 6, 6, models.SourceStatusActive, now.Add(-1*time.Hour))

	if errDeduct := svc.Deduct(context.Background(), user.ID, 5, nil); errDeduct != nil {
		t.Fatalf("deduct: %v", errDeduct)
	}

	var gotOlder, gotNewer models.CreditSource
	if errFind := conn.First(&gotOlder, older.ID).Error; errFind != nil {
		t.Fatalf("reload older: %v", errFind)
	}
	if errFind := conn.First(&gotNewer, newer.ID).Error; errFind != nil {
		t.Fatalf("reload newer: %v", errFind)
	}

	if gotOlder.RemainingCredits != 0 {
		t.Fatalf("older remaining = %d, want 0", gotOlder.RemainingCredits)
	}
	if gotOlder.Status != models.SourceStatusExhausted {
		t.Fatalf("older status = %s, want exhausted", gotOlder.Status)
	}
	if gotNewer.RemainingCredits != 5 {
		t.Fatalf("newer remaining = %d, want 5", gotNewer.RemainingCredits)
	}
	if gotNewer.Status != models.SourceStatusActive {
		t.Fatalf("newer status = %s, want active", gotNewer.Status)
	}

	var consumptions []models.CreditConsumption
	if errFind := conn.Where("user_id = ?", user.ID).Order("id ASC").Find(&consumptions).Error; errFind != nil {
		t.Fatalf("load consumptions: %v", errFind)
	}
	if len(consumptions) != 2 {
		t.Fatalf("consumption rows = %d, want 2", len(consumptions))
	}
	if consumptions[0].SourceID != older.ID || consumptions[0].AmountDeducted != 4 {
		t.Fatalf("first draw = source %d amount %d, want source %d amount 4", consumptions[0].SourceID, consumptions[0].AmountDeducted, older.ID)
	}
	if consumptions[1].SourceID != newer.ID || consumptions[1].AmountDeducted != 1 {
		t.Fatalf("second draw = source %d amount %d, want source %d amount 1", consumptions[1].SourceID, consumptions[1].AmountDeducted, newer.ID)
	}

	var transaction models.CreditTransaction
	if errFind := conn.Where("user_id = ? AND type = ?", user.ID, models.TransactionTypeUsage).First(&transaction).Error; errFind != nil {
		t.Fatalf("load transaction: %v", errFind)
	}
	if transaction.Amount != -5 {
		t.Fatalf("transaction amount = %d, want -5", transaction.Amount)
	}

	balance, errBalance := svc.Balance(context.Background(), user.ID)
	if errBalance != nil {
		t.Fatalf("balance: %v", errBalance)
	}
	if balance != 5 {
		t.Fatalf("balance = %d, want 5", balance)
	}
	if sum := activeSourceSum(t, conn, user.ID); sum != balance {
		t.Fatalf("active source sum %d != balance %d", sum, balance)
	}
}

func TestDeductExactlyDrainsOldestFirst(t *testing.T) {
	conn := setupLedgerDB(t)
	svc := NewService(conn)
	user := seedUser(t, conn, 7)

	now := time.Now().UTC()
	older := seedSource(t, conn, user.ID, 3, 3, models.SourceStatusActive, now.Add(-2*time.Hour))
	newer := seedSource(t, conn, user.ID, 4, 4, models.SourceStatusActive, now.Add(-1*time.Hour))

	if errDeduct := svc.Deduct(context.Background(), user.ID, 3, nil); errDeduct != nil {
		t.Fatalf("deduct: %v", errDeduct)
	}

	var gotOlder, gotNewer models.CreditSource
	if errFind := conn.First(&gotOlder, older.ID).Error; errFind != nil {
		t.Fatalf("reload older: %v", errFind)
	}
	if errFind := conn.First(&gotNewer, newer.ID).Error; errFind != nil {
		t.Fatalf("reload newer: %v", errFind)
	}
	if gotOlder.RemainingCredits != 0 || gotOlder.Status != models.SourceStatusExhausted {
		t.Fatalf("older = %d/%s, want fully drawn and exhausted", gotOlder.RemainingCredits, gotOlder.Status)
	}
	if gotNewer.RemainingCredits != 4 || gotNewer.Status != models.SourceStatusActive {
		t.Fatalf("newer = %d/%s, want fully intact and active", gotNewer.RemainingCredits, gotNewer.Status)
	}
}

func TestDeductInsufficientCreditsLeavesSourcesIntact(t *testing.T) {
	conn := setupLedgerDB(t)
	svc := NewService(conn)
	user := seedUser(t, conn, 3)
	source := seedSource(t, conn, user.ID, 3, 3, models.SourceStatusActive, time.Now().UTC())

	errDeduct := svc.Deduct(context.Background(), user.ID, 5, nil)
	if !errors.Is(errDeduct, ErrInsufficientCredits) {
		t.Fatalf("deduct error = %v, want ErrInsufficientCredits", errDeduct)
	}

	var got models.CreditSource
	if errFind := conn.First(&got, source.ID).Error; errFind != nil {
		t.Fatalf("reload source: %v", errFind)
	}
	if got.RemainingCredits != 3 {
		t.Fatalf("remaining = %d, want unmodified 3", got.RemainingCredits)
	}

	var count int64
	if errCount := conn.Model(&models.CreditTransaction{}).Where("user_id = ?", user.ID).Count(&count).Error; errCount != nil {
		t.Fatalf("count transactions: %v", errCount)
	}
	if count != 0 {
		t.Fatalf("transactions = %d, want 0", count)
	}
}

func TestDeductLedgerInconsistencyRollsBack(t *testing.T) {
	conn := setupLedgerDB(t)
	svc := NewService(conn)
	// Balance cache says 10 but active sources only hold 4.
	user := seedUser(t, conn, 10)
	source := seedSource(t, conn, user.ID, 4, 4, models.SourceStatusActive, time.Now().UTC())

	errDeduct := svc.Deduct(context.Background(), user.ID, 6, nil)
	if !errors.Is(errDeduct, ErrLedgerInconsistency) {
		t.Fatalf("deduct error = %v, want ErrLedgerInconsistency", errDeduct)
	}

	var got models.CreditSource
	if errFind := conn.First(&got, source.ID).Error; errFind != nil {
		t.Fatalf("reload source: %v", errFind)
	}
	if got.RemainingCredits != 4 || got.Status != models.SourceStatusActive {
		t.Fatalf("source = %d/%s, want rollback to 4/active", got.RemainingCredits, got.Status)
	}

	balance, errBalance := svc.Balance(context.Background(), user.ID)
	if errBalance != nil {
		t.Fatalf("balance: %v", errBalance)
	}
	if balance != 10 {
		t.Fatalf("balance = %d, want unmodified 10", balance)
	}
}

func TestDeductSkipsLockedAndRefundedSources(t *testing.T) {
	conn := setupLedgerDB(t)
	svc := NewService(conn)
	user := seedUser(t, conn, 5)

	now := time.Now().UTC()
	seedSource(t, conn, user.ID, 5, 5, models.SourceStatusPendingRefund, now.Add(-3*time.Hour))
	seedSource(t, conn, user.ID, 5, 5, models.SourceStatusRefunded, now.Add(-2*time.Hour))
	active := seedSource(t, conn, user.ID, 5, 5, models.SourceStatusActive, now.Add(-1*time.Hour))

	if errDeduct := svc.Deduct(context.Background(), user.ID, 5, nil); errDeduct != nil {
		t.Fatalf("deduct: %v", errDeduct)
	}

	var consumptions []models.CreditConsumption
	if errFind := conn.Where("user_id = ?", user.ID).Find(&consumptions).Error; errFind != nil {
		t.Fatalf("load consumptions: %v", errFind)
	}
	if len(consumptions) != 1 || consumptions[0].SourceID != active.ID {
		t.Fatalf("consumptions = %+v, want one draw from active source %d", consumptions, active.ID)
	}
}

func TestGrantCreatesSourceTransactionAndBalance(t *testing.T) {
	conn := setupLedgerDB(t)
	svc := NewService(conn)
	user := seedUser(t, conn, 0)
	plan := models.PricingPlan{Name: "Standard", Price: 9900, Credits: 20, IsActive: true}
	if errCreate := conn.Create(&plan).Error; errCreate != nil {
		t.Fatalf("create plan: %v", errCreate)
	}

	source, errGrant := svc.Grant(context.Background(), user.ID, plan, "Purchased Standard Plan")
	if errGrant != nil {
		t.Fatalf("grant: %v", errGrant)
	}
	if source.InitialCredits != 20 || source.RemainingCredits != 20 || source.Status != models.SourceStatusActive {
		t.Fatalf("source = %+v, want 20/20 active", source)
	}

	balance, errBalance := svc.Balance(context.Background(), user.ID)
	if errBalance != nil {
		t.Fatalf("balance: %v", errBalance)
	}
	if balance != 20 {
		t.Fatalf("balance = %d, want 20", balance)
	}

	var transaction models.CreditTransaction
	if errFind := conn.Where("user_id = ? AND type = ?", user.ID, models.TransactionTypePurchase).First(&transaction).Error; errFind != nil {
		t.Fatalf("load transaction: %v", errFind)
	}
	if transaction.Amount != 20 {
		t.Fatalf("transaction amount = %d, want 20", transaction.Amount)
	}
}

func TestRebalanceRepairsBalanceCache(t *testing.T) {
	conn := setupLedgerDB(t)
	svc := NewService(conn)
	user := seedUser(t, conn, 99)
	seedSource(t, conn, user.ID, 10, 7, models.SourceStatusActive, time.Now().UTC())

	total, errRebalance := svc.Rebalance(context.Background(), user.ID)
	if errRebalance != nil {
		t.Fatalf("rebalance: %v", errRebalance)
	}
	if total != 7 {
		t.Fatalf("rebalance total = %d, want 7", total)
	}

	balance, errBalance := svc.Balance(context.Background(), user.ID)
	if errBalance != nil {
		t.Fatalf("balance: %v", errBalance)
	}
	if balance != 7 {
		t.Fatalf("balance = %d, want 7", balance)
	}
}
