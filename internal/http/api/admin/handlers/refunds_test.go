package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/facestudio/facestudio/internal/ledger"
	"github.com/facestudio/facestudio/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAdminDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:admin_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.AutoMigrate(
		&models.User{},
		&models.CreditSource{},
		&models.CreditTransaction{},
		&models.CreditConsumption{},
		&models.RefundRequest{},
	); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return db
}

func seedPendingRefund(t *testing.T, db *gorm.DB) (models.User, models.CreditSource, models.RefundRequest) {
	t.Helper()
	user := models.User{Subject: fmt.Sprintf("sub-%d", time.Now().UnixNano()), Username: "refunder", Role: models.RoleUser, Credits: 20}
	if errCreate := db.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	source := models.CreditSource{UserID: user.ID, PlanID: 1, InitialCredits: 20, RemainingCredits: 20, Status: models.SourceStatusPendingRefund, CreatedAt: time.Now().UTC().Add(-time.Hour)}
	if errCreate := db.Create(&source).Error; errCreate != nil {
		t.Fatalf("create source: %v", errCreate)
	}
	request := models.RefundRequest{UserID: user.ID, SourceID: source.ID, Reason: "changed my mind", Status: models.RefundStatusPending}
	if errCreate := db.Create(&request).Error; errCreate != nil {
		t.Fatalf("create request: %v", errCreate)
	}
	return user, source, request
}

func TestAdminRefundListShowsPending(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupAdminDB(t)
	user, source, _ := seedPendingRefund(t, db)

	handler := NewRefundAdminHandler(db, ledger.NewService(db))
	router := gin.New()
	router.GET("/v0/admin/refunds", handler.List)

	req := httptest.NewRequest(http.MethodGet, "/v0/admin/refunds?status=pending", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Requests []struct {
			UserID           uint64 `json:"user_id"`
			Username         string `json:"username"`
			SourceID         uint64 `json:"source_id"`
			RemainingCredits int64  `json:"remaining_credits"`
			Status           string `json:"status"`
		} `json:"requests"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if len(resp.Requests) != 1 {
		t.Fatalf("expected 1 pending request, got %d", len(resp.Requests))
	}
	row := resp.Requests[0]
	if row.UserID != user.ID || row.Username != "refunder" || row.SourceID != source.ID {
		t.Fatalf("row = %+v", row)
	}
	if row.RemainingCredits != 20 {
		t.Fatalf("remaining = %d, want 20", row.RemainingCredits)
	}
}

func TestAdminRefundProcessApprove(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupAdminDB(t)
	user, source, request := seedPendingRefund(t, db)

	handler := NewRefundAdminHandler(db, ledger.NewService(db))
	router := gin.New()
	router.POST("/v0/admin/refunds/:id/process", handler.Process)

	body, _ := json.Marshal(map[string]any{"approve": true, "admin_note": "verified"})
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/v0/admin/refunds/%d/process", request.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var gotSource models.CreditSource
	if errFind := db.First(&gotSource, source.ID).Error; errFind != nil {
		t.Fatalf("reload source: %v", errFind)
	}
	if gotSource.Status != models.SourceStatusRefunded {
		t.Fatalf("source status = %s, want refunded", gotSource.Status)
	}

	var gotUser models.User
	if errFind := db.First(&gotUser, user.ID).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if gotUser.Credits != 0 {
		t.Fatalf("credits = %d, want 0 after approval", gotUser.Credits)
	}

	// Terminal: a second resolution attempt conflicts.
	req = httptest.NewRequest(http.MethodPost, fmt.Sprintf("/v0/admin/refunds/%d/process", request.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("second process status = %d, want 409", w.Code)
	}
}

func TestAdminRefundProcessReject(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupAdminDB(t)
	user, source, request := seedPendingRefund(t, db)

	handler := NewRefundAdminHandler(db, ledger.NewService(db))
	router := gin.New()
	router.POST("/v0/admin/refunds/:id/process", handler.Process)

	body, _ := json.Marshal(map[string]any{"approve": false, "admin_note": "outside policy"})
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/v0/admin/refunds/%d/process", request.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var gotSource models.CreditSource
	if errFind := db.First(&gotSource, source.ID).Error; errFind != nil {
		t.Fatalf("reload source: %v", errFind)
	}
	if gotSource.Status != models.SourceStatusActive {
		t.Fatalf("source status = %s, want active after rejection", gotSource.Status)
	}

	var gotUser models.User
	if errFind := db.First(&gotUser, user.ID).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if gotUser.Credits != 20 {
		t.Fatalf("credits = %d, want unchanged 20", gotUser.Credits)
	}
}
