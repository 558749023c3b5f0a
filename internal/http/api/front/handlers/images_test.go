package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/facestudio/facestudio/internal/config"
	"github.com/facestudio/facestudio/internal/models"
	"github.com/facestudio/facestudio/internal/storage"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func createFrontImage(t *testing.T, db *gorm.DB, userID uint64, storagePath string) models.GeneratedImage {
	t.Helper()
	image := models.GeneratedImage{
		UserID:      userID,
		Prompt:      "a portrait",
		FinalPrompt: "a portrait, photorealistic",
		Model:       "imagen-4.0-generate-001",
		StoragePath: storagePath,
	}
	if errCreate := db.Create(&image).Error; errCreate != nil {
		t.Fatalf("create image: %v", errCreate)
	}
	return image
}

func TestImageDeleteSurvivesStorageFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupFrontDB(t)
	user := createFrontUser(t, db, 0)
	image := createFrontImage(t, db, user.ID, "1/abc.png")

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	t.Cleanup(failing.Close)
	store := storage.NewClient(config.StorageConfig{BaseURL: failing.URL, Bucket: "generated-images", ServiceKey: "k"})

	handler := NewImageHandler(db, store)
	router := gin.New()
	router.Use(withUser(user.ID))
	router.DELETE("/v0/front/images/:id", handler.Delete)

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/v0/front/images/%d", image.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	// The record goes away even though the blob delete failed.
	var gone models.GeneratedImage
	errFind := db.First(&gone, image.ID).Error
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		t.Fatalf("find deleted image = %v, want record gone", errFind)
	}
}

func TestImageDeleteWithoutStorageConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupFrontDB(t)
	user := createFrontUser(t, db, 0)
	image := createFrontImage(t, db, user.ID, "1/abc.png")

	handler := NewImageHandler(db, nil)
	router := gin.New()
	router.Use(withUser(user.ID))
	router.DELETE("/v0/front/images/:id", handler.Delete)

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/v0/front/images/%d", image.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var gone models.GeneratedImage
	errFind := db.First(&gone, image.ID).Error
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		t.Fatalf("find deleted image = %v, want record gone", errFind)
	}
}

func TestImageDeleteForeignImageNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupFrontDB(t)
	owner := createFrontUser(t, db, 0)
	other := createFrontUser(t, db, 0)
	image := createFrontImage(t, db, owner.ID, "")

	handler := NewImageHandler(db, nil)
	router := gin.New()
	router.Use(withUser(other.ID))
	router.DELETE("/v0/front/images/:id", handler.Delete)

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/v0/front/images/%d", image.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestImageListNewestFirst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupFrontDB(t)
	user := createFrontUser(t, db, 0)
	first := createFrontImage(t, db, user.ID, "")
	second := createFrontImage(t, db, user.ID, "")

	handler := NewImageHandler(db, nil)
	router := gin.New()
	router.Use(withUser(user.ID))
	router.GET("/v0/front/images", handler.List)

	req := httptest.NewRequest(http.MethodGet, "/v0/front/images", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Images []struct {
			ID uint64 `json:"id"`
		} `json:"images"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if len(resp.Images) != 2 {
		t.Fatalf("images = %d, want 2", len(resp.Images))
	}
	if resp.Images[0].ID != second.ID || resp.Images[1].ID != first.ID {
		t.Fatalf("order = %d,%d, want newest first", resp.Images[0].ID, resp.Images[1].ID)
	}
}
