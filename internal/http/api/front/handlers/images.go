package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/facestudio/facestudio/internal/models"
	"github.com/facestudio/facestudio/internal/storage"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ImageHandler serves and deletes the user's generated images.
type ImageHandler struct {
	db    *gorm.DB
	store *storage.Client
}

// NewImageHandler constructs an ImageHandler.
func NewImageHandler(db *gorm.DB, store *storage.Client) *ImageHandler {
	return &ImageHandler{db: db, store: store}
}

// imageDTO defines the generated image response payload.
type imageDTO struct {
	ID        uint64    `json:"id"`
	Prompt    string    `json:"prompt"`
	Model     string    `json:"model"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// List returns the user's generated images, newest first.
func (h *ImageHandler) List(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	var images []models.GeneratedImage
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&images).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query images failed"})
		return
	}

	items := make([]imageDTO, 0, len(images))
	for _, image := range images {
		items = append(items, imageDTO{
			ID:        image.ID,
			Prompt:    image.Prompt,
			Model:     image.Model,
			URL:       image.StorageURL,
			CreatedAt: image.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"images": items})
}

// Delete removes an image record. The storage blob delete is best effort;
// a storage failure is logged and the record still goes away.
func (h *ImageHandler) Delete(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	imageID, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || imageID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image id"})
		return
	}

	var image models.GeneratedImage
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", imageID, userID).
		First(&image).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query image failed"})
		return
	}

	if image.StoragePath != "" {
		if errDelete := h.store.Delete(c.Request.Context(), image.StoragePath); errDelete != nil && !errors.Is(errDelete, storage.ErrNotConfigured) {
			log.WithError(errDelete).WithFields(log.Fields{
				"user_id": userID,
				"image":   image.ID,
			}).Warn("images: storage delete failed, removing record anyway")
		}
	}

	if errDelete := h.db.WithContext(c.Request.Context()).Delete(&image).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete image failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
