package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/facestudio/facestudio/internal/genai"
	"github.com/facestudio/facestudio/internal/ledger"
	"github.com/facestudio/facestudio/internal/pipeline"
	"github.com/facestudio/facestudio/internal/prompt"
	"github.com/facestudio/facestudio/internal/ratelimit"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// maxUploadBytes caps the reference photo size.
const maxUploadBytes = 10 << 20

// GenerateHandler runs the image-generation pipeline for users.
type GenerateHandler struct {
	pipeline *pipeline.Pipeline
	limiter  *ratelimit.Limiter
}

// NewGenerateHandler constructs a GenerateHandler.
func NewGenerateHandler(p *pipeline.Pipeline, limiter *ratelimit.Limiter) *GenerateHandler {
	return &GenerateHandler{pipeline: p, limiter: limiter}
}

// Generate accepts a multipart form with the prompt, directives and an
// optional reference photo, and returns the generated images with any
// degradation warnings.
func (h *GenerateHandler) Generate(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if !h.limiter.Allow(c.Request.Context(), userID) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many generation requests, slow down"})
		return
	}

	framing, _ := prompt.ParseFraming(c.PostForm("framing"))
	style, _ := prompt.ParseStyle(c.PostForm("style"))
	count, _ := strconv.Atoi(c.DefaultPostForm("count", "1"))

	req := pipeline.Request{
		UserID:         userID,
		Prompt:         c.PostForm("prompt"),
		Framing:        framing,
		Style:          style,
		AspectRatio:    c.DefaultPostForm("aspect_ratio", "1:1"),
		NegativePrompt: c.PostForm("negative_prompt"),
		Count:          count,
	}

	if file, errFile := c.FormFile("image"); errFile == nil {
		if file.Size > maxUploadBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reference photo exceeds 10MB"})
			return
		}
		opened, errOpen := file.Open()
		if errOpen != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read reference photo"})
			return
		}
		data, errRead := io.ReadAll(io.LimitReader(opened, maxUploadBytes))
		_ = opened.Close()
		if errRead != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read reference photo"})
			return
		}
		req.Image = data
		req.ImageMIME = file.Header.Get("Content-Type")
	}

	result, errGenerate := h.pipeline.Generate(c.Request.Context(), req)
	if errGenerate != nil {
		switch {
		case errors.Is(errGenerate, pipeline.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": errGenerate.Error()})
		case errors.Is(errGenerate, ledger.ErrInsufficientCredits):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "not enough credits for this generation"})
		case errors.Is(errGenerate, genai.ErrGenerationFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": "image generation failed, your prompt may have been blocked by safety filters"})
		default:
			log.WithError(errGenerate).WithField("user_id", userID).Error("generate: pipeline failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "generation failed"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
