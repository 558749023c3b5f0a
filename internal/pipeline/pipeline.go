// Package pipeline orchestrates image generation: balance pre-check, vision
// analysis, prompt assembly, generation, persistence and credit deduction.
package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/facestudio/facestudio/internal/genai"
	"github.com/facestudio/facestudio/internal/ledger"
	"github.com/facestudio/facestudio/internal/models"
	"github.com/facestudio/facestudio/internal/prompt"
	"github.com/facestudio/facestudio/internal/storage"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Fatal pipeline errors. Vision and persistence failures degrade into
// warnings instead.
var (
	// ErrInvalidRequest covers missing prompts and out-of-range parameters.
	ErrInvalidRequest = errors.New("invalid generation request")
)

// validAspectRatios are the ratios the generation model accepts.
var validAspectRatios = map[string]bool{
	"1:1": true, "4:3": true, "3:4": true, "16:9": true, "9:16": true,
}

// maxImageCount caps sampleCount per request.
const maxImageCount = 4

// Generator is the slice of the genai client the pipeline needs.
type Generator interface {
	AnalyzeImage(ctx context.Context, image []byte, mimeType string) (string, error)
	GenerateImages(ctx context.Context, finalPrompt, aspectRatio string, count int) ([][]byte, error)
	GenerationModel() string
}

// ObjectStore is the slice of the storage client the pipeline needs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
}

// Deductor is the slice of the ledger the pipeline needs.
type Deductor interface {
	Balance(ctx context.Context, userID uint64) (int64, error)
	Deduct(ctx context.Context, userID uint64, cost int64, imageID *uint64) error
}

// KeyFunc builds object keys for uploaded images.
type KeyFunc func(userID uint64) string

// Pipeline wires the generation stages together.
type Pipeline struct {
	db        *gorm.DB
	ledger    Deductor
	generator Generator
	store     ObjectStore
	newKey    KeyFunc
	cost      func(ctx context.Context) int64
}

// New constructs a Pipeline. store may be nil; persistence then degrades to
// the data-URI fallback with a warning. cost resolves the per-image credit
// cost at request time so runtime overrides apply without restart.
func New(db *gorm.DB, deductor Deductor, generator Generator, store ObjectStore, newKey KeyFunc, cost func(ctx context.Context) int64) *Pipeline {
	return &Pipeline{
		db:        db,
		ledger:    deductor,
		generator: generator,
		store:     store,
		newKey:    newKey,
		cost:      cost,
	}
}

// Request is one generation request.
type Request struct {
	UserID         uint64
	Prompt         string
	Image          []byte // optional reference photo
	ImageMIME      string
	Framing        prompt.Framing
	Style          prompt.Style
	AspectRatio    string
	NegativePrompt string
	Count          int
}

// ImageResult is one generated image. URL points at durable storage when the
// upload succeeded; DataURI always carries the image so a storage hiccup
// never loses a paid generation.
type ImageResult struct {
	ID      uint64 `json:"id,omitempty"`
	URL     string `json:"url,omitempty"`
	DataURI string `json:"data_uri"`
}

// Result is the composite outcome of a successful pipeline run.
type Result struct {
	Images          []ImageResult `json:"images"`
	FinalPrompt     string        `json:"final_prompt"`
	FaceDescription string        `json:"face_description,omitempty"`
	Model           string        `json:"model"`
	CostCharged     int64         `json:"cost_charged"`
	Warnings        []string      `json:"warnings"`
}

// Generate runs the stages in order. Auth, balance and generation failures
// are fatal; vision, persistence and deduction failures become warnings on
// an otherwise successful result.
func (p *Pipeline) Generate(ctx context.Context, req Request) (*Result, error) {
	if errValidate := p.validate(&req); errValidate != nil {
		return nil, errValidate
	}

	cost := p.cost(ctx) * int64(req.Count)

	balance, errBalance := p.ledger.Balance(ctx, req.UserID)
	if errBalance != nil {
		return nil, errBalance
	}
	if balance < cost {
		return nil, fmt.Errorf("%w: required %d, available %d", ledger.ErrInsufficientCredits, cost, balance)
	}

	warnings := make([]string, 0, 2)

	var faceDescription string
	if len(req.Image) > 0 {
		description, errAnalyze := p.generator.AnalyzeImage(ctx, req.Image, req.ImageMIME)
		if errAnalyze != nil {
			log.WithError(errAnalyze).WithField("user_id", req.UserID).Warn("pipeline: vision analysis failed, continuing text-only")
			warnings = append(warnings, "vision analysis failed, used text-only prompt")
		} else {
			faceDescription = description
		}
	}

	finalPrompt := prompt.Assemble(prompt.Input{
		Prompt:          req.Prompt,
		FaceDescription: faceDescription,
		Framing:         req.Framing,
		Style:           req.Style,
		NegativePrompt:  req.NegativePrompt,
	})

	payloads, errGenerate := p.generator.GenerateImages(ctx, finalPrompt, req.AspectRatio, req.Count)
	if errGenerate != nil {
		return nil, errGenerate
	}

	result := &Result{
		FinalPrompt:     finalPrompt,
		FaceDescription: faceDescription,
		Model:           p.generator.GenerationModel(),
		CostCharged:     cost,
	}

	var firstImageID *uint64
	for _, data := range payloads {
		imageResult, persistWarnings := p.persist(ctx, req, finalPrompt, faceDescription, data)
		warnings = append(warnings, persistWarnings...)
		if firstImageID == nil && imageResult.ID != 0 {
			id := imageResult.ID
			firstImageID = &id
		}
		result.Images = append(result.Images, imageResult)
	}

	if errDeduct := p.ledger.Deduct(ctx, req.UserID, cost, firstImageID); errDeduct != nil {
		log.WithError(errDeduct).WithField("user_id", req.UserID).Error("pipeline: deduction failed after delivery")
		warnings = append(warnings, "credit deduction failed, the charge will be reconciled")
	}

	result.Warnings = warnings
	return result, nil
}

// persist uploads one image and records it. Either step failing is a warning;
// the caller still gets the image as a data URI.
func (p *Pipeline) persist(ctx context.Context, req Request, finalPrompt, faceDescription string, data []byte) (ImageResult, []string) {
	imageResult := ImageResult{
		DataURI: "data:image/png;base64," + base64.StdEncoding.EncodeToString(data),
	}

	var warnings []string
	var storagePath, storageURL string

	if p.store == nil {
		warnings = append(warnings, "image storage unavailable, returning inline image only")
	} else {
		key := p.newKey(req.UserID)
		if errUpload := p.store.Upload(ctx, key, data, "image/png"); errUpload != nil {
			log.WithError(errUpload).WithField("user_id", req.UserID).Warn("pipeline: storage upload failed")
			warnings = append(warnings, "image storage upload failed, returning inline image only")
		} else {
			storagePath = key
			storageURL = p.store.PublicURL(key)
			imageResult.URL = storageURL
		}
	}

	record := models.GeneratedImage{
		UserID:          req.UserID,
		Prompt:          req.Prompt,
		FinalPrompt:     finalPrompt,
		FaceDescription: faceDescription,
		Model:           p.generator.GenerationModel(),
		StoragePath:     storagePath,
		StorageURL:      storageURL,
	}
	if errCreate := p.db.WithContext(ctx).Create(&record).Error; errCreate != nil {
		log.WithError(errCreate).WithField("user_id", req.UserID).Warn("pipeline: image record insert failed")
		warnings = append(warnings, "image record could not be saved")
	} else {
		imageResult.ID = record.ID
	}

	return imageResult, warnings
}

// validate normalizes and bounds the request parameters.
func (p *Pipeline) validate(req *Request) error {
	if req.Prompt == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	if req.AspectRatio == "" {
		req.AspectRatio = "1:1"
	}
	if !validAspectRatios[req.AspectRatio] {
		return fmt.Errorf("%w: unsupported aspect ratio %q", ErrInvalidRequest, req.AspectRatio)
	}
	if req.Count <= 0 {
		req.Count = 1
	}
	if req.Count > maxImageCount {
		return fmt.Errorf("%w: image count %d exceeds limit %d", ErrInvalidRequest, req.Count, maxImageCount)
	}
	if len(req.Image) > 0 && req.ImageMIME == "" {
		req.ImageMIME = "image/jpeg"
	}
	return nil
}

// compile-time interface checks against the real implementations.
var (
	_ Generator   = (*genai.Client)(nil)
	_ Deductor    = (*ledger.Service)(nil)
	_ ObjectStore = (*storage.Client)(nil)
)
