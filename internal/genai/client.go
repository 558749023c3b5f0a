// Package genai wraps the generative-language REST API for vision analysis
// and image generation.
package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/facestudio/facestudio/internal/config"
	log "github.com/sirupsen/logrus"
)

// Errors surfaced to the pipeline.
var (
	// ErrGenerationFailed covers non-2xx responses and empty prediction
	// payloads, the latter usually meaning upstream safety filtering.
	ErrGenerationFailed = errors.New("image generation failed")
	// ErrVisionFailed covers vision analysis errors, including timeouts.
	ErrVisionFailed = errors.New("vision analysis failed")
)

// visionTimeout bounds the analysis call so a hung upstream degrades into the
// text-only branch instead of stalling the request.
const visionTimeout = 60 * time.Second

// analysisInstruction is the fixed instruction sent with every uploaded photo.
const analysisInstruction = "Analyze this face in extreme detail for the purpose of reproducing it in a new photo. Describe the ENTIRE facial structure, EXACT skin tone (e.g., 'pale ivory', 'fair with pink undertones', 'tan olive'), specific eye shape/color, nose shape, and lip shape. Mention any distinctive features (moles, scars). Do NOT describe clothing or background. Output ONLY the physical description."

// Client calls the generative-language API.
type Client struct {
	apiKey          string
	baseURL         string
	visionModel     string
	generationModel string
	httpClient      *http.Client
}

// NewClient constructs a Client from configuration.
func NewClient(cfg config.GenAIConfig) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	return &Client{
		apiKey:          cfg.APIKey,
		baseURL:         baseURL,
		visionModel:     cfg.VisionModel,
		generationModel: cfg.GenerationModel,
		httpClient:      &http.Client{Timeout: 120 * time.Second},
	}
}

// GenerationModel reports the model identifier used for image generation.
func (c *Client) GenerationModel() string {
	return c.generationModel
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type contentPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type generateContentRequest struct {
	Contents []struct {
		Parts []contentPart `json:"parts"`
	} `json:"contents"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []contentPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// AnalyzeImage sends the uploaded photo to the vision model and returns its
// physical description of the face. Bounded by visionTimeout.
func (c *Client) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, visionTimeout)
	defer cancel()

	var payload generateContentRequest
	payload.Contents = make([]struct {
		Parts []contentPart `json:"parts"`
	}, 1)
	payload.Contents[0].Parts = []contentPart{
		{Text: analysisInstruction},
		{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.visionModel)
	body, errCall := c.post(ctx, endpoint, payload)
	if errCall != nil {
		return "", fmt.Errorf("%w: %w", ErrVisionFailed, errCall)
	}

	var resp generateContentResponse
	if errDecode := json.Unmarshal(body, &resp); errDecode != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrVisionFailed, errDecode)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: empty candidate list", ErrVisionFailed)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	description := strings.TrimSpace(b.String())
	if description == "" {
		return "", fmt.Errorf("%w: empty description", ErrVisionFailed)
	}
	return description, nil
}

type predictRequest struct {
	Instances []struct {
		Prompt string `json:"prompt"`
	} `json:"instances"`
	Parameters struct {
		SampleCount      int    `json:"sampleCount"`
		AspectRatio      string `json:"aspectRatio"`
		PersonGeneration string `json:"personGeneration"`
	} `json:"parameters"`
}

type predictResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
	} `json:"predictions"`
}

// GenerateImages calls the image model's predict endpoint and returns the
// decoded image payloads. Empty prediction lists are treated as generation
// failures because safety filtering returns 200 with no predictions.
func (c *Client) GenerateImages(ctx context.Context, finalPrompt, aspectRatio string, count int) ([][]byte, error) {
	if count < 1 {
		count = 1
	}

	var payload predictRequest
	payload.Instances = make([]struct {
		Prompt string `json:"prompt"`
	}, 1)
	payload.Instances[0].Prompt = finalPrompt
	payload.Parameters.SampleCount = count
	payload.Parameters.AspectRatio = aspectRatio
	payload.Parameters.PersonGeneration = "allow_adult"

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:predict", c.baseURL, c.generationModel)
	body, errCall := c.post(ctx, endpoint, payload)
	if errCall != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, errCall)
	}

	var resp predictResponse
	if errDecode := json.Unmarshal(body, &resp); errDecode != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrGenerationFailed, errDecode)
	}
	if len(resp.Predictions) == 0 {
		log.WithField("model", c.generationModel).Warn("genai: empty prediction list, likely safety filtered")
		return nil, fmt.Errorf("%w: empty prediction list", ErrGenerationFailed)
	}

	images := make([][]byte, 0, len(resp.Predictions))
	for _, prediction := range resp.Predictions {
		raw, errDecode := base64.StdEncoding.DecodeString(prediction.BytesBase64Encoded)
		if errDecode != nil {
			return nil, fmt.Errorf("%w: decode image payload: %w", ErrGenerationFailed, errDecode)
		}
		images = append(images, raw)
	}
	return images, nil
}

// post sends a JSON request with the API key header and returns the body of a
// 2xx response.
func (c *Client) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	raw, errMarshal := json.Marshal(payload)
	if errMarshal != nil {
		return nil, errMarshal
	}

	req, errNew := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if errNew != nil {
		return nil, errNew
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, errDo := c.httpClient.Do(req)
	if errDo != nil {
		return nil, errDo
	}
	defer resp.Body.Close()

	body, errRead := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if errRead != nil {
		return nil, errRead
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("upstream status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
