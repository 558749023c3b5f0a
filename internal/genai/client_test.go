package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/facestudio/facestudio/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(config.GenAIConfig{
		APIKey:          "test-key",
		BaseURL:         server.URL,
		VisionModel:     "vision-model",
		GenerationModel: "image-model",
	})
	return client, server
}

func TestAnalyzeImageReturnsDescription(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/vision-model:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Error("missing api key header")
		}

		var req generateContentRequest
		if errDecode := json.NewDecoder(r.Body).Decode(&req); errDecode != nil {
			t.Errorf("decode request: %v", errDecode)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 2 {
			t.Errorf("unexpected request shape: %+v", req)
		}
		if req.Contents[0].Parts[1].InlineData == nil || req.Contents[0].Parts[1].InlineData.MimeType != "image/png" {
			t.Error("missing inline image data")
		}

		resp := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "oval face, fair skin"}}}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	description, errAnalyze := client.AnalyzeImage(context.Background(), []byte("fake-png"), "image/png")
	if errAnalyze != nil {
		t.Fatalf("analyze: %v", errAnalyze)
	}
	if description != "oval face, fair skin" {
		t.Fatalf("description = %q", description)
	}
}

func TestAnalyzeImageUpstreamError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, errAnalyze := client.AnalyzeImage(context.Background(), []byte("fake"), "image/jpeg")
	if !errors.Is(errAnalyze, ErrVisionFailed) {
		t.Fatalf("analyze error = %v, want ErrVisionFailed", errAnalyze)
	}
}

func TestGenerateImagesDecodesPredictions(t *testing.T) {
	imageBytes := []byte{0x89, 0x50, 0x4e, 0x47}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/image-model:predict" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req predictRequest
		if errDecode := json.NewDecoder(r.Body).Decode(&req); errDecode != nil {
			t.Errorf("decode request: %v", errDecode)
		}
		if len(req.Instances) != 1 || req.Instances[0].Prompt != "a test prompt" {
			t.Errorf("unexpected instances: %+v", req.Instances)
		}
		if req.Parameters.SampleCount != 2 || req.Parameters.AspectRatio != "3:4" {
			t.Errorf("unexpected parameters: %+v", req.Parameters)
		}
		if req.Parameters.PersonGeneration != "allow_adult" {
			t.Error("missing personGeneration flag")
		}

		resp := map[string]any{
			"predictions": []map[string]any{
				{"bytesBase64Encoded": base64.StdEncoding.EncodeToString(imageBytes)},
				{"bytesBase64Encoded": base64.StdEncoding.EncodeToString(imageBytes)},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	images, errGenerate := client.GenerateImages(context.Background(), "a test prompt", "3:4", 2)
	if errGenerate != nil {
		t.Fatalf("generate: %v", errGenerate)
	}
	if len(images) != 2 {
		t.Fatalf("images = %d, want 2", len(images))
	}
	if string(images[0]) != string(imageBytes) {
		t.Fatal("decoded image bytes do not match")
	}
}

func TestGenerateImagesEmptyPredictionsFails(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"predictions": []any{}})
	})

	_, errGenerate := client.GenerateImages(context.Background(), "blocked prompt", "1:1", 1)
	if !errors.Is(errGenerate, ErrGenerationFailed) {
		t.Fatalf("generate error = %v, want ErrGenerationFailed", errGenerate)
	}
}

func TestGenerateImagesNon2xxFails(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	})

	_, errGenerate := client.GenerateImages(context.Background(), "prompt", "1:1", 1)
	if !errors.Is(errGenerate, ErrGenerationFailed) {
		t.Fatalf("generate error = %v, want ErrGenerationFailed", errGenerate)
	}
}
