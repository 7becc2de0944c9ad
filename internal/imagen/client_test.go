package imagen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"adspark/internal/project"
)

var testScene = project.Scene{
	ID:          "scene-1",
	Title:       "Opening",
	Description: "Product on a sunlit table",
	Order:       1,
}

func newTestImagenClient(url string) *Client {
	return NewClient(
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}),
		Options{Project: "test-project", BaseURL: url},
	)
}

func predictionsBody(data string) predictResponse {
	return predictResponse{
		Predictions: []prediction{{
			BytesBase64Encoded: base64.StdEncoding.EncodeToString([]byte(data)),
			MimeType:           "image/png",
		}},
	}
}

func TestGenerateSceneRequest(t *testing.T) {
	var captured predictRequest
	var path, auth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(predictionsBody("img"))
	}))
	defer server.Close()

	client := newTestImagenClient(server.URL)

	image, err := client.GenerateScene(context.Background(), testScene, ModelPreview, "16:9", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantPath := "/v1/projects/test-project/locations/us-central1/publishers/google/models/" + ModelPreview + ":predict"
	if path != wantPath {
		t.Errorf("expected path %s, got %s", wantPath, path)
	}
	if auth != "Bearer test-token" {
		t.Errorf("expected bearer token, got %q", auth)
	}
	if len(captured.Instances) != 1 || captured.Instances[0].Prompt != testScene.Description {
		t.Errorf("expected scene description as prompt, got %+v", captured.Instances)
	}
	if captured.Parameters.SampleCount != 1 || captured.Parameters.AspectRatio != "16:9" {
		t.Errorf("unexpected parameters: %+v", captured.Parameters)
	}
	if captured.Parameters.SafetyFilterLevel != "block_some" || captured.Parameters.PersonGeneration != "allow_adult" {
		t.Errorf("unexpected safety parameters: %+v", captured.Parameters)
	}
	if captured.Parameters.EnhancePrompt || captured.Parameters.GuidanceScale != 0 {
		t.Errorf("preview model must not carry ultra parameters: %+v", captured.Parameters)
	}

	if image.SceneID != testScene.ID {
		t.Errorf("expected scene id %q, got %q", testScene.ID, image.SceneID)
	}
	if !strings.HasPrefix(image.ImageURL, "data:image/png;base64,") {
		t.Errorf("expected data URL, got %q", image.ImageURL)
	}
	if image.Prompt != testScene.Description {
		t.Errorf("expected prompt fallback to description, got %q", image.Prompt)
	}
}

func TestGenerateSceneUltraParameters(t *testing.T) {
	var captured predictRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(predictionsBody("img"))
	}))
	defer server.Close()

	client := newTestImagenClient(server.URL)

	_, err := client.GenerateScene(context.Background(), testScene, ModelUltra, "9:16", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !captured.Parameters.EnhancePrompt {
		t.Error("expected enhancePrompt for ultra model")
	}
	if captured.Parameters.GuidanceScale != 20 {
		t.Errorf("expected guidanceScale 20, got %d", captured.Parameters.GuidanceScale)
	}
	if captured.Parameters.SampleCount != 2 {
		t.Errorf("expected sampleCount 2, got %d", captured.Parameters.SampleCount)
	}
}

func TestGenerateSceneAspectRatioFallback(t *testing.T) {
	var captured predictRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(predictionsBody("img"))
	}))
	defer server.Close()

	client := newTestImagenClient(server.URL)

	_, err := client.GenerateScene(context.Background(), testScene, ModelPreview, "21:9", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.Parameters.AspectRatio != "16:9" {
		t.Errorf("expected unrecognized ratio mapped to 16:9, got %q", captured.Parameters.AspectRatio)
	}
	if captured.Parameters.SampleCount != 1 {
		t.Errorf("expected sampleCount default 1, got %d", captured.Parameters.SampleCount)
	}
}

func TestGenerateSceneQuotaError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limit", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestImagenClient(server.URL)

	_, err := client.GenerateScene(context.Background(), testScene, ModelUltra, "16:9", 1)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("expected ErrQuotaExceeded, got %v", err)
	}
	if !errors.Is(err, ErrUpstream) {
		t.Error("quota error must also match ErrUpstream")
	}
}

func TestGenerateSceneAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestImagenClient(server.URL)

	_, err := client.GenerateScene(context.Background(), testScene, ModelPreview, "16:9", 1)
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", err)
	}
	if errors.Is(err, ErrQuotaExceeded) {
		t.Error("generic API error must not match ErrQuotaExceeded")
	}
}

func TestGenerateSceneNoPredictions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(predictResponse{})
	}))
	defer server.Close()

	client := newTestImagenClient(server.URL)

	_, err := client.GenerateScene(context.Background(), testScene, ModelPreview, "16:9", 1)
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("expected ErrUpstream for empty predictions, got %v", err)
	}
}
