package imagen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"adspark/internal/project"
	"adspark/pkg/httputil"
)

const (
	ModelPreview = "imagen-4.0-generate-preview-05-20"
	ModelUltra   = "imagen-4.0-ultra-generate-exp-05-20"

	defaultAspectRatio = "16:9"
)

var (
	// ErrUpstream marks any failure of the image generation backend.
	ErrUpstream = errors.New("image generation failed")
	// ErrQuotaExceeded is the rate/usage-limit case of ErrUpstream;
	// errors.Is against either sentinel holds.
	ErrQuotaExceeded = fmt.Errorf("quota exceeded: %w", ErrUpstream)
)

var validAspectRatios = map[string]bool{
	"16:9": true,
	"9:16": true,
	"1:1":  true,
	"4:3":  true,
	"3:4":  true,
}

// Image is one rendered result, resolvable back to its source scene.
type Image struct {
	SceneID  string `json:"sceneId"`
	ImageURL string `json:"imageUrl"`
	MimeType string `json:"mimeType"`
	Prompt   string `json:"prompt,omitempty"`
}

type Client struct {
	tokens            oauth2.TokenSource
	project           string
	location          string
	baseURL           string
	safetyFilterLevel string
	personGeneration  string
	httpClient        *httputil.RetryClient
}

type Options struct {
	Project  string
	Location string
	// BaseURL overrides the regional endpoint; used in tests.
	BaseURL           string
	SafetyFilterLevel string
	PersonGeneration  string
}

type instance struct {
	Prompt string `json:"prompt"`
}

type parameters struct {
	SampleCount       int    `json:"sampleCount"`
	AspectRatio       string `json:"aspectRatio"`
	SafetyFilterLevel string `json:"safetyFilterLevel"`
	PersonGeneration  string `json:"personGeneration"`
	EnhancePrompt     bool   `json:"enhancePrompt,omitempty"`
	GuidanceScale     int    `json:"guidanceScale,omitempty"`
}

type predictRequest struct {
	Instances  []instance `json:"instances"`
	Parameters parameters `json:"parameters"`
}

type prediction struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
	Prompt             string `json:"prompt"`
}

type predictResponse struct {
	Predictions []prediction `json:"predictions"`
}

// NewClient builds a Vertex AI Imagen client. The token source is
// supplied by the caller; no ambient credential lookup happens here.
func NewClient(tokens oauth2.TokenSource, opts Options) *Client {
	if opts.Location == "" {
		opts.Location = "us-central1"
	}
	if opts.SafetyFilterLevel == "" {
		opts.SafetyFilterLevel = "block_some"
	}
	if opts.PersonGeneration == "" {
		opts.PersonGeneration = "allow_adult"
	}

	// Quota handling lives in the orchestrator: a 429 must surface
	// immediately so it can downgrade the model, not be retried here.
	cfg := httputil.DefaultRetryConfig()
	cfg.RetryTooManyRequests = false

	return &Client{
		tokens:            tokens,
		project:           opts.Project,
		location:          opts.Location,
		baseURL:           opts.BaseURL,
		safetyFilterLevel: opts.SafetyFilterLevel,
		personGeneration:  opts.PersonGeneration,
		httpClient:        httputil.NewRetryClient(&http.Client{}, cfg),
	}
}

// GenerateScene renders one image for the scene using its description
// as the prompt.
func (c *Client) GenerateScene(ctx context.Context, scene project.Scene, model, aspectRatio string, sampleCount int) (Image, error) {
	if sampleCount <= 0 {
		sampleCount = 1
	}

	body := predictRequest{
		Instances: []instance{{Prompt: scene.Description}},
		Parameters: parameters{
			SampleCount:       sampleCount,
			AspectRatio:       normalizeAspectRatio(aspectRatio),
			SafetyFilterLevel: c.safetyFilterLevel,
			PersonGeneration:  c.personGeneration,
		},
	}
	if strings.Contains(model, "ultra") {
		body.Parameters.EnhancePrompt = true
		body.Parameters.GuidanceScale = 20
	}

	data, err := json.Marshal(body)
	if err != nil {
		return Image{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.predict(ctx, model, data)
	if err != nil {
		return Image{}, err
	}

	if len(resp.Predictions) == 0 {
		return Image{}, fmt.Errorf("%w: no images generated", ErrUpstream)
	}

	p := resp.Predictions[0]
	mimeType := p.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}
	prompt := p.Prompt
	if prompt == "" {
		prompt = scene.Description
	}

	return Image{
		SceneID:  scene.ID,
		ImageURL: fmt.Sprintf("data:%s;base64,%s", mimeType, p.BytesBase64Encoded),
		MimeType: mimeType,
		Prompt:   prompt,
	}, nil
}

func (c *Client) predict(ctx context.Context, model string, data []byte) (*predictResponse, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: obtain access token: %v", ErrUpstream, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(model), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: status 429: %s", ErrQuotaExceeded, string(respBody))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, string(respBody))
	}

	var out predictResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", ErrUpstream, err)
	}
	return &out, nil
}

func (c *Client) endpoint(model string) string {
	base := c.baseURL
	if base == "" {
		base = fmt.Sprintf("https://%s-aiplatform.googleapis.com", c.location)
	}
	return fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
		base, c.project, c.location, model)
}

func normalizeAspectRatio(ratio string) string {
	if validAspectRatios[ratio] {
		return ratio
	}
	return defaultAspectRatio
}
