package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"adspark/pkg/httputil"
)

const (
	roleUser      = "user"
	roleModel     = "model"
	roleAssistant = "assistant"
)

// ErrUpstream marks failures of the text generation backend: transport
// errors, non-2xx statuses, and replies with no text content.
var ErrUpstream = errors.New("upstream generation failed")

type Client struct {
	apiKey     string
	baseURL    string
	model      string
	ack        string
	httpClient *httputil.RetryClient
}

// Turn is one role-tagged message in a conversation transcript.
// Role "assistant" maps to the model side of the wire transcript;
// anything else is sent as a user turn.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes a single generation call. ThinkingBudget, when
// positive, asks the model to spend more internal computation before
// answering; zero disables the hint.
type Request struct {
	Turns          []Turn
	SystemPrompt   string
	ThinkingBudget int
}

type Options struct {
	BaseURL string
	Model   string
	// Ack is the synthetic model turn inserted after the system prompt
	// so the backend's strict user/model alternation holds.
	Ack string
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type generateConfig struct {
	ThinkingConfig *thinkingConfig `json:"thinkingConfig,omitempty"`
}

type generateRequest struct {
	Model    string          `json:"model"`
	Contents []content       `json:"contents"`
	Config   *generateConfig `json:"config,omitempty"`
}

type generateResponse struct {
	Text  string    `json:"text"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
}

func NewClient(apiKey string, opts Options) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: opts.BaseURL,
		model:   opts.Model,
		ack:     opts.Ack,
		// No client-side timeout: callers own the timeout policy via ctx.
		httpClient: httputil.NewRetryClient(&http.Client{}, httputil.DefaultRetryConfig()),
	}
}

func (c *Client) Model() string {
	return c.model
}

// Generate performs one blocking request/response call and returns the
// raw response text.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	data, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := c.doRequest(ctx, c.endpoint("generateContent"), data)
	if err != nil {
		return "", err
	}

	return c.parseResponse(body)
}

func (c *Client) buildRequest(req Request) generateRequest {
	out := generateRequest{
		Model:    c.model,
		Contents: c.buildContents(req),
	}
	if req.ThinkingBudget > 0 {
		out.Config = &generateConfig{
			ThinkingConfig: &thinkingConfig{ThinkingBudget: req.ThinkingBudget},
		}
	}
	return out
}

func (c *Client) buildContents(req Request) []content {
	contents := make([]content, 0, len(req.Turns)+2)

	if req.SystemPrompt != "" {
		contents = append(contents, content{
			Role:  roleUser,
			Parts: []part{{Text: "System: " + req.SystemPrompt}},
		})
		if c.ack != "" {
			contents = append(contents, content{
				Role:  roleModel,
				Parts: []part{{Text: c.ack}},
			})
		}
	}

	for _, turn := range req.Turns {
		role := roleUser
		if turn.Role == roleAssistant {
			role = roleModel
		}
		contents = append(contents, content{
			Role:  role,
			Parts: []part{{Text: turn.Content}},
		})
	}

	return contents
}

func (c *Client) endpoint(method string) string {
	return fmt.Sprintf("%s/models/%s:%s", c.baseURL, c.model, method)
}

func (c *Client) doRequest(ctx context.Context, url string, data []byte) ([]byte, error) {
	resp, err := c.send(ctx, url, data)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, string(body))
	}

	return body, nil
}

func (c *Client) send(ctx context.Context, url string, data []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return resp, nil
}

func (c *Client) parseResponse(data []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("%w: parse response: %v", ErrUpstream, err)
	}

	if resp.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrUpstream, resp.Error.Message)
	}

	if resp.Text == "" {
		return "", fmt.Errorf("%w: empty response", ErrUpstream)
	}

	return resp.Text, nil
}
