package httputil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func countingServer(t *testing.T, attempts *int32, failStatus int, failCount int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := atomic.AddInt32(attempts, 1)
		if count <= failCount {
			w.WriteHeader(failStatus)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRetryClientRetriesOn503(t *testing.T) {
	var attempts int32
	server := countingServer(t, &attempts, http.StatusServiceUnavailable, 2)
	defer server.Close()

	client := NewRetryClient(server.Client(), testConfig())

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if atomic.LoadInt32(&attempts) != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryClient429Policy(t *testing.T) {
	tests := []struct {
		name         string
		retry429     bool
		wantAttempts int32
		wantStatus   int
	}{
		{name: "retryEnabled", retry429: true, wantAttempts: 2, wantStatus: http.StatusOK},
		{name: "retryDisabled", retry429: false, wantAttempts: 1, wantStatus: http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts int32
			server := countingServer(t, &attempts, http.StatusTooManyRequests, 1)
			defer server.Close()

			cfg := testConfig()
			cfg.RetryTooManyRequests = tt.retry429
			client := NewRetryClient(server.Client(), cfg)

			req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
			resp, err := client.Do(req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			if atomic.LoadInt32(&attempts) != tt.wantAttempts {
				t.Errorf("expected %d attempts, got %d", tt.wantAttempts, attempts)
			}
		})
	}
}

func TestRetryClientDoesNotRetryOnClientErrors(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound} {
		var attempts int32
		server := countingServer(t, &attempts, status, 99)

		client := NewRetryClient(server.Client(), testConfig())

		req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_ = resp.Body.Close()

		if resp.StatusCode != status {
			t.Errorf("expected status %d, got %d", status, resp.StatusCode)
		}
		if atomic.LoadInt32(&attempts) != 1 {
			t.Errorf("status %d: expected 1 attempt (no retry), got %d", status, attempts)
		}
		server.Close()
	}
}

func TestRetryClientRespectsMaxRetries(t *testing.T) {
	var attempts int32
	server := countingServer(t, &attempts, http.StatusServiceUnavailable, 99)
	defer server.Close()

	cfg := testConfig()
	cfg.MaxRetries = 2
	client := NewRetryClient(server.Client(), cfg)

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("expected 3 attempts (1 initial + 2 retries), got %d", got)
	}
}

func TestRetryClientWithRequestBody(t *testing.T) {
	var attempts int32
	var receivedBodies []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		receivedBodies = append(receivedBodies, string(body))
		count := atomic.AddInt32(&attempts, 1)
		if count < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewRetryClient(server.Client(), testConfig())

	bodyContent := "test body content"
	req, _ := http.NewRequest(http.MethodPost, server.URL, strings.NewReader(bodyContent))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(bodyContent)), nil
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	for i, body := range receivedBodies {
		if body != bodyContent {
			t.Errorf("attempt %d: expected body %q, got %q", i+1, bodyContent, body)
		}
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("expected MaxRetries 3, got %d", config.MaxRetries)
	}
	if config.InitialDelay != 500*time.Millisecond {
		t.Errorf("expected InitialDelay 500ms, got %v", config.InitialDelay)
	}
	if config.MaxDelay != 5*time.Second {
		t.Errorf("expected MaxDelay 5s, got %v", config.MaxDelay)
	}
	if config.Multiplier != 2.0 {
		t.Errorf("expected Multiplier 2.0, got %f", config.Multiplier)
	}
	if !config.RetryTooManyRequests {
		t.Error("expected RetryTooManyRequests enabled by default")
	}
}

func TestNewRetryClientAppliesDefaults(t *testing.T) {
	client := NewRetryClient(nil, RetryConfig{})

	if client.client != http.DefaultClient {
		t.Error("expected http.DefaultClient when nil is passed")
	}
	if client.config.MaxRetries != 3 {
		t.Errorf("expected MaxRetries 3, got %d", client.config.MaxRetries)
	}
	if client.config.RetryTooManyRequests {
		t.Error("zero config should not retry 429")
	}
}
