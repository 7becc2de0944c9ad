package gemini

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	sseDataPrefix = "data: "
	sseDoneFrame  = "[DONE]"
)

// Stream yields incremental text fragments from a streaming generation
// call. Recv returns io.EOF after the terminal frame or when the
// upstream closes the connection.
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

type streamFrame struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// GenerateStream opens a streaming variant of Generate. The caller must
// Close the stream when finished.
func (c *Client) GenerateStream(ctx context.Context, req Request) (*Stream, error) {
	data, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.send(ctx, c.endpoint("streamGenerateContent"), data)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, string(body))
	}

	return newStream(resp.Body), nil
}

func newStream(body io.ReadCloser) *Stream {
	return &Stream{
		body:    body,
		scanner: bufio.NewScanner(body),
	}
}

// Recv returns the next text fragment. Frames that are not valid JSON
// are skipped rather than surfaced; a frame carrying an error field
// terminates the stream with an upstream error.
func (s *Stream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}

	for s.scanner.Scan() {
		line := strings.TrimRight(s.scanner.Text(), "\r")
		if !strings.HasPrefix(line, sseDataPrefix) {
			continue
		}
		payload := strings.TrimPrefix(line, sseDataPrefix)

		if payload == sseDoneFrame {
			s.done = true
			return "", io.EOF
		}

		var frame streamFrame
		if err := json.Unmarshal([]byte(payload), &frame); err != nil {
			continue
		}
		if frame.Error != "" {
			s.done = true
			return "", fmt.Errorf("%w: %s", ErrUpstream, frame.Error)
		}
		if frame.Text == "" {
			continue
		}
		return frame.Text, nil
	}

	s.done = true
	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("%w: read stream: %v", ErrUpstream, err)
	}
	return "", io.EOF
}

func (s *Stream) Close() error {
	s.done = true
	return s.body.Close()
}
