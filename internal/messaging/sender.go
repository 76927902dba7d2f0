package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout   = 10 * time.Second
	maxResponseBytes = 64 << 10
)

// Response is what the provider answered for one send. StatusCode is
// informational: callers record it whether or not it signals success.
type Response struct {
	StatusCode int            `json:"status_code"`
	Body       map[string]any `json:"body,omitempty"`
}

// OK reports whether the provider accepted the message.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Sender delivers one SMS. An error means the call itself failed (network,
// timeout, unreadable response); provider rejections come back as a
// Response with a non-2xx status.
type Sender interface {
	Send(ctx context.Context, from, to, text string) (Response, error)
}

func validateSend(from, to, text string) error {
	if strings.TrimSpace(from) == "" {
		return errors.New("messaging: from required")
	}
	if strings.TrimSpace(to) == "" {
		return errors.New("messaging: to required")
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("messaging: body required")
	}
	return nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func jsonRequest(ctx context.Context, endpoint string, payload any) (*http.Request, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("messaging: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("messaging: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do executes req once and decodes the response body. No retries: each
// message is attempted at most once.
func do(client *http.Client, req *http.Request) (Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("messaging: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{StatusCode: resp.StatusCode}, fmt.Errorf("messaging: read response: %w", err)
	}
	return Response{StatusCode: resp.StatusCode, Body: decodeBody(body)}, nil
}

// decodeBody parses a JSON object. Other JSON values are wrapped under
// "data" and non-JSON text under "raw".
func decodeBody(body []byte) map[string]any {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err == nil {
		return obj
	}
	var value any
	if err := json.Unmarshal(trimmed, &value); err == nil {
		return map[string]any{"data": value}
	}
	return map[string]any{"raw": string(trimmed)}
}
