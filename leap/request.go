package leap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"
)

// APIError represents a non-2xx response from a Leap node.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("leap api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a transport retry.
// Chain-level assertion failures come back as 500 but retrying those is
// the transaction layer's call, not the transport's.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == 429 || e.StatusCode == 502 || e.StatusCode == 503
}

// ChainError is the structured error a node attaches to rejected requests.
type ChainError struct {
	Code    int64           `json:"code"`
	Name    string          `json:"name"`
	What    string          `json:"what"`
	Details json.RawMessage `json:"details"`
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("chain error %d (%s): %s", e.Code, e.Name, e.What)
}

type errorEnvelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Error   *ChainError `json:"error"`
}

// chainErrorFrom extracts a ChainError from a response body, nil if the
// body carries none.
func chainErrorFrom(body []byte) *ChainError {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil
	}
	if env.Error != nil && (env.Error.Code != 0 || env.Error.Name != "") {
		return env.Error
	}
	return nil
}

// doRequest performs a single HTTP request against the given base URL.
// Every Leap API call is a POST with a JSON body except get_info.
func (c *Client) doRequest(ctx context.Context, baseURL, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		if chainErr := chainErrorFrom(respBody); chainErr != nil {
			return nil, chainErr
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       respBody,
		}
	}

	return respBody, nil
}

// doWithRetry performs a request with jittered exponential backoff on
// transport-level failures.
func (c *Client) doWithRetry(ctx context.Context, baseURL, method, path string, payload any) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			jitter := backoff/2 + time.Duration(rand.Int63n(int64(backoff)))
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"backoff", jitter,
				"path", path,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
		}

		body, err := c.doRequest(ctx, baseURL, method, path, payload)
		if err == nil {
			return body, nil
		}

		lastErr = err

		if apiErr, ok := err.(*APIError); ok && apiErr.IsRetryable() {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// post performs a POST against the node and unmarshals the response.
func (c *Client) post(ctx context.Context, path string, payload, result any) error {
	return c.postTo(ctx, c.url, path, payload, result)
}

// postTo performs a POST against an explicit endpoint, used for remote
// verification calls.
func (c *Client) postTo(ctx context.Context, baseURL, path string, payload, result any) error {
	body, err := c.doWithRetry(ctx, baseURL, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// get performs a GET against the node and unmarshals the response.
func (c *Client) get(ctx context.Context, path string, result any) error {
	body, err := c.doWithRetry(ctx, c.url, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
