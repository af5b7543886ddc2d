// Package client is the Go client for the gridtime API, used by the CLI.
// Transient failures are retried with exponential backoff here, in the
// shell; the server-side engine never retries.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gridtime/gridtime/pkg/ledger"
	"github.com/gridtime/gridtime/pkg/retry"
)

// Client manages communication with a gridtime daemon.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retryCfg   retry.Config
}

// NewClient creates a client for the daemon at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retryCfg: retry.DefaultConfig(),
	}
}

// APIError is a non-2xx response from the daemon, carrying the error kind
// the server used to classify it.
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status %d (%s): %s", e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("status %d", e.Status)
}

// StartTimer starts a timer for a document.
func (c *Client) StartTimer(ctx context.Context, docID, description string) (*ledger.StartResult, error) {
	var result ledger.StartResult
	body := map[string]string{"description": description}
	err := c.doWithRetry(ctx, http.MethodPost, c.timerPath(docID, "start"), body, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// StopTimer stops the running timer for a document. A non-empty endTime
// (RFC3339) overrides the server's default of now.
func (c *Client) StopTimer(ctx context.Context, docID, endTime string) (*ledger.StopResult, error) {
	var result ledger.StopResult
	body := map[string]string{}
	if endTime != "" {
		body["end_time"] = endTime
	}
	err := c.doWithRetry(ctx, http.MethodPost, c.timerPath(docID, "stop"), body, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// TimerStatus fetches the derived timer state for a document.
func (c *Client) TimerStatus(ctx context.Context, docID string) (*ledger.Status, error) {
	var status ledger.Status
	err := c.doWithRetry(ctx, http.MethodGet, c.timerPath(docID), nil, &status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) timerPath(docID string, parts ...string) string {
	p := c.baseURL + "/documents/" + url.PathEscape(docID) + "/timer"
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

func (c *Client) doWithRetry(ctx context.Context, method, url string, in, out interface{}) error {
	return retry.Do(ctx, c.retryCfg, func() error {
		return c.do(ctx, method, url, in, out)
	})
}

func (c *Client) do(ctx context.Context, method, url string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope struct {
			Error string `json:"error"`
			Kind  string `json:"kind"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &envelope) == nil && envelope.Error != "" {
			apiErr.Kind = envelope.Kind
			apiErr.Message = envelope.Error
		} else {
			apiErr.Message = string(data)
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
