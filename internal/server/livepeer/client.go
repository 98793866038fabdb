// Package livepeer is a thin typed client for the streaming provider's REST
// API. It reports failures as sentinel error kinds so callers never have to
// classify provider errors by message text.
package livepeer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

var (
	ErrStreamNotFound = errors.New("livepeer: stream not found")
	ErrUnauthorized   = errors.New("livepeer: unauthorized")
	ErrUnavailable    = errors.New("livepeer: service unavailable")
)

const requestTimeout = 10 * time.Second

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// do issues one request and decodes the response into out (when non-nil).
// Transport failures and 5xx responses are retried with fibonacci backoff
// before surfacing ErrUnavailable.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("livepeer: encode request: %w", err)
		}
	}

	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(200*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("%w: %v", ErrUnavailable, err))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return ErrStreamNotFound
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return ErrUnauthorized
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode))
		case resp.StatusCode >= 400:
			return fmt.Errorf("livepeer: unexpected status %d", resp.StatusCode)
		}

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("livepeer: decode response: %w", err)
		}
		return nil
	})
}

// CreateStream provisions a stream resource named after the broadcast title.
func (c *Client) CreateStream(ctx context.Context, name string) (*Stream, error) {
	req := map[string]any{"name": name, "record": true}
	s := &Stream{}
	if err := c.do(ctx, http.MethodPost, "/stream", req, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Client) GetStream(ctx context.Context, id string) (*Stream, error) {
	s := &Stream{}
	if err := c.do(ctx, http.MethodGet, "/stream/"+id, nil, s); err != nil {
		return nil, err
	}
	return s, nil
}

// UpdateStream renames the remote stream and toggles recording.
func (c *Client) UpdateStream(ctx context.Context, id, name string, record bool) error {
	req := map[string]any{"name": name, "record": record}
	return c.do(ctx, http.MethodPatch, "/stream/"+id, req, nil)
}

func (c *Client) DeleteStream(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/stream/"+id, nil, nil)
}

// Health reports ingest health for a stream.
func (c *Client) Health(ctx context.Context, id string) (*HealthStatus, error) {
	h := &HealthStatus{}
	if err := c.do(ctx, http.MethodGet, "/stream/"+id+"/health", nil, h); err != nil {
		return nil, err
	}
	return h, nil
}

// Playback resolves CDN playback sources for a playback id.
func (c *Client) Playback(ctx context.Context, playbackID string) (*PlaybackInfo, error) {
	var raw struct {
		Type string `json:"type"`
		Meta struct {
			Live    int              `json:"live"`
			Sources []PlaybackSource `json:"source"`
		} `json:"meta"`
	}
	if err := c.do(ctx, http.MethodGet, "/playback/"+playbackID, nil, &raw); err != nil {
		return nil, err
	}
	return &PlaybackInfo{
		PlaybackID: playbackID,
		Live:       raw.Meta.Live == 1,
		Sources:    raw.Meta.Sources,
	}, nil
}
