// Package api is the HTTP client for the phone-agent backend. The chat
// submission returns the raw NDJSON response body for the caller to stream;
// everything else is plain request/response JSON.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/autoglm/tui-go/internal/model"
)

// DefaultServerURL is where the backend listens when started locally.
const DefaultServerURL = "http://127.0.0.1:8000"

// Client talks to the backend over HTTP. Control calls carry a short
// timeout; the chat stream uses a dedicated client with no timeout because
// the backend alone decides when a task's stream ends.
type Client struct {
	baseURL   string
	control   *http.Client
	streaming *http.Client
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultServerURL
	}
	return &Client{
		baseURL:   baseURL,
		control:   &http.Client{Timeout: 10 * time.Second},
		streaming: &http.Client{},
	}
}

// SubmitTask starts a task and returns the chunked NDJSON response body.
// The caller owns the stream and must close it.
func (c *Client) SubmitTask(ctx context.Context, req model.TaskRequest) (io.ReadCloser, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal task request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.streaming.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("submit task: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("submit task: HTTP %d: %s", resp.StatusCode, string(data))
	}
	return resp.Body, nil
}

// RunStatus fetches the authoritative running/stopping snapshot.
func (c *Client) RunStatus(ctx context.Context) (model.RunStatus, error) {
	var rs model.RunStatus
	if err := c.getJSON(ctx, "/api/status", &rs); err != nil {
		return model.RunStatus{}, err
	}
	return rs, nil
}

// Stop asks the backend to cancel the running task. The call only delivers
// the signal; its effect shows up in subsequent RunStatus polls.
func (c *Client) Stop(ctx context.Context) error {
	var reply statusReply
	return c.doJSON(ctx, http.MethodPost, "/api/stop", nil, &reply)
}

// History fetches the persisted transcript.
func (c *Client) History(ctx context.Context) (model.Transcript, error) {
	var reply historyReply
	if err := c.getJSON(ctx, "/api/history", &reply); err != nil {
		return nil, err
	}
	return reply.History, nil
}

// ClearHistory resets the persisted transcript and returns its new contents.
func (c *Client) ClearHistory(ctx context.Context) (model.Transcript, error) {
	var reply historyReply
	if err := c.doJSON(ctx, http.MethodDelete, "/api/history", nil, &reply); err != nil {
		return nil, err
	}
	return reply.History, nil
}

// Devices enumerates the device serials the backend can reach.
func (c *Client) Devices(ctx context.Context) ([]string, error) {
	var reply devicesReply
	if err := c.getJSON(ctx, "/api/devices", &reply); err != nil {
		return nil, err
	}
	if reply.Error != "" {
		return reply.Devices, fmt.Errorf("list devices: %s", reply.Error)
	}
	return reply.Devices, nil
}

// GetSettings fetches the backend's current agent settings.
func (c *Client) GetSettings(ctx context.Context) (Settings, error) {
	var s Settings
	if err := c.getJSON(ctx, "/api/settings", &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// UpdateSettings pushes new agent settings; the backend re-initializes the
// agent from them.
func (c *Client) UpdateSettings(ctx context.Context, s Settings) error {
	var reply statusReply
	if err := c.doJSON(ctx, http.MethodPost, "/api/settings", s, &reply); err != nil {
		return err
	}
	if reply.Status == "error" {
		return fmt.Errorf("update settings: %s", reply.Message)
	}
	return nil
}

// LogsURL returns the websocket endpoint for the live log tail.
func (c *Client) LogsURL() string {
	url := c.baseURL
	switch {
	case len(url) > 8 && url[:8] == "https://":
		url = "wss://" + url[8:]
	case len(url) > 7 && url[:7] == "http://":
		url = "ws://" + url[7:]
	}
	return url + "/ws/logs"
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

// doJSON executes a control-plane request and decodes the JSON response.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.control.Do(httpReq)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
