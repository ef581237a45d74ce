package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/williamn/expense-assistant/pkg/retry"
	"github.com/williamn/expense-assistant/pkg/tracing"
)

// Client talks to the agent engine over HTTP
type Client struct {
	agentURL   string
	apiKey     string
	appName    string
	httpClient *http.Client
	retryCfg   retry.Config
}

// NewClient creates a new engine client
func NewClient(agentURL, appName string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		agentURL:   agentURL,
		appName:    appName,
		httpClient: &http.Client{Timeout: timeout},
		retryCfg:   retry.DefaultConfig(),
	}
}

// SetAPIKey sets the bearer token for engine requests
func (c *Client) SetAPIKey(apiKey string) {
	c.apiKey = apiKey
}

// SetRetryConfig overrides the default retry behavior
func (c *Client) SetRetryConfig(cfg retry.Config) {
	c.retryCfg = cfg
}

// engineRequest is the payload the engine expects for one turn
type engineRequest struct {
	AppName    string  `json:"app_name"`
	UserID     string  `json:"user_id"`
	SessionID  string  `json:"session_id"`
	NewMessage Content `json:"new_message"`
}

// engineResponse carries the engine's markdown reply
type engineResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Send delivers one user turn to the engine and returns the raw markdown
// reply. Transient failures are retried with exponential backoff.
func (c *Client) Send(ctx context.Context, userID, sessionID string, content Content) (string, error) {
	payload := engineRequest{
		AppName:    c.appName,
		UserID:     userID,
		SessionID:  sessionID,
		NewMessage: content,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal engine request: %w", err)
	}

	var reply string
	err = retry.Do(ctx, c.retryCfg, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.agentURL, bytes.NewReader(data))
		if reqErr != nil {
			return fmt.Errorf("failed to create request: %w", reqErr)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
		tracing.InjectHTTPHeaders(ctx, req)

		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return fmt.Errorf("failed to reach engine: %w", doErr)
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("failed to read engine response: %w", readErr)
		}

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("engine returned status %d: %s", resp.StatusCode, string(body))
		}

		var er engineResponse
		if jsonErr := json.Unmarshal(body, &er); jsonErr != nil {
			return fmt.Errorf("failed to decode engine response: %w", jsonErr)
		}
		if er.Error != "" {
			return fmt.Errorf("engine error: %s", er.Error)
		}

		reply = er.Response
		return nil
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}
