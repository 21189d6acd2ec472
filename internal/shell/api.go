package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/engage-labs/engage-social/internal/core/domain"
	"github.com/engage-labs/engage-social/internal/core/ports/driving"
)

// APIClient talks to the backend's social endpoints with a bearer
// token.
type APIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewAPIClient creates a client for the given backend base URL.
func NewAPIClient(baseURL, token string) *APIClient {
	return &APIClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken replaces the bearer token after a login or refresh.
func (c *APIClient) SetToken(token string) {
	c.token = token
}

// Authorize starts the OAuth flow for a platform.
func (c *APIClient) Authorize(ctx context.Context, platform domain.Platform) (*driving.AuthorizeResponse, error) {
	var resp driving.AuthorizeResponse
	if err := c.do(ctx, "POST", "/"+string(platform)+"-auth", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Sync imports the platform's recent content.
func (c *APIClient) Sync(ctx context.Context, platform domain.Platform) (*domain.SyncResult, error) {
	var result domain.SyncResult
	if err := c.do(ctx, "POST", "/"+string(platform)+"-sync", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Disconnect removes the platform connection.
func (c *APIClient) Disconnect(ctx context.Context, platform domain.Platform) error {
	body := map[string]string{"platform": string(platform)}
	return c.do(ctx, "POST", "/social-disconnect", body, nil)
}

// Connections lists the user's platform connections.
func (c *APIClient) Connections(ctx context.Context) ([]*domain.ConnectionSummary, error) {
	var summaries []*domain.ConnectionSummary
	if err := c.do(ctx, "GET", "/api/v1/connections", nil, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// APIError carries the backend's status code and error message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &errBody)
		if errBody.Error == "" {
			errBody.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
