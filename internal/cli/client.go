package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperjump/chatsearch/internal/models"
)

// apiClient talks to a running chatsearch server, so CLI commands can be used while the server
// holds the store.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Minute},
	}
}

type apiError struct {
	Error    string `json:"error"`
	Category string `json:"category"`
}

func (c *apiClient) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var e apiError
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return fmt.Errorf("server returned %d (%s): %s", resp.StatusCode, e.Category, e.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *apiClient) Search(ctx context.Context, req *models.SearchRequest) ([]*models.SearchResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var results []*models.SearchResult
	if err := c.do(ctx, http.MethodPost, "/search", body, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *apiClient) Index(ctx context.Context, archive []byte) (*models.IndexResult, error) {
	var result models.IndexResult
	if err := c.do(ctx, http.MethodPost, "/index", archive, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *apiClient) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/index", nil, nil)
}

func (c *apiClient) Conversation(ctx context.Context, id string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/conversations/"+url.PathEscape(id), nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *apiClient) Status(ctx context.Context) (*statusReport, error) {
	var status statusReport
	if err := c.do(ctx, http.MethodGet, "/health", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
