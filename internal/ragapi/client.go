// ABOUTME: HTTP client for the RAG backend query API.
// ABOUTME: JSON over POST /api/query, POST /api/clarify, GET /api/conversation/{id}, GET /health.

package ragapi

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
)

// Client is the query surface the chat controller depends on.
type Client interface {
	SendQuery(ctx context.Context, prompt, conversationID, pdfPath string) (*QueryResponse, error)
	SendClarification(ctx context.Context, conversationID string, subAnswerIndex int, answer string) (*QueryResponse, error)
}

// APIError is a non-2xx response from the backend. The message is the
// backend's error detail when it sent one, otherwise the raw body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return e.Message
}

// HTTPClient talks to the backend over HTTP with JSON bodies.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithToken sets a Bearer token attached to every request.
func WithToken(token string) Option {
	return func(c *HTTPClient) { c.token = token }
}

// WithTimeout sets the per-request timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.httpClient.Timeout = d }
}

// NewHTTPClient creates a client for the backend at baseURL
// (e.g. "http://localhost:8090").
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendQuery runs the RAG pipeline for a prompt. conversationID and pdfPath
// may be empty; the backend mints a conversation id when none is given.
func (c *HTTPClient) SendQuery(ctx context.Context, prompt, conversationID, pdfPath string) (*QueryResponse, error) {
	req := QueryRequest{
		Prompt:         prompt,
		ConversationID: conversationID,
		PDFPath:        pdfPath,
	}
	var resp QueryResponse
	if err := c.postJSON(ctx, "/api/query", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendClarification answers a pending clarification for one sub-query.
func (c *HTTPClient) SendClarification(ctx context.Context, conversationID string, subAnswerIndex int, answer string) (*QueryResponse, error) {
	req := ClarificationRequest{
		ConversationID:   conversationID,
		ClarificationFor: subAnswerIndex,
		Answer:           answer,
	}
	var resp QueryResponse
	if err := c.postJSON(ctx, "/api/clarify", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetConversation retrieves server-side conversation state.
func (c *HTTPClient) GetConversation(ctx context.Context, conversationID string) (*ConversationEntry, error) {
	u := c.baseURL + "/api/conversation/" + url.PathEscape(conversationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	var entry ConversationEntry
	if err := c.do(req, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Health checks the backend health endpoint.
func (c *HTTPClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, nil)
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    extractErrorMessage(resp.Body),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// extractErrorMessage pulls the error text out of a backend error body.
// The backend reports errors as {"detail": "..."}; local dev builds also
// use {"error": "..."}. Falls back to the raw body text.
func extractErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err == nil {
		if detail, ok := fields["detail"].(string); ok && detail != "" {
			return detail
		}
		if msg, ok := fields["error"].(string); ok && msg != "" {
			return msg
		}
	}
	return strings.TrimSpace(string(data))
}
