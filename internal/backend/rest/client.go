package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/quijoterun/tracker/internal/backend"
)

// Client speaks the table and auth HTTP APIs of the backend
type Client struct {
	baseURL    string
	apiKey     string
	configured bool
	httpClient *http.Client
}

// Ensure Client implements both halves of the backend contract
var (
	_ backend.Tables        = (*Client)(nil)
	_ backend.AuthTransport = (*Client)(nil)
)

// New creates a Client. An unconfigured Client points at PlaceholderURL and
// fails every call with backend.ErrNotConfigured.
func New(cfg Config) *Client {
	baseURL := cfg.URL
	if !cfg.IsConfigured() {
		baseURL = PlaceholderURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     cfg.APIKey,
		configured: cfg.IsConfigured(),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether the client points at a real backend
func (c *Client) Configured() bool {
	return c.configured
}

// BaseURL returns the URL requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	bearer string
	prefer string
}

// errorBody covers the error shapes of both the table and the auth API
type errorBody struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e errorBody) toError(status int) *backend.Error {
	out := &backend.Error{Status: status}

	switch {
	case e.ErrorDescription != "":
		out.Message = e.ErrorDescription
	case e.Message != "":
		out.Message = e.Message
	case e.Msg != "":
		out.Message = e.Msg
	case e.Error != "":
		out.Message = e.Error
	default:
		out.Message = http.StatusText(status)
	}

	switch code := e.Code.(type) {
	case string:
		out.Code = code
	case float64:
		out.Code = fmt.Sprintf("%d", int(code))
	}
	if e.ErrorCode != "" {
		out.Code = e.ErrorCode
	} else if out.Code == "" && e.Error != "" && e.ErrorDescription != "" {
		out.Code = e.Error
	}
	return out
}

// do performs an HTTP request and decodes the JSON response into result
func (c *Client) do(ctx context.Context, r request, result any) error {
	if !c.configured {
		return backend.ErrNotConfigured
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var bodyReader io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.apiKey)

	bearer := r.bearer
	if bearer == "" {
		bearer = c.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	if r.prefer != "" {
		req.Header.Set("Prefer", r.prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp errorBody
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			return errResp.toError(resp.StatusCode)
		}
		return &backend.Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}
