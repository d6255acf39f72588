package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// TokenSource provides the bearer token and clears it on a 401.
type TokenSource interface {
	Token() (string, error)
	ClearToken() (bool, error)
}

// Config holds client configuration
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	Transport http.RoundTripper

	// OnUnauthorized is called once when a 401 clears a stored token.
	OnUnauthorized func()
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8000",
		Timeout: 2 * time.Minute,
	}
}

// Client sends requests to the tutor backend. No other package talks to it.
type Client struct {
	baseURL        *url.URL
	httpClient     *http.Client
	tokens         TokenSource
	onUnauthorized func()
}

// New creates a client for cfg.BaseURL reading tokens from tokens.
func New(cfg Config, tokens TokenSource) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", cfg.BaseURL)
	}

	if tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &Client{
		baseURL:        u,
		httpClient:     &http.Client{Timeout: cfg.Timeout, Transport: transport},
		tokens:         tokens,
		onUnauthorized: cfg.OnUnauthorized,
	}, nil
}

// BaseURL returns the backend the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Body is an encoded request body.
type Body interface {
	ContentType() string
	Encode() (io.Reader, error)
}

type jsonBody struct{ v any }

// JSONBody encodes v as application/json.
func JSONBody(v any) Body { return jsonBody{v: v} }

func (b jsonBody) ContentType() string { return "application/json" }

func (b jsonBody) Encode() (io.Reader, error) {
	data, err := json.Marshal(b.v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

type formBody struct{ values url.Values }

// FormBody encodes values as application/x-www-form-urlencoded.
func FormBody(values url.Values) Body { return formBody{values: values} }

func (b formBody) ContentType() string { return "application/x-www-form-urlencoded" }

func (b formBody) Encode() (io.Reader, error) {
	return strings.NewReader(b.values.Encode()), nil
}

type fileBody struct {
	field    string
	filename string
	content  io.Reader

	contentType string
}

// FileBody encodes content as a single multipart/form-data file part.
func FileBody(field, filename string, content io.Reader) Body {
	return &fileBody{field: field, filename: filename, content: content}
}

func (b *fileBody) ContentType() string { return b.contentType }

func (b *fileBody) Encode() (io.Reader, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(b.field, b.filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, b.content); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	b.contentType = w.FormDataContentType()
	return &buf, nil
}

// Request describes one call to the backend.
type Request struct {
	Method       string
	Path         string
	Query        url.Values
	Body         Body
	RequiresAuth bool
}

// Request sends body as JSON to path and returns the raw JSON response.
func (c *Client) Request(ctx context.Context, method, path string, body any, requiresAuth bool) (json.RawMessage, error) {
	req := Request{Method: method, Path: path, RequiresAuth: requiresAuth}
	if body != nil {
		req.Body = JSONBody(body)
	}

	var out json.RawMessage
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Do sends req and decodes a successful JSON response into out (which may be nil).
// Every failure is an *Error.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	var token string
	if req.RequiresAuth {
		t, err := c.tokens.Token()
		if err != nil {
			return &Error{Kind: KindAuthentication, Message: "failed to read stored token", Err: err}
		}
		if t == "" {
			return errUnauthenticated()
		}
		token = t
	}

	var body io.Reader
	if req.Body != nil {
		r, err := req.Body.Encode()
		if err != nil {
			return networkError("failed to encode request", err)
		}
		body = r
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.resolve(req.Path, req.Query), body)
	if err != nil {
		return networkError("failed to build request", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", req.Body.ContentType())
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return networkError("request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return networkError("failed to read response", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		apiErr := normalizeError(resp.StatusCode, data)
		if req.RequiresAuth {
			c.handleUnauthorized()
		}
		return apiErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return normalizeError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return networkError("failed to decode response", err)
	}

	return nil
}

// handleUnauthorized clears the stored token and fires the redirect hook if a
// token was actually removed.
func (c *Client) handleUnauthorized() {
	cleared, err := c.tokens.ClearToken()
	if err != nil {
		log.Error().Err(err).Msg("failed to clear token after 401")
		return
	}
	if !cleared {
		return
	}

	log.Debug().Msg("token rejected by server, cleared local session")

	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}
