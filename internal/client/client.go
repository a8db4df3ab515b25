// Package client uploads PDFs to the remote table-extraction service.
//
// The client is deliberately thin: one multipart POST per upload, bounded by
// a timeout and a maximum response size. It returns the raw response body;
// decoding is the job of package extract.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single extraction request.
const DefaultTimeout = 2 * time.Minute

// DefaultMaxResponseSize caps how much of a response body is read.
const DefaultMaxResponseSize int64 = 32 << 20

// FormField is the multipart field name the service reads the PDF from.
const FormField = "file"

// ErrResponseTooLarge is returned when the service response exceeds the
// configured maximum size.
var ErrResponseTooLarge = errors.New("extraction response too large")

// Client posts PDFs to the extraction endpoint.
type Client struct {
	endpoint        string
	httpClient      *http.Client
	maxResponseSize int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithMaxResponseSize caps the response body size.
func WithMaxResponseSize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResponseSize = n
		}
	}
}

// New creates a client for the given extraction endpoint URL.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:        endpoint,
		httpClient:      &http.Client{Timeout: DefaultTimeout},
		maxResponseSize: DefaultMaxResponseSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the configured extraction URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Upload sends the PDF as multipart form data and returns the response body.
// Network failures and non-2xx responses are reported as *TransportError.
func (c *Client) Upload(ctx context.Context, filename string, pdf []byte) ([]byte, error) {
	start := time.Now()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(FormField, filename)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(pdf); err != nil {
		return nil, fmt.Errorf("writing form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("extraction request failed",
			slog.String("file", filename),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}
	if int64(len(data)) > c.maxResponseSize {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: ErrResponseTooLarge}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Debug("extraction request returned error",
			slog.String("file", filename),
			slog.Int("status", resp.StatusCode),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, &TransportError{StatusCode: resp.StatusCode, Detail: parseDetail(data)}
	}

	slog.Debug("extraction request completed",
		slog.String("file", filename),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(data)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return data, nil
}

// errorBody is the error payload the service sends: FastAPI's "detail", or
// an older "error" string.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  string          `json:"error"`
}

// parseDetail extracts a user-facing detail string from an error body.
// Structured (non-string) details are ignored.
func parseDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	var detail string
	if len(eb.Detail) > 0 && json.Unmarshal(eb.Detail, &detail) == nil && detail != "" {
		return detail
	}
	return eb.Error
}
