package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/jackzampolin/quire/internal/types"
)

const (
	// DefaultAttempts is how often a request is tried when the transport fails.
	DefaultAttempts = 3
	// DefaultRetryDelay is the base delay between attempts.
	DefaultRetryDelay = 500 * time.Millisecond
)

// Client is an HTTP client for the quire API.
// Transport failures are retried; HTTP error statuses are not.
type Client struct {
	baseURL    string
	httpClient *http.Client
	attempts   uint
	delay      time.Duration
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute, // Long timeout for large file operations
		},
		attempts: DefaultAttempts,
		delay:    DefaultRetryDelay,
	}
}

// WithRetry overrides the retry policy. attempts below 1 disables retries.
func (c *Client) WithRetry(attempts uint, delay time.Duration) *Client {
	if attempts < 1 {
		attempts = 1
	}
	c.attempts = attempts
	c.delay = delay
	return c
}

// Form is a multipart request carrying one file.
type Form struct {
	FileField string // defaults to "file"
	FileName  string
	File      []byte
	Fields    map[string]string
}

func (f Form) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	field := f.FileField
	if field == "" {
		field = "file"
	}
	part, err := mw.CreateFormFile(field, f.FileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(f.File); err != nil {
		return nil, "", err
	}
	for k, v := range f.Fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

// Get performs a GET request and decodes the JSON response.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, result)
}

// GetRaw performs a GET request and returns the response body.
func (c *Client) GetRaw(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if err := checkStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// PostForm uploads form and decodes the JSON response.
func (c *Client) PostForm(ctx context.Context, path string, form Form, result any) error {
	body, contentType, err := form.encode()
	if err != nil {
		return fmt.Errorf("failed to encode form: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, path, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, result)
}

// Download uploads form and returns the attachment the server responds with.
func (c *Client) Download(ctx context.Context, path string, form Form) (*types.Artifact, error) {
	body, contentType, err := form.encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode form: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, path, body, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if err := checkStatus(resp.StatusCode, data); err != nil {
		return nil, err
	}

	artifact := &types.Artifact{
		MediaType: resp.Header.Get("Content-Type"),
		Data:      data,
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		artifact.Name = attachmentName(params["filename"])
	}
	return artifact, nil
}

// attachmentName reduces a server-supplied file name to its last element.
// Names that still point at a directory come back empty.
func attachmentName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return ""
	}
	return name
}

// do sends a request, rebuilding it for every attempt so bodies can be replayed.
func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string) (*http.Response, error) {
	var resp *http.Response
	err := retry.Do(
		func() error {
			var r io.Reader
			if body != nil {
				r = bytes.NewReader(body)
			}
			req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
			}
			if contentType != "" {
				req.Header.Set("Content-Type", contentType)
			}
			resp, err = c.httpClient.Do(req)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func (c *Client) handleResponse(resp *http.Response, result any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := checkStatus(resp.StatusCode, body); err != nil {
		return err
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// StatusError is returned for HTTP error responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Code, e.Message)
}

func checkStatus(code int, body []byte) error {
	if code < 400 {
		return nil
	}
	var errResp ErrorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return &StatusError{Code: code, Message: errResp.Error}
	}
	return &StatusError{Code: code, Message: string(body)}
}

// ErrorResponse matches the server's error response format.
type ErrorResponse struct {
	Error string `json:"error"`
}
