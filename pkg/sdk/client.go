package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Client wraps calls to the sourcing backend
type Client struct {
	baseURL    string
	apiKey     string
	userID     uint
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// WithUserID returns a copy of the client that acts on behalf of the given user
func (c *Client) WithUserID(id uint) *Client {
	clone := *c
	clone.userID = id
	return &clone
}

// WithHTTPClient returns a copy of the client using the given HTTP client
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	clone := *c
	clone.httpClient = client
	return &clone
}

// APIError is a non-2xx answer from the backend
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Code       string // Domain error code, may be empty
	Message    string
	Detail     string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("[BACKEND]: backend '%s %s' failed: %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// do sends a request and returns the successful response
func (c *Client) do(ctx context.Context, method, path string, in any) (*http.Response, error) {
	// Create request body if input is provided
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewBuffer(b)
	}

	// Create the request
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)
	if c.userID != 0 {
		req.Header.Set("X-User-ID", strconv.FormatUint(uint64(c.userID), 10))
	}

	// Perform the request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, decodeError(method, path, resp)
	}

	return resp, nil
}

// doJSON is a helper to perform JSON requests to the backend
func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any) error {
	resp, err := c.do(ctx, method, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// If no output expected, return early
	if out == nil {
		return nil
	}

	// Decode the response body into the output struct
	dec := json.NewDecoder(resp.Body)
	return dec.Decode(out)
}

// decodeError reads the error envelope, falling back to the raw body
func decodeError(method, path string, resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)

	apiErr := &APIError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Message:    string(b),
	}

	var envelope ApiResponse[any]
	if err := json.Unmarshal(b, &envelope); err == nil && envelope.Message != "" {
		apiErr.Message = envelope.Message
		apiErr.Code = envelope.ErrorCode
		if detail, ok := envelope.Error.(string); ok {
			apiErr.Detail = detail
		}
	}

	return apiErr
}
