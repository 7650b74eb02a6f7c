// Package sdk is a Go client for the swaapi HTTP endpoints.
package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client provides a high-level interface to the swaapi endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	principal  string
}

// ClientOptions configures SDK client construction.
type ClientOptions struct {
	HTTPClient *http.Client
	Principal  string
}

// ClientOption mutates ClientOptions.
type ClientOption func(*ClientOptions)

// WithHTTPClient overrides the HTTP client used for API calls. Supply one
// with a cookie jar to carry an emulator session.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *ClientOptions) {
		opts.HTTPClient = client
	}
}

// WithPrincipalHeader sends value as x-ms-client-principal on every call.
// Only a server in platform mode without a real gateway in front honours it,
// so this is meant for local testing.
func WithPrincipalHeader(value string) ClientOption {
	return func(opts *ClientOptions) {
		opts.Principal = value
	}
}

// NewClient creates a client for the server at baseURL.
// An http.Client is created automatically when one is not supplied.
func NewClient(baseURL string, optFns ...ClientOption) *Client {
	opts := ClientOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Client{
		httpClient: opts.HTTPClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		principal:  opts.Principal,
	}
}

// UserInfo fetches the caller's identity view. It succeeds for anonymous callers.
func (c *Client) UserInfo(ctx context.Context) (*UserInfo, error) {
	var out UserInfo
	if err := c.get(ctx, "/api/user-info", &out); err != nil {
		return nil, err
	}
	if out.Roles == nil {
		out.Roles = []string{}
	}
	return &out, nil
}

// ProtectedData fetches the generated record. It returns ErrUnauthorized
// for anonymous callers.
func (c *Client) ProtectedData(ctx context.Context) (*ProtectedData, error) {
	var out ProtectedData
	if err := c.get(ctx, "/api/protected-data", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me fetches the session probe. A nil ClientPrincipal means no session.
func (c *Client) Me(ctx context.Context) (*MeResponse, error) {
	var out MeResponse
	if err := c.get(ctx, "/.auth/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.principal != "" {
		req.Header.Set(PrincipalHeader, c.principal)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		apiErr := decodeAPIError(resp.StatusCode, body)
		return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = http.StatusText(status)
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

// IsUnauthorized reports whether err is an ErrUnauthorized.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
