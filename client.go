package sqlgate

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// DefaultBaseURL is the gateway endpoint used when no override is given.
const DefaultBaseURL = "https://gateway.sqlgate.localhost"

// Client is a connection to the SQL gateway for one set of credentials.
//
// A client owns exactly one gateway session. Calls on the same client are
// serialized: the session the gateway returns with each response replaces
// the one held here, so two interleaved requests would silently clobber each
// other's session state. Use separate clients for concurrent work.
type Client struct {
	username   string
	password   string
	baseURL    string
	httpClient *http.Client

	mu      sync.Mutex // serializes requests and guards session
	session *Session
}

// ClientOption represents a functional option for configuring the Client
type ClientOption func(*Client)

// WithBaseURL points the client at a different gateway endpoint
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient creates a gateway client for the given credentials
func NewClient(username, password string, options ...ClientOption) *Client {
	client := &Client{
		username:   username,
		password:   password,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// clone creates a fresh client with the same credentials and configuration
// and no session. Transactions run on clones so the parent's session is
// never disturbed.
func (c *Client) clone() *Client {
	return NewClient(c.username, c.password,
		WithBaseURL(c.baseURL),
		WithHTTPClient(c.httpClient),
	)
}

// GetBaseURL returns the client's base URL
func (c *Client) GetBaseURL() string {
	return c.baseURL
}

// Session returns the current gateway session, or nil if the client has not
// completed a request yet.
func (c *Client) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// post performs one gateway call: JSON body out, JSON envelope back into
// out. A non-2xx status or network failure is a transport error and leaves
// the caller's state untouched.
func (c *Client) post(ctx context.Context, path string, body any, headers map[string]string, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return NewErrorWithCause(ErrorTypeUnknown, "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return NewTransportError("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.username, c.password)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewTransportError("request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return WrapHTTPError(resp, "gateway request failed")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewErrorWithCause(ErrorTypeProtocol, "failed to parse gateway response", err)
	}
	return nil
}
