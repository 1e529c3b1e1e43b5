// Package unicrew provides a Go client for the UniCrew REST API.
//
// The package centres on a Session, which owns the authenticated state
// (token pair, current user, proactive refresh) and hands out typed service
// clients for the resource endpoints (teams, users, tasks, notifications,
// catalogs). All requests flow through a shared interceptor chain that
// injects bearer credentials and transparently resolves expired access
// tokens with a single-flight refresh.
package unicrew

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/proxy"
)

const (
	// DefaultTimeout bounds general API calls.
	DefaultTimeout = 10 * time.Second
	// ListTimeout bounds list and search endpoints, which the backend serves
	// noticeably slower than single-object reads.
	ListTimeout = 30 * time.Second
)

// DefaultBaseURL is the fallback when no base URL is configured at all.
const DefaultBaseURL = "http://127.0.0.1:8000/api/"

// Client issues JSON requests against one UniCrew API base URL. It carries a
// mutable default bearer token; the interceptor chain installed by a Session
// attaches it to outgoing requests and reacts to authentication failures.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	timeout     time.Duration
	listTimeout time.Duration

	mu           sync.RWMutex
	defaultToken string
}

// ClientOption customizes a Client at construction time.
type ClientOption func(*Client)

// WithTimeout overrides the default per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithListTimeout overrides the timeout applied to list/search requests.
func WithListTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.listTimeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. The interceptor chain
// wraps whatever transport the replacement carries.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithProxy routes requests through an HTTP, HTTPS or SOCKS5 proxy.
// Invalid proxy URLs leave the direct transport in place.
func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) {
		transport := proxyTransport(proxyURL)
		if transport != nil {
			c.httpClient.Transport = transport
		}
	}
}

// NewClient creates a client for the given base URL. The URL is normalized to
// end with a single trailing slash so relative endpoint paths join cleanly.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     NormalizeBaseURL(baseURL),
		timeout:     DefaultTimeout,
		listTimeout: ListTimeout,
		httpClient:  &http.Client{Transport: http.DefaultTransport},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeBaseURL trims whitespace and guarantees a single trailing slash.
// An empty input falls back to DefaultBaseURL.
func NormalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return strings.TrimRight(baseURL, "/") + "/"
}

// BaseURL returns the normalized base URL this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetAuthToken sets the default bearer attached to outgoing requests.
// An empty token removes the header entirely; no blank header is left behind.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	c.defaultToken = strings.TrimSpace(token)
	c.mu.Unlock()
}

func (c *Client) authToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultToken
}

// attachInterceptors installs the auth interceptor chain around the current
// transport. creds controls whether the session bearer is attached to
// outgoing requests; the 401 refresh-and-retry reaction applies either way.
func (c *Client) attachInterceptors(r refresher, creds bool) {
	base := c.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.httpClient.Transport = &authTransport{base: base, client: c, refresher: r, creds: creds}
}

// requestOptions carries per-request knobs.
type requestOptions struct {
	bearer  string
	hasAuth bool
	list    bool
}

// RequestOption customizes a single request.
type RequestOption func(*requestOptions)

// WithBearer pins an explicit Authorization bearer for one request, taking
// precedence over the client-wide default. Useful right after obtaining a
// fresh token, before the default header has been updated.
func WithBearer(token string) RequestOption {
	return func(o *requestOptions) {
		o.bearer = strings.TrimSpace(token)
		o.hasAuth = true
	}
}

// asList marks the request as a list/search call, which Do bounds with the
// client's list timeout instead of the general one.
func asList() RequestOption {
	return func(o *requestOptions) {
		o.list = true
	}
}

// Do issues a request against the given endpoint path (relative to the base
// URL) and returns the raw response body. Non-2xx responses and transport
// failures are returned as *APIError.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) ([]byte, error) {
	options := requestOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	timeout := c.timeout
	if options.list {
		timeout = c.listTimeout
	}

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("unicrew client: marshal request body: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+strings.TrimPrefix(path, "/"), payload)
	if err != nil {
		return nil, fmt.Errorf("unicrew client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if options.hasAuth && options.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+options.bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}
	if resp.StatusCode >= 400 {
		return nil, statusError(resp.StatusCode, data)
	}
	return data, nil
}

func (c *Client) get(ctx context.Context, path string, opts ...RequestOption) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, path, nil, opts...)
}

func (c *Client) post(ctx context.Context, path string, body any, opts ...RequestOption) ([]byte, error) {
	return c.Do(ctx, http.MethodPost, path, body, opts...)
}

func (c *Client) put(ctx context.Context, path string, body any, opts ...RequestOption) ([]byte, error) {
	return c.Do(ctx, http.MethodPut, path, body, opts...)
}

func (c *Client) delete(ctx context.Context, path string, opts ...RequestOption) ([]byte, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, opts...)
}

// patchRaw sends a pre-encoded JSON document, used by call sites that build
// partial update bodies dynamically.
func (c *Client) patchRaw(ctx context.Context, path string, raw []byte, opts ...RequestOption) ([]byte, error) {
	return c.Do(ctx, http.MethodPatch, path, json.RawMessage(raw), opts...)
}

// jsonRaw passes a pre-encoded JSON document through Do unchanged.
func jsonRaw(raw []byte) json.RawMessage {
	return json.RawMessage(raw)
}

// doJSON issues a request and unmarshals the response body into T.
func doJSON[T any](ctx context.Context, c *Client, method, path string, body any, opts ...RequestOption) (T, error) {
	var out T
	data, err := c.Do(ctx, method, path, body, opts...)
	if err != nil {
		return out, err
	}
	if len(data) == 0 {
		return out, nil
	}
	if err = json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("unicrew client: decode %s %s response: %w", method, path, err)
	}
	return out, nil
}

// getJSON fetches a path and unmarshals the JSON response into T.
func getJSON[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (T, error) {
	return doJSON[T](ctx, c, http.MethodGet, path, nil, opts...)
}

// postJSON posts a JSON body and unmarshals the response into T.
func postJSON[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (T, error) {
	return doJSON[T](ctx, c, http.MethodPost, path, body, opts...)
}

// withQuery appends encoded query parameters to an endpoint path.
func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// proxyTransport builds a transport for the given proxy URL, supporting
// http, https and socks5 schemes.
func proxyTransport(proxyURL string) http.RoundTripper {
	proxyURL = strings.TrimSpace(proxyURL)
	if proxyURL == "" {
		return nil
	}
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return nil
	}
	switch parsed.Scheme {
	case "socks5":
		username := parsed.User.Username()
		password, _ := parsed.User.Password()
		var auth *proxy.Auth
		if username != "" {
			auth = &proxy.Auth{User: username, Password: password}
		}
		dialer, errSOCKS5 := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
		if errSOCKS5 != nil {
			return nil
		}
		return &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			},
		}
	case "http", "https":
		return &http.Transport{Proxy: http.ProxyURL(parsed)}
	default:
		return nil
	}
}
