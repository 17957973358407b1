// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

/*
client.go - CrewGrid API transport

Wraps every outbound HTTP call with credential attachment and uniform
response/error normalization. The transport holds no business state: it
reads the bearer token through a TokenSource, converts failures into the
typed error taxonomy, and broadcasts a signal on 401 responses so the
session store can react without the transport depending on it.
*/

package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/crewgrid/crewgrid/internal/logging"
	"github.com/crewgrid/crewgrid/internal/metrics"
)

// DefaultTimeout is the fixed request deadline applied when the config
// leaves it unset.
const DefaultTimeout = 60 * time.Second

// defaultLoginPath is the one path whose 401 responses do not trigger the
// unauthorized broadcast: a failed login must not cause a global logout.
const defaultLoginPath = "/auth/login"

// TokenSource supplies the persisted bearer token. The credential store
// implements it; tests substitute a literal.
type TokenSource interface {
	Token() (string, error)
}

// API is the request surface the session store and domain caches depend
// on. Client and BreakerClient both implement it.
type API interface {
	Send(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error)
}

// UnauthorizedNotifier registers listeners for the 401 broadcast.
type UnauthorizedNotifier interface {
	OnUnauthorized(fn func())
}

// Config holds transport configuration.
type Config struct {
	// BaseURL is the API root, e.g. https://api.example.com/api
	BaseURL string

	// Timeout is the fixed per-request deadline. Default: 60s
	Timeout time.Duration

	// RateLimit caps outbound requests per second. 0 disables limiting.
	RateLimit float64

	// RateBurst is the limiter burst size. Default: 5 when limiting.
	RateBurst int

	// LoginPath overrides the path exempt from the 401 broadcast.
	LoginPath string
}

// Client is the HTTP transport for the CrewGrid API.
type Client struct {
	baseURL    string
	loginPath  string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	deviceID   string
	log        zerolog.Logger

	mu           sync.RWMutex
	unauthorized []func()
}

var _ API = (*Client)(nil)
var _ UnauthorizedNotifier = (*Client)(nil)

// New creates a transport client. tokens may be nil, in which case all
// requests go out unauthenticated and the server decides rejection.
func New(cfg Config, tokens TokenSource) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = defaultLoginPath
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 5
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		loginPath:  cfg.LoginPath,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tokens:     tokens,
		limiter:    limiter,
		deviceID:   "crewgrid-" + uuid.NewString(),
		log:        logging.With().Str("component", "transport").Logger(),
	}
}

// OnUnauthorized registers a listener for the global unauthorized signal.
// Listeners fire once per 401 on a protected resource; 401s on the login
// path are surfaced to the caller only.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unauthorized = append(c.unauthorized, fn)
}

// RequestOption customizes one request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	contentType string
	rawBody     io.Reader
	query       url.Values
	noAuth      bool
}

// WithMultipart sends a prepared multipart body instead of JSON. The
// body is passed through unnormalized (binary-safe).
func WithMultipart(body io.Reader, contentType string) RequestOption {
	return func(o *requestOptions) {
		o.rawBody = body
		o.contentType = contentType
	}
}

// WithQuery appends query parameters to the request URL.
func WithQuery(q url.Values) RequestOption {
	return func(o *requestOptions) {
		o.query = q
	}
}

// WithoutAuth skips bearer attachment even when a token is persisted.
func WithoutAuth() RequestOption {
	return func(o *requestOptions) {
		o.noAuth = true
	}
}

// Send performs one API request. body is JSON-marshaled unless a
// multipart option overrides it; pass nil for bodyless requests.
//
// Every call fails explicitly: a non-2xx response or a network failure
// always yields an error from the transport taxonomy, never partial data.
func (c *Client) Send(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	options := requestOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{Op: method + " " + path, Err: err}
		}
	}

	req, err := c.buildRequest(ctx, method, path, body, &options)
	if err != nil {
		return nil, err
	}

	op := method + " " + path
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.TransportRequests.WithLabelValues(method, "error").Inc()
		if isTimeoutErr(err) {
			c.log.Warn().Str("op", op).Err(err).Msg("request timed out")
			return nil, &TimeoutError{Op: op, Err: err}
		}
		c.log.Warn().Str("op", op).Err(err).Msg("request failed before response")
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.TransportRequests.WithLabelValues(method, "error").Inc()
		return nil, &NetworkError{Op: op, Err: err}
	}

	metrics.TransportRequests.WithLabelValues(method, statusClass(resp.StatusCode)).Inc()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return c.buildResponse(resp, raw), nil
	}

	return nil, c.normalizeFailure(method, path, resp.StatusCode, raw)
}

// buildRequest assembles the outbound request with auth and identity
// headers attached.
func (c *Client) buildRequest(ctx context.Context, method, path string, body any, options *requestOptions) (*http.Request, error) {
	fullURL := c.baseURL + path
	if len(options.query) > 0 {
		fullURL += "?" + options.query.Encode()
	}

	var reader io.Reader = http.NoBody
	contentType := ""
	switch {
	case options.rawBody != nil:
		reader = options.rawBody
		contentType = options.contentType
	case body != nil:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &NetworkError{Op: method + " " + path, Err: err}
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, &NetworkError{Op: method + " " + path, Err: err}
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Client-Device-Id", c.deviceID)

	if !options.noAuth {
		if token := c.usableToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return req, nil
}

// usableToken returns the persisted token, or "" when none exists or the
// stored value is a serialization artifact ("null", "undefined").
func (c *Client) usableToken() string {
	if c.tokens == nil {
		return ""
	}
	token, err := c.tokens.Token()
	if err != nil {
		c.log.Debug().Err(err).Msg("token source read failed")
		return ""
	}
	if !UsableToken(token) {
		return ""
	}
	return token
}

// UsableToken reports whether a stored credential is a real token rather
// than an empty value or a serialization placeholder.
func UsableToken(token string) bool {
	switch token {
	case "", "null", "undefined":
		return false
	}
	return true
}

// buildResponse wraps a success response, injecting a server-issued
// credential from the response headers into the payload when the body
// does not already carry one. This lets any endpoint opportunistically
// refresh the session credential without each caller parsing headers.
func (c *Client) buildResponse(resp *http.Response, raw []byte) *Response {
	r := &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		body:   raw,
	}

	headerToken := credentialFromHeaders(resp.Header)
	if headerToken == "" {
		return r
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		// Non-object body (array, empty); keep the token reachable via Token().
		r.headerToken = headerToken
		return r
	}
	if _, ok := obj["token"]; ok {
		return r
	}
	if _, ok := obj["access_token"]; ok {
		return r
	}

	tokenJSON, err := json.Marshal(headerToken)
	if err != nil {
		return r
	}
	obj["token"] = tokenJSON
	if injected, err := json.Marshal(obj); err == nil {
		r.body = injected
	}
	r.headerToken = headerToken
	return r
}

// credentialFromHeaders extracts a server-issued bearer credential from
// either the standard Authorization header or the vendor x-auth-token
// header.
func credentialFromHeaders(h http.Header) string {
	if auth := h.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return token
		}
	}
	return h.Get("x-auth-token")
}

// normalizeFailure maps a non-2xx response onto the error taxonomy and
// emits the unauthorized broadcast where required.
func (c *Client) normalizeFailure(method, path string, status int, raw []byte) error {
	detail := decodeErrorBody(raw)

	switch {
	case status == http.StatusUnauthorized:
		if path != c.loginPath {
			c.broadcastUnauthorized()
		}
		return &AuthError{Message: detail.Message}
	case status >= 400 && status < 500:
		return &ValidationError{Status: status, Message: detail.Message, Fields: detail.Fields}
	default:
		return &ServerError{Status: status, Message: detail.Message}
	}
}

// broadcastUnauthorized notifies all registered listeners. Fire and
// forget: listener errors or panics are not the transport's concern, and
// the transport never learns who is listening.
func (c *Client) broadcastUnauthorized() {
	c.mu.RLock()
	listeners := make([]func(), len(c.unauthorized))
	copy(listeners, c.unauthorized)
	c.mu.RUnlock()

	c.log.Warn().Int("listeners", len(listeners)).Msg("broadcasting unauthorized signal")
	for _, fn := range listeners {
		fn()
	}
}

// errorBody is the server's error payload shape. The message field name
// drifts between endpoints; collect the common spellings.
type errorBody struct {
	Message string
	Fields  map[string]string
}

func decodeErrorBody(raw []byte) errorBody {
	var payload struct {
		Message string            `json:"message"`
		Error   string            `json:"error"`
		Detail  string            `json:"detail"`
		Errors  map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return errorBody{Message: strings.TrimSpace(string(raw))}
	}

	msg := payload.Message
	if msg == "" {
		msg = payload.Error
	}
	if msg == "" {
		msg = payload.Detail
	}
	return errorBody{Message: msg, Fields: payload.Errors}
}

// isTimeoutErr distinguishes deadline expiry from other request errors.
func isTimeoutErr(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// statusClass buckets a status code for metrics labels.
func statusClass(status int) string {
	switch {
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
