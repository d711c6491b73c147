// Package api is a typed client for the remote storefront services: users,
// products, cart and purchase history.
package api

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

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/abarrotes/storefront/internal/domain/cart"
	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/history"
	"github.com/abarrotes/storefront/internal/domain/identity"
	"github.com/abarrotes/storefront/internal/infrastructure/logger"
	"github.com/abarrotes/storefront/internal/infrastructure/telemetry"
)

const defaultMaxResponseSize = 10 * 1024 * 1024

// AuthStyle is how a service group expects the session token
type AuthStyle string

const (
	AuthRaw    AuthStyle = "raw"    // Authorization: <token>
	AuthBearer AuthStyle = "bearer" // Authorization: Bearer <token>
)

func (s AuthStyle) header(token string) string {
	if s == AuthBearer {
		return "Bearer " + token
	}
	return token
}

// Config configures the client. Every URL is a service base such as
// https://host/dev, to which endpoint paths are appended.
type Config struct {
	UsersURL         string
	ProductsURL      string
	ProductsAdminURL string
	CartURL          string
	HistoryURL       string

	ProductsAuth AuthStyle
	CartAuth     AuthStyle
	HistoryAuth  AuthStyle

	Timeout         time.Duration
	UserAgent       string
	MaxResponseSize int64

	// RateLimit caps outgoing requests per second; 0 disables the limiter
	RateLimit float64
	RateBurst int
}

// SingleHost returns a Config pointing every service group at baseURL with
// the default auth styles
func SingleHost(baseURL string) Config {
	baseURL = strings.TrimRight(baseURL, "/")
	return Config{
		UsersURL:         baseURL,
		ProductsURL:      baseURL,
		ProductsAdminURL: baseURL,
		CartURL:          baseURL,
		HistoryURL:       baseURL,
		ProductsAuth:     AuthBearer,
		CartAuth:         AuthRaw,
		HistoryAuth:      AuthBearer,
		Timeout:          10 * time.Second,
	}
}

// Client talks to the storefront services. It performs a single attempt
// per call; retrying is left to the shopper.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *telemetry.StorefrontMetrics
}

// Compile-time interface checks
var (
	_ identity.AuthGateway   = (*Client)(nil)
	_ catalog.ProductGateway = (*Client)(nil)
	_ cart.Gateway           = (*Client)(nil)
	_ history.Gateway        = (*Client)(nil)
)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the traced default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetrics records call durations
func WithMetrics(m *telemetry.StorefrontMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a client for the given service configuration
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.MaxResponseSize <= 0 {
		cfg.MaxResponseSize = defaultMaxResponseSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "storefront-client/1.0"
	}

	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateBurst, 1))
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request describes one call to a storefront endpoint
type request struct {
	method string
	base   string
	path   string
	query  url.Values
	body   any

	token string
	auth  AuthStyle
}

func (r request) endpoint() string {
	return r.method + " " + r.path
}

// do performs the request and returns the response body of a 2xx response.
// Non-2xx responses become *APIError; transport failures wrap ErrUnavailable.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	ctx, span := telemetry.StartSpan(ctx, "storefront.api "+r.endpoint(),
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrEndpoint, r.path),
	)
	defer span.End()

	body, status, err := c.roundTrip(ctx, r)
	if err != nil {
		telemetry.RecordError(span, err)
		logger.L(ctx).Warn("Storefront API call failed",
			zap.String("endpoint", r.endpoint()),
			zap.Int("status", status),
			zap.Error(err),
		)
		return nil, err
	}
	telemetry.SetOK(span)
	return body, nil
}

func (c *Client) roundTrip(ctx context.Context, r request) ([]byte, int, error) {
	u := r.base + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var reader io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, 0, fmt.Errorf("storefront api: failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("storefront api: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	requestID := logger.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)
	if r.token != "" {
		req.Header.Set("Authorization", r.auth.header(r.token))
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordAPICall(ctx, r.path, 0, time.Since(start))
		return nil, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	c.metrics.RecordAPICall(ctx, r.path, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, &APIError{
			Status:   resp.StatusCode,
			Message:  errorMessage(body),
			Endpoint: r.endpoint(),
		}
	}
	return body, resp.StatusCode, nil
}

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
