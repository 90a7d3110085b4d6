// Package httpclient is the single HTTP entry point to the EcoCollect
// backend. It resolves paths against the base URL, attaches the bearer token
// on every request, logs traffic in development mode and turns failures into
// *apierror.Error values.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/ecocollect/ecocollect/internal/apierror"
	"github.com/ecocollect/ecocollect/internal/resilience"
	"github.com/ecocollect/ecocollect/internal/telemetry"
)

const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "http://localhost:3000/api"

	// UpstreamName names the backend in the resilience registry.
	UpstreamName = "ecocollect-api"

	// RequestIDHeader carries a per-request id to the backend.
	RequestIDHeader = "X-Request-Id"

	maxBodyBytes = 10 << 20
	tracerName   = "github.com/ecocollect/ecocollect/internal/httpclient"
)

// TokenSource yields the current access token. It is consulted on every
// request; an empty token means the request is sent anonymously.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) AccessToken(ctx context.Context) (string, error) {
	return f(ctx)
}

// Config holds configuration for the API client.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.ecocollect.cm/api".
	BaseURL string

	// HTTPClient is the transport. Nil means a resilient client with
	// DefaultConfig(UpstreamName).
	HTTPClient *resilience.Client

	// Tokens supplies the bearer token. May be nil.
	Tokens TokenSource

	// Dev enables request and response logging.
	Dev bool

	Logger zerolog.Logger
}

// Client sends requests to the backend.
type Client struct {
	baseURL string
	http    *resilience.Client
	tokens  TokenSource
	dev     bool
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// New creates a client.
func New(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultConfig(UpstreamName))
	}

	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		tokens:  cfg.Tokens,
		dev:     cfg.Dev,
		logger:  cfg.Logger,
		tracer:  telemetry.Tracer(tracerName),
	}
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request describes one API call.
type Request struct {
	Method string
	// Path is relative to the base URL, e.g. "/pickups/my/".
	Path  string
	Query url.Values
	// Body is JSON-encoded when non-nil.
	Body   any
	Header http.Header

	body        io.Reader
	contentType string
}

// Response is the backend's success envelope.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`

	// StatusCode is the HTTP status of the response.
	StatusCode int `json:"-"`
}

// Do sends req and decodes the envelope's data into T.
func Do[T any](ctx context.Context, c *Client, req Request) (*Response[T], error) {
	raw, status, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	out := &Response[T]{Success: true, StatusCode: status}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, apierror.Decode(op(req), fmt.Errorf("decoding response: %w", err))
	}
	out.StatusCode = status
	return out, nil
}

// Data is Do returning only the payload.
func Data[T any](ctx context.Context, c *Client, req Request) (T, error) {
	resp, err := Do[T](ctx, c, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return resp.Data, nil
}

func op(req Request) string {
	return req.Method + " " + req.Path
}

func (c *Client) send(ctx context.Context, req Request) ([]byte, int, error) {
	name := op(req)
	ctx, span := c.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.Path),
		),
	)
	defer span.End()

	httpReq, err := c.build(ctx, req)
	if err != nil {
		c.logger.Error().Err(err).Str("op", name).Msg("request setup failed")
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, apierror.Request(name, err)
	}

	if c.dev {
		c.logger.Debug().
			Str("method", httpReq.Method).
			Str("url", httpReq.URL.String()).
			Str("request_id", httpReq.Header.Get(RequestIDHeader)).
			Msg("api request")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn().Err(err).Str("op", name).Msg("no response from server")
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, apierror.Network(name, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, resp.StatusCode, apierror.Network(name, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := apierror.FromResponse(name, resp.StatusCode, body)
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("url", httpReq.URL.String()).
			Str("kind", apiErr.Kind.String()).
			Str("server_message", apiErr.ServerMessage).
			Msg("api error response")
		span.SetStatus(codes.Error, apiErr.Message)
		return nil, resp.StatusCode, apiErr
	}

	if c.dev {
		c.logger.Debug().
			Int("status", resp.StatusCode).
			Str("url", httpReq.URL.String()).
			Msg("api response")
	}
	return body, resp.StatusCode, nil
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	if req.Method == "" {
		return nil, errors.New("missing method")
	}

	target, err := url.Parse(c.baseURL + "/" + strings.TrimLeft(req.Path, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}
	if len(req.Query) > 0 {
		q := target.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		target.RawQuery = q.Encode()
	}

	body := req.body
	contentType := req.contentType
	if body == nil && req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding body: %w", err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}
	if body == nil {
		body = http.NoBody
	}
	if contentType == "" {
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, uuid.NewString())
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	if c.tokens != nil && httpReq.Header.Get("Authorization") == "" {
		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Msg("reading access token, sending request anonymously")
		} else if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))
	return httpReq, nil
}
