// Package upstream implements the client for the shields.io badge renderer.
//
// Every HTTP status returned by the renderer is a valid result: badges for
// unknown endpoints, bad parameters or oversized logos come back as 4xx
// responses whose body is still an image the caller relays. Only transport
// failures are returned as errors, and nothing is retried.
package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/custom-icon-badges/custom-icon-badges/internal/telemetry"
)

// DefaultContentType is relayed when the renderer does not send a Content-Type.
const DefaultContentType = "image/svg+xml"

// MaxBodyBytes caps how much of a response body is read.
const MaxBodyBytes = 8 << 20

// Request kinds, used as metric labels.
const (
	KindRender = "render"
	KindProbe  = "probe"
)

// Client fetches badges from the upstream renderer.
type Client struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

// New creates a client for baseURL. The transport is instrumented so every
// fetch becomes a span when tracing is enabled.
func New(baseURL string, timeout time.Duration, userAgent string) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: userAgent,
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Response is a fully read upstream response.
type Response struct {
	StatusCode int
	StatusText string
	Header     http.Header
	Body       []byte
}

// ContentType returns the response Content-Type, defaulting to image/svg+xml.
func (r *Response) ContentType() string {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return DefaultContentType
}

// Fetch GETs rawURL and returns the response whatever its status.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	return c.do(ctx, KindRender, rawURL)
}

// DefaultBadgeURL is the URL of a plain badge using slug as its logo, which
// shows whether the renderer already knows the slug as a built-in icon.
func (c *Client) DefaultBadgeURL(slug string) string {
	return c.BaseURL + "/badge/-test-blue?logo=" + url.QueryEscape(slug)
}

func (c *Client) do(ctx context.Context, kind, rawURL string) (*Response, error) {
	start := time.Now()
	resp, err := c.get(ctx, rawURL)
	telemetry.UpstreamRequestDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.UpstreamRequestsTotal.WithLabelValues(kind, "error").Inc()
		return nil, err
	}
	telemetry.UpstreamRequestsTotal.WithLabelValues(kind, telemetry.StatusClass(resp.StatusCode)).Inc()
	return resp, nil
}

func (c *Client) get(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// statusText returns the reason phrase sent by the server, falling back to the
// standard text for the code.
func statusText(resp *http.Response) string {
	code := fmt.Sprintf("%d ", resp.StatusCode)
	if text, ok := strings.CutPrefix(resp.Status, code); ok && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
