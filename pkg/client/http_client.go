// Package client is the outbound HTTP client shared by every vendor adapter
// and the media fetcher: tracing transport, circuit breaker, optional retry,
// and per-service metrics.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/troikatech/call-router/pkg/circuitbreaker"
	"github.com/troikatech/call-router/pkg/metrics"
	"github.com/troikatech/call-router/pkg/retry"
)

// ErrTimeout marks a call that ran out of time, whether the client timeout or
// the caller's deadline fired first.
var ErrTimeout = errors.New("request timed out")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error: %d - %s", e.Service, e.StatusCode, e.Body)
}

// Response is a fully read response body.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// RequestBuilder creates a fresh request per attempt so bodies can be replayed.
type RequestBuilder func(ctx context.Context) (*http.Request, error)

type Option func(*HTTPClient)

// WithRetry retries transport errors and 5xx responses.
func WithRetry(cfg retry.Config) Option {
	return func(c *HTTPClient) { c.retry = &cfg }
}

// WithMaxBody caps how many response bytes are read.
func WithMaxBody(n int64) Option {
	return func(c *HTTPClient) { c.maxBody = n }
}

// WithTransport replaces the base transport, mainly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *HTTPClient) { c.client.Transport = otelhttp.NewTransport(rt) }
}

// WithBreaker overrides the circuit breaker configuration.
func WithBreaker(cfg circuitbreaker.Config) Option {
	return func(c *HTTPClient) { c.breaker = circuitbreaker.New(cfg) }
}

type HTTPClient struct {
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
	retry   *retry.Config
	maxBody int64
	service string
}

func NewHTTPClient(service string, timeout time.Duration, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig()),
		maxBody: 16 << 20,
		service: service,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) Service() string {
	return c.service
}

func (c *HTTPClient) BreakerState() circuitbreaker.State {
	return c.breaker.GetState()
}

// Do executes the request through the breaker (and retry, if configured) and
// returns the whole body. Non-2xx statuses become *StatusError.
func (c *HTTPClient) Do(ctx context.Context, build RequestBuilder) (*Response, error) {
	start := time.Now()
	var resp *Response

	attempt := func() error {
		r, err := c.once(ctx, build)
		if err != nil {
			var se *StatusError
			if errors.As(err, &se) && se.StatusCode < 500 {
				return retry.Permanent(err)
			}
			if errors.Is(err, ErrTimeout) && ctx.Err() != nil {
				return retry.Permanent(err)
			}
			return err
		}
		resp = r
		return nil
	}

	err := c.breaker.Execute(ctx, func() error {
		if c.retry != nil {
			return retry.Do(ctx, *c.retry, attempt)
		}
		return attempt()
	})
	if err != nil && ctx.Err() != nil && !errors.Is(err, ErrTimeout) {
		err = fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	metrics.RecordServiceCall(c.service, err == nil, time.Since(start))
	stats := c.breaker.GetStats()
	metrics.UpdateCircuitBreaker(c.service, stats.State, int64(stats.Failures))

	return resp, err
}

func (c *HTTPClient) once(ctx context.Context, build RequestBuilder) (*Response, error) {
	req, err := build(ctx)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	httpResp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%s: %w: %v", c.service, ErrTimeout, err)
		}
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, c.maxBody+1))
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%s: %w: %v", c.service, ErrTimeout, err)
		}
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, retry.Permanent(fmt.Errorf("%s response exceeds %d bytes", c.service, c.maxBody))
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &StatusError{Service: c.service, StatusCode: httpResp.StatusCode, Body: truncate(string(body), 512)}
	}

	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: body}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
