package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/troikatech/call-router/pkg/circuitbreaker"
	"github.com/troikatech/call-router/pkg/client"
	"github.com/troikatech/call-router/pkg/retry"
)

var ErrUntrustedURL = errors.New("media URL is not on a trusted host")

type FetcherConfig struct {
	TrustedDomains []string
	AllowInsecure  bool
	MaxBytes       int64
	Timeout        time.Duration
	// Basic auth for platform-hosted recordings.
	User     string
	Password string
}

// Fetcher downloads recordings from the call platform.
type Fetcher struct {
	cfg  FetcherConfig
	http *client.HTTPClient
}

func NewFetcher(cfg FetcherConfig, opts ...client.Option) *Fetcher {
	base := []client.Option{
		client.WithRetry(retry.Config{
			MaxAttempts:  2,
			InitialDelay: 150 * time.Millisecond,
			MaxDelay:     300 * time.Millisecond,
			Multiplier:   2,
			Jitter:       true,
		}),
		// one platform serves every recording; trip late, recover fast
		client.WithBreaker(circuitbreaker.Config{
			FailureThreshold: 10,
			SuccessThreshold: 1,
			Timeout:          10 * time.Second,
		}),
	}
	if cfg.MaxBytes > 0 {
		base = append(base, client.WithMaxBody(cfg.MaxBytes))
	}
	return &Fetcher{
		cfg:  cfg,
		http: client.NewHTTPClient("media", cfg.Timeout, append(base, opts...)...),
	}
}

// CheckURL validates the scheme and host of a recording URL.
func (f *Fetcher) CheckURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: malformed URL", ErrUntrustedURL)
	}
	switch u.Scheme {
	case "https":
	case "http":
		if !f.cfg.AllowInsecure {
			return nil, fmt.Errorf("%w: https required", ErrUntrustedURL)
		}
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrUntrustedURL, u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	for _, domain := range f.cfg.TrustedDomains {
		domain = strings.ToLower(strings.TrimPrefix(domain, "."))
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUntrustedURL, host)
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := f.CheckURL(rawURL)
	if err != nil {
		return nil, err
	}

	resp, err := f.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		if f.cfg.User != "" {
			req.SetBasicAuth(f.cfg.User, f.cfg.Password)
		}
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return nil, errors.New("empty recording")
	}
	return resp.Body, nil
}
