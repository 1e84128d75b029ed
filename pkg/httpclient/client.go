package httpclient

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// Config holds HTTP client configuration.
type Config struct {
	Timeout         time.Duration
	MaxRetries      int
	Backoff         time.Duration
	MaxBackoff      time.Duration
	MaxConnsPerHost int
	UserAgent       string
}

// DefaultConfig returns the settings used for catalog calls. Retries are
// kept low: a browse view prefers a quick stale answer over a slow fresh one.
func DefaultConfig() Config {
	return Config{
		Timeout:         10 * time.Second,
		MaxRetries:      1,
		Backoff:         100 * time.Millisecond,
		MaxBackoff:      time.Second,
		MaxConnsPerHost: 100,
		UserAgent:       "storefront-browse",
	}
}

// Doer executes a prepared HTTP request. Both Client and Breaker satisfy it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client is a pooled http.Client that retries idempotent requests.
type Client struct {
	http *http.Client
	cfg  Config
}

// New creates a Client with its own connection pool.
func New(cfg Config) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &Client{
		http: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		cfg:  cfg,
	}
}

// Do sends req under ctx. GET and HEAD requests are retried on network
// errors, 429 and 5xx other than 501, with jittered exponential backoff.
// The last response is returned as is once retries run out.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if c.cfg.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	retries := c.cfg.MaxRetries
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		retries = 0
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.http.Do(req)
		if attempt >= retries || ctx.Err() != nil || !shouldRetry(resp, err) {
			if err != nil {
				return nil, fmt.Errorf("http request failed after %d attempts: %w", attempt+1, err)
			}
			return resp, nil
		}
		if resp != nil {
			drain(resp)
		}

		select {
		case <-time.After(c.backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	wait := c.cfg.Backoff << attempt
	if wait <= 0 || (c.cfg.MaxBackoff > 0 && wait > c.cfg.MaxBackoff) {
		wait = c.cfg.MaxBackoff
	}
	return addJitter(wait)
}

func shouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		return isRetryableError(err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return true
	case resp.StatusCode == http.StatusNotImplemented:
		return false
	default:
		return resp.StatusCode >= 500
	}
}

func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// addJitter spreads d by up to ±25% so concurrent sessions do not retry in lockstep.
func addJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	spread := int64(d) / 2
	if spread == 0 {
		return d
	}
	return time.Duration(int64(d) - spread/2 + rand.Int63n(spread+1))
}
