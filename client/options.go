package client

// This file defines functional options that configure the Client during
// construction. Keeping them in a standalone file avoids cluttering
// client.go and makes it easy to discover all available knobs at a glance.

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Option configures a Client during construction in New.
//
// Transport options only record settings; New assembles the transport stack
// after all options ran, so their order does not matter.
type Option func(*Client) error

// WithHTTPTimeout sets the underlying http.Client Timeout used by the SDK.
//
// Prefer per-request context deadlines where possible; this timeout is a
// coarse safety net that bounds the total time spent on a single HTTP request.
// The value must be greater than zero.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithHTTPClient replaces the http.Client. Its transport becomes the base of
// the stack; a cookie jar is added when it has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client cannot be nil")
		}
		c.http = hc
		return nil
	}
}

// WithDebugLogging dumps every request and response at debug level when
// enabled is true. Do not enable in production: dumps include cookies.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		c.debug = c.debug || enabled
		return nil
	}
}

// WithRateLimit caps outgoing requests to r per second with the given burst.
func WithRateLimit(r float64, burst int) Option {
	return func(c *Client) error {
		if r <= 0 || burst <= 0 {
			return fmt.Errorf("rate limit must be > 0, got %v/%d", r, burst)
		}
		c.limiter = rate.NewLimiter(rate.Limit(r), burst)
		return nil
	}
}

// WithCircuitBreaker opens the circuit after consecutive server failures.
func WithCircuitBreaker(cfg BreakerConfig) Option {
	return func(c *Client) error {
		if cfg.Failures == 0 {
			return fmt.Errorf("breaker failures must be > 0")
		}
		c.breakerConfig = &cfg
		return nil
	}
}

// WithExecutor replaces the mutation executor. The client stops it on Close.
func WithExecutor(e executor) Option {
	return func(c *Client) error {
		if e == nil {
			return fmt.Errorf("executor cannot be nil")
		}
		c.exec = e
		return nil
	}
}

// WithLogger sets the logger handed to sessions.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) error {
		c.log = l
		return nil
	}
}

// WithHomeLimit sets how many items each home grid shows; <= 0 shows all.
func WithHomeLimit(n int) Option {
	return func(c *Client) error {
		c.homeLimit = n
		return nil
	}
}

// WithOnAuthRequired installs the hook fired when a session needs sign-in.
func WithOnAuthRequired(fn func()) Option {
	return func(c *Client) error {
		c.onAuthRequired = fn
		return nil
	}
}
