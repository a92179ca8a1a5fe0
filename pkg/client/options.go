package client

import (
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*Client)

// RetryPolicy bounds how idempotent requests are retried after network
// errors and 5xx answers. Zero waits keep the client's current values.
type RetryPolicy struct {
	Max     int
	MinWait time.Duration
	MaxWait time.Duration
}

// WithRetry sets the retry policy. A negative Max is ignored and zero
// disables retries. MaxWait below MinWait is raised to MinWait.
func WithRetry(p RetryPolicy) Option {
	return func(c *Client) {
		if p.Max >= 0 {
			c.retryMax = p.Max
		}
		if p.MinWait > 0 {
			c.retryWaitMin = p.MinWait
		}
		if p.MaxWait > 0 {
			c.retryWaitMax = p.MaxWait
		}
		if c.retryWaitMax < c.retryWaitMin {
			c.retryWaitMax = c.retryWaitMin
		}
	}
}

// WithTimeout bounds each HTTP attempt, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			return
		}
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		c.httpClient.Timeout = d
	}
}

func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUserAgent replaces the User-Agent header; empty keeps the default.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}
