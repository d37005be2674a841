// Package httpx provides the outbound HTTP client shared by the web search,
// vector store and diffusion adapters: bounded retries with jittered backoff,
// a host allowlist and a consecutive-failure circuit breaker.
package httpx

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/logging"
	"github.com/avast/retry-go/v4"
	"go.uber.org/atomic"
)

var (
	ErrCircuitOpen    = errors.New("circuit open")
	ErrHostNotAllowed = errors.New("host not allowed")
)

// StatusError is returned when the upstream keeps answering with a 5xx status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.URL, e.Code)
}

// Options configures a Client. Zero values take the defaults.
type Options struct {
	Timeout            time.Duration `yaml:"timeout"`
	Retry              int           `yaml:"retry"`
	BackoffMin         time.Duration `yaml:"backoff_min"`
	BackoffMax         time.Duration `yaml:"backoff_max"`
	HostAllowlist      []string      `yaml:"host_allowlist"`
	MaxConsecutiveFail int           `yaml:"max_consecutive_fail"`
	CircuitOpen        time.Duration `yaml:"circuit_open"`
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.Retry < 0 {
		o.Retry = 0
	}
	if o.BackoffMin <= 0 {
		o.BackoffMin = 100 * time.Millisecond
	}
	if o.BackoffMax <= o.BackoffMin {
		o.BackoffMax = 8 * o.BackoffMin
	}
	if o.MaxConsecutiveFail <= 0 {
		o.MaxConsecutiveFail = 5
	}
	if o.CircuitOpen <= 0 {
		o.CircuitOpen = 5 * time.Second
	}
	return o
}

// Client wraps http.Client with retries and a circuit breaker. Safe for concurrent use.
type Client struct {
	hc        *http.Client
	opt       Options
	fail      *atomic.Int32 // consecutive failures
	openUntil *atomic.Int64 // unix nanos for circuit open deadline
	logger    *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets the logger used for retry and circuit events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the underlying http.Client (useful in tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// New creates a Client.
func New(opt Options, opts ...Option) *Client {
	opt = opt.withDefaults()
	transport := &http.Transport{
		DialContext:     (&net.Dialer{Timeout: opt.Timeout}).DialContext,
		TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		MaxIdleConns:    100,
		IdleConnTimeout: 30 * time.Second,
	}
	c := &Client{
		hc:        &http.Client{Timeout: opt.Timeout, Transport: transport},
		opt:       opt,
		fail:      atomic.NewInt32(0),
		openUntil: atomic.NewInt64(0),
		logger:    logging.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) allowed(u *url.URL) bool {
	if len(c.opt.HostAllowlist) == 0 {
		return true
	}
	host := u.Hostname()
	for _, h := range c.opt.HostAllowlist {
		if matchHost(h, host) {
			return true
		}
	}
	return false
}

func matchHost(pattern, host string) bool {
	if pattern == "*" {
		return true
	}
	if strings.EqualFold(pattern, host) {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		suf := strings.TrimPrefix(pattern, "*.")
		return strings.HasSuffix(host, "."+suf) || host == suf
	}
	return false
}

// CircuitOpen reports whether calls are currently short-circuited.
func (c *Client) CircuitOpen() bool {
	return c.openUntil.Load() > time.Now().UnixNano()
}

// Do sends req, retrying transport errors and 5xx answers.
// 2xx-4xx responses are returned to the caller as-is.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if !c.allowed(req.URL) {
		c.logger.Warn("httpx: blocked outbound host", "url", req.URL.Redacted())
		return nil, ErrHostNotAllowed
	}
	if c.CircuitOpen() {
		return nil, ErrCircuitOpen
	}

	attempt := 0
	resp, err := retry.DoWithData(
		func() (*http.Response, error) {
			if attempt > 0 && req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, retry.Unrecoverable(err)
				}
				req.Body = body
			}
			attempt++

			resp, err := c.hc.Do(req)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode >= 500 {
				// close body on failure to reuse connection
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
				return nil, &StatusError{Code: resp.StatusCode, URL: req.URL.Redacted()}
			}
			return resp, nil
		},
		retry.Context(req.Context()),
		retry.Attempts(uint(c.opt.Retry+1)),
		retry.Delay(c.opt.BackoffMin),
		retry.MaxJitter(c.opt.BackoffMax-c.opt.BackoffMin),
		retry.DelayType(retry.CombineDelay(retry.FixedDelay, retry.RandomDelay)),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("httpx: request failed",
				"try", n+1,
				"max", c.opt.Retry+1,
				"url", req.URL.Redacted(),
				"err", err,
			)
		}),
	)
	if err == nil {
		c.fail.Store(0)
		return resp, nil
	}

	// open circuit on consecutive failures
	if c.fail.Inc() >= int32(c.opt.MaxConsecutiveFail) {
		c.openUntil.Store(time.Now().Add(c.opt.CircuitOpen).UnixNano())
		c.fail.Store(0)
		c.logger.Warn("httpx: circuit opened", "duration", c.opt.CircuitOpen)
	}
	return nil, err
}

// ReadBody reads at most limit bytes of the response body and closes it.
func ReadBody(resp *http.Response, limit int64) ([]byte, error) {
	defer resp.Body.Close()
	if limit <= 0 {
		limit = 8 << 20
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}
