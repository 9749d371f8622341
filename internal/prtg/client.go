// Package prtg talks to the PRTG HTTP API endpoints the extractor needs:
// table.json for listings and historicdata.json for uptime history.
package prtg

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"prtg-extract/internal/config"
	"prtg-extract/internal/metrics"
	"prtg-extract/internal/retry"
)

// ErrFetchExhausted is returned once every attempt of a request failed
var ErrFetchExhausted = errors.New("prtg request failed after retries")

// StatusError is a non-2xx answer from PRTG
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.Code)
}

// Client is a PRTG API client bound to one user
type Client struct {
	base            *url.URL
	username        string
	passhash        string
	http            *http.Client
	policy          retry.Policy
	breaker         *gobreaker.CircuitBreaker
	pageSize        int
	tableTimeout    time.Duration
	historicTimeout time.Duration
	log             *zap.Logger
	metrics         *metrics.Metrics
}

// New creates a Client. The base URL may point at the server root or at /api.
func New(cfg config.PRTGConfig, rc config.RetryConfig, log *zap.Logger, m *metrics.Metrics) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid PRTG URL: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/api") {
		base.Path += "/api"
	}
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}

	c := &Client{
		base:     base,
		username: cfg.Username,
		passhash: cfg.ResolvedPasshash(),
		http: &http.Client{
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}, //nolint:gosec // user-configured
			},
		},
		policy: retry.Policy{
			MaxAttempts: rc.MaxAttempts,
			Delay:       rc.Delay,
			Exponential: rc.Exponential,
			MaxDelay:    rc.MaxDelay,
		},
		pageSize:        cfg.PageSize,
		tableTimeout:    cfg.TableTimeout,
		historicTimeout: cfg.HistoricTimeout,
		log:             log.Named("prtg"),
		metrics:         m,
	}
	if c.pageSize <= 0 {
		c.pageSize = 500
	}

	if rc.BreakerFailures > 0 {
		failures := uint32(rc.BreakerFailures)
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "prtg",
			MaxRequests: 1,
			Timeout:     rc.BreakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.log.Warn("Circuit breaker changed state",
					zap.String("from", from.String()), zap.String("to", to.String()))
			},
		})
	}
	return c, nil
}

// get performs one logical request under the retry policy and returns the body
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, timeout time.Duration) ([]byte, error) {
	params.Set("username", c.username)
	params.Set("passhash", c.passhash)
	u := c.base.JoinPath(endpoint)
	u.RawQuery = params.Encode()

	var body []byte
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		b, err := c.attempt(ctx, endpoint, u.String(), timeout)
		if err != nil {
			return err
		}
		body = b
		return nil
	}, func(err error, attempt int, wait time.Duration) {
		c.metrics.Retries.WithLabelValues(endpoint).Inc()
		c.log.Warn("Request failed, retrying",
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.policy.MaxAttempts),
			zap.Duration("wait", wait),
			zap.Error(err))
	})
	if err != nil {
		c.metrics.Requests.WithLabelValues(endpoint, "failed").Inc()
		return nil, fmt.Errorf("%w: %s: %w", ErrFetchExhausted, endpoint, err)
	}
	c.metrics.Requests.WithLabelValues(endpoint, "ok").Inc()
	return body, nil
}

// attempt is a single HTTP round trip, guarded by the circuit breaker
func (c *Client) attempt(ctx context.Context, endpoint, rawURL string, timeout time.Duration) ([]byte, error) {
	do := func() ([]byte, error) {
		rctx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			rctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		start := time.Now()
		defer func() {
			c.metrics.RequestSeconds.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		}()

		req, err := http.NewRequestWithContext(rctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, retry.Permanent(fmt.Errorf("build request: %w", err))
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, redact(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			io.Copy(io.Discard, resp.Body)
			serr := &StatusError{Endpoint: endpoint, Code: resp.StatusCode}
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				return nil, retry.Permanent(serr)
			}
			return nil, serr
		}
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return b, nil
	}

	if c.breaker == nil {
		return do()
	}
	out, err := c.breaker.Execute(func() (interface{}, error) { return do() })
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, retry.Permanent(err)
	}
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

// redact strips the query string, which carries the passhash, from URL errors
func redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		if u, perr := url.Parse(ue.URL); perr == nil {
			u.RawQuery = ""
			ue.URL = u.String()
		}
	}
	return err
}
