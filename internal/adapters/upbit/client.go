package upbit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hmbass/CoinButler/internal/domain"
)

const (
	defaultBaseURL = "https://api.upbit.com"

	// Upbit rate limits: 10 req/s for quotation endpoints, 8 req/s for
	// exchange (signed) endpoints. Stay at the documented limits; the
	// limiter burst absorbs the per-tick fan-out over markets.
	quotationRatePerSec = 10
	exchangeRatePerSec  = 8

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client is the Upbit HTTP client. It implements ports.MarketProvider and
// ports.OrderExecutor. Read requests are retried with exponential backoff;
// order placement is never retried automatically because it is not
// idempotent — the control loop re-evaluates the whole decision next tick.
type Client struct {
	http       *http.Client
	baseURL    string
	signer     *signer
	maxMarkets int

	quotationLimiter *rate.Limiter
	exchangeLimiter  *rate.Limiter
}

// New creates a Client. accessKey/secretKey may be empty for read-only use;
// signed endpoints will then fail with a permanent error.
func New(baseURL, accessKey, secretKey string, maxMarkets int) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if maxMarkets <= 0 {
		maxMarkets = 10
	}
	return &Client{
		http:             &http.Client{Timeout: 10 * time.Second},
		baseURL:          strings.TrimRight(baseURL, "/"),
		signer:           newSigner(accessKey, secretKey),
		maxMarkets:       maxMarkets,
		quotationLimiter: rate.NewLimiter(quotationRatePerSec, quotationRatePerSec),
		exchangeLimiter:  rate.NewLimiter(exchangeRatePerSec, exchangeRatePerSec),
	}
}

// get performs an unsigned GET against a quotation endpoint, with retries.
func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) error {
	return c.doWithRetry(ctx, op, c.quotationLimiter, func() (*http.Request, error) {
		u := c.baseURL + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}, out, http.StatusOK)
}

// getSigned performs a bearer-authenticated GET against an exchange endpoint.
func (c *Client) getSigned(ctx context.Context, op, path string, query url.Values, out any) error {
	return c.doWithRetry(ctx, op, c.exchangeLimiter, func() (*http.Request, error) {
		u := c.baseURL + path
		encoded := query.Encode()
		if encoded != "" {
			u += "?" + encoded
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		token, err := c.signer.token(encoded)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	}, out, http.StatusOK)
}

// postSigned performs a single (non-retried) signed form POST. wantStatus is
// the only status treated as success.
func (c *Client) postSigned(ctx context.Context, op, path string, form url.Values, out any, wantStatus int) error {
	if err := c.exchangeLimiter.Wait(ctx); err != nil {
		return domain.Transient(op, fmt.Errorf("rate limiter: %w", err))
	}

	encoded := form.Encode()
	token, err := c.signer.token(encoded)
	if err != nil {
		return domain.Permanent(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(encoded))
	if err != nil {
		return domain.Permanent(op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Transient(op, err)
	}
	defer resp.Body.Close()

	return c.decode(op, resp, out, wantStatus)
}

// doWithRetry executes an idempotent request with exponential backoff.
// Transient failures (network errors, 429, 5xx) are retried; permanent ones
// (other 4xx, malformed bodies) are returned immediately.
func (c *Client) doWithRetry(ctx context.Context, op string, limiter *rate.Limiter, build func() (*http.Request, error), out any, wantStatus int) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return domain.Transient(op, fmt.Errorf("rate limiter: %w", err))
		}

		req, err := build()
		if err != nil {
			return domain.Permanent(op, err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			slog.Debug("request failed", "op", op, "attempt", attempt+1, "err", err)
			if !c.sleep(ctx, attempt) {
				return domain.Transient(op, ctx.Err())
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			slog.Warn("server busy", "op", op, "status", resp.StatusCode, "attempt", attempt+1)
			if !c.sleep(ctx, attempt) {
				return domain.Transient(op, ctx.Err())
			}
			continue
		}

		err = c.decode(op, resp, out, wantStatus)
		resp.Body.Close()
		return err
	}
	return domain.Transient(op, fmt.Errorf("exhausted %d retries: %w", maxRetries, lastErr))
}

// decode maps the response onto out, classifying failures.
func (c *Client) decode(op string, resp *http.Response, out any, wantStatus int) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return domain.Transient(op, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != wantStatus:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Permanent(op, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.Permanent(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// sleep backs off exponentially, respecting the context. Returns false when
// the context was cancelled.
func (c *Client) sleep(ctx context.Context, attempt int) bool {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
		return true
	case <-ctx.Done():
		return false
	}
}
