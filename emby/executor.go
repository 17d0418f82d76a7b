package emby

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stevenalfofficial/emby-keeper/metrics"
)

type apiResponse struct {
	status int
	body   []byte
}

// execute runs one logical request against the backend with bounded retry:
// transient network failures and 502/503/504 are retried with jitter backoff,
// a 401 outside the login call triggers one re-authentication before the next
// attempt, and a 401 inside the login call is fatal. The session reference is
// released on every exit path.
func (c *Connector) execute(ctx context.Context, method, path string, body []byte, query url.Values, opts URLOptions) (*apiResponse, error) {
	id := contextIDFrom(ctx)
	session, err := c.pool.Acquire(id)
	if err != nil {
		return nil, err
	}
	defer c.pool.Release(id)

	maxAttempts := c.poolCfg.MaxAttempts
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			metrics.RequestRetries.Inc()
		}
		if err := c.ensureAuthenticated(ctx); err != nil {
			return nil, err
		}

		urlStr := c.buildURL(path, query, opts)
		req, err := c.newRequest(ctx, method, urlStr, body)
		if err != nil {
			return nil, err
		}

		resp, err := session.Client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = &APIError{Kind: KindTransientNetwork, Path: path, Err: err}
			log.Printf("Failed to reach %q, will retry: %v", urlStr, err)
			if serr := c.sleep(ctx, c.retryDelay(attempt)); serr != nil {
				return nil, serr
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			data, _ := io.ReadAll(resp.Body)
			resp.Body.Close()

			if c.inLogin() {
				// The login request itself was rejected: the credentials are
				// wrong, not expired. Retrying cannot help.
				metrics.RequestsTotal.WithLabelValues("auth_invalid").Inc()
				return nil, &APIError{Kind: KindAuthInvalid, Path: path, Status: resp.StatusCode, Body: string(data)}
			}

			// Expired token: re-authenticate once, then retry the request.
			log.Printf("Emby token rejected for %q, re-authenticating", path)
			if lerr := c.login(ctx); lerr != nil {
				if kind, ok := ErrKind(lerr); ok && kind == KindAuthInvalid {
					return nil, lerr
				}
				log.Printf("Re-authentication failed, will retry: %v", lerr)
			}
			lastErr = &APIError{Kind: KindAuthExpired, Path: path, Status: resp.StatusCode}
			if serr := c.sleep(ctx, c.retryDelay(attempt)); serr != nil {
				return nil, serr
			}
			continue

		case resp.StatusCode == http.StatusBadGateway ||
			resp.StatusCode == http.StatusServiceUnavailable ||
			resp.StatusCode == http.StatusGatewayTimeout:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = &APIError{Kind: KindTransientServer, Path: path, Status: resp.StatusCode}
			log.Printf("Emby backend unavailable (%d) for %q, will retry", resp.StatusCode, path)
			if serr := c.sleep(ctx, c.busyDelay()); serr != nil {
				return nil, serr
			}
			continue

		default:
			data, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				lastErr = &APIError{Kind: KindTransientNetwork, Path: path, Err: err}
				log.Printf("Failed to read response from %q, will retry: %v", urlStr, err)
				if serr := c.sleep(ctx, c.retryDelay(attempt)); serr != nil {
					return nil, serr
				}
				continue
			}
			// Any other status is a successful transport exchange; the caller
			// interprets status and body semantics.
			metrics.RequestsTotal.WithLabelValues("ok").Inc()
			return &apiResponse{status: resp.StatusCode, body: data}, nil
		}
	}

	metrics.RequestsTotal.WithLabelValues("connection_failed").Inc()
	return nil, &APIError{Kind: KindConnectionFailed, Path: path, Attempts: maxAttempts, Err: lastErr}
}

// newRequest builds one attempt's request: static headers, a freshly generated
// per-request device nonce in the authorization header, and the current token.
func (c *Connector) newRequest(ctx context.Context, method, urlStr string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, urlStr, reader)
	if err != nil {
		return nil, err
	}

	for key, value := range c.cfg.Headers {
		req.Header.Set(key, value)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	token := c.currentToken()
	nonce := strings.ToUpper(uuid.New().String())
	req.Header.Set("X-Emby-Authorization",
		fmt.Sprintf("MediaBrowser Token=%s,Emby UserId=%s,%s", token, nonce, c.cfg.AuthHeader))
	if token != "" {
		req.Header.Set("X-Emby-Token", token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// retryDelay is the jitter backoff before the next attempt: scaled by attempt
// index so concurrent callers desynchronize instead of retrying in lockstep.
func (c *Connector) retryDelay(attempt int) time.Duration {
	return time.Duration((rand.Float64()*float64(attempt) + 0.2) * float64(c.jitterUnit()))
}

// busyDelay is the longer randomized delay after a 502/503/504.
func (c *Connector) busyDelay() time.Duration {
	return time.Duration((rand.Float64()*4 + 0.2) * float64(c.jitterUnit()))
}

func (c *Connector) jitterUnit() time.Duration {
	if c.sleepUnit != 0 {
		return c.sleepUnit
	}
	return time.Second
}

// sleep waits for d or until ctx is cancelled.
func (c *Connector) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
