package emby

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/stevenalfofficial/emby-keeper/events"
	"github.com/stevenalfofficial/emby-keeper/metrics"
	"github.com/stevenalfofficial/emby-keeper/tokens"
)

// ensureAuthenticated makes sure a token is held before a request goes out.
// A token already in hand wins; otherwise the credential cache is consulted
// once per connector lifetime, and only if that misses is a live login issued.
func (c *Connector) ensureAuthenticated(ctx context.Context) error {
	if c.currentToken() != "" {
		return nil
	}

	c.authMu.Lock()
	checked := c.cacheChecked
	c.cacheChecked = true
	c.authMu.Unlock()

	if !checked && c.cfg.Username != "" {
		entry, err := c.store.Load(ctx, c.base.Host, c.cfg.Username)
		if err != nil {
			// Cache failures are never fatal; fall through to a live login.
			log.Printf("Failed to read Emby token cache: %v", err)
		}
		if entry != nil {
			c.authMu.Lock()
			c.token = entry.Token
			c.userID = entry.UserID
			c.authMu.Unlock()
			metrics.TokenCacheHits.Inc()
			log.Printf("Adopted cached Emby token for %s@%s", c.cfg.Username, c.base.Host)
			return nil
		}
	}

	if c.currentToken() == "" {
		return c.login(ctx)
	}
	return nil
}

// login performs a live authentication against the backend. No-op when no
// username is configured or when another login is already in flight: the
// in-progress flag keeps concurrent callers from racing a second live login,
// and lets the executor tell "login itself got a 401" (bad credentials, fatal)
// apart from "a normal request got a 401" (expired token, re-authenticate).
func (c *Connector) login(ctx context.Context) error {
	if c.cfg.Username == "" {
		return nil
	}

	c.authMu.Lock()
	if c.loginInProgress {
		c.authMu.Unlock()
		return nil
	}
	c.loginInProgress = true
	c.authMu.Unlock()

	// Cleared on every exit path, success or failure.
	defer func() {
		c.authMu.Lock()
		c.loginInProgress = false
		c.authMu.Unlock()
	}()

	payload, err := json.Marshal(map[string]string{
		"Username": c.cfg.Username,
		"Pw":       c.cfg.Password,
	})
	if err != nil {
		return err
	}

	resp, err := c.execute(ctx, http.MethodPost, "/Users/AuthenticateByName", payload, nil, URLOptions{})
	if err != nil {
		if kind, ok := ErrKind(err); ok && kind == KindAuthInvalid {
			metrics.AuthFailures.WithLabelValues("invalid_credentials").Inc()
			c.emit(events.KindAuthFailure, "invalid credentials")
		} else {
			metrics.AuthFailures.WithLabelValues("unreachable").Inc()
		}
		return err
	}

	var result struct {
		AccessToken string `json:"AccessToken"`
		User        struct {
			ID string `json:"Id"`
		} `json:"User"`
	}
	if err := json.Unmarshal(resp.body, &result); err != nil {
		metrics.AuthFailures.WithLabelValues("decode").Inc()
		return &APIError{
			Kind:   KindDecode,
			Path:   "/Users/AuthenticateByName",
			Status: resp.status,
			Body:   string(resp.body),
			Err:    err,
		}
	}

	c.authMu.Lock()
	c.token = result.AccessToken
	c.userID = result.User.ID
	c.authMu.Unlock()

	metrics.AuthSuccess.Inc()
	c.emit(events.KindAuthSuccess, c.cfg.Username)
	log.Printf("Authenticated against %s as %s", c.base.Host, c.cfg.Username)

	// Persist best-effort; the login already succeeded.
	entry := &tokens.Entry{Token: result.AccessToken, UserID: result.User.ID}
	if err := c.store.Save(ctx, c.base.Host, c.cfg.Username, entry); err != nil {
		log.Printf("Failed to save Emby token cache: %v", err)
	}
	return nil
}

func (c *Connector) inLogin() bool {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	return c.loginInProgress
}
