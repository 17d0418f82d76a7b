package emby

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/stevenalfofficial/emby-keeper/config"
	"github.com/stevenalfofficial/emby-keeper/events"
	"github.com/stevenalfofficial/emby-keeper/pool"
	"github.com/stevenalfofficial/emby-keeper/tokens"
)

// Connector owns the authenticated session lifecycle for one Emby backend:
// per-context session pooling, a watchdog reclaiming idle sessions, cache-aside
// token persistence, and a request path with bounded retry.
type Connector struct {
	cfg     *config.EmbyConfig
	poolCfg *config.PoolConfig
	base    *url.URL
	remote  *url.URL // nil unless a remote base URL is configured

	pool     *pool.Pool
	watchdog *pool.Watchdog
	store    tokens.Store

	publisher events.Publisher // optional, may be nil
	sleepUnit time.Duration    // jitter time base, overridden in tests

	authMu          sync.Mutex
	token           string
	userID          string
	loginInProgress bool
	cacheChecked    bool
}

// NewConnector builds a connector from configuration. No network I/O happens
// here; sessions are created lazily on first use and authentication is lazy as
// well.
func NewConnector(cfg *config.EmbyConfig, poolCfg *config.PoolConfig, store tokens.Store) (*Connector, error) {
	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid emby URL %q: %w", cfg.URL, err)
	}

	var remote *url.URL
	if cfg.RemoteURL != "" {
		remote, err = url.Parse(cfg.RemoteURL)
		if err != nil {
			return nil, fmt.Errorf("invalid emby remote URL %q: %w", cfg.RemoteURL, err)
		}
	}

	c := &Connector{
		cfg:     cfg,
		poolCfg: poolCfg,
		base:    base,
		remote:  remote,
		store:   store,
		token:   cfg.Token, // pre-shared token, if any
	}
	c.pool = pool.New(c.newClient)
	c.watchdog = pool.NewWatchdog(
		c.pool,
		time.Duration(poolCfg.IdleTimeout)*time.Second,
		time.Duration(poolCfg.PollInterval)*time.Second,
	)
	c.watchdog.OnReclaim(func(id pool.ContextID) {
		c.emit(events.KindSessionReclaimed, string(id))
	})
	return c, nil
}

// SetPublisher attaches a lifecycle event publisher. Must be called before the
// connector is used concurrently.
func (c *Connector) SetPublisher(pub events.Publisher) {
	c.publisher = pub
}

// Run operates the watchdog until ctx is cancelled, then drains every open
// session. The one long-lived task of the connector.
func (c *Connector) Run(ctx context.Context) {
	c.watchdog.Run(ctx)
}

// Host returns the backend host the connector is bound to.
func (c *Connector) Host() string {
	return c.base.Host
}

// newClient is the session factory: it constructs the transport client with
// the connector's proxy, cookie and timeout configuration. Invoked by the pool
// at most once per context until reclamation.
func (c *Connector) newClient(pool.ContextID) (*http.Client, error) {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if c.cfg.Proxy != "" {
		proxyURL, err := url.Parse(c.cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", c.cfg.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if c.cfg.CFClearance != "" {
		jar.SetCookies(c.base, []*http.Cookie{{Name: "cf_clearance", Value: c.cfg.CFClearance}})
	}

	return &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   time.Duration(c.poolCfg.RequestTimeout) * time.Second,
	}, nil
}

// currentAuth returns the token and user id under the auth lock.
func (c *Connector) currentAuth() (token, userID string) {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	return c.token, c.userID
}

func (c *Connector) currentToken() string {
	token, _ := c.currentAuth()
	return token
}

// UserID returns the authenticated user's id, empty before authentication.
func (c *Connector) UserID() string {
	_, userID := c.currentAuth()
	return userID
}

// emit publishes a lifecycle event without blocking the request path.
func (c *Connector) emit(kind events.Kind, detail string) {
	if c.publisher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.publisher.Publish(ctx, events.Event{
			Kind:   kind,
			Host:   c.base.Host,
			Detail: detail,
			Time:   time.Now(),
		}); err != nil {
			log.Printf("Failed to publish %s event: %v", kind, err)
		}
	}()
}

type contextIDKey struct{}

// WithContextID binds an execution-context identity to ctx. All requests
// issued with the returned context share one pooled session.
func WithContextID(ctx context.Context, id pool.ContextID) context.Context {
	return context.WithValue(ctx, contextIDKey{}, id)
}

// contextIDFrom extracts the caller's context identity, falling back to the
// shared default context.
func contextIDFrom(ctx context.Context) pool.ContextID {
	if id, ok := ctx.Value(contextIDKey{}).(pool.ContextID); ok {
		return id
	}
	return pool.DefaultContext
}
