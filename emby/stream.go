package emby

import (
	"context"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"time"
)

// StreamNoReturn opens a long-lived chunked response on path and drains it at
// a throttled pace without buffering, purely as a keep-alive probe. The
// session reference is released when the stream ends or ctx is cancelled.
func (c *Connector) StreamNoReturn(ctx context.Context, path string, query url.Values) error {
	id := contextIDFrom(ctx)
	session, err := c.pool.Acquire(id)
	if err != nil {
		return err
	}
	defer c.pool.Release(id)

	if err := c.ensureAuthenticated(ctx); err != nil {
		return err
	}

	urlStr := c.buildURL(path, query, URLOptions{})
	req, err := c.newRequest(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return err
	}

	// The session client's overall timeout would cut a paced stream short, so
	// the stream borrows the session's transport and jar without it. ctx still
	// bounds the request.
	client := &http.Client{
		Transport: session.Client.Transport,
		Jar:       session.Client.Jar,
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return &APIError{Kind: KindTransientNetwork, Path: path, Err: err}
	}
	defer resp.Body.Close()

	buf := make([]byte, 4096)
	for {
		if _, err := resp.Body.Read(buf); err != nil {
			if err == io.EOF || ctx.Err() != nil {
				return nil
			}
			return &APIError{Kind: KindTransientNetwork, Path: path, Err: err}
		}
		if serr := c.sleep(ctx, c.streamPace()); serr != nil {
			log.Printf("Stream of %q cancelled", path)
			return nil
		}
	}
}

// streamPace picks a random delay between the configured pacing bounds.
func (c *Connector) streamPace() time.Duration {
	min := time.Duration(c.poolCfg.StreamMinPace) * time.Second
	max := time.Duration(c.poolCfg.StreamMaxPace) * time.Second
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}
