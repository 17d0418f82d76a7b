package emby

import (
	"net/url"
	"strings"
)

// URLOptions selects how a request URL is assembled.
type URLOptions struct {
	// Websocket rewrites the scheme only: http becomes ws, https becomes wss.
	Websocket bool
	// Remote prefers the configured public base URL over the local one.
	Remote bool
	// PassUserID appends the user id as a userId query parameter.
	PassUserID bool
}

// BuildURL assembles a single encoded request URL from a base URL, a path that
// may carry {UserId} and {ApiKey} placeholders, and arbitrary query
// parameters. The output never ends in a bare '?'.
func BuildURL(base *url.URL, path, userID, apiKey string, query url.Values, opts URLOptions) string {
	scheme := base.Scheme
	if opts.Websocket {
		// http -> ws, https -> wss; path and query stay untouched.
		scheme = strings.Replace(scheme, "http", "ws", 1)
	}

	path = strings.NewReplacer("{UserId}", userID, "{ApiKey}", apiKey).Replace(path)

	q := url.Values{}
	for key, vals := range query {
		q[key] = vals
	}
	if opts.PassUserID {
		q.Set("userId", userID)
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     base.Host,
		Path:     path,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// baseURL picks the remote or local base for a request. The remote base is
// only used when one is configured.
func (c *Connector) baseURL(opts URLOptions) *url.URL {
	if opts.Remote && c.remote != nil {
		return c.remote
	}
	return c.base
}

func (c *Connector) buildURL(path string, query url.Values, opts URLOptions) string {
	token, userID := c.currentAuth()
	return BuildURL(c.baseURL(opts), path, userID, token, query, opts)
}
