package emby

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestBuildURL(t *testing.T) {
	base := mustParse(t, "https://emby.example.com")

	testCases := []struct {
		name     string
		path     string
		userID   string
		apiKey   string
		query    url.Values
		opts     URLOptions
		expected string
	}{
		{
			name:     "plain path, no query",
			path:     "/System/Info",
			expected: "https://emby.example.com/System/Info",
		},
		{
			name:     "query values are encoded",
			path:     "/Users/u1",
			query:    url.Values{"a": []string{"1 2"}},
			expected: "https://emby.example.com/Users/u1?a=1+2",
		},
		{
			name:     "user id placeholder is substituted",
			path:     "/Users/{UserId}/Items",
			userID:   "u-42",
			expected: "https://emby.example.com/Users/u-42/Items",
		},
		{
			name:     "api key placeholder is substituted",
			path:     "/Sessions/{ApiKey}",
			apiKey:   "k-7",
			expected: "https://emby.example.com/Sessions/k-7",
		},
		{
			name:     "pass user id adds a query parameter",
			path:     "/Items",
			userID:   "u-42",
			opts:     URLOptions{PassUserID: true},
			expected: "https://emby.example.com/Items?userId=u-42",
		},
		{
			name:     "websocket rewrites only the scheme",
			path:     "/embywebsocket",
			query:    url.Values{"api_key": []string{"k"}},
			opts:     URLOptions{Websocket: true},
			expected: "wss://emby.example.com/embywebsocket?api_key=k",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildURL(base, tc.path, tc.userID, tc.apiKey, tc.query, tc.opts)
			assert.Equal(t, tc.expected, got)
			assert.False(t, strings.HasSuffix(got, "?"), "no trailing bare '?'")
		})
	}
}

func TestBuildURL_HTTPBecomesWS(t *testing.T) {
	base := mustParse(t, "http://emby.local:8096")
	got := BuildURL(base, "/embywebsocket", "", "", nil, URLOptions{Websocket: true})
	assert.Equal(t, "ws://emby.local:8096/embywebsocket", got)
}

func TestConnector_BuildURLPrefersRemoteWhenAsked(t *testing.T) {
	c := newTestConnector(t, testConnectorConfig{
		url:       "http://local.emby:8096",
		remoteURL: "https://public.emby.example.com",
	})

	local := c.buildURL("/System/Info", nil, URLOptions{})
	remote := c.buildURL("/System/Info", nil, URLOptions{Remote: true})

	assert.Equal(t, "http://local.emby:8096/System/Info", local)
	assert.Equal(t, "https://public.emby.example.com/System/Info", remote)
}
