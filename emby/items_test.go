package emby

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetItems_SubstitutesUserAndShapesQuery(t *testing.T) {
	server := newMockEmby(t)
	server.mu.Lock()
	server.routes["/Users/user-1/Items"] = func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "true", q.Get("recursive"))
		assert.Equal(t, "Movie,Episode", q.Get("includeItemTypes"))
		assert.Equal(t, "SortName", q.Get("sortBy"))
		assert.Equal(t, "Ascending", q.Get("sortOrder"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.NotEmpty(t, q.Get("fields"))

		json.NewEncoder(w).Encode(ItemsResult{
			Items: []Item{
				{ID: "1", Name: "Big Buck Bunny", Type: "Movie"},
				{ID: "2", Name: "Sintel", Type: "Movie"},
			},
			TotalRecordCount: 2,
		})
	}
	server.mu.Unlock()

	c := newTestConnector(t, testConnectorConfig{
		url:      server.URL,
		username: "keeper",
		password: "secret",
	})

	result, err := c.GetItems(context.Background(), ItemQuery{
		Types:     []string{"Movie", "Episode"},
		Ascending: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalRecordCount)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "Big Buck Bunny", result.Items[0].Name)
}

func TestGetItem_FetchesSingleItem(t *testing.T) {
	server := newMockEmby(t)
	server.mu.Lock()
	server.routes["/Users/user-1/Items/42"] = func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Item{ID: "42", Name: "Tears of Steel", Type: "Movie", Path: "/media/tos.mkv"})
	}
	server.mu.Unlock()

	c := newTestConnector(t, testConnectorConfig{
		url:      server.URL,
		username: "keeper",
		password: "secret",
	})

	item, err := c.GetItem(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "42", item.ID)
	assert.Equal(t, "Tears of Steel", item.Name)
}
