package emby

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// defaultItemFields are the metadata fields requested for items unless the
// caller asks for others.
var defaultItemFields = []string{"Path", "ParentId", "Overview", "PremiereDate", "DateCreated"}

// Item is the subset of an Emby library item the keeper cares about.
type Item struct {
	ID           string `json:"Id"`
	Name         string `json:"Name"`
	Type         string `json:"Type"`
	Path         string `json:"Path"`
	ParentID     string `json:"ParentId"`
	Overview     string `json:"Overview"`
	PremiereDate string `json:"PremiereDate"`
	DateCreated  string `json:"DateCreated"`
}

// ItemsResult is a paged item listing.
type ItemsResult struct {
	Items            []Item `json:"Items"`
	TotalRecordCount int    `json:"TotalRecordCount"`
}

// ItemQuery shapes a GetItems listing.
type ItemQuery struct {
	Types     []string
	Fields    []string
	Limit     int
	SortBy    string
	Ascending bool
}

// GetItems lists the authenticated user's library items recursively.
func (c *Connector) GetItems(ctx context.Context, q ItemQuery) (*ItemsResult, error) {
	if len(q.Fields) == 0 {
		q.Fields = defaultItemFields
	}
	if q.SortBy == "" {
		q.SortBy = "SortName"
	}
	if q.Limit == 0 {
		q.Limit = 10
	}
	order := "Descending"
	if q.Ascending {
		order = "Ascending"
	}

	query := url.Values{}
	query.Set("recursive", "true")
	query.Set("includeItemTypes", strings.Join(q.Types, ","))
	query.Set("fields", strings.Join(q.Fields, ","))
	query.Set("sortBy", q.SortBy)
	query.Set("sortOrder", order)
	query.Set("limit", strconv.Itoa(q.Limit))

	var result ItemsResult
	if err := c.getJSON(ctx, "/Users/{UserId}/Items", query, URLOptions{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetItem fetches a single library item by id.
func (c *Connector) GetItem(ctx context.Context, id string) (*Item, error) {
	query := url.Values{}
	query.Set("fields", strings.Join(defaultItemFields, ","))

	var item Item
	path := fmt.Sprintf("/Users/{UserId}/Items/%s", id)
	if err := c.getJSON(ctx, path, query, URLOptions{}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
