package emby

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/stevenalfofficial/emby-keeper/metrics"
)

// Get performs a GET against path and returns the status code and raw body.
func (c *Connector) Get(ctx context.Context, path string, query url.Values) (int, string, error) {
	resp, err := c.execute(ctx, http.MethodGet, path, nil, query, URLOptions{})
	if err != nil {
		return 0, "", err
	}
	return resp.status, string(resp.body), nil
}

// Delete performs a DELETE against path and returns the status code.
func (c *Connector) Delete(ctx context.Context, path string, query url.Values) (int, error) {
	resp, err := c.execute(ctx, http.MethodDelete, path, nil, query, URLOptions{})
	if err != nil {
		return 0, err
	}
	return resp.status, nil
}

// Post sends data as a JSON body and returns the status code and raw body.
func (c *Connector) Post(ctx context.Context, path string, data any, query url.Values) (int, string, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return 0, "", err
	}
	resp, err := c.execute(ctx, http.MethodPost, path, body, query, URLOptions{})
	if err != nil {
		return 0, "", err
	}
	return resp.status, string(resp.body), nil
}

// PostJSON sends data as a JSON body and decodes the JSON response into out.
func (c *Connector) PostJSON(ctx context.Context, path string, data any, query url.Values, out any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}
	resp, err := c.execute(ctx, http.MethodPost, path, body, query, URLOptions{})
	if err != nil {
		return err
	}
	return c.decode(path, resp, out)
}

// GetJSON performs a GET against path and decodes the JSON response into out.
func (c *Connector) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.getJSON(ctx, path, query, URLOptions{}, out)
}

func (c *Connector) getJSON(ctx context.Context, path string, query url.Values, opts URLOptions, out any) error {
	resp, err := c.execute(ctx, http.MethodGet, path, nil, query, opts)
	if err != nil {
		return err
	}
	return c.decode(path, resp, out)
}

// decode unmarshals a response body, surfacing the raw status and body when
// the backend hands back something that is not the JSON we asked for.
func (c *Connector) decode(path string, resp *apiResponse, out any) error {
	if err := json.Unmarshal(resp.body, out); err != nil {
		metrics.RequestsTotal.WithLabelValues("decode_error").Inc()
		return &APIError{
			Kind:   KindDecode,
			Path:   path,
			Status: resp.status,
			Body:   string(resp.body),
			Err:    err,
		}
	}
	return nil
}
