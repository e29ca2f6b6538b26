// Package api is the typed REST surface of the SocialConnect backend. Every
// endpoint decodes into one explicit response type; shape differences
// between backend views are normalized here and nowhere else.
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
	"github.com/socialconnect/cli/pkg/client"
	"github.com/socialconnect/cli/pkg/validation"
)

// Client wraps the authenticated HTTP client with typed endpoint methods
type Client struct {
	http *client.Client
}

// New returns an API client bound to c
func New(c *client.Client) *Client {
	return &Client{http: c}
}

// HTTP returns the underlying transport client
func (c *Client) HTTP() *client.Client {
	return c.http
}

// do sends a request and decodes a successful body into out
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	resp, err := c.raw(ctx, method, path, body, nil)
	if err != nil {
		return err
	}
	return decodeInto(resp, out)
}

// raw sends a request and returns the response once it is known to be a
// success.
func (c *Client) raw(ctx context.Context, method, path string, body interface{}, query url.Values) (*resty.Response, error) {
	req := c.http.R(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	resp, err := req.Execute(method, path)
	if err := CheckResponse(resp, err); err != nil {
		return nil, err
	}
	return resp, nil
}

func decodeInto(resp *resty.Response, out interface{}) error {
	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", resp.Request.URL, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// validate runs the form rules on req before it is dispatched
func validate(req interface{}) error {
	return validation.Struct(req)
}

// pageQuery adds ?page= when page is past the first one
func pageQuery(q url.Values, page int) url.Values {
	if q == nil {
		q = url.Values{}
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	return q
}

// setIf adds key=value when value is non-empty
func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
