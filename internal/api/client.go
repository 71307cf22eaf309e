// Package api is the client for the FoodHub REST API. Every list endpoint is
// also exposed as a listquery.Source so list views can drive it through a
// controller.
package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// DefaultBaseURL is the API root used when none is configured.
const DefaultBaseURL = "http://localhost:5000/api"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Options configures a Client.
type Options struct {
	BaseURL string
	// HTTPClient carries the cookie jar holding the session. Defaults to a
	// client without one.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client calls the REST API.
type Client struct {
	base *url.URL
	http *http.Client
	lg   *zap.Logger
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", opts.BaseURL)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{base: base, http: opts.HTTPClient, lg: opts.Logger}, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// request describes one API call.
type request struct {
	method string
	path   string
	query  url.Values
	body   func(e *jx.Encoder)
	header http.Header
}

// do performs r and returns the response body of a 2xx answer.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	u := *c.base
	u.RawPath = c.base.EscapedPath() + r.path
	p, err := url.PathUnescape(u.RawPath)
	if err != nil {
		return nil, errors.Wrap(err, "request path")
	}
	u.Path = p
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader = http.NoBody
	if r.body != nil {
		e := &jx.Encoder{}
		r.body(e)
		body = bytes.NewReader(e.Bytes())
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.header {
		req.Header[k] = v
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Method: r.method, Path: r.path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &Error{
			Status:  resp.StatusCode,
			Method:  r.method,
			Path:    r.path,
			Message: errorMessage(data),
		}
		c.lg.Debug("API error",
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return nil, apiErr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Method: r.method, Path: r.path, Err: err}
	}
	return data, nil
}

// getOne performs r and decodes the "data" member into out.
func getOne[T any](ctx context.Context, c *Client, r request) (*T, error) {
	data, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s %s", r.method, r.path)
	}
	out := new(T)
	if len(env.Data) == 0 {
		return out, nil
	}
	if err := decodeData(env.Data, out); err != nil {
		return nil, errors.Wrapf(err, "decode %s %s", r.method, r.path)
	}
	return out, nil
}

// exec performs r and discards the body.
func (c *Client) exec(ctx context.Context, r request) error {
	_, err := c.do(ctx, r)
	return err
}

func escape(id string) string {
	return url.PathEscape(id)
}
