package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type ctxKey string

const (
	CtxKeyWithRetryUntil ctxKey = "apicheck_retry_until" // contains *retryUntilParams
)

type retryUntilParams struct {
	timeout time.Duration
	untilFn func(*Response) bool
}

// RequestOpt is a functional option which will modify an outgoing HTTP request.
// See functions starting with `With...` in this package for more info.
type RequestOpt func(req *http.Request) error

// Client talks to a single collaborator. Relative targets passed to Do are resolved against BaseURL.
type Client struct {
	// Name of the collaborator, used in logs
	Name    string
	BaseURL string
	Client  *http.Client
	// True to enable verbose logging
	Debug bool
	Log   logrus.FieldLogger
}

// New returns a Client for `baseURL` which sends requests through `cli`.
func New(name, baseURL string, cli *http.Client, log logrus.FieldLogger) *Client {
	if cli == nil {
		cli = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		Name:    name,
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  cli,
		Log:     log,
	}
}

// WithRawBody sets the HTTP request body to `body`
func WithRawBody(body []byte) RequestOpt {
	return func(req *http.Request) error {
		req.Body = io.NopCloser(bytes.NewReader(body))
		req.GetBody = func() (io.ReadCloser, error) {
			r := bytes.NewReader(body)
			return io.NopCloser(r), nil
		}
		// we need to manually set this because we don't set the body
		// in http.NewRequest due to using functional options, and only in NewRequest
		// does the stdlib set this for us.
		req.ContentLength = int64(len(body))
		return nil
	}
}

// WithContentType sets the HTTP request Content-Type header to `cType`
func WithContentType(cType string) RequestOpt {
	return func(req *http.Request) error {
		req.Header.Set("Content-Type", cType)
		return nil
	}
}

// WithJSONBody sets the HTTP request body to the JSON serialised form of `obj`
func WithJSONBody(obj interface{}) RequestOpt {
	return func(req *http.Request) error {
		b, err := json.Marshal(obj)
		if err != nil {
			return fmt.Errorf("failed to marshal JSON body: %w", err)
		}
		return WithRawBody(b)(req)
	}
}

// WithQueries adds the query parameters to the request, keeping any already present in the target.
func WithQueries(q url.Values) RequestOpt {
	return func(req *http.Request) error {
		existing := req.URL.Query()
		for k, vs := range q {
			for _, v := range vs {
				existing.Add(k, v)
			}
		}
		req.URL.RawQuery = existing.Encode()
		return nil
	}
}

// WithHeader sets a single request header.
func WithHeader(name, value string) RequestOpt {
	return func(req *http.Request) error {
		req.Header.Set(name, value)
		return nil
	}
}

// WithHeaders sets every header in `headers`.
func WithHeaders(headers map[string]string) RequestOpt {
	return func(req *http.Request) error {
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return nil
	}
}

// WithBasicAuth sets HTTP basic credentials on the request.
func WithBasicAuth(user, password string) RequestOpt {
	return func(req *http.Request) error {
		req.SetBasicAuth(user, password)
		return nil
	}
}

// WithBearerToken sets an Authorization: Bearer header, overriding any credentials the
// underlying transport would add.
func WithBearerToken(token string) RequestOpt {
	return func(req *http.Request) error {
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
}

// WithRetryUntil will retry the request until the provided function returns true. Gives up after
// `timeout`, returning the last response along with an error.
func WithRetryUntil(timeout time.Duration, untilFn func(res *Response) bool) RequestOpt {
	return func(req *http.Request) error {
		until, ok := req.Context().Value(CtxKeyWithRetryUntil).(*retryUntilParams)
		if !ok {
			return fmt.Errorf("WithRetryUntil used outside Client.Do")
		}
		until.timeout = timeout
		until.untilFn = untilFn
		return nil
	}
}

// URL resolves `target` against the client's BaseURL. Absolute URLs are returned as-is.
func (c *Client) URL(target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	if target == "" {
		return c.BaseURL
	}
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	return c.BaseURL + target
}

// Path joins the segments into a relative target, escaping each one.
func Path(segments ...string) string {
	escaped := make([]string, len(segments))
	for i := range segments {
		escaped[i] = url.PathEscape(segments[i])
	}
	return "/" + strings.Join(escaped, "/")
}

// Do performs an arbitrary HTTP request to the collaborator. This function supports RequestOpts to
// set extra information on the request such as an HTTP request body, query parameters and
// content-type. See all functions in this package starting with `With...`.
//
// The response body is read fully before returning. A request which could not be completed returns
// a *TransportError. Any response which arrived is returned without error regardless of its status
// code: do assertions on it with the `should` and `must` packages. For example:
//
//	must.MatchResponse(t, res, match.HTTPResponse{
//		StatusCode: 404,
//		JSON: []match.JSON{
//			match.JSONKeyEqual("message", "Not Found"),
//		},
//	})
func (c *Client) Do(ctx context.Context, method, target string, opts ...RequestOpt) (*Response, error) {
	reqURL := c.URL(target)
	retryUntil := &retryUntilParams{}
	ctx = context.WithValue(ctx, CtxKeyWithRetryUntil, retryUntil)
	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, &TransportError{Method: method, URL: reqURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	// set functional options
	for _, o := range opts {
		if err := o(req); err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, reqURL, err)
		}
	}
	// set defaults after RequestOpts
	if req.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	// debug log the request
	if c.Debug {
		c.Log.Debugf("Making %s request to %s", method, req.URL)
		contentType := req.Header.Get("Content-Type")
		if contentType == "application/json" || strings.HasPrefix(contentType, "text/") {
			if req.GetBody != nil {
				if body, err := req.GetBody(); err == nil {
					b, _ := io.ReadAll(body)
					c.Log.Debugf("Request body: %s", string(b))
				}
			}
		} else if req.Body != nil {
			c.Log.Debugf("Request body: <binary:%s>", contentType)
		}
	}

	now := time.Now()
	for {
		res, err := c.do(req)
		if err != nil {
			return nil, err
		}
		if retryUntil.timeout == 0 || retryUntil.untilFn(res) {
			return res, nil
		}
		// condition not satisfied, do we timeout yet?
		if time.Since(now) > retryUntil.timeout {
			return res, fmt.Errorf("%s %s: retry condition not met after %v", method, req.URL, retryUntil.timeout)
		}
		c.Log.Debugf("Client.Do RetryUntil: %v %v response condition not yet met, retrying", method, req.URL)
		// small sleep to avoid tight-looping
		select {
		case <-ctx.Done():
			return res, &TransportError{Method: method, URL: reqURL, Err: ctx.Err()}
		case <-time.After(100 * time.Millisecond):
		}
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, &TransportError{Method: method, URL: reqURL, Err: err}
			}
			req.Body = body
		}
	}
}

func (c *Client) do(req *http.Request) (*Response, error) {
	start := time.Now()
	res, err := c.Client.Do(req)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	return &Response{
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusCode: res.StatusCode,
		Status:     res.Status,
		Header:     res.Header,
		Body:       body,
		Duration:   time.Since(start),
	}, nil
}
