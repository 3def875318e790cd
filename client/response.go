package client

import (
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// Response is a fully read HTTP response. The body is consumed and closed by Client.Do, so a
// Response can be inspected any number of times.
type Response struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	// Header lookups are case-insensitive via http.Header.Get.
	Header   http.Header
	Body     []byte
	Duration time.Duration

	parsed   bool
	json     gjson.Result
	parseErr error
}

// JSON parses the body on first access. Returns a *ParseError if the body is not valid JSON.
func (r *Response) JSON() (gjson.Result, error) {
	if !r.parsed {
		r.parsed = true
		if gjson.ValidBytes(r.Body) {
			r.json = gjson.ParseBytes(r.Body)
		} else {
			r.parseErr = &ParseError{URL: r.URL, Body: r.Body}
		}
	}
	return r.json, r.parseErr
}

// Field returns the value under `path`, which uses gjson syntax. An empty path returns the whole
// body. Returns a *ParseError if the body is not JSON and a *FieldMissingError if the key does not
// exist.
func (r *Response) Field(path string) (gjson.Result, error) {
	body, err := r.JSON()
	if err != nil {
		return gjson.Result{}, err
	}
	if path == "" {
		return body, nil
	}
	res := body.Get(path)
	if !res.Exists() {
		return res, &FieldMissingError{Path: path, Body: r.Body}
	}
	return res, nil
}

// HeaderValue returns the first value of the named response header.
func (r *Response) HeaderValue(name string) string {
	return r.Header.Get(name)
}
