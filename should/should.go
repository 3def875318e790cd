// Package should contains assertions for tests, which returns an error if the assertion fails.
package should

import (
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/apicheck/apicheck/client"
	"github.com/apicheck/apicheck/match"
)

// ParseJSON will ensure that the response body is valid JSON, then return the body, else returns a *client.ParseError.
func ParseJSON(res *client.Response) (gjson.Result, error) {
	return res.JSON()
}

// MatchRequest consumes the HTTP request and performs HTTP-level assertions on it. Returns the raw request body.
func MatchRequest(req *http.Request, m match.HTTPRequest) ([]byte, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("MatchRequest: Failed to read request body: %s", err)
	}

	contextStr := fmt.Sprintf("%s => %s", req.URL.String(), string(body))

	for name, val := range m.Headers {
		if req.Header.Get(name) != val {
			return nil, fmt.Errorf("MatchRequest got %s: %s want %s - %s", name, req.Header.Get(name), val, contextStr)
		}
	}
	if m.JSON != nil {
		if !gjson.ValidBytes(body) {
			return nil, fmt.Errorf("MatchRequest request body is not valid JSON - %s", contextStr)
		}
		parsedBody := gjson.ParseBytes(body)
		for _, jm := range m.JSON {
			if err = jm(parsedBody); err != nil {
				return nil, fmt.Errorf("MatchRequest %s - %s", err, contextStr)
			}
		}
	}
	return body, nil
}

// MatchStatus fails if the response status is not `want`.
func MatchStatus(res *client.Response, want int) error {
	if res.StatusCode != want {
		return fmt.Errorf("got status %d want %d", res.StatusCode, want)
	}
	return nil
}

// MatchHeader fails if the response header `name` is not exactly `want`. Header names are case-insensitive.
func MatchHeader(res *client.Response, name, want string) error {
	if _, ok := res.Header[http.CanonicalHeaderKey(name)]; !ok {
		return fmt.Errorf("header '%s' missing", name)
	}
	if got := res.HeaderValue(name); got != want {
		return fmt.Errorf("header '%s' got '%s' want '%s'", name, got, want)
	}
	return nil
}

// MatchResponse performs HTTP-level assertions on the response. Returns the raw response body.
//
// A body which is not valid JSON when JSON matchers were given is reported as a *client.ParseError so
// callers can tell it apart from a failed matcher.
func MatchResponse(res *client.Response, m match.HTTPResponse) ([]byte, error) {
	contextStr := fmt.Sprintf("%s => %s", res.URL, string(res.Body))

	if m.StatusCode != 0 {
		if err := MatchStatus(res, m.StatusCode); err != nil {
			return nil, fmt.Errorf("MatchResponse %s - %s", err, contextStr)
		}
	}
	for name, val := range m.Headers {
		if err := MatchHeader(res, name, val); err != nil {
			return nil, fmt.Errorf("MatchResponse %s - %s", err, contextStr)
		}
	}
	if m.JSON != nil {
		parsedBody, err := res.JSON()
		if err != nil {
			return nil, err
		}
		for _, jm := range m.JSON {
			if err = jm(parsedBody); err != nil {
				return nil, fmt.Errorf("MatchResponse %s - %s", err, contextStr)
			}
		}
	}
	return res.Body, nil
}

// MatchGJSON performs JSON assertions on a gjson.Result object.
func MatchGJSON(body gjson.Result, matchers ...match.JSON) error {
	if !gjson.Valid(body.Raw) {
		return fmt.Errorf("MatchGJSON: input is not valid JSON")
	}
	for _, jm := range matchers {
		if err := jm(body); err != nil {
			return fmt.Errorf("MatchGJSON %s with input = %v", err, body.Get("@pretty").String())
		}
	}
	return nil
}
