// Package must contains assertions for tests, which fail the test if the assertion fails.
package must

import (
	"github.com/tidwall/gjson"

	"github.com/apicheck/apicheck/client"
	"github.com/apicheck/apicheck/ct"
	"github.com/apicheck/apicheck/match"
	"github.com/apicheck/apicheck/should"
)

// NotError will ensure `err` is nil else terminate the test with `msg`.
func NotError(t ct.TestLike, msg string, err error) {
	t.Helper()
	if err != nil {
		ct.Fatalf(t, "must.NotError: %s -> %s", msg, err)
	}
}

// ParseJSON will ensure that the response body is valid JSON, then return the body, else terminate the test.
func ParseJSON(t ct.TestLike, res *client.Response) gjson.Result {
	t.Helper()
	body, err := should.ParseJSON(res)
	if err != nil {
		ct.Fatalf(t, "%s", err)
	}
	return body
}

// MatchResponse performs HTTP-level assertions on the response. Returns the raw response body.
func MatchResponse(t ct.TestLike, res *client.Response, m match.HTTPResponse) []byte {
	t.Helper()
	body, err := should.MatchResponse(res, m)
	if err != nil {
		ct.Fatalf(t, "%s", err)
	}
	return body
}

// MatchGJSON performs JSON assertions on a gjson.Result object.
func MatchGJSON(t ct.TestLike, jsonResult gjson.Result, matchers ...match.JSON) {
	t.Helper()
	err := should.MatchGJSON(jsonResult, matchers...)
	if err != nil {
		ct.Fatalf(t, "%s", err)
	}
}

// Equal ensures that got==want else logs an error.
// The 'msg' is displayed with the error to provide extra context.
func Equal[V comparable](t ct.TestLike, got, want V, msg string) {
	t.Helper()
	if got != want {
		ct.Errorf(t, "Equal %s: got '%v' want '%v'", msg, got, want)
	}
}
