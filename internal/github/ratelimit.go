// Package github classifies responses from the GitHub REST API which reflect the API's rate limits rather than
// the behaviour under test.
package github

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/go-github/v60/github"

	"github.com/apicheck/apicheck/client"
)

// TokenHint is appended to every rate limit message.
const TokenHint = "set APICHECK_GITHUB_TOKEN to raise the limit"

// RateLimited reports whether `res` is a primary or secondary rate limit rejection. If it is, the returned string
// describes the limit and when it resets.
func RateLimited(res *client.Response) (bool, string) {
	if res.StatusCode == http.StatusTooManyRequests {
		msg := "rate limited (HTTP 429)"
		if ra := res.HeaderValue("Retry-After"); ra != "" {
			msg += ", retry after " + ra + "s"
		}
		return true, msg + "; " + TokenHint
	}
	if res.StatusCode != http.StatusForbidden {
		return false, ""
	}
	err := github.CheckResponse(toHTTPResponse(res))

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		msg := fmt.Sprintf("rate limit of %d requests exhausted", rateErr.Rate.Limit)
		if !rateErr.Rate.Reset.Time.IsZero() {
			msg += fmt.Sprintf(", resets in %v", time.Until(rateErr.Rate.Reset.Time).Round(time.Second))
		}
		return true, msg + "; " + TokenHint
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		msg := "secondary rate limit hit"
		if abuseErr.RetryAfter != nil {
			msg += fmt.Sprintf(", retry after %v", *abuseErr.RetryAfter)
		}
		return true, msg + "; " + TokenHint
	}
	return false, ""
}

// toHTTPResponse rebuilds enough of an *http.Response for go-github to inspect.
func toHTTPResponse(res *client.Response) *http.Response {
	req := &http.Request{Method: res.Method, Header: http.Header{}}
	if u, err := url.Parse(res.URL); err == nil {
		req.URL = u
	} else {
		req.URL = &url.URL{}
	}
	return &http.Response{
		Status:     res.Status,
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       io.NopCloser(bytes.NewReader(res.Body)),
		Request:    req,
	}
}
