package client

import (
	"fmt"
)

// maxSnippet bounds how much of a response body is echoed back inside error messages.
const maxSnippet = 256

// TransportError is returned when a request could not be completed: DNS, TCP, TLS, timeouts or a
// broken response body. It is distinct from a response which arrived but did not match.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport error: %s", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError is returned when JSON was required from a response body which is not valid JSON.
type ParseError struct {
	URL  string
	Body []byte
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: response body is not valid JSON: %q", e.URL, snippet(e.Body))
}

// FieldMissingError is returned when a JSON field is read directly and does not exist.
type FieldMissingError struct {
	Path string
	Body []byte
}

func (e *FieldMissingError) Error() string {
	return fmt.Sprintf("field '%s' missing from %s", e.Path, snippet(e.Body))
}

func snippet(b []byte) string {
	if len(b) <= maxSnippet {
		return string(b)
	}
	return string(b[:maxSnippet]) + "..."
}
