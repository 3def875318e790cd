package suite

import (
	"github.com/apicheck/apicheck/config"
	"github.com/apicheck/apicheck/scenario"
)

// echoTolerance skips echo checks when the public echo service is overloaded or unreachable.
var echoTolerance = scenario.Tolerance{TransportFailure: true, Statuses: []int{502, 503, 504}}

// Echo returns the header and authentication checks against the HTTP echo service.
func Echo() []scenario.Scenario {
	echo := func(name string, step scenario.Step) scenario.Scenario {
		s := single(name, config.Echo, step)
		s.Tolerate = echoTolerance
		return s
	}
	withHeaders := func(step scenario.Step, h map[string]string) scenario.Step {
		step.Headers = h
		return step
	}
	withAuth := func(step scenario.Step, auth *scenario.Auth) scenario.Step {
		step.Auth = auth
		return step
	}
	return []scenario.Scenario{
		echo("custom request header is echoed", withHeaders(get("/headers",
			scenario.Status(200),
			scenario.Equal("headers.X-Custom-Header", "MyValue"),
		), map[string]string{"X-Custom-Header": "MyValue"})),
		echo("custom response header is set", scenario.Step{
			Method: "GET",
			URL:    "/response-headers",
			Query:  map[string]string{"My-Test-Header": "Hello"},
			Expect: []scenario.Expectation{
				scenario.Status(200),
				scenario.Header("My-Test-Header", "Hello"),
			},
		}),
		echo("user agent is echoed", withHeaders(get("/headers",
			scenario.Status(200),
			scenario.Equal("headers.User-Agent", "My-Test-Agent/1.0"),
		), map[string]string{"User-Agent": "My-Test-Agent/1.0"})),
		echo("multiple request headers are echoed", withHeaders(get("/headers",
			scenario.Status(200),
			scenario.Equal("headers.X-Header-1", "Value1"),
			scenario.Equal("headers.X-Header-2", "Value2"),
		), map[string]string{"X-Header-1": "Value1", "X-Header-2": "Value2"})),
		echo("basic auth accepts the right password", withAuth(get("/basic-auth/user/passwd",
			scenario.Status(200),
			scenario.Equal("authenticated", true),
			scenario.Equal("user", "user"),
		), &scenario.Auth{Basic: &scenario.BasicAuth{User: "user", Password: "passwd"}})),
		echo("basic auth rejects the wrong password", withAuth(get("/basic-auth/user/passwd",
			scenario.Status(401),
		), &scenario.Auth{Basic: &scenario.BasicAuth{User: "user", Password: "wrong"}})),
		echo("bearer token is accepted", withAuth(get("/bearer",
			scenario.Status(200),
			scenario.Equal("authenticated", true),
			scenario.Equal("token", "my-mock-token"),
		), &scenario.Auth{Bearer: "my-mock-token"})),
		echo("bearer without a token is rejected", get("/bearer",
			scenario.Status(401),
		)),
	}
}
