package scenario

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/apicheck/apicheck/client"
	"github.com/apicheck/apicheck/match"
)

func validScenario() Scenario {
	return Scenario{
		Name:         "create then delete",
		Collaborator: "placeholder",
		Steps: []Step{
			{Method: "POST", URL: "/posts", Body: map[string]interface{}{"title": "t"}, Store: map[string]string{"post_id": "id"}},
			{Method: "DELETE", URL: "/posts/$post_id", Expect: []Expectation{Status(200)}},
		},
	}
}

func TestValidate(t *testing.T) {
	s := validScenario()
	require.NoError(t, s.Validate())

	testCases := []struct {
		name    string
		mutate  func(s *Scenario)
		wantErr string
	}{
		{"no name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"no collaborator", func(s *Scenario) { s.Collaborator = "" }, "collaborator is required"},
		{"no steps", func(s *Scenario) { s.Steps = nil }, "at least one step"},
		{"bad verb", func(s *Scenario) { s.Steps[0].Method = "FETCH" }, "unsupported method 'FETCH'"},
		{"lowercase verb", func(s *Scenario) { s.Steps[0].Method = "get" }, "unsupported method"},
		{"bad url", func(s *Scenario) { s.Steps[0].URL = "http://[::1" }, "is invalid"},
		{"bad scheme", func(s *Scenario) { s.Steps[0].URL = "ftp://example.com/x" }, "unsupported scheme"},
		{"empty url", func(s *Scenario) { s.Steps[0].URL = "" }, "url is required"},
		{"var used before stored", func(s *Scenario) { s.Steps[0].URL = "/posts/$post_id" }, "no earlier step stores"},
		{"body var unknown", func(s *Scenario) { s.Steps[1].BodyVars = map[string]string{"postId": "nope"} }, "'nope' which no earlier step stores"},
		{"both auths", func(s *Scenario) {
			s.Steps[0].Auth = &Auth{Basic: &BasicAuth{User: "u"}, Bearer: "x"}
		}, "both basic and bearer"},
		{"bad type", func(s *Scenario) { s.Steps[1].Expect = []Expectation{TypeOf("id", "int")} }, "unknown type 'int'"},
		{"bad regexp", func(s *Scenario) { s.Steps[1].Expect = []Expectation{Matches("email", "(")} }, "is invalid"},
		{"bad op", func(s *Scenario) { s.Steps[1].Expect = []Expectation{Compare("id", "approx", 1)} }, "unknown comparison operator"},
		{"compare non number", func(s *Scenario) { s.Steps[1].Expect = []Expectation{Compare("id", match.OpGT, "one")} }, "is not a number"},
		{"nested status", func(s *Scenario) { s.Steps[1].Expect = []Expectation{Each("", Status(200))} }, "cannot be applied to array elements"},
		{"empty each", func(s *Scenario) { s.Steps[1].Expect = []Expectation{Each("")} }, "at least one nested"},
		{"nil predicate", func(s *Scenario) { s.Steps[1].Expect = []Expectation{Predicate("", "x", nil)} }, "predicate function is nil"},
		{"unknown check", func(s *Scenario) { s.Steps[1].Expect = []Expectation{{Check: "approximately"}} }, "unknown check"},
		{"bad var name", func(s *Scenario) { s.Steps[0].Store = map[string]string{"post-id": "id"} }, "invalid variable name"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := validScenario()
			tc.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestSubstituteURL(t *testing.T) {
	vars := Vars{
		"post":    gjson.Parse(`"wrong"`),
		"post_id": gjson.Parse(`101`),
		"slug":    gjson.Parse(`"a b/c"`),
	}
	assert.Equal(t, "/posts/101/comments", SubstituteURL("/posts/$post_id/comments", vars))
	assert.Equal(t, "/x/a%20b%2Fc", SubstituteURL("/x/$slug", vars))
	assert.Equal(t, "/static", SubstituteURL("/static", vars))
}

func response(status int, header http.Header, body string) *client.Response {
	if header == nil {
		header = http.Header{}
	}
	return &client.Response{URL: "http://collab/x", StatusCode: status, Header: header, Body: []byte(body)}
}

func TestEvaluate(t *testing.T) {
	res := response(201, http.Header{"Content-Type": []string{"application/json"}}, `{
		"id": 101, "title": "t", "userId": "1", "tags": ["x", "y"],
		"items": [{"completed": true}, {"completed": false}]
	}`)
	vars := Vars{"stars": gjson.Parse(`100`), "title": gjson.Parse(`"t"`)}

	testCases := []struct {
		expect Expectation
		pass   bool
	}{
		{Status(201), true},
		{Status(200), false},
		{Header("content-type", "application/json"), true},
		{Header("X-Missing", "x"), false},
		{Equal("id", 101), true},
		{Equal("title", "$title"), true},
		{Equal("userId", 1), false},
		{LooseEqual("userId", 1), true},
		{TypeOf("id", match.KindInteger), true},
		{TypeOf("tags", match.KindObject), false},
		{Present("tags.1"), true},
		{Missing("body"), true},
		{Missing("id"), false},
		{NonEmpty("tags"), true},
		{Count("tags", 2), true},
		{Count("tags", 3), false},
		{Each("items", TypeOf("completed", match.KindBool)), true},
		{Each("items", Equal("completed", true)), false},
		{Matches("title", "^t$"), true},
		{Compare("id", match.OpGT, 100), true},
		{Compare("id", match.OpLT, "$stars"), false},
		{Compare("id", match.OpGT, "$unknown"), false},
		{Predicate("tags", "two tags", func(r gjson.Result) error {
			if len(r.Array()) != 2 {
				return fmt.Errorf("want 2 tags")
			}
			return nil
		}), true},
	}
	for _, tc := range testCases {
		t.Run(tc.expect.Describe(), func(t *testing.T) {
			err := tc.expect.Evaluate(res, vars)
			if tc.pass {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestEvaluateNonJSON(t *testing.T) {
	res := response(200, nil, `<html>oops</html>`)
	assert.NoError(t, Status(200).Evaluate(res, nil))

	err := Equal("id", 1).Evaluate(res, nil)
	var parseErr *client.ParseError
	assert.True(t, errors.As(err, &parseErr), "want ParseError, got %v", err)
}

func TestWorse(t *testing.T) {
	assert.Equal(t, TransportError, Worse(AssertionFailure, TransportError))
	assert.Equal(t, Interrupted, Worse(Interrupted, TransportError))
	assert.Equal(t, ParseError, Worse(ParseError, FieldMissing))
	assert.Equal(t, FieldMissing, Worse(AssertionFailure, FieldMissing))
	assert.Equal(t, AssertionFailure, Worse(Passed, AssertionFailure))
	assert.True(t, AssertionFailure.Failed())
	assert.False(t, Skipped.Failed())
	assert.False(t, Passed.Failed())
}

const yamlScenarios = `
- name: get user 5
  collaborator: placeholder
  steps:
    - method: GET
      url: /users/5
      expect:
        - check: status
          status: 200
        - check: equal
          key: name
          value: Chelsey Dietrich
        - check: type
          key: address
          type: object
- name: echo down
  collaborator: echo
  tolerate:
    transport_failure: true
    statuses: [503]
  timeout_secs: 5
  steps:
    - method: GET
      url: /headers
      headers:
        X-Custom-Header: CustomValue
      expect:
        - check: equal
          key: headers.X-Custom-Header
          value: CustomValue
`

const jsonScenario = `{
	"name": "create post",
	"collaborator": "placeholder",
	"steps": [{
		"method": "POST",
		"url": "/posts",
		"body": {"title": "t", "body": "b", "userId": 0},
		"expect": [
			{"check": "status", "status": 201},
			{"check": "each", "key": "tags", "each": [{"check": "type", "type": "string"}]}
		]
	}]
}`

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(yamlScenarios), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte(jsonScenario), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o600))

	scenarios, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 3)

	assert.Equal(t, "get user 5", scenarios[0].Name)
	assert.Equal(t, "Chelsey Dietrich", scenarios[0].Steps[0].Expect[1].Value)
	assert.Equal(t, match.KindObject, scenarios[0].Steps[0].Expect[2].Type)

	echo := scenarios[1]
	assert.True(t, echo.Tolerate.TransportFailure)
	assert.True(t, echo.Tolerate.ToleratesStatus(503))
	assert.False(t, echo.Tolerate.ToleratesStatus(500))
	assert.Equal(t, "CustomValue", echo.Steps[0].Headers["X-Custom-Header"])
	assert.Equal(t, 5, echo.TimeoutSecs)

	post := scenarios[2]
	assert.Equal(t, "create post", post.Name)
	assert.Equal(t, 201, post.Steps[0].Expect[0].Status)
	assert.Equal(t, CheckEach, post.Steps[0].Expect[1].Check)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("name: x\ncollaborator: echo\nsteps:\n  - method: FETCH\n    url: /get\n"), 0o600))
	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "unsupported method")

	_, err = LoadFile(filepath.Join(dir, "scenarios.toml"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "dup.yml"), []byte(yamlScenarios), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dup2.yml"), []byte(yamlScenarios), 0o600))
	require.NoError(t, os.Remove(path))
	_, err = LoadDir(dir)
	assert.ErrorContains(t, err, "defined in both")
}
