package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/tidwall/sjson"

	"github.com/apicheck/apicheck/client"
	"github.com/apicheck/apicheck/scenario"
)

// send builds the request for `step`, substituting values stored by earlier steps, and performs it.
func (r *Runner) send(ctx context.Context, cli *client.Client, step scenario.Step, vars scenario.Vars) (*client.Response, error) {
	target := scenario.SubstituteURL(step.URL, vars)
	var opts []client.RequestOpt
	if step.Body != nil || len(step.BodyVars) > 0 {
		body, err := buildBody(step, vars)
		if err != nil {
			return nil, err
		}
		opts = append(opts, client.WithRawBody(body), client.WithContentType("application/json"))
	}
	if len(step.Query) > 0 {
		q := url.Values{}
		for k, v := range step.Query {
			q.Set(k, v)
		}
		opts = append(opts, client.WithQueries(q))
	}
	if len(step.Headers) > 0 {
		opts = append(opts, client.WithHeaders(step.Headers))
	}
	if step.Auth != nil {
		switch {
		case step.Auth.Basic != nil:
			opts = append(opts, client.WithBasicAuth(step.Auth.Basic.User, step.Auth.Basic.Password))
		case step.Auth.Bearer != "":
			opts = append(opts, client.WithBearerToken(step.Auth.Bearer))
		}
	}
	return cli.Do(ctx, step.Method, target, opts...)
}

// buildBody marshals the step body and splices stored values into it. Stored values keep their JSON type, so an
// id stored as a number is sent as a number.
func buildBody(step scenario.Step, vars scenario.Vars) ([]byte, error) {
	body := []byte("{}")
	if step.Body != nil {
		var err error
		body, err = json.Marshal(step.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON body: %w", err)
		}
	}
	for _, path := range sortedKeys(step.BodyVars) {
		name := step.BodyVars[path]
		val, ok := vars[name]
		if !ok {
			return nil, fmt.Errorf("variable '%s' was not stored", name)
		}
		var err error
		body, err = sjson.SetRawBytes(body, path, []byte(val.Raw))
		if err != nil {
			return nil, fmt.Errorf("failed to set '%s' in body: %w", path, err)
		}
	}
	return body, nil
}
