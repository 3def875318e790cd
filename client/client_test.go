package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apicheck/apicheck/client"
	"github.com/apicheck/apicheck/internal/web"
	"github.com/apicheck/apicheck/match"
	"github.com/apicheck/apicheck/should"
)

func TestDoSendsOptions(t *testing.T) {
	errs := make(chan error, 1)
	srv, err := web.NewServer(func(r *mux.Router) {
		r.HandleFunc("/things", func(w http.ResponseWriter, req *http.Request) {
			_, err := should.MatchRequest(req, match.HTTPRequest{
				Headers: map[string]string{
					"Accept":        "application/json",
					"Content-Type":  "application/json",
					"Authorization": "Bearer s3cret",
					"X-Extra":       "yes",
				},
				JSON: []match.JSON{
					match.JSONKeyEqual("name", "widget"),
				},
			})
			if err == nil && req.URL.Query().Get("page") != "2" {
				err = errors.New("missing page query parameter")
			}
			errs <- err
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(201)
			w.Write([]byte(`{"id":7,"name":"widget"}`))
		}).Methods("POST")
	})
	require.NoError(t, err)
	defer srv.Close()

	rt := client.WithBearerTransport(client.NewTransport(client.DefaultPoolConfig()), "s3cret")
	cli := client.New("things", srv.URL+"/", client.NewLoggedClient(logrus.StandardLogger(), "things", rt, 5*time.Second, false), nil)
	res, err := cli.Do(context.Background(), "POST", "things",
		client.WithJSONBody(map[string]string{"name": "widget"}),
		client.WithQueries(url.Values{"page": []string{"2"}}),
		client.WithHeader("X-Extra", "yes"),
	)
	require.NoError(t, err)
	require.NoError(t, <-errs)
	assert.Equal(t, 201, res.StatusCode)

	id, err := res.Field("id")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id.Int())

	_, err = res.Field("missing.key")
	var missing *client.FieldMissingError
	assert.True(t, errors.As(err, &missing), "want FieldMissingError, got %v", err)
}

func TestDoNotJSON(t *testing.T) {
	srv, err := web.NewServer(func(r *mux.Router) {
		r.HandleFunc("/page", func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte("<html></html>"))
		})
	})
	require.NoError(t, err)
	defer srv.Close()

	res, err := client.New("html", srv.URL, nil, nil).Do(context.Background(), "GET", "/page")
	require.NoError(t, err)
	_, err = res.JSON()
	var parseErr *client.ParseError
	assert.True(t, errors.As(err, &parseErr), "want ParseError, got %v", err)
	_, err = res.Field("anything")
	assert.True(t, errors.As(err, &parseErr), "Field: want ParseError, got %v", err)
}

func TestDoTransportError(t *testing.T) {
	srv, err := web.NewServer(func(r *mux.Router) {})
	require.NoError(t, err)
	base := srv.URL
	srv.Close()

	_, err = client.New("gone", base, nil, nil).Do(context.Background(), "GET", "/")
	var transportErr *client.TransportError
	require.True(t, errors.As(err, &transportErr), "want TransportError, got %v", err)
	assert.Equal(t, "GET", transportErr.Method)
}

func TestDoRetryUntil(t *testing.T) {
	var calls atomic.Int32
	srv, err := web.NewServer(func(r *mux.Router) {
		r.HandleFunc("/ready", func(w http.ResponseWriter, req *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(503)
				return
			}
			w.WriteHeader(200)
		})
	})
	require.NoError(t, err)
	defer srv.Close()

	res, err := client.New("flaky", srv.URL, nil, nil).Do(context.Background(), "GET", "/ready",
		client.WithRetryUntil(5*time.Second, func(res *client.Response) bool {
			return res.StatusCode == 200
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestURL(t *testing.T) {
	cli := client.New("x", "https://api.example.com/v1/", nil, nil)
	assert.Equal(t, "https://api.example.com/v1/users", cli.URL("/users"))
	assert.Equal(t, "https://api.example.com/v1/users", cli.URL("users"))
	assert.Equal(t, "https://api.example.com/v1", cli.URL(""))
	assert.Equal(t, "http://other/x", cli.URL("http://other/x"))
	assert.Equal(t, "/users/a%2Fb/repos", client.Path("users", "a/b", "repos"))
}
