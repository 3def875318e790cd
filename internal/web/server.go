package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/matrix-org/util"
)

type Server struct {
	URL      string
	Port     int
	server   *http.Server
	listener net.Listener
}

// NewServer starts an HTTP server on a random loopback port. `configFunc` registers the routes.
func NewServer(configFunc func(router *mux.Router)) (*Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("could not create listener for web server: %w", err)
	}

	port := listener.Addr().(*net.TCPAddr).Port

	r := mux.NewRouter()

	configFunc(r)

	server := &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}

	go server.Serve(listener) // nolint:errcheck

	return &Server{
		URL:      fmt.Sprintf("http://127.0.0.1:%d", port),
		Port:     port,
		server:   server,
		listener: listener,
	}, nil
}

// Shutdown stops accepting connections and waits for in-flight requests, up to the deadline of `ctx`.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) Close() {
	s.server.Close()
	s.listener.Close()
}

// jsonAPI serves the util.JSONResponse returned by `fn`, always as application/json.
func jsonAPI(fn func(req *http.Request) util.JSONResponse) http.Handler {
	return util.MakeJSONAPI(util.NewJSONRequestHandler(fn))
}

func jsonResponse(code int, v interface{}) util.JSONResponse {
	return util.JSONResponse{Code: code, JSON: v}
}

// readJSONObject decodes the request body as a JSON object. An empty body is an empty object.
func readJSONObject(req *http.Request) (map[string]interface{}, error) {
	obj := map[string]interface{}{}
	if req.Body == nil || req.ContentLength == 0 {
		return obj, nil
	}
	dec := json.NewDecoder(req.Body)
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return obj, nil
}
