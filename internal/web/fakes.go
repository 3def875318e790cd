package web

import (
	"github.com/gorilla/mux"

	"github.com/apicheck/apicheck/config"
)

var fakePrefixes = map[string]string{
	config.GitHub:      "/github",
	config.Placeholder: "/placeholder",
	config.Echo:        "/echo",
}

// NewFakeCollaborators starts one server hosting offline fakes of every collaborator, each under its own
// path prefix. Use BaseURLs to point a config at it.
func NewFakeCollaborators() (*Server, error) {
	return NewServer(func(r *mux.Router) {
		GitHubRoutes(r.PathPrefix(fakePrefixes[config.GitHub]).Subrouter())
		PlaceholderRoutes(r.PathPrefix(fakePrefixes[config.Placeholder]).Subrouter())
		EchoRoutes(r.PathPrefix(fakePrefixes[config.Echo]).Subrouter())
	})
}

// BaseURLs returns the base URL of every fake collaborator hosted by this server, keyed by collaborator
// name. Only meaningful for servers made with NewFakeCollaborators.
func (s *Server) BaseURLs() map[string]string {
	urls := make(map[string]string, len(fakePrefixes))
	for name, prefix := range fakePrefixes {
		urls[name] = s.URL + prefix
	}
	return urls
}
