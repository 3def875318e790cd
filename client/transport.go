package client

import (
	"context"
	"net"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// PoolConfig holds the settings of the shared connection pool used by every collaborator client.
type PoolConfig struct {
	// MaxIdleConnsPerHost controls the idle keep-alive connections kept per collaborator host
	MaxIdleConnsPerHost int
	// IdleConnTimeout is how long an idle connection stays in the pool
	IdleConnTimeout time.Duration
	// DialTimeout bounds the TCP connect
	DialTimeout time.Duration
	// TLSHandshakeTimeout bounds the TLS handshake
	TLSHandshakeTimeout time.Duration
	// ResponseHeaderTimeout bounds the wait for response headers once the request is written
	ResponseHeaderTimeout time.Duration
}

// DefaultPoolConfig returns the pool settings used when none are configured.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		DialTimeout:           10 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}
}

// NewTransport returns an http.Transport which pools connections per host. Share one transport
// between all clients so checks against the same collaborator reuse connections.
func NewTransport(cfg PoolConfig) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          cfg.MaxIdleConnsPerHost * 4,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// WithBearerTransport wraps `base` so every request carries `token` as a bearer credential.
// Returns `base` unchanged if the token is empty.
func WithBearerTransport(base http.RoundTripper, token string) http.RoundTripper {
	if token == "" {
		return base
	}
	return &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
		Base:   base,
	}
}

// NewLoggedClient returns an http.Client which logs requests/responses. If `dump` is set, full
// response dumps are logged at debug level.
func NewLoggedClient(log logrus.FieldLogger, name string, rt http.RoundTripper, timeout time.Duration, dump bool) *http.Client {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &loggedRoundTripper{log: log, name: name, wrap: rt, dump: dump},
	}
}

type loggedRoundTripper struct {
	log  logrus.FieldLogger
	name string
	wrap http.RoundTripper
	dump bool
}

func (t *loggedRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	res, err := t.wrap.RoundTrip(req)
	entry := t.log.WithFields(logrus.Fields{
		"collaborator": t.name,
		"method":       req.Method,
		"path":         req.URL.Path,
		"took":         time.Since(start),
	})
	if err != nil {
		if req.Context().Err() == context.Canceled {
			entry.Debug("request abandoned")
		} else {
			entry.WithError(err).Debug("request failed")
		}
		return res, err
	}
	entry.WithField("status", res.StatusCode).Debug("request complete")
	if t.dump {
		if dump, derr := httputil.DumpResponse(res, true); derr == nil {
			t.log.Debugf("%s", string(dump))
		}
	}
	return res, err
}
