package transport

import (
	"encoding/base64"
	"net/http"
)

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request) {}

// BearerAuth implements Bearer token authentication, as used by the Headscale API.
type BearerAuth struct {
	Token string
}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

// BasicAuth implements HTTP basic authentication, as used by the Traefik API
// behind a basicAuth middleware.
type BasicAuth struct {
	User     string
	Password string
}

// Apply implements the Authenticator interface for BasicAuth.
func (a *BasicAuth) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Basic "+a.encoded())
}

// encoded returns base64(user:password).
func (a *BasicAuth) encoded() string {
	return base64.StdEncoding.EncodeToString([]byte(a.User + ":" + a.Password))
}
