// Package transport provides the authenticated HTTP plumbing shared by the
// Headscale and Traefik clients.
package transport

import (
	"context"
	"net/http"

	"github.com/agentstation/meshdns/pkg/constants"
	"github.com/agentstation/meshdns/pkg/errors"
	"github.com/agentstation/meshdns/pkg/logging"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// Client provides HTTP client functionality with authentication.
type Client struct {
	http    *http.Client
	auth    Authenticator
	service string
}

// New creates a new transport client for the named upstream service with the
// specified authenticator.
func New(service string, auth Authenticator) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	return &Client{
		http:    &http.Client{Timeout: DefaultHTTPTimeout},
		auth:    auth,
		service: service,
	}
}

// Service returns the upstream service name used in errors.
func (c *Client) Service() string {
	return c.service
}

// Get performs an authenticated GET request. Transport failures are returned
// as UpstreamError; the status code is not checked.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapUpstream(c.service, url, err)
	}

	c.auth.Apply(req)
	req.Header.Set("Accept", "application/json")

	logger := logging.Ctx(logging.WithService(ctx, c.service))
	logger.Debug().Str("url", url).Msg("Sending request")

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Debug().Err(err).Str("url", url).Msg("Request failed")
		return nil, errors.WrapUpstream(c.service, url, err)
	}
	logger.Debug().Str("url", url).Int("status", resp.StatusCode).Msg("Received response")
	return resp, nil
}

// GetJSON performs an authenticated GET and decodes a successful JSON
// response into target.
func (c *Client) GetJSON(ctx context.Context, url string, target any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	return DecodeResponse(c.service, url, resp, target)
}

// Probe performs an authenticated GET and only checks for a 2xx status.
func (c *Client) Probe(ctx context.Context, url string) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	return DecodeResponse(c.service, url, resp, nil)
}
