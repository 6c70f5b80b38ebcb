// Package traefik reads HTTP routers from a Traefik API. One client targets
// one Traefik instance, addressed through a shared URL template.
package traefik

import (
	"context"
	"net/url"

	"github.com/agentstation/meshdns/internal/transport"
	"github.com/agentstation/meshdns/pkg/constants"
	"github.com/agentstation/meshdns/pkg/errors"
	"github.com/agentstation/meshdns/pkg/inventory"
)

// ServiceName identifies Traefik in errors and logs.
const ServiceName = "traefik"

// Template errors, matched with errors.Is.
var (
	ErrNoPrefix = errors.New(`no Traefik URL prefix (eg. "https://") has been specified`)
	ErrNoSuffix = errors.New(`no Traefik URL suffix (eg. ":8080" or "/traefik") has been specified`)
	ErrNoHost   = errors.New("no Traefik host: the node has no address or none was configured")
)

// Details configures a Traefik client. The base URL is Prefix+Host+Suffix;
// credentials are shared by every instance.
type Details struct {
	Prefix   string
	Host     string
	Suffix   string
	User     string
	Password string
}

// ForHost returns a copy of d targeting host.
func (d Details) ForHost(host string) Details {
	d.Host = host
	return d
}

// BaseURL returns the templated base URL.
func (d Details) BaseURL() string {
	return d.Prefix + d.Host + d.Suffix
}

// Validate checks the URL template. Prefix is checked first, then suffix,
// then host.
func (d Details) Validate() error {
	switch {
	case d.Prefix == "":
		return errors.NewConfigError(ServiceName, ErrNoPrefix.Error(), ErrNoPrefix)
	case d.Suffix == "":
		return errors.NewConfigError(ServiceName, ErrNoSuffix.Error(), ErrNoSuffix)
	case d.Host == "":
		return errors.NewConfigError(ServiceName, ErrNoHost.Error(), ErrNoHost)
	}

	u, err := url.Parse(d.BaseURL())
	if err != nil {
		return errors.WrapConfig(ServiceName, "invalid URL "+d.BaseURL(), err)
	}
	if u.Scheme == "" || u.Host == "" {
		return errors.NewConfigError(ServiceName, "URL must include scheme and host: "+d.BaseURL(), nil)
	}
	return nil
}

// Client talks to one Traefik API.
type Client struct {
	transport *transport.Client
	baseURL   string
}

// New creates a Traefik client.
func New(details Details) (*Client, error) {
	if err := details.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		transport: transport.New(ServiceName, &transport.BasicAuth{
			User:     details.User,
			Password: details.Password,
		}),
		baseURL: details.BaseURL(),
	}, nil
}

// BaseURL returns the API base URL this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Validate checks that the API is reachable with the configured credentials.
func (c *Client) Validate(ctx context.Context) error {
	return c.transport.Probe(ctx, transport.JoinURL(c.baseURL, constants.TraefikOverviewPath))
}

// FetchRoutes lists the HTTP routers known to this Traefik instance.
func (c *Client) FetchRoutes(ctx context.Context) ([]inventory.Route, error) {
	var resp []apiRouter
	if err := c.transport.GetJSON(ctx, transport.JoinURL(c.baseURL, constants.TraefikRoutersPath), &resp); err != nil {
		return nil, err
	}

	routes := make([]inventory.Route, 0, len(resp))
	for _, r := range resp {
		routes = append(routes, r.toRoute())
	}
	return routes, nil
}
