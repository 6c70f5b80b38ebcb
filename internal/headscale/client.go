// Package headscale implements the read-only parts of the Headscale API that
// meshdns needs: listing users and nodes, and probing the API key.
package headscale

import (
	"context"
	"net/url"
	"strings"

	"github.com/agentstation/meshdns/internal/transport"
	"github.com/agentstation/meshdns/pkg/constants"
	"github.com/agentstation/meshdns/pkg/errors"
	"github.com/agentstation/meshdns/pkg/inventory"
)

// ServiceName identifies Headscale in errors and logs.
const ServiceName = "headscale"

// Details configures a Headscale client.
type Details struct {
	// BaseURL is the Headscale server URL, e.g. https://headscale.example.com.
	BaseURL string

	// APIKey is sent as a bearer token.
	APIKey string

	// MagicTLDs are the base domains magicDNS names live under. Headscale
	// offers no API for this, so it is configured alongside the client.
	MagicTLDs []string
}

// Validate checks that the details can produce a working client.
func (d Details) Validate() error {
	if d.APIKey == "" {
		return errors.NewConfigError(ServiceName, "no API key configured", nil)
	}
	if d.BaseURL == "" {
		return errors.NewConfigError(ServiceName, "no server URL configured", nil)
	}
	u, err := url.Parse(d.BaseURL)
	if err != nil {
		return errors.WrapConfig(ServiceName, "invalid server URL", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return errors.NewConfigError(ServiceName, "server URL must include scheme and host: "+d.BaseURL, nil)
	}
	return nil
}

// Client talks to the Headscale API.
type Client struct {
	transport *transport.Client
	baseURL   string
	magicTLDs []string
}

// New creates a Headscale client.
func New(details Details) (*Client, error) {
	if err := details.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		transport: transport.New(ServiceName, &transport.BearerAuth{Token: details.APIKey}),
		baseURL:   strings.TrimRight(details.BaseURL, "/"),
		magicTLDs: append([]string(nil), details.MagicTLDs...),
	}, nil
}

// MagicTLDs returns the configured magicDNS base domains.
func (c *Client) MagicTLDs() []string {
	return append([]string(nil), c.magicTLDs...)
}

// Validate checks that the server is reachable and accepts the API key.
func (c *Client) Validate(ctx context.Context) error {
	return c.transport.Probe(ctx, transport.JoinURL(c.baseURL, constants.HeadscaleAPIKeyPath))
}

// FetchUsers lists all users.
func (c *Client) FetchUsers(ctx context.Context) ([]inventory.User, error) {
	var resp listUsersResponse
	if err := c.transport.GetJSON(ctx, transport.JoinURL(c.baseURL, constants.HeadscaleUsersPath), &resp); err != nil {
		return nil, err
	}

	users := make([]inventory.User, 0, len(resp.Users))
	for _, u := range resp.Users {
		users = append(users, u.toUser())
	}
	return users, nil
}

// FetchNodes lists all nodes with their addresses.
func (c *Client) FetchNodes(ctx context.Context) ([]inventory.Node, error) {
	var resp listNodesResponse
	if err := c.transport.GetJSON(ctx, transport.JoinURL(c.baseURL, constants.HeadscaleNodesPath), &resp); err != nil {
		return nil, err
	}

	nodes := make([]inventory.Node, 0, len(resp.Nodes))
	for _, n := range resp.Nodes {
		nodes = append(nodes, n.toNode())
	}
	return nodes, nil
}
