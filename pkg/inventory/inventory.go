// Package inventory defines the machine and routing inventory that meshdns
// reconciles: Headscale users and nodes, and Traefik HTTP routes.
package inventory

import "slices"

// User is a Headscale user. Users are identified by name.
type User struct {
	Name string `json:"name" yaml:"name"`
}

// Node is a Headscale node with its mesh addresses.
type Node struct {
	// Addresses are the node's mesh IPs in the order Headscale reports them.
	Addresses []string `json:"addresses" yaml:"addresses"`

	// DisplayName is the magicDNS machine name (Headscale's givenName).
	DisplayName string `json:"displayName" yaml:"displayName"`

	Owner  User `json:"owner" yaml:"owner"`
	Online bool `json:"online" yaml:"online"`
}

// PrimaryAddress returns the address used to reach the node's Traefik API.
func (n Node) PrimaryAddress() (string, bool) {
	if len(n.Addresses) == 0 {
		return "", false
	}
	return n.Addresses[0], true
}

// Route is a Traefik HTTP router.
type Route struct {
	Service string `json:"service" yaml:"service"`
	Rule    string `json:"rule" yaml:"rule"`

	// Middlewares is nil when the router declares none.
	Middlewares []string `json:"middlewares,omitempty" yaml:"middlewares,omitempty"`
}

// HasMiddleware reports whether the route declares any of the given middlewares.
// A route without a middleware list never matches.
func (r Route) HasMiddleware(names []string) bool {
	if r.Middlewares == nil {
		return false
	}
	for _, name := range names {
		if slices.Contains(r.Middlewares, name) {
			return true
		}
	}
	return false
}

// RouteKey identifies a route for deduplication. Middlewares are not part of
// the identity, so two routers differing only in middlewares collapse.
type RouteKey struct {
	Service string
	Rule    string
}

// KeyOf returns the deduplication key of a route.
func KeyOf(r Route) RouteKey {
	return RouteKey{Service: r.Service, Rule: r.Rule}
}

// UserSet is a lookup set of user names.
type UserSet map[string]struct{}

// NewUserSet builds a set from the given users.
func NewUserSet(users []User) UserSet {
	set := make(UserSet, len(users))
	for _, u := range users {
		set[u.Name] = struct{}{}
	}
	return set
}

// Contains reports whether the named user is in the set.
func (s UserSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}
