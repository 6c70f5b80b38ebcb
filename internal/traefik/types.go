package traefik

import "github.com/agentstation/meshdns/pkg/inventory"

// apiRouter is one entry of /api/http/routers. Traefik reports entry points,
// status, TLS and more; only what meshdns filters on is decoded.
type apiRouter struct {
	Service     string   `json:"service"`
	Rule        string   `json:"rule"`
	Middlewares []string `json:"middlewares,omitempty"`
}

func (r apiRouter) toRoute() inventory.Route {
	return inventory.Route{
		Service:     r.Service,
		Rule:        r.Rule,
		Middlewares: r.Middlewares,
	}
}
