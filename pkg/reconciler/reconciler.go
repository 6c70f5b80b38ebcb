// Package reconciler turns the Headscale node inventory and the Traefik
// routers running on those nodes into a deduplicated list of DNS records.
//
// A run has three phases, each available on its own:
//
//	UpdateServers   users and nodes from the registry, one router client per eligible node
//	UpdateRouters   routes from every router client, deduplicated by (service, rule)
//	GenerateRecords records for every accepted route, plus legacy node names
//
// Run executes all three in order. Any fetch failure aborts the run and
// nothing is produced.
package reconciler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/meshdns/pkg/errors"
	"github.com/agentstation/meshdns/pkg/inventory"
	"github.com/agentstation/meshdns/pkg/logging"
)

// Registry provides the user and node inventory.
type Registry interface {
	FetchUsers(ctx context.Context) ([]inventory.User, error)
	FetchNodes(ctx context.Context) ([]inventory.Node, error)
}

// RouterClient reads the routes of one router instance.
type RouterClient interface {
	FetchRoutes(ctx context.Context) ([]inventory.Route, error)
	Validate(ctx context.Context) error
}

// RouterFactory builds the router client for a node address. An empty host
// means the node has no address; the factory reports that as an error.
type RouterFactory func(host string) (RouterClient, error)

// routerBinding ties a router client to the node it runs on.
type routerBinding struct {
	client RouterClient
	node   int
}

// routeBinding ties an accepted route to the node that served it.
type routeBinding struct {
	route inventory.Route
	node  int
}

// Reconciler holds the state of one reconciliation. Node data lives once in
// nodes; clients and routes refer to it by index.
type Reconciler struct {
	registry Registry
	factory  RouterFactory
	opts     *options

	nodes   []inventory.Node
	clients []routerBinding
	routes  []routeBinding

	stats Stats
}

// New creates a Reconciler reading from registry and building router
// clients with factory.
func New(registry Registry, factory RouterFactory, opts ...Option) (*Reconciler, error) {
	if registry == nil {
		return nil, &errors.ValidationError{Field: "registry", Message: "cannot be nil"}
	}
	if factory == nil {
		return nil, &errors.ValidationError{Field: "factory", Message: "cannot be nil"}
	}

	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	return &Reconciler{
		registry: registry,
		factory:  factory,
		opts:     options,
	}, nil
}

// Run performs all three phases and returns the records with statistics.
func (r *Reconciler) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	logger := r.logger(ctx)

	if err := r.UpdateServers(ctx); err != nil {
		return nil, err
	}
	if err := r.UpdateRouters(ctx); err != nil {
		return nil, err
	}

	recs := r.generate(ctx)

	result := &Result{
		Records:  recs,
		Stats:    r.stats,
		Duration: time.Since(start),
	}

	logger.Info().
		Object("stats", result.Stats).
		Dur("duration", result.Duration).
		Msg("Reconciliation completed")

	return result, nil
}

// Nodes returns the full node inventory from the last UpdateServers.
func (r *Reconciler) Nodes() []inventory.Node {
	return append([]inventory.Node(nil), r.nodes...)
}

// Routes returns the accepted routes from the last UpdateRouters.
func (r *Reconciler) Routes() []inventory.Route {
	out := make([]inventory.Route, 0, len(r.routes))
	for _, b := range r.routes {
		out = append(out, b.route)
	}
	return out
}

// Stats returns the counters accumulated so far.
func (r *Reconciler) Stats() Stats {
	return r.stats
}

func (r *Reconciler) logger(ctx context.Context) *zerolog.Logger {
	if r.opts.logger != nil {
		return r.opts.logger
	}
	return logging.FromContext(ctx)
}

// phaseContext returns ctx carrying the logger tagged with the phase name,
// so router clients called with it log under the same phase.
func (r *Reconciler) phaseContext(ctx context.Context, phase string) (context.Context, *zerolog.Logger) {
	ctx = logging.WithPhase(logging.WithLogger(ctx, r.logger(ctx)), phase)
	return ctx, logging.Ctx(ctx)
}
