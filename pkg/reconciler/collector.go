package reconciler

import (
	"context"
	"slices"

	"github.com/agentstation/meshdns/pkg/inventory"
	"github.com/agentstation/meshdns/pkg/logging"
)

// UpdateServers fetches users and nodes, selects the eligible nodes and
// builds one router client per eligible node from its first address.
// State from a previous call is discarded.
func (r *Reconciler) UpdateServers(ctx context.Context) error {
	ctx, logger := r.phaseContext(ctx, "servers")

	r.nodes = nil
	r.clients = nil
	r.stats.Users, r.stats.Nodes, r.stats.EligibleNodes, r.stats.BlockedNodes = 0, 0, 0, 0

	users, err := r.registry.FetchUsers(ctx)
	if err != nil {
		return err
	}
	if len(r.opts.allowedUsers) > 0 {
		users = slices.DeleteFunc(users, func(u inventory.User) bool {
			return !slices.Contains(r.opts.allowedUsers, u.Name)
		})
	}
	allowed := inventory.NewUserSet(users)
	r.stats.Users = len(users)

	nodes, err := r.registry.FetchNodes(ctx)
	if err != nil {
		return err
	}
	r.nodes = nodes
	r.stats.Nodes = len(nodes)

	logger.Info().
		Int("users", len(users)).
		Int("nodes", len(nodes)).
		Msg("Fetched registry inventory")

	for i, node := range r.nodes {
		nodeCtx := logging.WithNode(ctx, node.DisplayName)
		nodeLog := logging.Ctx(nodeCtx)

		if !allowed.Contains(node.Owner.Name) {
			nodeLog.Debug().Str("owner", node.Owner.Name).Msg("Skipping node of user not allowed")
			continue
		}
		if slices.Contains(r.opts.nodeBlocklist, node.DisplayName) {
			r.stats.BlockedNodes++
			nodeLog.Debug().Msg("Skipping blocklisted node")
			continue
		}
		r.stats.EligibleNodes++

		host, _ := node.PrimaryAddress()
		client, err := r.factory(host)
		if err != nil {
			nodeLog.Error().Err(err).Msg("Failed to build router client")
			return err
		}

		if r.opts.validateRouters {
			if err := client.Validate(nodeCtx); err != nil {
				nodeLog.Error().Err(err).Msg("Router API validation failed")
				return err
			}
		}

		r.clients = append(r.clients, routerBinding{client: client, node: i})
		nodeLog.Debug().
			Str("host", host).
			Bool("online", node.Online).
			Msg("Router client ready")
	}

	logger.Info().
		Int("eligible", r.stats.EligibleNodes).
		Int("blocked", r.stats.BlockedNodes).
		Msg("Selected router nodes")

	return nil
}

// UpdateRouters fetches the routes of every router client in node order.
// A route is accepted only the first time its (service, rule) pair is
// seen, across clients and within one client's list.
func (r *Reconciler) UpdateRouters(ctx context.Context) error {
	ctx, logger := r.phaseContext(ctx, "routers")

	r.routes = nil
	r.stats.RoutesFetched, r.stats.RoutesAccepted, r.stats.RoutesDuplicate = 0, 0, 0

	seen := make(map[inventory.RouteKey]struct{})
	for _, binding := range r.clients {
		nodeCtx := logging.WithNode(ctx, r.nodes[binding.node].DisplayName)
		nodeLog := logging.Ctx(nodeCtx)

		routes, err := binding.client.FetchRoutes(nodeCtx)
		if err != nil {
			nodeLog.Error().Err(err).Msg("Failed to fetch routes")
			return err
		}
		r.stats.RoutesFetched += len(routes)

		accepted := 0
		for _, route := range routes {
			key := inventory.KeyOf(route)
			if _, dup := seen[key]; dup {
				r.stats.RoutesDuplicate++
				nodeLog.Debug().
					Str("route", route.Service).
					Msg("Skipping duplicate route")
				continue
			}
			seen[key] = struct{}{}
			r.routes = append(r.routes, routeBinding{route: route, node: binding.node})
			accepted++
		}
		r.stats.RoutesAccepted += accepted

		nodeLog.Debug().
			Int("fetched", len(routes)).
			Int("accepted", accepted).
			Msg("Fetched routes")
	}

	logger.Info().
		Int("routers", len(r.clients)).
		Int("routes", r.stats.RoutesAccepted).
		Msg("Collected routes")

	return nil
}
