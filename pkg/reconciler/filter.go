package reconciler

import "github.com/agentstation/meshdns/pkg/inventory"

// skipReason says why a candidate was not published.
type skipReason int

const (
	keep skipReason = iota
	skipDuplicate
	skipAllowlist
	skipBlocklist
)

// passesMiddlewares reports whether a route may be published. With no
// middleware allowlist every route passes; otherwise the route must declare
// at least one allowed middleware.
func (r *Reconciler) passesMiddlewares(route inventory.Route) bool {
	if len(r.opts.middlewares) == 0 {
		return true
	}
	return route.HasMiddleware(r.opts.middlewares)
}

// checkDomain applies the domain allowlist, then the blocklist.
func (r *Reconciler) checkDomain(domain string) skipReason {
	if re := r.opts.domainAllowlist; re != nil && !re.MatchString(domain) {
		return skipAllowlist
	}
	if re := r.opts.domainBlocklist; re != nil && re.MatchString(domain) {
		return skipBlocklist
	}
	return keep
}
