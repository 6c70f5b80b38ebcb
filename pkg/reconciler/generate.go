package reconciler

import (
	"context"
	"fmt"

	"github.com/agentstation/meshdns/pkg/records"
	"github.com/agentstation/meshdns/pkg/rules"
)

// GenerateRecords builds the record list from the accepted routes and, when
// legacy naming is enabled, the node inventory. It does not fetch anything
// and returns the same output for the same phase state.
func (r *Reconciler) GenerateRecords() []records.DNSRecord {
	return r.generate(context.Background())
}

func (r *Reconciler) generate(ctx context.Context) []records.DNSRecord {
	_, logger := r.phaseContext(ctx, "records")

	r.stats.SkippedMiddleware, r.stats.SkippedNoDomain, r.stats.SkippedDuplicate = 0, 0, 0
	r.stats.SkippedAllowlist, r.stats.SkippedBlocklist = 0, 0
	r.stats.RouterRecords, r.stats.LegacyRecords = 0, 0

	set := records.NewSet()
	for _, binding := range r.routes {
		route := binding.route
		node := r.nodes[binding.node]

		if !r.passesMiddlewares(route) {
			r.stats.SkippedMiddleware++
			logger.Debug().Str("service", route.Service).Msg("Route has no allowed middleware")
			continue
		}

		domains := rules.ExtractDomains(route.Rule)
		if len(domains) == 0 {
			r.stats.SkippedNoDomain++
			logger.Debug().Str("service", route.Service).Str("rule", route.Rule).Msg("Route has no host")
			continue
		}

		for _, address := range node.Addresses {
			for _, domain := range domains {
				record := records.New(domain, address)

				reason := skipDuplicate
				if !set.Contains(record) {
					reason = r.checkDomain(domain)
				}

				switch reason {
				case skipDuplicate:
					r.stats.SkippedDuplicate++
				case skipAllowlist:
					r.stats.SkippedAllowlist++
					logger.Debug().Str("domain", domain).Msg("Domain not in allowlist")
				case skipBlocklist:
					r.stats.SkippedBlocklist++
					logger.Debug().Str("domain", domain).Msg("Domain blocklisted")
				default:
					set.Add(record)
				}
			}
		}
	}

	out := set.Records()
	r.stats.RouterRecords = len(out)

	if r.opts.legacyNaming {
		for _, node := range r.nodes {
			for _, address := range node.Addresses {
				for _, suffix := range r.opts.legacySuffixes {
					name := fmt.Sprintf("%s.%s.%s", node.DisplayName, node.Owner.Name, suffix)
					out = append(out, records.New(name, address))
					r.stats.LegacyRecords++
				}
			}
		}
	}

	logger.Info().
		Int("router_records", r.stats.RouterRecords).
		Int("legacy_records", r.stats.LegacyRecords).
		Msg("Generated records")

	return out
}
