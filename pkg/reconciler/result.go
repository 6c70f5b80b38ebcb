package reconciler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/meshdns/pkg/records"
)

// Result represents the outcome of a full run.
type Result struct {
	Records []records.DNSRecord

	Stats Stats

	// Duration of the run, fetches included
	Duration time.Duration
}

// Stats counts what each phase saw and decided.
type Stats struct {
	// UpdateServers
	Users         int // users left after the user allowlist
	Nodes         int // full node inventory
	EligibleNodes int
	BlockedNodes  int

	// UpdateRouters
	RoutesFetched   int
	RoutesAccepted  int
	RoutesDuplicate int

	// GenerateRecords
	SkippedMiddleware int
	SkippedNoDomain   int
	SkippedDuplicate  int
	SkippedAllowlist  int
	SkippedBlocklist  int
	RouterRecords     int
	LegacyRecords     int
}

// MarshalZerologObject lets the stats be logged as a single object.
func (s Stats) MarshalZerologObject(e *zerolog.Event) {
	e.Int("users", s.Users).
		Int("nodes", s.Nodes).
		Int("eligible_nodes", s.EligibleNodes).
		Int("blocked_nodes", s.BlockedNodes).
		Int("routes_fetched", s.RoutesFetched).
		Int("routes_accepted", s.RoutesAccepted).
		Int("routes_duplicate", s.RoutesDuplicate).
		Int("skipped_middleware", s.SkippedMiddleware).
		Int("skipped_no_domain", s.SkippedNoDomain).
		Int("skipped_duplicate", s.SkippedDuplicate).
		Int("skipped_allowlist", s.SkippedAllowlist).
		Int("skipped_blocklist", s.SkippedBlocklist).
		Int("router_records", s.RouterRecords).
		Int("legacy_records", s.LegacyRecords)
}

// Total returns the number of records produced.
func (s Stats) Total() int {
	return s.RouterRecords + s.LegacyRecords
}
