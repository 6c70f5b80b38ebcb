// Package constants provides shared constants used throughout the meshdns codebase.
// This includes the HTTP timeout, file permissions, upstream API paths and the
// defaults used by the configuration layer.
package constants

import "time"

// DefaultHTTPTimeout is the standard timeout for HTTP requests to Headscale and Traefik
const DefaultHTTPTimeout = 30 * time.Second

// FilePermissions is the permission of the written records file (rw-r--r--)
const FilePermissions = 0644

// Headscale API paths, relative to the configured server URL
const (
	HeadscaleUsersPath  = "/api/v1/user"
	HeadscaleNodesPath  = "/api/v1/node"
	HeadscaleAPIKeyPath = "/api/v1/apikey"
)

// Traefik API paths, relative to the templated per-node base URL
const (
	TraefikRoutersPath  = "/api/http/routers"
	TraefikOverviewPath = "/api/overview"
)

// Default values
const (
	// DefaultHeadscaleURL matches the listen address in Headscale's example config
	DefaultHeadscaleURL = "https://localhost:50433"

	// DefaultMagicTLD is the root domain Headscale uses for magicDNS names
	DefaultMagicTLD = "tailscale"

	// DefaultOutputPath is where the extra records file is written
	DefaultOutputPath = "extra_records.json"

	// DefaultEnvFile is loaded before flags and environment are read
	DefaultEnvFile = ".env"
)

// Output formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)
