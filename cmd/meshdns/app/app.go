// Package app wires configuration, logging and the reconciliation pipeline
// into the meshdns CLI.
package app

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/agentstation/meshdns/internal/headscale"
	"github.com/agentstation/meshdns/internal/traefik"
	"github.com/agentstation/meshdns/pkg/logging"
	"github.com/agentstation/meshdns/pkg/reconciler"
)

// App represents the meshdns application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration, loaded once the command line is parsed
	config *Config

	logger      *zerolog.Logger
	fixedLogger bool

	// stdout receives dry-run output and command reports
	stdout io.Writer
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) *App {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		logger:  logging.Default(),
		stdout:  os.Stdout,
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Config returns the application configuration. It is nil until a command
// has parsed its flags.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// newRegistry builds the Headscale client from the configuration.
func (a *App) newRegistry() (*headscale.Client, error) {
	return headscale.New(a.config.HeadscaleDetails())
}

// routerFactory builds Traefik clients from the shared URL template.
func (a *App) routerFactory() reconciler.RouterFactory {
	template := a.config.TraefikDetails()
	return func(host string) (reconciler.RouterClient, error) {
		client, err := traefik.New(template.ForHost(host))
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// newReconciler builds the pipeline over registry with the configured filters.
// Legacy names use the registry's magicDNS base domains.
func (a *App) newReconciler(registry *headscale.Client, extra ...reconciler.Option) (*reconciler.Reconciler, error) {
	opts, err := a.config.ReconcilerOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		reconciler.WithLegacySuffixes(registry.MagicTLDs()),
		reconciler.WithLogger(a.logger),
	)
	opts = append(opts, extra...)

	return reconciler.New(registry, a.routerFactory(), opts...)
}

// Option is a functional option for configuring the App.
type Option func(*App)

// WithStdout redirects command output.
func WithStdout(w io.Writer) Option {
	return func(a *App) {
		a.stdout = w
	}
}

// WithLogger sets a custom logger. It replaces the one built from
// configuration.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) {
		a.logger = logger
		a.fixedLogger = true
	}
}
