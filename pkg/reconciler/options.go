package reconciler

import (
	"regexp"

	"github.com/rs/zerolog"

	"github.com/agentstation/meshdns/pkg/constants"
	"github.com/agentstation/meshdns/pkg/errors"
)

// options configures a reconciler.
type options struct {
	allowedUsers    []string
	nodeBlocklist   []string
	middlewares     []string
	domainAllowlist *regexp.Regexp
	domainBlocklist *regexp.Regexp
	legacyNaming    bool
	legacySuffixes  []string
	validateRouters bool
	logger          *zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		legacyNaming:   true,
		legacySuffixes: []string{constants.DefaultMagicTLD},
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithAllowedUsers restricts eligible nodes to those owned by the named
// users. An empty list allows every user.
func WithAllowedUsers(users []string) Option {
	return func(o *options) error {
		o.allowedUsers = append([]string(nil), users...)
		return nil
	}
}

// WithNodeBlocklist excludes nodes by display name from router discovery.
// Blocked nodes still get legacy records.
func WithNodeBlocklist(nodes []string) Option {
	return func(o *options) error {
		o.nodeBlocklist = append([]string(nil), nodes...)
		return nil
	}
}

// WithMiddlewares only publishes routes that use at least one of the named
// middlewares. An empty list publishes every route.
func WithMiddlewares(middlewares []string) Option {
	return func(o *options) error {
		o.middlewares = append([]string(nil), middlewares...)
		return nil
	}
}

// WithDomainAllowlist only publishes domains matching re.
func WithDomainAllowlist(re *regexp.Regexp) Option {
	return func(o *options) error {
		if re == nil {
			return &errors.ValidationError{
				Field:   "domainAllowlist",
				Message: "cannot be nil",
			}
		}
		o.domainAllowlist = re
		return nil
	}
}

// WithDomainBlocklist drops domains matching re. It is applied after the
// allowlist.
func WithDomainBlocklist(re *regexp.Regexp) Option {
	return func(o *options) error {
		if re == nil {
			return &errors.ValidationError{
				Field:   "domainBlocklist",
				Message: "cannot be nil",
			}
		}
		o.domainBlocklist = re
		return nil
	}
}

// WithLegacyNaming toggles the {node}.{user}.{suffix} records. Enabled by default.
func WithLegacyNaming(enabled bool) Option {
	return func(o *options) error {
		o.legacyNaming = enabled
		return nil
	}
}

// WithLegacySuffixes sets the base domains used for legacy names.
func WithLegacySuffixes(suffixes []string) Option {
	return func(o *options) error {
		o.legacySuffixes = append([]string(nil), suffixes...)
		return nil
	}
}

// WithRouterValidation probes every router API right after its client is
// built, so a wrong template or credential fails before any route is read.
func WithRouterValidation(enabled bool) Option {
	return func(o *options) error {
		o.validateRouters = enabled
		return nil
	}
}

// WithLogger sets the logger. Without it the logger is taken from the
// context passed to each phase.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return &errors.ValidationError{
				Field:   "logger",
				Message: "cannot be nil",
			}
		}
		o.logger = logger
		return nil
	}
}
