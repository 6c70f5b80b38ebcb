package app

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/agentstation/meshdns/internal/headscale"
	"github.com/agentstation/meshdns/internal/traefik"
	"github.com/agentstation/meshdns/pkg/constants"
	"github.com/agentstation/meshdns/pkg/errors"
	"github.com/agentstation/meshdns/pkg/reconciler"
)

// Configuration keys. Each key is a flag name; envVars lists the ones that
// may also be set from the environment.
const (
	keyHeadscaleURL    = "headscale-domain"
	keyHeadscaleAPIKey = "headscale-auth"
	keyMagicTLDs       = "headscale-tld"
	keyTraefikUser     = "traefik-user"
	keyTraefikPassword = "traefik-pass"
	keyTraefikPrefix   = "traefik-domain-prefix"
	keyTraefikSuffix   = "traefik-domain-suffix"
	keyMiddlewares     = "traefik-middleware-whitelist"
	keyAllowedUsers    = "headscale-allowed-users"
	keyNodeBlocklist   = "headscale-blacklisted-nodes"
	keyDomainAllowlist = "domain-whitelist"
	keyDomainBlocklist = "domain-blacklist"
	keyOutput          = "output"
	keyLegacyNaming    = "headscale-old-magicdns"
	keyValidateRouters = "validate-routers"
	keyDryRun          = "dry-run"
	keyFormat          = "format"
	keyEnvFile         = "env-file"
	keyConfigFile      = "config"
	keyVerbose         = "verbose"
	keyQuiet           = "quiet"
	keyLogLevel        = "log-level"
	keyLogFormat       = "log-format"
	keyLogOutput       = "log-output"
)

// envVars maps configuration keys to the environment variables they are read
// from. Command switches such as --dry-run and --config are flags only, so a
// stray DRY_RUN or CONFIG in the environment does not change a run.
var envVars = map[string]string{
	keyHeadscaleURL:    "HEADSCALE_DOMAIN",
	keyHeadscaleAPIKey: "HEADSCALE_AUTH",
	keyMagicTLDs:       "HEADSCALE_TLD",
	keyTraefikUser:     "TRAEFIK_USER",
	keyTraefikPassword: "TRAEFIK_PASS",
	keyTraefikPrefix:   "TRAEFIK_DOMAIN_PREFIX",
	keyTraefikSuffix:   "TRAEFIK_DOMAIN_SUFFIX",
	keyMiddlewares:     "TRAEFIK_MIDDLEWARE_WHITELIST",
	keyAllowedUsers:    "HEADSCALE_ALLOWED_USERS",
	keyNodeBlocklist:   "HEADSCALE_BLACKLISTED_NODES",
	keyDomainAllowlist: "DOMAIN_WHITELIST",
	keyDomainBlocklist: "DOMAIN_BLACKLIST",
	keyOutput:          "OUTPUT",
	keyLegacyNaming:    "HEADSCALE_OLD_MAGICDNS",
	keyValidateRouters: "VALIDATE_ROUTERS",
	keyLogLevel:        "LOG_LEVEL",
	keyLogFormat:       "LOG_FORMAT",
	keyLogOutput:       "LOG_OUTPUT",
}

// Config holds the application configuration loaded from flags, environment
// variables, an env file and an optional YAML config file.
type Config struct {
	// Headscale
	HeadscaleURL    string
	HeadscaleAPIKey string
	MagicTLDs       []string

	// Traefik URL template and credentials
	TraefikUser     string
	TraefikPassword string
	TraefikPrefix   string
	TraefikSuffix   string

	// Filters
	Middlewares     []string
	AllowedUsers    []string
	NodeBlocklist   []string
	DomainAllowlist string
	DomainBlocklist string

	// Output
	OutputPath      string
	LegacyNaming    bool
	ValidateRouters bool
	DryRun          bool
	Format          string

	// Sources
	EnvFile    string
	ConfigFile string

	// Logging
	Verbose   bool
	Quiet     bool
	LogLevel  string
	LogFormat string
	LogOutput string
}

// registerFlags defines every configuration flag on fs.
func registerFlags(fs *pflag.FlagSet) {
	fs.String(keyHeadscaleURL, constants.DefaultHeadscaleURL, "Headscale server URL")
	fs.String(keyHeadscaleAPIKey, "", "Headscale API key (required)")
	fs.String(keyMagicTLDs, constants.DefaultMagicTLD, "comma separated magicDNS base domains for legacy names")

	fs.String(keyTraefikUser, "", "Traefik API basic auth user")
	fs.String(keyTraefikPassword, "", "Traefik API basic auth password")
	fs.String(keyTraefikPrefix, "", `Traefik API URL before the node address, e.g. "http://"`)
	fs.String(keyTraefikSuffix, "", `Traefik API URL after the node address, e.g. ":8080"`)

	fs.String(keyMiddlewares, "", "comma separated middlewares a route must use to be published")
	fs.String(keyAllowedUsers, "", "comma separated users whose nodes are scanned (default all)")
	fs.String(keyNodeBlocklist, "", "comma separated node names that are not scanned")
	fs.String(keyDomainAllowlist, "", "only publish domains matching this regular expression")
	fs.String(keyDomainBlocklist, "", "never publish domains matching this regular expression")

	fs.StringP(keyOutput, "o", constants.DefaultOutputPath, "path of the extra records file")
	fs.Bool(keyLegacyNaming, true, "also publish {node}.{user}.{tld} records")
	fs.Bool(keyValidateRouters, false, "probe every Traefik API before reading routes")
	fs.Bool(keyDryRun, false, "print the records instead of writing the file")
	fs.String(keyFormat, constants.FormatJSON, "dry-run output format: json, yaml")

	fs.String(keyEnvFile, constants.DefaultEnvFile, "env file loaded before reading the environment")
	fs.String(keyConfigFile, "", "YAML config file")

	fs.BoolP(keyVerbose, "v", false, "verbose output (shortcut for --log-level=debug)")
	fs.BoolP(keyQuiet, "q", false, "minimal output (shortcut for --log-level=warn)")
	fs.String(keyLogLevel, "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	fs.String(keyLogFormat, "auto", "log format: auto, console, json")
}

// newViper binds fs to a fresh viper instance, loads the env file and reads
// the config file if one is set. fs must already be parsed.
func newViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, errors.WrapConfig("flags", "failed to bind flags", err)
	}
	for key, env := range envVars {
		if err := v.BindEnv(key, env); err != nil {
			return nil, errors.WrapConfig(key, "failed to bind "+env, err)
		}
	}
	v.SetDefault(keyLogOutput, "stderr")

	if err := loadEnvFile(v.GetString(keyEnvFile), fs.Changed(keyEnvFile)); err != nil {
		return nil, err
	}

	if path := v.GetString(keyConfigFile); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WrapConfig(keyConfigFile, "failed to read "+path, err)
		}
	}

	return v, nil
}

// loadEnvFile loads variables from path without overriding the environment.
// A missing file is only an error when it was asked for explicitly.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return errors.WrapConfig(keyEnvFile, "cannot read env file", err)
	}
	if err := godotenv.Load(path); err != nil {
		return errors.WrapConfig(keyEnvFile, "cannot parse env file "+path, err)
	}
	return nil
}

// LoadConfig builds the configuration from v.
func LoadConfig(v *viper.Viper) *Config {
	return &Config{
		HeadscaleURL:    v.GetString(keyHeadscaleURL),
		HeadscaleAPIKey: v.GetString(keyHeadscaleAPIKey),
		MagicTLDs:       getList(v, keyMagicTLDs),

		TraefikUser:     v.GetString(keyTraefikUser),
		TraefikPassword: v.GetString(keyTraefikPassword),
		TraefikPrefix:   v.GetString(keyTraefikPrefix),
		TraefikSuffix:   v.GetString(keyTraefikSuffix),

		Middlewares:     getList(v, keyMiddlewares),
		AllowedUsers:    getList(v, keyAllowedUsers),
		NodeBlocklist:   getList(v, keyNodeBlocklist),
		DomainAllowlist: v.GetString(keyDomainAllowlist),
		DomainBlocklist: v.GetString(keyDomainBlocklist),

		OutputPath:      v.GetString(keyOutput),
		LegacyNaming:    v.GetBool(keyLegacyNaming),
		ValidateRouters: v.GetBool(keyValidateRouters),
		DryRun:          v.GetBool(keyDryRun),
		Format:          strings.ToLower(v.GetString(keyFormat)),

		EnvFile:    v.GetString(keyEnvFile),
		ConfigFile: v.ConfigFileUsed(),

		Verbose:   v.GetBool(keyVerbose),
		Quiet:     v.GetBool(keyQuiet),
		LogLevel:  v.GetString(keyLogLevel),
		LogFormat: v.GetString(keyLogFormat),
		LogOutput: v.GetString(keyLogOutput),
	}
}

// getList reads a list setting. Flags and environment variables carry a
// comma separated string; a config file may use a YAML sequence.
func getList(v *viper.Viper, key string) []string {
	var raw []string
	switch value := v.Get(key).(type) {
	case []any:
		for _, item := range value {
			raw = append(raw, fmt.Sprint(item))
		}
	case []string:
		raw = value
	default:
		raw = strings.Split(v.GetString(key), ",")
	}

	var out []string
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks the settings every command needs. The Traefik template is
// checked when the first router client is built.
func (c *Config) Validate() error {
	if c.HeadscaleAPIKey == "" {
		return errors.NewConfigError(keyHeadscaleAPIKey, "a Headscale API key is required (HEADSCALE_AUTH)", nil)
	}
	if c.OutputPath == "" && !c.DryRun {
		return errors.NewConfigError(keyOutput, "an output path is required", nil)
	}
	if c.LegacyNaming && len(c.MagicTLDs) == 0 {
		return errors.NewConfigError(keyMagicTLDs,
			"legacy names need at least one magicDNS base domain (set --headscale-tld or --headscale-old-magicdns=false)", nil)
	}

	switch c.Format {
	case constants.FormatJSON:
	case constants.FormatYAML:
		if !c.DryRun {
			return errors.NewConfigError(keyFormat, "Headscale reads JSON; yaml is only available with --dry-run", nil)
		}
	default:
		return errors.NewConfigError(keyFormat, fmt.Sprintf("unsupported format %q", c.Format), nil)
	}

	if _, err := c.ReconcilerOptions(); err != nil {
		return err
	}
	return nil
}

// HeadscaleDetails returns the Headscale client settings.
func (c *Config) HeadscaleDetails() headscale.Details {
	return headscale.Details{
		BaseURL:   c.HeadscaleURL,
		APIKey:    c.HeadscaleAPIKey,
		MagicTLDs: c.MagicTLDs,
	}
}

// TraefikDetails returns the Traefik URL template without a host.
func (c *Config) TraefikDetails() traefik.Details {
	return traefik.Details{
		Prefix:   c.TraefikPrefix,
		Suffix:   c.TraefikSuffix,
		User:     c.TraefikUser,
		Password: c.TraefikPassword,
	}
}

// ReconcilerOptions translates the filters into pipeline options, compiling
// the domain expressions.
func (c *Config) ReconcilerOptions() ([]reconciler.Option, error) {
	opts := []reconciler.Option{
		reconciler.WithAllowedUsers(c.AllowedUsers),
		reconciler.WithNodeBlocklist(c.NodeBlocklist),
		reconciler.WithMiddlewares(c.Middlewares),
		reconciler.WithLegacyNaming(c.LegacyNaming),
		reconciler.WithRouterValidation(c.ValidateRouters),
	}

	if c.DomainAllowlist != "" {
		re, err := regexp.Compile(c.DomainAllowlist)
		if err != nil {
			return nil, errors.WrapConfig(keyDomainAllowlist, "invalid regular expression", err)
		}
		opts = append(opts, reconciler.WithDomainAllowlist(re))
	}
	if c.DomainBlocklist != "" {
		re, err := regexp.Compile(c.DomainBlocklist)
		if err != nil {
			return nil, errors.WrapConfig(keyDomainBlocklist, "invalid regular expression", err)
		}
		opts = append(opts, reconciler.WithDomainBlocklist(re))
	}

	return opts, nil
}
