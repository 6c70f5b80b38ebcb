package app

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agentstation/meshdns/internal/headscale"
	"github.com/agentstation/meshdns/pkg/logging"
	"github.com/agentstation/meshdns/pkg/records"
	"github.com/agentstation/meshdns/pkg/reconciler"
)

// Execute runs the meshdns CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(a.stdout)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
// Without a subcommand the root command generates the records file.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "meshdns",
		Short:   "Publish Traefik routes as Headscale DNS records",
		Version: a.version,
		Long: `meshdns reads the nodes of a Headscale network, asks the Traefik instance
running on each node for its HTTP routers and writes every Host() domain as an
A or AAAA record pointing at that node. Headscale serves the resulting file
through its extra_records_path setting.`,
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.setupCommand,
		RunE:              a.runGenerate,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	registerFlags(rootCmd.PersistentFlags())
	rootCmd.SetVersionTemplate("meshdns {{.Version}}\n")

	rootCmd.AddCommand(a.newGenerateCommand())
	rootCmd.AddCommand(a.newValidateCommand())
	rootCmd.AddCommand(a.newVersionCommand())

	return rootCmd
}

// setupCommand loads the configuration and logger before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	v, err := newViper(cmd.Flags())
	if err != nil {
		return err
	}
	a.config = LoadConfig(v)

	if !a.fixedLogger {
		logger := NewLogger(a.config)
		a.logger = &logger
	}

	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))
	return nil
}

func (a *App) newGenerateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Write the extra records file (default command)",
		Long: `Fetch users and nodes from Headscale, routes from every eligible node's
Traefik API, and write the resulting DNS records to --output. With --dry-run
the records are printed to stdout in --format instead.`,
		Args: cobra.NoArgs,
		RunE: a.runGenerate,
	}
}

func (a *App) newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check configuration and API access without writing anything",
		Long: `Validate checks the configuration, the Headscale API key and, for every
eligible node, that the Traefik API answers with the configured credentials.`,
		Args: cobra.NoArgs,
		RunE: a.runValidate,
	}
}

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "meshdns version %s\n", a.version)
			fmt.Fprintf(out, "commit: %s\n", a.commit)
			fmt.Fprintf(out, "built: %s\n", a.date)
			fmt.Fprintf(out, "built by: %s\n", a.builtBy)
			fmt.Fprintf(out, "go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// connect validates the configuration and checks the Headscale API key.
func (a *App) connect(ctx context.Context) (*headscale.Client, error) {
	if err := a.config.Validate(); err != nil {
		return nil, err
	}

	registry, err := a.newRegistry()
	if err != nil {
		return nil, err
	}
	if err := registry.Validate(ctx); err != nil {
		return nil, err
	}
	return registry, nil
}

func (a *App) runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	registry, err := a.connect(ctx)
	if err != nil {
		return err
	}

	rec, err := a.newReconciler(registry)
	if err != nil {
		return err
	}

	result, err := rec.Run(ctx)
	if err != nil {
		return err
	}
	a.warnInvalidNames(result.Records)

	if a.config.DryRun {
		return records.Encode(cmd.OutOrStdout(), result.Records, a.config.Format)
	}

	if err := records.Write(a.config.OutputPath, result.Records); err != nil {
		return err
	}

	a.logger.Info().
		Str("path", a.config.OutputPath).
		Int("records", len(result.Records)).
		Msg("Wrote extra records")
	return nil
}

func (a *App) runValidate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	registry, err := a.connect(ctx)
	if err != nil {
		return err
	}

	rec, err := a.newReconciler(registry, reconciler.WithRouterValidation(true))
	if err != nil {
		return err
	}
	if err := rec.UpdateServers(ctx); err != nil {
		return err
	}
	if err := rec.UpdateRouters(ctx); err != nil {
		return err
	}
	recs := rec.GenerateRecords()
	invalid := a.warnInvalidNames(recs)

	stats := rec.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "configuration valid: %d users, %d nodes, %d Traefik APIs reachable, %d records (%d invalid names)\n",
		stats.Users, stats.Nodes, stats.EligibleNodes, len(recs), len(invalid))
	return nil
}

// warnInvalidNames logs every record whose name Headscale could not serve.
// The records are still published as they are.
func (a *App) warnInvalidNames(recs []records.DNSRecord) []records.DNSRecord {
	invalid := records.InvalidNames(recs)
	for _, rec := range invalid {
		a.logger.Warn().
			Str("name", rec.Name).
			Str("value", rec.Value).
			Str("reason", records.NameProblem(rec.Name)).
			Msg("Record name will not resolve")
	}
	return invalid
}

// ExitOnError prints an error and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
