package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	authcmd "checkazure/cmd/commands/auth"
	cfgcmd "checkazure/cmd/commands/config"
	"checkazure/cmd/commands/modes"
	statecmd "checkazure/cmd/commands/state"
	"checkazure/internal/auth"
	"checkazure/internal/azure"
	"checkazure/internal/cache"
	"checkazure/internal/check"
	"checkazure/internal/config"
	"checkazure/internal/logger"
	"checkazure/internal/report"
	"checkazure/internal/state"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X checkazure/cmd.version=...".
var version = "dev"

// Collaborators replaced in tests.
var (
	newSink = func() report.Sink { return report.NewPlugin(os.Stdout) }

	newClientOptions = func() *azure.ClientOptions { return &azure.ClientOptions{} }

	newCredential = func(sp azure.ServicePrincipal) (azcore.TokenCredential, error) {
		cred, err := azure.NewCredential(sp)
		if err != nil {
			return nil, err
		}
		return cred, nil
	}

	secretStore = auth.DefaultStore

	logOutput io.Writer = os.Stderr
)

// rootCmd is the check itself; the subcommands are helpers around it.
func rootCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "check_azure",
		Short: "Check an Azure Monitor metric against warning and critical thresholds",
		Long: `check_azure reads one Azure Monitor metric of one resource and reports
OK, WARNING, CRITICAL or UNKNOWN with performance data, for Nagios, Opsview
and compatible schedulers.

Each run queries the interval since the previous run of the same mode on
the same host (at least two minutes, five on the first run). The end time
of every run is kept in a small state file.

Examples:
  check_azure -H web01 -r prod -s $SUB -C $CLIENT -S $SECRET -t $TENANT \
      -m VM.PercentageCPU -w 80 -c 90
  check_azure -H orders -e sqlsrv01 -r prod ... -m SQL.dtu_consumption_percent
  check_azure -H site01 -r prod ... -m generic -p Microsoft.Web/sites \
      -M Requests -a Total -u c
  check_azure modes --family VM`,
		Args:          cobra.NoArgs,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCheck,
	}

	config.AddFlags(cmd)

	cmd.AddCommand(modes.NewCommand())
	cmd.AddCommand(authcmd.NewCommand())
	cmd.AddCommand(statecmd.NewCommand())
	cmd.AddCommand(cfgcmd.NewCommand())

	return cmd
}

// runCheck always hands the outcome to the plugin sink, which prints the
// status line and sets the exit code.
func runCheck(cmd *cobra.Command, _ []string) error {
	sink := newSink()

	m, err := execute(cmd)
	if err != nil {
		sink.ExitUnknown("%s", err)
		return nil
	}
	if err := report.Emit(sink, m); err != nil {
		sink.ExitUnknown("%s", err)
		return nil
	}

	sink.Final()
	return nil
}

func execute(cmd *cobra.Command) (report.Measurement, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return report.Measurement{}, err
	}

	log, flush, err := logger.NewLogr(cfg.LogLevel, logOutput)
	if err != nil {
		log, flush, _ = logger.NewLogr(config.DefaultLogLevel, logOutput)
	}
	defer flush()

	fillSecret(cfg, log)
	if err := cfg.Validate(); err != nil {
		return report.Measurement{}, err
	}
	log.V(1).Info("effective configuration", "config", cfg.Redacted())

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()

	cred, err := newCredential(azure.ServicePrincipal{
		TenantID:      cfg.TenantID,
		ClientID:      cfg.ClientID,
		Secret:        cfg.Secret,
		AuthorityHost: cfg.AuthorityHost,
	})
	if err != nil {
		return report.Measurement{}, err
	}

	clientOpts := newClientOptions()
	clientOpts.Endpoint = cfg.Endpoint
	clientOpts.Logger = log.WithName("azure")
	clientOpts.Telemetry.ApplicationID = azure.DefaultApplicationID + "/" + version
	client, err := azure.NewClient(cfg.SubscriptionID, cred, clientOpts)
	if err != nil {
		return report.Measurement{}, err
	}

	store, err := state.Open(state.Options{
		Backend:      cfg.State.Backend,
		Path:         cfg.State.Path,
		FallbackPath: cfg.State.FallbackPath,
	})
	if err != nil {
		return report.Measurement{}, fmt.Errorf("failed to open state store: %w", err)
	}
	defer store.Close()

	markers := cache.NewDefault()
	if cfg.CacheDir != "" {
		markers = cache.New(cfg.CacheDir)
	}

	runner := check.NewRunner(cfg, check.Deps{
		Client: client,
		Store:  store,
		Cache:  markers,
		Log:    log,
	})
	return runner.Run(ctx)
}

// fillSecret falls back to the keychain. Hosts without a keychain are
// common for monitoring servers, so lookup failures are only logged.
func fillSecret(cfg *config.Config, log logr.Logger) {
	filled, err := cfg.FillSecret(func(tenantID, clientID string) (string, error) {
		return secretStore().GetSecret(tenantID, clientID)
	})
	switch {
	case err != nil && !errors.Is(err, auth.ErrSecretNotFound):
		log.V(1).Info("keychain lookup failed", "error", err.Error())
	case filled:
		log.V(1).Info("using client secret from keychain", "tenant", cfg.TenantID, "client", cfg.ClientID)
	}
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	var root = rootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(3)
	}
}
