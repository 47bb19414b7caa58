package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/AntonStoeckl/docstore-sanitizer/config"
	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
	"github.com/AntonStoeckl/docstore-sanitizer/docstore/oteladapters"
	"github.com/AntonStoeckl/docstore-sanitizer/sanitizer"
)

const (
	envPrefix = "SANITIZER"

	flagConfirm              = "confirm"
	flagPatternsOnly         = "patterns-only"
	flagRecentOnly           = "recent-only"
	flagRecentHours          = "recent-hours"
	flagNuclear              = "nuclear"
	flagTotalWipe            = "total-wipe"
	flagResetCollections     = "reset-collections"
	flagOutput               = "output"
	flagSamples              = "samples"
	flagObservabilityEnabled = "observability-enabled"
	flagTimeout              = "timeout"
	flagVerbose              = "verbose"
	flagDatabaseURL          = "database-url"
	keyPostgresAdapter       = "pg-adapter"

	defaultRecentHours = 48
	defaultTimeout     = 10 * time.Minute

	// maxRecentHours is the largest window that still fits into a time.Duration.
	maxRecentHours = math.MaxInt64 / int64(time.Hour)

	instrumentationName = "github.com/AntonStoeckl/docstore-sanitizer"

	logMsgConnecting = "connecting to document store"
	logAttrEngine    = "engine"
	logAttrTarget    = "target"
)

var (
	errInvalidOutput   = errors.New("invalid output format")
	errMissingDatabase = errors.New("no database configured: set SANITIZER_DATABASE_URL or --database-url")
)

// storeOpener connects to the document store behind a parsed connection string.
type storeOpener func(
	ctx context.Context,
	target config.Target,
	postgresAdapter string,
	in config.StoreInstruments,
) (docstore.Store, config.Closer, error)

// dependencies are the collaborators of the command that tests replace.
type dependencies struct {
	openStore storeOpener
	now       func() time.Time
}

func defaultDependencies() dependencies {
	return dependencies{
		openStore: func(
			ctx context.Context,
			target config.Target,
			postgresAdapter string,
			in config.StoreInstruments,
		) (docstore.Store, config.Closer, error) {

			return config.OpenStore(ctx, target, postgresAdapter, in)
		},
		now: time.Now,
	}
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout io.Writer, stderr io.Writer, deps dependencies) int {
	cmd := newRootCommand(stdout, stderr, deps)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

func newRootCommand(stdout io.Writer, stderr io.Writer, deps dependencies) *cobra.Command {
	// Only the connection settings come from the environment. Confirmation and mode switches are flags only.
	v := viper.New()
	_ = v.BindEnv(flagDatabaseURL, envPrefix+"_DATABASE_URL")
	_ = v.BindEnv(keyPostgresAdapter, envPrefix+"_PG_ADAPTER")

	cmd := &cobra.Command{
		Use:   "sanitize",
		Short: "Remove test data from a shop document store",
		Long: `sanitize deletes synthetic test records from every shop collection.

Modes (at most one):
  (default)            pattern, recency, and orphan detection
  --patterns-only      only documents that look like test data
  --recent-only        documents created or modified recently, then orphans
  --nuclear            every document except administrators
  --total-wipe         every document, no exceptions
  --reset-collections  drop and recreate every collection

Administrators (users with role admin) are kept by every mode except --total-wipe and --reset-collections.
Nothing is modified without --confirm.

Configuration:
  SANITIZER_DATABASE_URL  postgres://, postgresql://, mongodb://, mongodb+srv://, or memory://
  SANITIZER_PG_ADAPTER    pgx (default), sql, or sqlx`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv, err := parseInvocation(cmd, v)
			if err != nil {
				return err
			}

			return execute(cmd.Context(), inv, stdout, stderr, deps)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.Bool(flagConfirm, false, "actually modify the document store")
	flags.Bool(flagPatternsOnly, false, "only delete documents that look like test data")
	flags.Bool(flagRecentOnly, false, "only delete recently created or modified documents and orphans")
	flags.Int(flagRecentHours, defaultRecentHours, "look-back window of the recency detection in hours")
	flags.Bool(flagNuclear, false, "delete every document except administrators")
	flags.Bool(flagTotalWipe, false, "delete every document without exception")
	flags.Bool(flagResetCollections, false, "drop and recreate every collection")
	flags.StringP(flagOutput, "o", outputText, "report format: text, json, or yaml")
	flags.Int(flagSamples, sanitizer.DefaultSampleSize, "sample documents logged per strategy and collection")
	flags.Bool(flagObservabilityEnabled, false, "export traces and metrics via OTLP/gRPC")
	flags.Duration(flagTimeout, defaultTimeout, "overall timeout of the run")
	flags.BoolP(flagVerbose, "v", false, "log at debug level, including store statements")
	flags.String(flagDatabaseURL, "", "connection string, overrides SANITIZER_DATABASE_URL")

	_ = v.BindPFlag(flagDatabaseURL, flags.Lookup(flagDatabaseURL))

	return cmd
}

// invocation is everything a run needs from the command line and the environment.
type invocation struct {
	mode            sanitizer.Mode
	confirmed       bool
	recencyWindow   time.Duration
	output          string
	samples         int
	observability   bool
	timeout         time.Duration
	verbose         bool
	databaseURL     string
	postgresAdapter string
}

func parseInvocation(cmd *cobra.Command, v *viper.Viper) (invocation, error) {
	flags := cmd.Flags()
	flag := func(name string) bool {
		b, _ := flags.GetBool(name)
		return b
	}

	mode, err := sanitizer.SelectMode(sanitizer.ModeFlags{
		PatternsOnly:     flag(flagPatternsOnly),
		RecentOnly:       flag(flagRecentOnly),
		Nuclear:          flag(flagNuclear),
		TotalWipe:        flag(flagTotalWipe),
		ResetCollections: flag(flagResetCollections),
	})
	if err != nil {
		return invocation{}, err
	}

	recentHours, _ := flags.GetInt(flagRecentHours)
	if recentHours <= 0 || int64(recentHours) > maxRecentHours {
		return invocation{}, errors.Join(
			sanitizer.ErrInvalidRecencyWindow,
			fmt.Errorf("--%s=%d must be between 1 and %d", flagRecentHours, recentHours, maxRecentHours),
		)
	}

	output, _ := flags.GetString(flagOutput)
	if !validOutput(output) {
		return invocation{}, errors.Join(errInvalidOutput, fmt.Errorf("%q", output))
	}

	samples, _ := flags.GetInt(flagSamples)
	timeout, _ := flags.GetDuration(flagTimeout)

	return invocation{
		mode:            mode,
		confirmed:       flag(flagConfirm),
		recencyWindow:   time.Duration(recentHours) * time.Hour,
		output:          output,
		samples:         samples,
		observability:   flag(flagObservabilityEnabled),
		timeout:         timeout,
		verbose:         flag(flagVerbose),
		databaseURL:     v.GetString(flagDatabaseURL),
		postgresAdapter: v.GetString(keyPostgresAdapter),
	}, nil
}

func execute(ctx context.Context, inv invocation, stdout io.Writer, stderr io.Writer, deps dependencies) error {
	if !inv.confirmed {
		printRefusal(stderr, inv.mode)
		return sanitizer.ErrConfirmationMissing
	}

	if inv.databaseURL == "" {
		return errMissingDatabase
	}

	target, err := config.ParseDatabaseURL(inv.databaseURL)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	level := slog.LevelInfo
	if inv.verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)

	controllerOptions := []sanitizer.Option{
		sanitizer.WithClock(deps.now),
		sanitizer.WithRecencyWindow(inv.recencyWindow),
		sanitizer.WithSampleSize(inv.samples),
	}

	var instruments config.StoreInstruments

	if inv.observability {
		providers, err := config.NewObservabilityProviders(ctx, version)
		if err != nil {
			return err
		}
		defer func() { _ = providers.Shutdown() }()

		// No OTLP log exporter is configured, records stay on stderr but are logged with the span context.
		contextualLogger := oteladapters.NewSlogBridgeLoggerWithHandler(handler)
		metrics := oteladapters.NewMetricsCollector(otel.Meter(instrumentationName))
		tracing := oteladapters.NewTracingCollector(otel.Tracer(instrumentationName))

		instruments = config.StoreInstruments{ContextualLogger: contextualLogger, Metrics: metrics, Tracing: tracing}
		controllerOptions = append(controllerOptions,
			sanitizer.WithContextualLogger(contextualLogger),
			sanitizer.WithMetrics(metrics),
			sanitizer.WithTracing(tracing),
		)
	} else {
		instruments = config.StoreInstruments{Logger: logger}
		controllerOptions = append(controllerOptions, sanitizer.WithLogger(logger))
	}

	logger.Info(logMsgConnecting, logAttrEngine, string(target.Engine), logAttrTarget, target.Redacted())

	store, closeStore, err := deps.openStore(ctx, target, inv.postgresAdapter, instruments)
	if err != nil {
		return err
	}
	defer closeStore()

	controller, err := sanitizer.NewController(store, controllerOptions...)
	if err != nil {
		return err
	}

	report, runErr := controller.Run(ctx, inv.mode)
	if !report.StartedAt.IsZero() {
		if err := renderReport(stdout, inv.output, report); err != nil {
			return errors.Join(runErr, err)
		}
	}

	return runErr
}

func printRefusal(w io.Writer, mode sanitizer.Mode) {
	_, _ = fmt.Fprintf(w, "Refusing to run mode %q without --%s.\n", mode, flagConfirm)

	strategies := make([]string, 0, len(mode.Plan()))
	for _, s := range mode.Plan() {
		strategies = append(strategies, string(s))
	}
	_, _ = fmt.Fprintf(w, "It would run: %s on %s.\n",
		strings.Join(strategies, ", "), strings.Join(sanitizer.DefaultRegistry().Names(), ", "))

	if mode.Destructive() {
		_, _ = fmt.Fprintln(w, "This mode deletes real data. Make sure you target a test database.")
	}
	_, _ = fmt.Fprintf(w, "Re-run with --%s to delete documents.\n", flagConfirm)
}
