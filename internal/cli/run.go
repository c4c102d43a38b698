package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"digital.vasic.harness/pkg/config"
	"digital.vasic.harness/pkg/logging"
	"digital.vasic.harness/pkg/metrics"
	"digital.vasic.harness/pkg/monitor"
	"digital.vasic.harness/pkg/report"
	"digital.vasic.harness/pkg/suite"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Timeout     time.Duration
	Failing     bool
	Monitor     string
	MonitorWait bool
	Metrics     bool
	ReportDir   string
	History     string
	HTML        string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions, register Registrar) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the registered suite",
		Long: `Run every registered describe group and case in order.

Settings come from --config (or ./harness.yaml), then HARNESS_*
environment variables (optionally read from --env-file), then flags.

Exit codes:
  0 - Every case passed or was skipped
  1 - A case failed, timed out or faulted
  2 - Command error (invalid config, unwritable output, etc.)

Examples:
  harness run
  harness run --failing --no-color
  harness run --format json --timeout 250ms
  harness run --monitor 127.0.0.1:9090 --monitor-wait`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(cmd, opts, register)
		},
	}

	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "default per-case timeout")
	cmd.Flags().BoolVar(&opts.Failing, "failing", false, "include the deliberately failing cases")
	cmd.Flags().StringVar(&opts.Monitor, "monitor", "", "serve live progress on this address")
	cmd.Flags().BoolVar(&opts.MonitorWait, "monitor-wait", false, "keep the monitor up after the run until interrupted")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "record Prometheus metrics")
	cmd.Flags().StringVar(&opts.ReportDir, "report-dir", "", "write JSON and Markdown summaries here")
	cmd.Flags().StringVar(&opts.History, "history", "", "append the run to this JSON Lines history file")
	cmd.Flags().StringVar(&opts.HTML, "html", "", "write an HTML report to this file")

	return cmd
}

// resolveConfig layers explicitly set flags over the loaded
// configuration.
func resolveConfig(cmd *cobra.Command, opts *RunOptions) (*config.Config, error) {
	if opts.EnvFile != "" {
		if err := config.LoadEnvFile(opts.EnvFile); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = opts.Format
	}
	if flags.Changed("no-color") {
		cfg.Color = !opts.NoColor
	}
	if flags.Changed("verbose") {
		cfg.Verbose = opts.Verbose
	}
	if flags.Changed("timeout") {
		cfg.Timeout = opts.Timeout
	}
	if flags.Changed("monitor") {
		cfg.Monitor.Addr = opts.Monitor
	}
	if flags.Changed("metrics") {
		cfg.Metrics = opts.Metrics
	}
	if flags.Changed("report-dir") {
		cfg.Report.Dir = opts.ReportDir
	}
	if flags.Changed("history") {
		cfg.Report.History = opts.History
	}
	if flags.Changed("html") {
		cfg.Report.HTML = opts.HTML
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildLogger(cfg *config.Config, errOut io.Writer) (logging.Logger, error) {
	var loggers []logging.Logger

	if cfg.Verbose {
		switch cfg.Log.Format {
		case "json":
			loggers = append(loggers, logging.NewJSONLoggerTo(
				errOut, logging.ParseLevel(cfg.Log.Level),
			))
		default:
			loggers = append(loggers, logging.NewConsoleLoggerTo(
				errOut, cfg.Log.Level == "debug", cfg.Color,
			))
		}
	}

	if cfg.Log.Dir != "" {
		file, err := logging.SetupLogging(cfg.Log.Dir, cfg.Verbose)
		if err != nil {
			return nil, err
		}
		loggers = append(loggers, logging.NewPlainLogger(file))
	}

	switch len(loggers) {
	case 0:
		return logging.NullLogger{}, nil
	case 1:
		return loggers[0], nil
	}
	return logging.NewMultiLogger(loggers...), nil
}

func outputReporters(cfg *config.Config, out io.Writer) []report.Reporter {
	switch cfg.Format {
	case "json":
		return []report.Reporter{report.NewJSONReporter(out, false)}
	case "yaml":
		return []report.Reporter{report.NewYAMLReporter(out)}
	}
	return []report.Reporter{
		report.NewConsoleReporter(out,
			report.WithColor(cfg.Color),
			report.WithIndentSize(cfg.IndentSize),
		),
		report.NewTableReporter(out, report.TableOptions{Color: cfg.Color}),
	}
}

func runSuite(cmd *cobra.Command, opts *RunOptions, register Registrar) error {
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "configuration", err)
	}

	logger, err := buildLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "logging", err)
	}
	// Late results of abandoned case goroutines may log after
	// this; closed loggers drop them.
	defer func() { _ = logger.Close() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	suiteOpts := []suite.Option{
		suite.WithLogger(logger),
		suite.WithTimeout(cfg.Timeout),
	}
	for _, r := range outputReporters(cfg, cmd.OutOrStdout()) {
		suiteOpts = append(suiteOpts, suite.WithReporter(r))
	}

	var prom *metrics.PrometheusMetrics
	if cfg.Metrics || cfg.Monitor.Addr != "" {
		prom = metrics.NewPrometheusMetrics()
		suiteOpts = append(suiteOpts,
			suite.WithReporter(metrics.NewRecorder(prom)))
	}

	var (
		server    *monitor.Server
		serverErr = make(chan error, 1)
	)
	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()

	if cfg.Monitor.Addr != "" {
		collector := monitor.NewEventCollector()
		server = monitor.NewServer(
			cfg.Monitor.Addr, collector, monitor.NewDashboard("pending"),
			monitor.WithMetricsHandler(prom.Handler()),
		)
		go func() { serverErr <- server.Start(monitorCtx) }()
		suiteOpts = append(suiteOpts, suite.WithReporter(collector))
		logger.Info("monitor_started",
			logging.StringField("addr", cfg.Monitor.Addr))
	}

	s := suite.New(suiteOpts...)
	register(s, opts.Failing)
	summary := s.Run(ctx)

	if err := writeArtifacts(cfg, summary); err != nil {
		return WrapExitError(ExitCommandError, "report", err)
	}

	if server != nil {
		if opts.MonitorWait {
			fmt.Fprintf(cmd.ErrOrStderr(),
				"monitor serving on %s, interrupt to exit\n", cfg.Monitor.Addr)
			<-ctx.Done()
		}
		stopMonitor()
		if err := <-serverErr; err != nil {
			logger.Error("monitor_failed", logging.ErrorField(err))
		}
	}

	if !summary.OK() {
		return NewExitError(ExitFailure, fmt.Sprintf(
			"%d of %d cases did not pass",
			summary.Failed+summary.TimedOut+summary.Faulted,
			summary.Total,
		))
	}
	return nil
}

func writeArtifacts(cfg *config.Config, summary *report.Summary) error {
	if cfg.Report.Dir != "" {
		if err := report.SaveSummary(summary, cfg.Report.Dir); err != nil {
			return err
		}
	}

	if cfg.Report.History != "" {
		if err := report.AppendToHistory(cfg.Report.History, summary); err != nil {
			return err
		}
	}

	if cfg.Report.HTML != "" {
		f, err := os.Create(cfg.Report.HTML)
		if err != nil {
			return fmt.Errorf("failed to create HTML report: %w", err)
		}
		if err := report.WriteHTML(f, summary); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write HTML report: %w", err)
		}
		return f.Close()
	}
	return nil
}
