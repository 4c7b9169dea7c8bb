package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/torosent/wordstress/internal/config"
	"github.com/torosent/wordstress/internal/dashboard"
	"github.com/torosent/wordstress/internal/httpclient"
	"github.com/torosent/wordstress/internal/logger"
	"github.com/torosent/wordstress/internal/metrics"
	"github.com/torosent/wordstress/internal/output"
	"github.com/torosent/wordstress/internal/runner"
	"github.com/torosent/wordstress/internal/telemetry"
	"github.com/torosent/wordstress/internal/threshold"
	"github.com/torosent/wordstress/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second

	failureLogRate  = 10
	failureLogBurst = 20
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, stop, args, os.Stdout, os.Stderr)
}

// execute performs one stress test. cancel stops the run early; the
// dashboard calls it when the user quits.
func execute(ctx context.Context, cancel context.CancelFunc, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.NewLoader().Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log := logger.New(stderr, level)
	for _, w := range cfg.Warnings() {
		log.Warn(ctx, w)
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	color.NoColor = cfg.NoColor || !output.IsTerminal(stderr)
	tableNoColor := cfg.NoColor || cfg.OutputFile != "" || !output.IsTerminal(stdout)
	formatter, err := output.NewFormatter(cfg.Output, tableNoColor)
	if err != nil {
		return err
	}

	tp, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	if tp.Enabled() {
		ts := tp.Settings()
		log.Info(ctx, "exporting request spans",
			logger.String("endpoint", ts.Endpoint),
			logger.String("protocol", ts.Protocol),
			logger.String("service", ts.ServiceName),
			logger.Float64("sample_rate", ts.SampleRate),
			logger.Bool("propagate", ts.Propagate),
		)
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn(ctx, "tracing shutdown failed", logger.Error(err))
		}
	}()

	builder, err := httpclient.NewRequestBuilder(cfg)
	if err != nil {
		return err
	}
	exec := httpclient.NewExecutor(
		httpclient.NewClient(cfg.FollowRedirects),
		builder,
		cfg.Timeout,
		httpclient.WithTracer(tp.Tracer(), tp.ShouldPropagate()),
		httpclient.WithLogger(log.Named("http")),
	)

	var executor runner.Executor = exec
	if cfg.LogErrors {
		executor = runner.WithLogging(executor, runner.NewLogFailureLogger(log.Named("failures"), failureLogRate, failureLogBurst))
	}

	var (
		aggOpts []metrics.Option
		tracker runner.ClientTracker
	)
	if cfg.MetricsAddr != "" {
		mgr := telemetry.NewManager()
		srv, err := telemetry.Listen(cfg.MetricsAddr, mgr, log.Named("telemetry"))
		if err != nil {
			return err
		}
		srv.Start()
		defer func() {
			if err := srv.Shutdown(context.Background()); err != nil {
				log.Warn(ctx, "metrics server shutdown failed", logger.Error(err))
			}
		}()
		aggOpts = append(aggOpts, metrics.WithObserver(mgr))
		tracker = mgr
	}

	strategy, err := runner.New(runner.Options{
		Mode:         string(cfg.Mode),
		Clients:      cfg.Clients,
		Interval:     cfg.Interval,
		Duration:     cfg.Duration,
		BurstClients: cfg.BurstClients,
		Tracker:      tracker,
	})
	if err != nil {
		return err
	}

	logBanner(ctx, log, cfg, exec.Target(), builder.Payload())

	agg := metrics.NewAggregator(aggOpts...)
	view, err := newLiveView(cfg, agg, exec.Target(), cancel, stdout, stderr)
	if err != nil {
		return err
	}

	startedAt := time.Now()
	agg.Start()
	if view != nil {
		view.Start()
	}
	report := strategy.Run(ctx, executor, agg)
	if view != nil {
		view.Stop()
	}

	if ctx.Err() != nil {
		log.Warn(ctx, "run interrupted, reporting partial results", logger.Int("requests", report.TotalRequests))
	}

	doc := output.NewDocument(report, exec.Target(), strategy.Name(), startedAt)
	if err := output.WriteReport(cfg.OutputFile, formatter, doc, stdout); err != nil {
		return err
	}
	if cfg.OutputFile != "" {
		log.Info(ctx, "report written", logger.String("path", cfg.OutputFile), logger.String("run_id", doc.RunID))
	}

	return checkThresholds(ctx, log, thresholds, report)
}

func logBanner(ctx context.Context, log logger.Logger, cfg *config.Config, target string, body *httpclient.Payload) {
	fields := []logger.Field{
		logger.String("target", target),
		logger.String("method", cfg.Method),
		logger.String("body", body.String()),
		logger.String("mode", string(cfg.Mode)),
	}
	if cfg.Mode == config.ModeBurst {
		fields = append(fields, logger.Int("burst_clients", cfg.BurstClients))
	} else {
		fields = append(fields,
			logger.Int("clients", cfg.Clients),
			logger.Duration("interval", cfg.Interval),
			logger.Duration("duration", cfg.Duration),
		)
	}
	fields = append(fields, logger.String("output", cfg.Output))
	log.Info(ctx, "Starting stress test", fields...)
}

// newLiveView picks the dashboard or a progress display. It returns nil when
// nothing should be drawn.
func newLiveView(cfg *config.Config, agg *metrics.Aggregator, target string, cancel context.CancelFunc, stdout, stderr io.Writer) (output.Progress, error) {
	if cfg.Dashboard {
		d, err := dashboard.New(agg, dashboard.TestConfig{
			TargetURL:    target,
			Mode:         string(cfg.Mode),
			Clients:      cfg.Clients,
			Interval:     cfg.Interval,
			Duration:     cfg.Duration,
			BurstClients: cfg.BurstClients,
			Timeout:      cfg.Timeout,
			Method:       cfg.Method,
			ConfigFile:   cfg.ConfigFile,
		}, cancel)
		if err != nil {
			return nil, err
		}
		return d, nil
	}

	goal := output.Goal{Duration: cfg.Duration}
	if cfg.Mode == config.ModeBurst {
		goal = output.Goal{Requests: cfg.BurstClients}
	}

	switch resolveProgress(cfg, output.IsTerminal(stderr)) {
	case config.ProgressTUI:
		title := fmt.Sprintf("wordstress %s %s", cfg.Method, target)
		return output.NewTUIProgress(output.NewProgressModel(agg, goal, title), stderr), nil
	case config.ProgressPlain:
		return output.NewProgressReporter(agg, goal, progressInterval, stderr), nil
	default:
		return nil, nil
	}
}

// resolveProgress turns the configured progress mode into plain, tui or off.
func resolveProgress(cfg *config.Config, stderrIsTerminal bool) config.ProgressMode {
	if cfg.Output != "table" && cfg.OutputFile == "" {
		return config.ProgressOff
	}
	switch cfg.Progress {
	case config.ProgressAuto:
		if stderrIsTerminal {
			return config.ProgressTUI
		}
		return config.ProgressPlain
	case config.ProgressPlain, config.ProgressTUI:
		return cfg.Progress
	default:
		return config.ProgressOff
	}
}

func checkThresholds(ctx context.Context, log logger.Logger, thresholds []threshold.Threshold, report metrics.Report) error {
	if len(thresholds) == 0 {
		return nil
	}
	results := threshold.NewEvaluator(thresholds).Evaluate(report)
	for _, r := range results {
		if r.Pass {
			log.Info(ctx, r.Message)
		} else {
			log.Error(ctx, r.Message)
		}
	}
	if failed := threshold.Failed(results); len(failed) > 0 {
		return fmt.Errorf("%d of %d thresholds failed", len(failed), len(results))
	}
	return nil
}
