package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "wordstress <domain>",
		Short:         "Stress-testing CLI for HTTP sites",
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Steady-state flags
	flags.Int("clients", DefaultClients, "Number of parallel clients for steady-state mode")
	flags.String("interval", "1000", "Time between each client request (milliseconds, or a duration such as 500ms)")
	flags.String("duration", "60", "Test duration (seconds, or a duration such as 2m)")

	// Mode flags
	flags.String("mode", string(ModeSteadyState), "Test mode: steady-state or burst")
	flags.Int("burst-clients", 0, "Number of simultaneous requests for burst mode (required for burst)")

	// Request flags
	flags.String("endpoint", DefaultEndpoint, "URL path/endpoint to test")
	flags.String("method", DefaultMethod, "HTTP method: GET, POST, PUT, DELETE, PATCH")
	flags.String("https", "on", "Use HTTPS (on|off)")
	flags.String("timeout", "30000", "Request timeout (milliseconds, or a duration such as 5s)")
	flags.String("follow-redirects", "on", "Follow HTTP redirects (on|off)")
	flags.StringSlice("header", nil, "Additional request header in key=value form (repeatable)")
	flags.String("body", "", "Inline request body payload")
	flags.String("body-file", "", "Path to file containing the request body")
	flags.String("user-agent", "", "Custom User-Agent header (overrides --browser)")
	flags.String("browser", DefaultBrowser, "Browser whose User-Agent to send: chrome, firefox, safari")

	// Output flags
	flags.String("output", DefaultOutput, "Output format: table, json, csv, yaml")
	flags.String("output-file", "", "Write the report to this file instead of stdout")
	flags.Bool("no-color", false, "Disable colored output")
	flags.Bool("verbose", false, "Enable verbose logging")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("progress", string(ProgressAuto), "Progress display: auto, plain, tui, off")
	flags.Bool("dashboard", false, "Show live terminal dashboard with metrics")
	flags.Bool("log-errors", false, "Log each failed request to stderr")
	flags.StringSlice("threshold", nil, "Performance thresholds (repeatable, e.g., 'response_time:p95 < 500')")
	flags.String("metrics-addr", "", "Expose live Prometheus metrics on this address (e.g., :9090)")

	// Tracing flags
	flags.String("tracing-endpoint", "", "OTLP collector endpoint for request spans")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of requests to trace (0.0-1.0)")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")

	flags.String("config", "", "Path to configuration file (JSON or YAML)")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\n%s\n\nFlags:\n", cmd.UseLine(), cmd.Short)
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file and environment.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	stringTargets := map[string]*string{
		"endpoint":     &cfg.Endpoint,
		"method":       &cfg.Method,
		"user-agent":   &cfg.UserAgent,
		"browser":      &cfg.Browser,
		"output":       &cfg.Output,
		"output-file":  &cfg.OutputFile,
		"log-level":    &cfg.LogLevel,
		"metrics-addr": &cfg.MetricsAddr,
	}
	for name, target := range stringTargets {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*target = strings.TrimSpace(val)
	}

	intTargets := map[string]*int{
		"clients":       &cfg.Clients,
		"burst-clients": &cfg.BurstClients,
	}
	for name, target := range intTargets {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetInt(name)
		if err != nil {
			return err
		}
		*target = val
	}

	boolTargets := map[string]*bool{
		"no-color":   &cfg.NoColor,
		"verbose":    &cfg.Verbose,
		"dashboard":  &cfg.Dashboard,
		"log-errors": &cfg.LogErrors,
	}
	for name, target := range boolTargets {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetBool(name)
		if err != nil {
			return err
		}
		*target = val
	}

	switchTargets := map[string]*bool{
		"https":            &cfg.HTTPS,
		"follow-redirects": &cfg.FollowRedirects,
	}
	for name, target := range switchTargets {
		if !fs.Changed(name) {
			continue
		}
		val, err := parseSwitch(fs.Lookup(name).Value.String())
		if err != nil {
			return fmt.Errorf("--%s: %w", name, err)
		}
		*target = val
	}

	durationTargets := []struct {
		name   string
		target *time.Duration
		unit   time.Duration
	}{
		{"interval", &cfg.Interval, time.Millisecond},
		{"timeout", &cfg.Timeout, time.Millisecond},
		{"duration", &cfg.Duration, time.Second},
	}
	for _, d := range durationTargets {
		if !fs.Changed(d.name) {
			continue
		}
		val, err := parseDuration(fs.Lookup(d.name).Value.String(), d.unit)
		if err != nil {
			return fmt.Errorf("--%s: %w", d.name, err)
		}
		*d.target = val
	}

	if fs.Changed("mode") {
		val, err := fs.GetString("mode")
		if err != nil {
			return err
		}
		cfg.Mode = Mode(val)
	}
	if fs.Changed("progress") {
		val, err := fs.GetString("progress")
		if err != nil {
			return err
		}
		cfg.Progress = ProgressMode(val)
	}
	if fs.Changed("body") {
		val, err := fs.GetString("body")
		if err != nil {
			return err
		}
		cfg.Body = val
		cfg.BodyFile = ""
	}
	if fs.Changed("body-file") {
		val, err := fs.GetString("body-file")
		if err != nil {
			return err
		}
		cfg.BodyFile = val
		cfg.Body = ""
	}
	if fs.Changed("header") {
		values, err := fs.GetStringSlice("header")
		if err != nil {
			return err
		}
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for _, raw := range values {
			key, value, err := parseHeader(raw)
			if err != nil {
				return err
			}
			cfg.Headers[key] = value
		}
	}
	if fs.Changed("threshold") {
		values, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = values
	}

	if fs.Changed("tracing-endpoint") {
		val, err := fs.GetString("tracing-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-protocol") {
		val, err := fs.GetString("tracing-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	if fs.Changed("tracing-insecure") {
		val, err := fs.GetBool("tracing-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}

	return nil
}

// parseHeader splits a key=value (or key: value) header argument.
func parseHeader(raw string) (string, string, error) {
	sep := strings.IndexAny(raw, "=:")
	if sep <= 0 {
		return "", "", fmt.Errorf("invalid header %q: expected key=value", raw)
	}
	key := strings.TrimSpace(raw[:sep])
	if key == "" {
		return "", "", fmt.Errorf("invalid header %q: empty name", raw)
	}
	return http.CanonicalHeaderKey(key), strings.TrimSpace(raw[sep+1:]), nil
}
