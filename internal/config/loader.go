package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "WORDSTRESS"

// Loader handles loading configuration from files, the environment and
// command-line arguments.
type Loader struct {
	// DotEnvPath is read before the environment layer. Missing files are ignored.
	DotEnvPath string
}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{DotEnvPath: ".env"}
}

// Load parses command-line arguments, the environment and configuration files
// to produce a Config. Later layers win: defaults, config file, environment,
// then flags.
func (l Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	// If no arguments provided and no config file, show help/usage
	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	positional := flagSet.Args()
	if len(positional) > 1 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(positional[1:], " "))
	}

	cfg := Defaults()
	cfg.ConfigFile = configPath

	if configPath != "" {
		cfgViper := viper.New()
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
		if err := applyConfigSettings(cfg, cfgViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("%s: %w", configPath, err)
		}
	}

	if err := loadDotEnv(l.DotEnvPath); err != nil {
		return nil, err
	}
	if err := applyConfigSettings(cfg, environmentSettings()); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	if len(positional) == 1 {
		cfg.Domain = positional[0]
	}

	cfg.Domain = strings.TrimSpace(cfg.Domain)
	cfg.Method = strings.ToUpper(strings.TrimSpace(cfg.Method))
	cfg.Output = strings.ToLower(strings.TrimSpace(cfg.Output))
	cfg.Browser = strings.ToLower(strings.TrimSpace(cfg.Browser))
	cfg.Mode = Mode(strings.ToLower(strings.TrimSpace(string(cfg.Mode))))
	cfg.Progress = ProgressMode(strings.ToLower(strings.TrimSpace(string(cfg.Progress))))
	cfg.BodyFile = strings.TrimSpace(cfg.BodyFile)
	if cfg.Verbose {
		cfg.LogLevel = "debug"
	}

	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}

	return cfg, nil
}

// envKeys maps setting keys to the variable suffix after EnvPrefix.
var envKeys = map[string]string{
	"domain":           "DOMAIN",
	"endpoint":         "ENDPOINT",
	"https":            "HTTPS",
	"method":           "METHOD",
	"body":             "BODY",
	"body_file":        "BODY_FILE",
	"user_agent":       "USER_AGENT",
	"browser":          "BROWSER",
	"timeout":          "TIMEOUT",
	"follow_redirects": "FOLLOW_REDIRECTS",
	"mode":             "MODE",
	"clients":          "CLIENTS",
	"interval":         "INTERVAL",
	"duration":         "DURATION",
	"burst_clients":    "BURST_CLIENTS",
	"output":           "OUTPUT",
	"output_file":      "OUTPUT_FILE",
	"no_color":         "NO_COLOR",
	"verbose":          "VERBOSE",
	"progress":         "PROGRESS",
	"dashboard":        "DASHBOARD",
	"log_errors":       "LOG_ERRORS",
	"metrics_addr":     "METRICS_ADDR",
}

var tracingEnvKeys = map[string]string{
	"endpoint":     "TRACING_ENDPOINT",
	"protocol":     "TRACING_PROTOCOL",
	"service_name": "TRACING_SERVICE_NAME",
	"sample_rate":  "TRACING_SAMPLE_RATE",
	"insecure":     "TRACING_INSECURE",
}

// environmentSettings collects WORDSTRESS_* variables into the same shape a
// config file produces. LOG_LEVEL is honoured without the prefix.
func environmentSettings() map[string]interface{} {
	v := viper.New()

	settings := map[string]interface{}{}
	for key, suffix := range envKeys {
		_ = v.BindEnv(key, EnvPrefix+"_"+suffix)
		if v.IsSet(key) {
			settings[key] = v.GetString(key)
		}
	}

	_ = v.BindEnv("log_level", EnvPrefix+"_LOG_LEVEL", "LOG_LEVEL")
	if v.IsSet("log_level") {
		settings["log_level"] = v.GetString("log_level")
	}

	// Headers are comma-separated key=value pairs.
	_ = v.BindEnv("headers", EnvPrefix+"_HEADERS")
	if raw := strings.TrimSpace(v.GetString("headers")); raw != "" {
		headers := map[string]interface{}{}
		for _, part := range splitList(raw) {
			if key, value, err := parseHeader(part); err == nil {
				headers[key] = value
			}
		}
		settings["headers"] = headers
	}

	_ = v.BindEnv("thresholds", EnvPrefix+"_THRESHOLDS")
	if raw := strings.TrimSpace(v.GetString("thresholds")); raw != "" {
		thresholds := make([]interface{}, 0)
		for _, part := range splitList(raw) {
			thresholds = append(thresholds, part)
		}
		settings["thresholds"] = thresholds
	}

	tracing := map[string]interface{}{}
	for key, suffix := range tracingEnvKeys {
		envKey := "tracing_" + key
		_ = v.BindEnv(envKey, EnvPrefix+"_"+suffix)
		if v.IsSet(envKey) {
			tracing[key] = v.GetString(envKey)
		}
	}
	if len(tracing) > 0 {
		settings["tracing"] = tracing
	}

	return settings
}

// loadDotEnv exports variables from a dotenv file without overriding
// variables that are already set.
func loadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	envViper := viper.New()
	envViper.SetConfigFile(path)
	envViper.SetConfigType("env")
	if err := envViper.ReadInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	for key, raw := range envViper.AllSettings() {
		name := strings.ToUpper(key)
		if _, exists := os.LookupEnv(name); exists {
			continue
		}
		val, err := cast.ToStringE(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := os.Setenv(name, val); err != nil {
			return err
		}
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// applyConfigSettings applies one settings layer (config file or
// environment) on top of cfg.
func applyConfigSettings(cfg *Config, raw map[string]interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	s, err := newSettings(raw)
	if err != nil {
		return err
	}
	b := &binder{s: s}

	b.text("domain", &cfg.Domain)
	b.text("endpoint", &cfg.Endpoint)
	b.text("method", &cfg.Method)
	b.toggle("https", &cfg.HTTPS)
	b.duration("timeout", time.Millisecond, &cfg.Timeout)
	b.toggle("follow_redirects", &cfg.FollowRedirects)
	b.text("user_agent", &cfg.UserAgent)
	b.text("browser", &cfg.Browser)
	b.verbatim("body", &cfg.Body)
	b.verbatim("body_file", &cfg.BodyFile)
	cfg.BodyFile = strings.TrimSpace(cfg.BodyFile)
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	b.headers("headers", cfg.Headers)

	var mode, progress string
	b.text("mode", &mode)
	b.count("clients", &cfg.Clients)
	b.duration("interval", time.Millisecond, &cfg.Interval)
	b.duration("duration", time.Second, &cfg.Duration)
	b.count("burst_clients", &cfg.BurstClients)

	b.text("output", &cfg.Output)
	b.text("output_file", &cfg.OutputFile)
	b.toggle("no_color", &cfg.NoColor)
	b.toggle("verbose", &cfg.Verbose)
	b.text("log_level", &cfg.LogLevel)
	b.text("progress", &progress)
	b.toggle("dashboard", &cfg.Dashboard)
	b.toggle("log_errors", &cfg.LogErrors)
	b.list("thresholds", &cfg.Thresholds)
	b.text("metrics_addr", &cfg.MetricsAddr)

	if mode != "" {
		cfg.Mode = Mode(mode)
	}
	if progress != "" {
		cfg.Progress = ProgressMode(progress)
	}

	if t := b.section("tracing"); t != nil {
		bindTracing(t, &cfg.Tracing)
		for _, err := range t.errs {
			b.fail("tracing", err)
		}
	}

	return b.err()
}

func bindTracing(b *binder, t *TracingConfig) {
	b.verbatim("endpoint", &t.Endpoint)
	t.Endpoint = strings.TrimSpace(t.Endpoint)
	var protocol string
	b.text("protocol", &protocol)
	if protocol != "" {
		t.Protocol = strings.ToLower(protocol)
	}
	b.verbatim("service_name", &t.ServiceName)
	t.ServiceName = strings.TrimSpace(t.ServiceName)
	b.ratio("sample_rate", &t.SampleRate)
	b.toggle("insecure", &t.Insecure)
	if _, ok := b.s.value("propagate"); ok {
		var propagate bool
		b.toggle("propagate", &propagate)
		t.Propagate = &propagate
	}
}
