package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/torosent/wordstress/internal/threshold"
)

type Mode string

const (
	ModeSteadyState Mode = "steady-state"
	ModeBurst       Mode = "burst"
)

type ProgressMode string

const (
	ProgressAuto  ProgressMode = "auto"
	ProgressPlain ProgressMode = "plain"
	ProgressTUI   ProgressMode = "tui"
	ProgressOff   ProgressMode = "off"
)

// Defaults applied before any file, environment or flag value.
const (
	DefaultClients  = 5
	DefaultInterval = time.Second
	DefaultDuration = 60 * time.Second
	DefaultTimeout  = 30 * time.Second
	DefaultEndpoint = "/"
	DefaultMethod   = "GET"
	DefaultOutput   = "table"
	DefaultBrowser  = "chrome"

	highClientWarning = 500
)

var (
	validMethods   = []string{"GET", "POST", "PUT", "DELETE", "PATCH"}
	validOutputs   = []string{"table", "json", "csv", "yaml"}
	validBrowsers  = []string{"chrome", "firefox", "safari"}
	validProgress  = []ProgressMode{ProgressAuto, ProgressPlain, ProgressTUI, ProgressOff}
	validProtocols = []string{"grpc", "http"}
)

type Config struct {
	Domain          string            `mapstructure:"domain"`
	Endpoint        string            `mapstructure:"endpoint"`
	HTTPS           bool              `mapstructure:"https"`
	Method          string            `mapstructure:"method"`
	Headers         map[string]string `mapstructure:"headers"`
	Body            string            `mapstructure:"body"`
	BodyFile        string            `mapstructure:"body_file"`
	UserAgent       string            `mapstructure:"user_agent"`
	Browser         string            `mapstructure:"browser"`
	Timeout         time.Duration     `mapstructure:"timeout"`
	FollowRedirects bool              `mapstructure:"follow_redirects"`
	Mode            Mode              `mapstructure:"mode"`
	Clients         int               `mapstructure:"clients"`
	Interval        time.Duration     `mapstructure:"interval"`
	Duration        time.Duration     `mapstructure:"duration"`
	BurstClients    int               `mapstructure:"burst_clients"`
	Output          string            `mapstructure:"output"`
	OutputFile      string            `mapstructure:"output_file"`
	NoColor         bool              `mapstructure:"no_color"`
	Verbose         bool              `mapstructure:"verbose"`
	LogLevel        string            `mapstructure:"log_level"`
	Progress        ProgressMode      `mapstructure:"progress"`
	Dashboard       bool              `mapstructure:"dashboard"`
	LogErrors       bool              `mapstructure:"log_errors"`
	Thresholds      []string          `mapstructure:"thresholds"`
	MetricsAddr     string            `mapstructure:"metrics_addr"`
	Tracing         TracingConfig     `mapstructure:"tracing"`
	ConfigFile      string            `mapstructure:"-"`
}

// TracingConfig configures OpenTelemetry export of per-request spans.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`     // OTLP collector host:port
	Protocol    string  `mapstructure:"protocol"`     // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"` // defaults to OTEL_SERVICE_NAME, then "wordstress"
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
	Propagate   *bool   `mapstructure:"propagate"` // nil propagates whenever spans are exported
}

// Defaults returns a Config populated with default values.
func Defaults() *Config {
	return &Config{
		Endpoint:        DefaultEndpoint,
		HTTPS:           true,
		Method:          DefaultMethod,
		Headers:         map[string]string{},
		Browser:         DefaultBrowser,
		Timeout:         DefaultTimeout,
		FollowRedirects: true,
		Mode:            ModeSteadyState,
		Clients:         DefaultClients,
		Interval:        DefaultInterval,
		Duration:        DefaultDuration,
		Output:          DefaultOutput,
		LogLevel:        "info",
		Progress:        ProgressAuto,
		Tracing:         TracingConfig{Protocol: "grpc", SampleRate: 1.0},
	}
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.Domain) == "" {
		issues = append(issues, "domain is required (use --help for usage information)")
	}

	switch c.Mode {
	case ModeBurst:
		if c.BurstClients == 0 {
			issues = append(issues, "--burst-clients is required for burst mode")
		} else if c.BurstClients < 0 {
			issues = append(issues, "--burst-clients must be greater than 0")
		}
	case ModeSteadyState:
		if c.Clients < 1 {
			issues = append(issues, "--clients must be greater than 0")
		}
		if c.Interval <= 0 {
			issues = append(issues, "--interval must be greater than 0")
		}
		if c.Duration <= 0 {
			issues = append(issues, "--duration must be greater than 0")
		}
	default:
		issues = append(issues, fmt.Sprintf("--mode must be one of: %s, %s", ModeSteadyState, ModeBurst))
	}

	if !contains(validMethods, c.Method) {
		issues = append(issues, fmt.Sprintf("--method must be one of: %s", strings.Join(validMethods, ", ")))
	}
	if !contains(validOutputs, c.Output) {
		issues = append(issues, fmt.Sprintf("--output must be one of: %s", strings.Join(validOutputs, ", ")))
	}
	if c.Timeout <= 0 {
		issues = append(issues, "--timeout must be greater than 0")
	}
	if c.UserAgent == "" && !contains(validBrowsers, c.Browser) {
		issues = append(issues, fmt.Sprintf("--browser must be one of: %s", strings.Join(validBrowsers, ", ")))
	}
	if !containsProgress(c.Progress) {
		issues = append(issues, "--progress must be one of: auto, plain, tui, off")
	}
	if c.Body != "" && strings.TrimSpace(c.BodyFile) != "" {
		issues = append(issues, "--body and --body-file cannot both be set")
	}
	for key, value := range c.Headers {
		if strings.TrimSpace(key) == "" {
			issues = append(issues, "header name cannot be empty")
		}
		if strings.ContainsAny(key, "\r\n") || strings.ContainsAny(value, "\r\n") {
			issues = append(issues, fmt.Sprintf("header %q contains a line break", key))
		}
	}
	for _, expr := range c.Thresholds {
		if _, err := threshold.Parse(expr); err != nil {
			issues = append(issues, fmt.Sprintf("threshold: %v", err))
		}
	}
	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

// Warnings returns non-fatal notices about risky settings.
func (c Config) Warnings() []string {
	var warnings []string
	if c.Mode == ModeSteadyState && c.Clients > highClientWarning {
		warnings = append(warnings, fmt.Sprintf("High client count configured (%d clients). Ensure you have authorization to test the target system.", c.Clients))
	}
	if c.Mode == ModeBurst && c.BurstClients > highClientWarning {
		warnings = append(warnings, fmt.Sprintf("High burst size configured (%d requests). Each request opens its own connection and may exhaust file descriptors.", c.BurstClients))
	}
	return warnings
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing sample rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	if t.Protocol != "" && !contains(validProtocols, strings.ToLower(t.Protocol)) {
		issues = append(issues, fmt.Sprintf("tracing protocol must be one of: %s", strings.Join(validProtocols, ", ")))
	}
	return issues
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func containsProgress(p ProgressMode) bool {
	for _, candidate := range validProgress {
		if candidate == p {
			return true
		}
	}
	return false
}
