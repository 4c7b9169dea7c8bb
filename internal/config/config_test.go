package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/torosent/wordstress/internal/config"
)

func newTestLoader(t *testing.T) *config.Loader {
	t.Helper()
	loader := config.NewLoader()
	loader.DotEnvPath = filepath.Join(t.TempDir(), ".env")
	return loader
}

func TestLoadWithoutArgumentsRequestsHelp(t *testing.T) {
	_, err := newTestLoader(t).Load([]string{})
	if !errors.Is(err, config.ErrHelpRequested) {
		t.Fatalf("Load() error = %v, want ErrHelpRequested", err)
	}
}

func TestLoadHelpFlag(t *testing.T) {
	_, err := newTestLoader(t).Load([]string{"--help"})
	if !errors.Is(err, config.ErrHelpRequested) {
		t.Fatalf("Load() error = %v, want ErrHelpRequested", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := newTestLoader(t).Load([]string{"example.com"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Domain != "example.com" {
		t.Errorf("Domain = %q, want example.com", cfg.Domain)
	}
	if cfg.Endpoint != "/" {
		t.Errorf("Endpoint = %q, want /", cfg.Endpoint)
	}
	if cfg.Method != "GET" {
		t.Errorf("Method = %q, want GET", cfg.Method)
	}
	if !cfg.HTTPS || !cfg.FollowRedirects {
		t.Errorf("HTTPS=%v FollowRedirects=%v, want both on", cfg.HTTPS, cfg.FollowRedirects)
	}
	if cfg.Mode != config.ModeSteadyState {
		t.Errorf("Mode = %q, want steady-state", cfg.Mode)
	}
	if cfg.Clients != 5 {
		t.Errorf("Clients = %d, want 5", cfg.Clients)
	}
	if cfg.Interval != time.Second {
		t.Errorf("Interval = %s, want 1s", cfg.Interval)
	}
	if cfg.Duration != 60*time.Second {
		t.Errorf("Duration = %s, want 60s", cfg.Duration)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %s, want 30s", cfg.Timeout)
	}
	if cfg.Output != "table" {
		t.Errorf("Output = %q, want table", cfg.Output)
	}
	if cfg.Browser != "chrome" {
		t.Errorf("Browser = %q, want chrome", cfg.Browser)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadFlagsNormalize(t *testing.T) {
	args := []string{
		"--method", "post",
		"--output", "JSON",
		"--mode", "Burst",
		"--burst-clients", "10",
		"--verbose",
		"example.com",
	}
	cfg, err := newTestLoader(t).Load(args)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Method != "POST" {
		t.Errorf("Method = %q, want POST", cfg.Method)
	}
	if cfg.Output != "json" {
		t.Errorf("Output = %q, want json", cfg.Output)
	}
	if cfg.Mode != config.ModeBurst {
		t.Errorf("Mode = %q, want burst", cfg.Mode)
	}
	if cfg.BurstClients != 10 {
		t.Errorf("BurstClients = %d, want 10", cfg.BurstClients)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug when verbose", cfg.LogLevel)
	}
}

func TestLoadRejectsExtraArguments(t *testing.T) {
	_, err := newTestLoader(t).Load([]string{"a.example", "b.example"})
	if err == nil || !strings.Contains(err.Error(), "unexpected arguments") {
		t.Fatalf("Load() error = %v, want unexpected arguments", err)
	}
}

func TestLoadFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wordstress.yaml")
	content := `domain: shop.example
endpoint: /cart
https: off
clients: 8
interval: 200
duration: 15
timeout: 2s
headers:
  x-team: perf
thresholds:
  - "response_time:p95 < 300"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := newTestLoader(t).Load([]string{"--config", path, "--clients", "2"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Domain != "shop.example" || cfg.Endpoint != "/cart" {
		t.Errorf("Domain/Endpoint = %q %q", cfg.Domain, cfg.Endpoint)
	}
	if cfg.HTTPS {
		t.Error("HTTPS = true, want false from config file")
	}
	if cfg.Clients != 2 {
		t.Errorf("Clients = %d, want flag value 2", cfg.Clients)
	}
	if cfg.Interval != 200*time.Millisecond {
		t.Errorf("Interval = %s, want 200ms", cfg.Interval)
	}
	if cfg.Duration != 15*time.Second {
		t.Errorf("Duration = %s, want 15s", cfg.Duration)
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("Timeout = %s, want 2s", cfg.Timeout)
	}
	if cfg.Headers["X-Team"] != "perf" {
		t.Errorf("Headers = %v", cfg.Headers)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, path)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wordstress.json")
	if err := os.WriteFile(path, []byte(`{"domain":"file.example","clients":4,"method":"PUT"}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("WORDSTRESS_CLIENTS", "6")
	t.Setenv("WORDSTRESS_METHOD", "PATCH")

	cfg, err := newTestLoader(t).Load([]string{"--config", path, "--method", "delete", "cli.example"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Domain != "cli.example" {
		t.Errorf("Domain = %q, want positional argument to win", cfg.Domain)
	}
	if cfg.Clients != 6 {
		t.Errorf("Clients = %d, want env value 6", cfg.Clients)
	}
	if cfg.Method != "DELETE" {
		t.Errorf("Method = %q, want flag value DELETE", cfg.Method)
	}
}

func TestLoadDotEnvLayer(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("WORDSTRESS_BROWSER=firefox\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	// registered so the variable is restored after the test
	t.Setenv("WORDSTRESS_BROWSER", "")
	os.Unsetenv("WORDSTRESS_BROWSER")

	loader := config.NewLoader()
	loader.DotEnvPath = envPath
	cfg, err := loader.Load([]string{"example.com"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Browser != "firefox" {
		t.Errorf("Browser = %q, want firefox from .env", cfg.Browser)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := newTestLoader(t).Load([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml"), "example.com"})
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		cfg := config.Defaults()
		cfg.Domain = "example.com"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"valid", func(*config.Config) {}, ""},
		{"missing domain", func(c *config.Config) { c.Domain = "  " }, "domain is required"},
		{"zero clients", func(c *config.Config) { c.Clients = 0 }, "--clients must be greater than 0"},
		{"zero interval", func(c *config.Config) { c.Interval = 0 }, "--interval must be greater than 0"},
		{"zero duration", func(c *config.Config) { c.Duration = 0 }, "--duration must be greater than 0"},
		{"bad mode", func(c *config.Config) { c.Mode = "spike" }, "--mode must be one of"},
		{"burst without size", func(c *config.Config) { c.Mode = config.ModeBurst }, "--burst-clients is required for burst mode"},
		{"burst negative", func(c *config.Config) { c.Mode = config.ModeBurst; c.BurstClients = -1 }, "--burst-clients must be greater than 0"},
		{"burst ignores steady fields", func(c *config.Config) {
			c.Mode = config.ModeBurst
			c.BurstClients = 3
			c.Clients = 0
		}, ""},
		{"bad method", func(c *config.Config) { c.Method = "TRACE" }, "--method must be one of"},
		{"bad output", func(c *config.Config) { c.Output = "xml" }, "--output must be one of"},
		{"zero timeout", func(c *config.Config) { c.Timeout = 0 }, "--timeout must be greater than 0"},
		{"bad browser", func(c *config.Config) { c.Browser = "lynx" }, "--browser must be one of"},
		{"custom agent skips browser", func(c *config.Config) { c.Browser = "lynx"; c.UserAgent = "bot/1.0" }, ""},
		{"bad progress", func(c *config.Config) { c.Progress = "fancy" }, "--progress must be one of"},
		{"body conflict", func(c *config.Config) { c.Body = "x"; c.BodyFile = "y.json" }, "cannot both be set"},
		{"header newline", func(c *config.Config) { c.Headers["X-Bad"] = "a\r\nb" }, "line break"},
		{"bad threshold", func(c *config.Config) { c.Thresholds = []string{"latency is low"} }, "threshold"},
		{"bad sample rate", func(c *config.Config) { c.Tracing.SampleRate = 2 }, "sample rate"},
		{"bad tracing protocol", func(c *config.Config) { c.Tracing.Protocol = "udp" }, "tracing protocol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCollectsAllIssues(t *testing.T) {
	cfg := config.Defaults()
	cfg.Clients = 0
	cfg.Method = "TRACE"

	err := cfg.Validate()
	var verr config.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if got := len(verr.Issues()); got != 3 {
		t.Errorf("expected 3 issues (domain, clients, method), got %d: %v", got, verr.Issues())
	}
}

func TestWarnings(t *testing.T) {
	cfg := config.Defaults()
	cfg.Clients = 501
	if len(cfg.Warnings()) != 1 {
		t.Errorf("expected high client warning, got %v", cfg.Warnings())
	}

	cfg.Clients = 500
	if len(cfg.Warnings()) != 0 {
		t.Errorf("expected no warning at 500 clients, got %v", cfg.Warnings())
	}

	cfg.Mode = config.ModeBurst
	cfg.BurstClients = 1000
	if len(cfg.Warnings()) != 1 {
		t.Errorf("expected burst warning, got %v", cfg.Warnings())
	}
}
