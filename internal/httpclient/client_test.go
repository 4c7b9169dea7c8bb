package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/torosent/wordstress/internal/config"
)

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Domain = "example.com"
	return cfg
}

func TestBuildRequestWithHeaders(t *testing.T) {
	cfg := testConfig()
	cfg.Method = "post"
	cfg.Endpoint = "api"
	cfg.Headers = map[string]string{
		"content-type": "application/json",
		"X-Trace-Id":   "12345",
	}
	cfg.Body = `{"hello":"world"}`

	builder, err := NewRequestBuilder(cfg)
	if err != nil {
		t.Fatalf("expected builder, got error: %v", err)
	}

	req, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("expected request, got error: %v", err)
	}

	if req.Method != http.MethodPost {
		t.Fatalf("expected method POST, got %s", req.Method)
	}
	if req.URL.String() != "https://example.com/api" {
		t.Fatalf("expected https://example.com/api, got %s", req.URL.String())
	}
	if req.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("expected canonical Content-Type header, got %q", req.Header.Get("Content-Type"))
	}
	if req.Header.Get("X-Trace-Id") != "12345" {
		t.Fatalf("expected X-Trace-Id header, got %q", req.Header.Get("X-Trace-Id"))
	}
	if !strings.Contains(req.Header.Get("User-Agent"), "Chrome/") {
		t.Fatalf("expected chrome user agent, got %q", req.Header.Get("User-Agent"))
	}

	bodyBytes, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatalf("read body failed: %v", err)
	}
	if string(bodyBytes) != cfg.Body {
		t.Fatalf("expected body %q, got %q", cfg.Body, string(bodyBytes))
	}
	if req.ContentLength != int64(len(cfg.Body)) {
		t.Fatalf("expected content length %d, got %d", len(cfg.Body), req.ContentLength)
	}

	replay, err := req.GetBody()
	if err != nil {
		t.Fatalf("GetBody failed: %v", err)
	}
	defer replay.Close()
	again, _ := io.ReadAll(replay)
	if string(again) != cfg.Body {
		t.Fatalf("GetBody should replay the body, got %q", string(again))
	}
}

func TestRequestBuilderHeaderOverridesUserAgent(t *testing.T) {
	cfg := testConfig()
	cfg.UserAgent = "custom/1.0"
	cfg.Headers = map[string]string{"user-agent": "header/2.0"}

	builder, err := NewRequestBuilder(cfg)
	if err != nil {
		t.Fatalf("NewRequestBuilder() error = %v", err)
	}
	req, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := req.Header.Get("User-Agent"); got != "header/2.0" {
		t.Errorf("User-Agent = %q, want explicit header to win", got)
	}
}

func TestRequestBuilderBuildsIndependentHeaders(t *testing.T) {
	builder, err := NewRequestBuilder(testConfig())
	if err != nil {
		t.Fatalf("NewRequestBuilder() error = %v", err)
	}
	first, _ := builder.Build(context.Background())
	first.Header.Set("X-Mutated", "yes")

	second, _ := builder.Build(context.Background())
	if second.Header.Get("X-Mutated") != "" {
		t.Error("requests must not share a header map")
	}
}

func TestRequestBuilderValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"missing domain", func(c *config.Config) { c.Domain = "" }},
		{"empty header key", func(c *config.Config) { c.Headers = map[string]string{" ": "v"} }},
		{"header key with newline", func(c *config.Config) { c.Headers = map[string]string{"X-\nBad": "v"} }},
		{"header value with newline", func(c *config.Config) { c.Headers = map[string]string{"X-Bad": "a\r\nb"} }},
		{"body conflict", func(c *config.Config) { c.Body = "x"; c.BodyFile = "y" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			if _, err := NewRequestBuilder(cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	if _, err := NewRequestBuilder(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestRequestBuilder_MethodFallbackAndVerbs(t *testing.T) {
	for _, method := range []string{"", "get", "PUT", "delete", "Patch"} {
		cfg := testConfig()
		cfg.Method = method
		builder, err := NewRequestBuilder(cfg)
		if err != nil {
			t.Fatalf("NewRequestBuilder(%q) error = %v", method, err)
		}
		want := strings.ToUpper(method)
		if want == "" {
			want = http.MethodGet
		}
		if builder.Method() != want {
			t.Errorf("Method() = %q, want %q", builder.Method(), want)
		}
	}
}

func TestClientRedirectPolicy(t *testing.T) {
	final := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer final.Close()
	redirect := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, final.URL, http.StatusFound)
	}))
	defer redirect.Close()

	tests := []struct {
		follow bool
		want   int
	}{
		{true, http.StatusOK},
		{false, http.StatusFound},
	}
	for _, tt := range tests {
		resp, err := NewClient(tt.follow).Get(redirect.URL)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Errorf("follow=%v status = %d, want %d", tt.follow, resp.StatusCode, tt.want)
		}
	}
}

func TestNewClientHasNoClientTimeout(t *testing.T) {
	if NewClient(true).Timeout != 0 {
		t.Error("client-level timeout must be unset")
	}
}

func TestRequestBuilderAcceptEncoding(t *testing.T) {
	builder, err := NewRequestBuilder(testConfig())
	if err != nil {
		t.Fatalf("NewRequestBuilder() error = %v", err)
	}
	req, _ := builder.Build(context.Background())
	if got := req.Header.Get("Accept-Encoding"); got != "gzip" {
		t.Errorf("Accept-Encoding = %q, want gzip by default", got)
	}

	cfg := testConfig()
	cfg.Headers = map[string]string{"accept-encoding": "identity"}
	builder, err = NewRequestBuilder(cfg)
	if err != nil {
		t.Fatalf("NewRequestBuilder() error = %v", err)
	}
	req, _ = builder.Build(context.Background())
	if got := req.Header.Get("Accept-Encoding"); got != "identity" {
		t.Errorf("Accept-Encoding = %q, want explicit header to win", got)
	}
}

func TestRequestBuilderPath(t *testing.T) {
	tests := map[string]string{
		"":            "/",
		"/":           "/",
		"submit":      "/submit",
		"/api/v1?q=1": "/api/v1",
		"/a%20b":      "/a%20b",
	}
	for endpoint, want := range tests {
		cfg := testConfig()
		cfg.Endpoint = endpoint
		builder, err := NewRequestBuilder(cfg)
		if err != nil {
			t.Fatalf("NewRequestBuilder(%q) error = %v", endpoint, err)
		}
		if got := builder.Path(); got != want {
			t.Errorf("Path() for %q = %q, want %q", endpoint, got, want)
		}
	}
}

func TestNewClientDisablesTransparentDecompression(t *testing.T) {
	transport, ok := NewClient(true).Transport.(*http.Transport)
	if !ok {
		t.Fatal("expected *http.Transport")
	}
	if !transport.DisableCompression {
		t.Error("transport must not decode response bodies")
	}
}
