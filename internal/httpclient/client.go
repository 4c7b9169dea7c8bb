package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/torosent/wordstress/internal/config"
)

// defaultAcceptEncoding is sent unless the caller sets Accept-Encoding. An
// explicit value keeps the transport from decoding the body, so the recorded
// size and Content-Length are the bytes on the wire.
const defaultAcceptEncoding = "gzip"

type RequestBuilder struct {
	method  string
	target  string
	path    string
	headers http.Header
	body    *Payload
}

// NewRequestBuilder validates the request portion of cfg once so Build can
// produce a fresh request per call without re-checking it.
func NewRequestBuilder(cfg *config.Config) (*RequestBuilder, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if strings.TrimSpace(cfg.Domain) == "" {
		return nil, errors.New("domain is required")
	}
	target := BuildTargetURL(cfg.HTTPS, cfg.Domain, cfg.Endpoint)
	parsed, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target %q: %w", target, err)
	}

	method := strings.TrimSpace(cfg.Method)
	if method == "" {
		method = http.MethodGet
	}
	method = strings.ToUpper(method)

	payload, err := LoadPayload(cfg.Body, cfg.BodyFile)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("User-Agent", ResolveUserAgent(cfg.UserAgent, cfg.Browser))
	for key, value := range cfg.Headers {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" || strings.ContainsAny(trimmedKey, "\r\n") {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		canonicalKey := http.CanonicalHeaderKey(trimmedKey)
		if strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("invalid header value for %s", canonicalKey)
		}
		headers.Set(canonicalKey, value)
	}
	if headers.Get("Accept-Encoding") == "" {
		headers.Set("Accept-Encoding", defaultAcceptEncoding)
	}

	return &RequestBuilder{
		method:  method,
		target:  target,
		path:    parsed.EscapedPath(),
		headers: headers,
		body:    payload,
	}, nil
}

// Target returns the absolute URL every request is sent to.
func (b *RequestBuilder) Target() string {
	return b.target
}

// Path returns the escaped URL path of the target, always starting with "/".
func (b *RequestBuilder) Path() string {
	if b.path == "" {
		return "/"
	}
	return b.path
}

// Payload returns the body sent with every request.
func (b *RequestBuilder) Payload() *Payload {
	return b.body
}

// Method returns the upper-cased request method.
func (b *RequestBuilder) Method() string {
	return b.method
}

func (b *RequestBuilder) Build(ctx context.Context) (*http.Request, error) {
	if b == nil {
		return nil, errors.New("builder cannot be nil")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	reader, err := b.body.Open()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, b.method, b.target, reader)
	if err != nil {
		_ = reader.Close()
		return nil, err
	}

	req.Header = b.headers.Clone()

	req.ContentLength = b.body.Size()
	req.GetBody = b.body.Open

	return req, nil
}

// NewClient returns a client tuned for sustained load. It sets no client-level
// timeout; callers bound each request with a context deadline instead.
func NewClient(followRedirects bool) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableCompression:    true,
	}

	client := &http.Client{
		Transport: transport,
	}
	if !followRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client
}
