package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"time"

	"github.com/torosent/wordstress/internal/metrics"
)

// Classify maps a transport error to an error kind and the message recorded
// for it. timeout is the per-request limit and only appears in messages.
func Classify(err error, timeout time.Duration) (metrics.ErrorKind, string) {
	if err == nil {
		return metrics.ErrorNone, ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return metrics.ErrorTimeout, timeoutMessage(timeout)
	}
	if errors.Is(err, context.Canceled) {
		return metrics.ErrorUnknown, "request canceled"
	}

	msg := unwrapURLError(err).Error()

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return metrics.ErrorTimeout, timeoutMessage(timeout)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return metrics.ErrorNetwork, msg
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return metrics.ErrorNetwork, msg
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return metrics.ErrorNetwork, msg
	}

	return metrics.ErrorUnknown, msg
}

func timeoutMessage(timeout time.Duration) string {
	if timeout <= 0 {
		return metrics.ErrorTimeout.Label()
	}
	return fmt.Sprintf("Request timeout after %s", timeout)
}

// unwrapURLError drops the "Get \"https://...\": " prefix net/http adds so
// messages group by cause rather than by URL.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}
