package runner

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/torosent/wordstress/internal/logger"
	"github.com/torosent/wordstress/internal/metrics"
)

// FailureLogger logs failed requests.
type FailureLogger interface {
	LogFailure(ctx context.Context, o metrics.Outcome)
}

// loggingExecutor wraps an Executor with failure logging.
type loggingExecutor struct {
	inner  Executor
	logger FailureLogger
}

// WithLogging wraps an Executor to log failures.
func WithLogging(exec Executor, logger FailureLogger) Executor {
	if logger == nil {
		return exec
	}
	return &loggingExecutor{
		inner:  exec,
		logger: logger,
	}
}

func (l *loggingExecutor) Execute(ctx context.Context) metrics.Outcome {
	o := l.inner.Execute(ctx)
	if o.Failed() {
		l.logger.LogFailure(ctx, o)
	}
	return o
}

// LogFailureLogger writes failures through a Logger at warn level. Output is
// throttled; failures over the limit are counted and reported with the next
// line that gets through.
type LogFailureLogger struct {
	log     logger.Logger
	limiter *rate.Limiter

	mu         sync.Mutex
	suppressed int
}

// NewLogFailureLogger allows perSecond lines per second with the given burst.
// A non-positive perSecond disables throttling.
func NewLogFailureLogger(log logger.Logger, perSecond float64, burst int) *LogFailureLogger {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &LogFailureLogger{
		log:     log,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (l *LogFailureLogger) LogFailure(ctx context.Context, o metrics.Outcome) {
	l.mu.Lock()
	if !l.limiter.Allow() {
		l.suppressed++
		l.mu.Unlock()
		return
	}
	suppressed := l.suppressed
	l.suppressed = 0
	l.mu.Unlock()

	fields := []logger.Field{
		logger.String("kind", o.ErrorKind.String()),
		logger.String("message", o.Message),
		logger.Duration("elapsed", o.ResponseTime.Round(time.Microsecond)),
	}
	if suppressed > 0 {
		fields = append(fields, logger.Int("suppressed", suppressed))
	}
	l.log.Warn(ctx, "request failed", fields...)
}

// Suppressed returns how many failures have been dropped since the last
// logged line.
func (l *LogFailureLogger) Suppressed() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.suppressed
}
