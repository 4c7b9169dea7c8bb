package metrics

import "time"

// Outcome is the result of a single request attempt.
// StatusCode is set if and only if ErrorKind is ErrorNone.
type Outcome struct {
	StatusCode   int
	ResponseTime time.Duration
	SizeBytes    int64
	ErrorKind    ErrorKind
	Message      string
}

// Success builds an outcome for a request that produced an HTTP response.
func Success(statusCode int, responseTime time.Duration, size int64) Outcome {
	if size < 0 {
		size = 0
	}
	return Outcome{
		StatusCode:   statusCode,
		ResponseTime: responseTime,
		SizeBytes:    size,
	}
}

// Failure builds an outcome for a request that failed at the transport level.
func Failure(kind ErrorKind, message string, responseTime time.Duration) Outcome {
	if kind == ErrorNone {
		kind = ErrorUnknown
	}
	if message == "" {
		message = kind.Label()
	}
	return Outcome{
		ResponseTime: responseTime,
		ErrorKind:    kind,
		Message:      message,
	}
}

// Failed reports whether the outcome carries a transport error.
func (o Outcome) Failed() bool {
	return o.ErrorKind != ErrorNone
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
