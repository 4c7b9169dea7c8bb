package runner

import (
	"context"
	"testing"
	"time"

	"github.com/torosent/wordstress/internal/metrics"
)

func TestOptionsNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    Options
		wantErr  bool
		validate func(*testing.T, Options)
	}{
		{
			name:  "empty mode defaults to steady state",
			input: Options{Clients: 1, Interval: time.Second, Duration: time.Second},
			validate: func(t *testing.T, o Options) {
				if o.Mode != ModeSteadyState {
					t.Errorf("Mode = %q, want %q", o.Mode, ModeSteadyState)
				}
				if o.Tracker == nil {
					t.Error("Tracker should default to a no-op")
				}
			},
		},
		{
			name:  "mode is case and space insensitive",
			input: Options{Mode: "  Burst ", BurstClients: 3},
			validate: func(t *testing.T, o Options) {
				if o.Mode != ModeBurst {
					t.Errorf("Mode = %q, want %q", o.Mode, ModeBurst)
				}
			},
		},
		{
			name:  "burst ignores steady-state fields",
			input: Options{Mode: ModeBurst, BurstClients: 1, Clients: -1},
		},
		{name: "unknown mode", input: Options{Mode: "ramp"}, wantErr: true},
		{name: "negative clients", input: Options{Clients: -2, Interval: time.Second, Duration: time.Second}, wantErr: true},
		{name: "negative interval", input: Options{Clients: 1, Interval: -time.Second, Duration: time.Second}, wantErr: true},
		{name: "zero burst", input: Options{Mode: ModeBurst}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt := tt.input
			err := opt.normalize()
			if tt.wantErr {
				if err == nil {
					t.Fatal("normalize() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("normalize() error = %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, opt)
			}
		})
	}
}

func TestSleepStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if sleep(ctx, time.Minute) {
		t.Error("sleep should report an interrupted wait")
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("sleep did not return promptly after cancellation")
	}
	if !sleep(context.Background(), time.Millisecond) {
		t.Error("sleep should report a completed wait")
	}
}

func TestExecuteRecoversPanic(t *testing.T) {
	o := execute(context.Background(), ExecutorFunc(func(context.Context) metrics.Outcome {
		panic("kaboom")
	}))
	if o.ErrorKind != metrics.ErrorUnknown || o.Message != "panic: kaboom" {
		t.Errorf("unexpected outcome %+v", o)
	}
}

type recordingRecorder struct {
	outcomes  []metrics.Outcome
	completed int
}

func (r *recordingRecorder) RecordOutcome(o metrics.Outcome) { r.outcomes = append(r.outcomes, o) }
func (r *recordingRecorder) Complete()                       { r.completed++ }
func (r *recordingRecorder) AggregateMetrics() metrics.Report {
	return metrics.Aggregate(r.outcomes, time.Second)
}

func TestSteadyStateSingleClientSequence(t *testing.T) {
	rec := &recordingRecorder{}
	s := &SteadyState{Clients: 1, Interval: 30 * time.Millisecond, Duration: 100 * time.Millisecond}

	report := s.Run(context.Background(), ExecutorFunc(func(context.Context) metrics.Outcome {
		return metrics.Success(200, time.Millisecond, 10)
	}), rec)

	// Requests at 0, 30, 60 and 90ms.
	if report.TotalRequests < 3 || report.TotalRequests > 5 {
		t.Errorf("TotalRequests = %d, want about 4", report.TotalRequests)
	}
	if rec.completed != 1 {
		t.Errorf("Complete called %d times, want 1", rec.completed)
	}
	if report.DataTransferred != int64(10*report.TotalRequests) {
		t.Errorf("DataTransferred = %d", report.DataTransferred)
	}
}
