package runner

import (
	"fmt"
	"strings"
	"time"
)

// Scheduling modes accepted by New.
const (
	ModeSteadyState = "steady-state"
	ModeBurst       = "burst"
)

// ClientTracker is told when a client goroutine starts and stops.
type ClientTracker interface {
	ClientStarted()
	ClientStopped()
}

// Options configure the strategy returned by New.
type Options struct {
	Mode         string        // steady-state or burst
	Clients      int           // steady-state: parallel clients
	Interval     time.Duration // steady-state: time between one client's requests
	Duration     time.Duration // steady-state: how long each client keeps sending
	BurstClients int           // burst: simultaneous requests
	Tracker      ClientTracker // optional
}

func (o *Options) normalize() error {
	o.Mode = strings.ToLower(strings.TrimSpace(o.Mode))
	if o.Mode == "" {
		o.Mode = ModeSteadyState
	}
	switch o.Mode {
	case ModeSteadyState:
		if o.Clients <= 0 {
			return fmt.Errorf("clients must be greater than 0, got %d", o.Clients)
		}
		if o.Interval <= 0 {
			return fmt.Errorf("interval must be greater than 0, got %s", o.Interval)
		}
		if o.Duration <= 0 {
			return fmt.Errorf("duration must be greater than 0, got %s", o.Duration)
		}
	case ModeBurst:
		if o.BurstClients <= 0 {
			return fmt.Errorf("burst clients must be greater than 0, got %d", o.BurstClients)
		}
	default:
		return fmt.Errorf("unknown mode %q: use %s or %s", o.Mode, ModeSteadyState, ModeBurst)
	}
	if o.Tracker == nil {
		o.Tracker = nopTracker{}
	}
	return nil
}

type nopTracker struct{}

func (nopTracker) ClientStarted() {}
func (nopTracker) ClientStopped() {}
