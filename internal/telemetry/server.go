package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/torosent/wordstress/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// Server serves a Manager's registry on /metrics.
type Server struct {
	srv      *http.Server
	listener net.Listener
	log      logger.Logger
	started  atomic.Bool
	done     chan struct{}
}

// Listen binds addr and prepares the metrics endpoint. Serving starts with Start.
func Listen(addr string, m *Manager, log logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.Nop()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on metrics address %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &Server{
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: ln,
		log:      log,
		done:     make(chan struct{}),
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Start serves in the background.
func (s *Server) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(s.done)
		s.log.Info(context.Background(), "metrics server listening", logger.String("addr", s.Addr()))
		if err := s.srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(context.Background(), "metrics server failed", logger.Error(err))
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.started.Load() {
		return s.listener.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	<-s.done
	return nil
}
