// Package metrics serves the Prometheus registry and the container
// health check over HTTP.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zhulik/pal"

	"transcribot/internal/config"
)

type Server struct {
	Logger *slog.Logger
	Config *config.Config

	server *http.Server
}

func (s *Server) Init(ctx context.Context) error {
	s.Logger = s.Logger.With("component", "metrics.Server")

	p, err := pal.FromContext(ctx)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := p.HealthCheck(r.Context()); err != nil {
			s.Logger.Error("health check failed", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	addr := s.Config.MetricsAddr
	if addr == "" {
		addr = ":8080"
	}
	s.server = &http.Server{
		Handler:           mux,
		Addr:              addr,
		ReadHeaderTimeout: time.Second,
		WriteTimeout:      time.Second,
		ReadTimeout:       time.Second,
		IdleTimeout:       time.Second,
	}
	return nil
}

func (s *Server) Run(ctx context.Context) error {
	s.Logger.Info("starting metrics server", "addr", s.server.Addr)

	go func() {
		<-ctx.Done()
		// TODO: figure out a good context here, Run's ctx is cancelled.
		s.server.Shutdown(context.TODO()) //nolint:errcheck
	}()

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
