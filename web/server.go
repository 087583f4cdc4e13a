// Package web exposes the bot over HTTP: a Bot Framework style activity
// webhook, a websocket webchat, health and metrics.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"dentabot/bot"
	"dentabot/provider"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	logger     *zap.Logger
	cfg        provider.ServerConfig
	dispatcher *bot.Dispatcher
	upgrader   websocket.Upgrader
	http       *http.Server
}

func NewServer(logger *zap.Logger, cfg provider.ServerConfig, dispatcher *bot.Dispatcher) *Server {
	s := &Server{
		logger:     logger,
		cfg:        cfg,
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Post("/messages", s.handleActivity)
		r.Get("/webchat", s.handleWebchat)
	})
	return r
}

func (s *Server) Start() error {
	s.logger.Info("http listening", zap.String("addr", s.cfg.Addr))
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http serve", zap.NamedError("err", err))
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
