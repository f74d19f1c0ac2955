// Package main implements the notevault HTTP API server.
package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/erizov/notevault/internal/httpapi"
	"github.com/erizov/notevault/internal/libs/config"
	"github.com/erizov/notevault/internal/libs/obs"
	"github.com/erizov/notevault/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	obs.InitLogger(cfg.LogLevel)
	logger := obs.Logger("api")

	// The backend is chosen once here; an unreachable engine is fatal at
	// startup, never mid-request
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	s, err := store.Open(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Backend).Msg("failed to open storage backend")
	}
	defer func() { _ = s.Close() }()

	handler := httpapi.NewHandler(s, obs.BackendLogger("httpapi", s.Name()))

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.RealIP)
	r.Mount("/", httpapi.Router(handler))

	addr := net.JoinHostPort(cfg.APIHost, cfg.APIPort)
	logger.Info().Str("addr", addr).Str("backend", s.Name()).Msg("starting API server")

	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}
