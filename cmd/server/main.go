package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/inamate/inamate/viewport-go/internal/auth"
	"github.com/inamate/inamate/viewport-go/internal/canvas"
	"github.com/inamate/inamate/viewport-go/internal/config"
	mw "github.com/inamate/inamate/viewport-go/internal/middleware"
	"github.com/inamate/inamate/viewport-go/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	authService := auth.NewService(cfg.SessionSecret, cfg.TokenTTL)
	authHandler := auth.NewHandler(authService)

	hub := session.NewHub(cfg.EngineOptions())
	go hub.Run(ctx)

	canvasService := canvas.NewService(hub, authService, cfg.Parser())
	canvasHandler := canvas.NewHandler(canvasService)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Stateless helpers
	r.HandleFunc("/transform/parse", canvasHandler.Parse).Methods("POST", "OPTIONS")
	r.HandleFunc("/viewport/map", canvasHandler.Map).Methods("POST", "OPTIONS")

	r.HandleFunc("/canvases", canvasHandler.Create).Methods("POST", "OPTIONS")

	// Canvas routes, bearer token scoped to the canvas
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.CanvasMiddleware)

	api.HandleFunc("/canvases/{canvasId}", canvasHandler.Get).Methods("GET")
	api.HandleFunc("/canvases/{canvasId}/token", authHandler.Refresh).Methods("POST")

	// WebSocket endpoint
	r.HandleFunc("/ws/canvas/{canvasId}", hub.ServeWS(authService, cfg.OriginPatterns()))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop repeat timers before connections drain
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
