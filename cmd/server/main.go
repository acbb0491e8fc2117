package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/dedbin/rimo/internal/asset"
	"github.com/dedbin/rimo/internal/board"
	"github.com/dedbin/rimo/internal/collab"
	"github.com/dedbin/rimo/internal/config"
	"github.com/dedbin/rimo/internal/export"
	mw "github.com/dedbin/rimo/internal/middleware"
	"github.com/dedbin/rimo/internal/preview"
	"github.com/dedbin/rimo/internal/store"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	origins := splitList(cfg.AllowedOrigins)

	// Fresh boards start with a few example layers.
	seed := func(boardID string) store.Snapshot {
		order, layers := board.SampleLayers()
		slog.Info("seeding board", "board", boardID, "layers", len(order))
		return store.Snapshot{Layers: layers, Order: order}
	}

	hub := collab.NewHub(seed, collab.Limits{
		MaxLayers:     cfg.Canvas.MaxLayers,
		MaxTextLength: cfg.Canvas.MaxTextLength,
	})
	go hub.Run()

	assetHandler := asset.NewHandler(cfg.AssetDir, cfg.PublicURL)
	previewHandler := preview.NewHandler(preview.NewFetcher(cfg.Canvas.PreviewTimeout))
	exportHandler := export.NewHandler(hub)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(origins))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Asset endpoints
	r.HandleFunc("/assets/upload", assetHandler.Upload).Methods("POST", "OPTIONS")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	// Link previews
	r.Handle("/preview", previewHandler).Methods("GET")

	// Board export
	r.HandleFunc("/boards/{boardId}/export", exportHandler.ExportBoard).Methods("GET")

	// WebSocket endpoint
	r.HandleFunc("/ws/board/{boardId}", hub.Handler(originPatterns(origins)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
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

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// originPatterns turns allowed origins into the host patterns the websocket
// handshake checks against.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			out = append(out, "*")
			continue
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
		}
	}
	return out
}
