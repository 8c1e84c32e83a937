package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"rcord/internal/config"
	"rcord/internal/gateway"
	"rcord/internal/ops"
	"rcord/internal/store"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Log.Level != "info" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel(cfg.Log.Level),
		})))
	}

	slog.Info("starting server", "name", cfg.Server.Name, "version", version)

	st, err := store.Open(store.Config{Path: cfg.Database.Path})
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	slog.Info("database opened", "path", cfg.Database.Path)

	registry := gateway.NewRegistry(st)
	server := gateway.NewServer(cfg, st, registry)
	if err := server.Start(); err != nil {
		slog.Error("failed to start gateway", "error", err)
		os.Exit(1)
	}

	var opsServer *http.Server
	if cfg.Ops.Addr != "" {
		handler := ops.NewServer(ops.Deps{
			Name:        cfg.Server.Name,
			Version:     version,
			ControlAddr: server.ControlAddr(),
			MediaAddr:   server.MediaAddr(),
			Store:       st,
			Registry:    registry,
			StartedAt:   time.Now(),
		})
		opsServer = &http.Server{Addr: cfg.Ops.Addr, Handler: handler}
		go func() {
			slog.Info("ops listening", "addr", cfg.Ops.Addr)
			if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("ops server failed", "error", err)
				os.Exit(1)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down")

	server.Shutdown()

	if opsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := opsServer.Shutdown(ctx); err != nil {
			slog.Error("ops server shutdown error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
