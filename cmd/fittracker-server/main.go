package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/fittracker/internal/config"
	fitmcp "github.com/meltforce/fittracker/internal/mcp"
	"github.com/meltforce/fittracker/internal/server"
	"github.com/meltforce/fittracker/internal/storage"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	mcpStdio := flag.Bool("mcp-stdio", false, "serve MCP over stdio instead of HTTP")
	remote := flag.String("remote", "", "with -mcp-stdio: read history from this fittracker server URL")
	flag.Parse()

	if *mcpStdio {
		os.Exit(serveStdio(*configPath, *remote))
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("fittracker starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))

	ctx := context.Background()

	// History store is optional; without it summaries are computed but not kept.
	var store server.Store
	var source fitmcp.DataSource
	if cfg.Database.Enabled() {
		dsn := cfg.Database.DSN()
		version, err := storage.RunMigrations(dsn, storage.MigrationsDir)
		if err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied", "version", version)

		if *migrateOnly {
			log.Info("migrate-only: exiting")
			return
		}

		db, err := storage.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		log.Info("database connected")
		store, source = db, db
	} else {
		if *migrateOnly {
			log.Error("migrate-only requires a database section in the config")
			os.Exit(1)
		}
		log.Warn("no database configured, history endpoints disabled")
	}

	if cfg.Auth.APIKey == "" {
		log.Warn("auth.api_key is empty, batch ingest will reject all requests")
	}

	srv := server.New(store, cfg.Auth.APIKey, log)
	srv.MountMCP(mcpserver.NewStreamableHTTPServer(fitmcp.New(source, Version, log)))

	// Start server — tsnet or plain HTTP
	var listener net.Listener

	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr)
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

// serveStdio runs the MCP server on stdin/stdout. Logs go to stderr so they
// do not corrupt the protocol stream.
func serveStdio(configPath, remote string) int {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var source fitmcp.DataSource
	switch {
	case remote != "":
		source = fitmcp.NewHTTPClient(remote)
		log.Info("mcp stdio using remote history", "server", remote)
	default:
		cfg, err := config.LoadOptional(configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			return 1
		}
		if cfg.Database.Enabled() {
			db, err := storage.New(context.Background(), cfg.Database.DSN())
			if err != nil {
				log.Error("failed to connect database", "error", err)
				return 1
			}
			defer db.Close()
			source = db
		}
	}

	if err := mcpserver.ServeStdio(fitmcp.New(source, Version, log)); err != nil {
		log.Error("mcp stdio error", "error", err)
		return 1
	}
	return 0
}
