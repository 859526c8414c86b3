package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourorg/webstudio-go/internal/ai"
	"github.com/yourorg/webstudio-go/internal/config"
	"github.com/yourorg/webstudio-go/internal/logging"
	"github.com/yourorg/webstudio-go/internal/rpc"
	"github.com/yourorg/webstudio-go/internal/sandbox"
	"github.com/yourorg/webstudio-go/internal/server"
	"github.com/yourorg/webstudio-go/internal/session"
	"github.com/yourorg/webstudio-go/internal/state"
	"github.com/yourorg/webstudio-go/internal/storage"
)

func main() {
	// CLI flags (override config file)
	listen := flag.String("listen", "", "JSON-RPC listen address")
	httpAddr := flag.String("http", "", "HTTP management/health address")
	dataDir := flag.String("data", "", "Data directory (defaults to ~/.webstudio/data)")
	sandboxDir := flag.String("sandbox", "", "Sandbox mirror directory (defaults to ~/.webstudio/sandbox)")
	logLevel := flag.String("log-level", "", "Log level: debug|info|warn|error")
	flag.Parse()

	cfg, err := config.Load(*dataDir)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// CLI overrides
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}
	if *sandboxDir != "" {
		cfg.SandboxDir = *sandboxDir
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("webstudio daemon starting",
		logging.String("listen", cfg.Listen),
		logging.String("http", cfg.HTTPAddr),
		logging.String("data", cfg.DataDir),
		logging.String("sandbox", cfg.SandboxDir),
		logging.String("settings", cfg.SettingsPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := state.New()

	store, err := storage.Open(cfg.DataDir, logger)
	if err != nil {
		logger.Fatal("open storage", logging.Error(err))
	}
	defer store.Close()

	rt, err := sandbox.NewLocalRuntime(cfg.SandboxDir, logger)
	if err != nil {
		logger.Fatal("init sandbox", logging.Error(err))
	}
	defer rt.Close()

	sess := session.New(cfg, store, rt, logger)
	if err := sess.RestoreActive(); err != nil {
		logger.Warn("restore active project failed", logging.Error(err))
	}

	aiSvc := ai.NewService(ai.NewClient(cfg, logger), sess, logger)

	httpSrv := server.NewHTTPServer(cfg, st, sess, logger)
	rpcSrv := rpc.New(cfg.Listen, logger)
	rpcSrv.RegisterCore(cfg, st, sess, aiSvc)

	errCh := make(chan error, 2)
	go func() {
		if err := httpSrv.Start(); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		if err := rpcSrv.Start(); err != nil {
			errCh <- fmt.Errorf("rpc server: %w", err)
		}
	}()

	// Mark as ready after servers start
	st.SetReady()
	logger.Info("webstudio daemon ready")

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		st.SetStopping()
	case err := <-errCh:
		logger.Error("server error", logging.Error(err))
		st.SetStopping()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", logging.Error(err))
	}
	if err := rpcSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("rpc shutdown error", logging.Error(err))
	}

	logger.Info("webstudio daemon stopped")
}
