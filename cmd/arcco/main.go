// Command arcco runs the Arcco AI backend: the SSE chat orchestrator, the
// page builder and the admin panel API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Nitianimelo/arccoVPS/pkg/agents"
	"github.com/Nitianimelo/arccoVPS/pkg/builder"
	"github.com/Nitianimelo/arccoVPS/pkg/config"
	"github.com/Nitianimelo/arccoVPS/pkg/llm"
	"github.com/Nitianimelo/arccoVPS/pkg/logger"
	"github.com/Nitianimelo/arccoVPS/pkg/orchestrator"
	"github.com/Nitianimelo/arccoVPS/pkg/server"
	"github.com/Nitianimelo/arccoVPS/pkg/supabase"
	"github.com/Nitianimelo/arccoVPS/pkg/tools"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "arcco: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logger.Init(logger.ParseLevel(cfg.LogLevel), os.Stderr)
	log := logger.GetLogger()

	if err := cfg.Validate(); err != nil {
		log.Warn("incomplete configuration", "error", err)
	}
	if err := os.MkdirAll(cfg.WorkspacePath, 0o755); err != nil {
		return fmt.Errorf("failed to create workspace dir: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := supabase.New(cfg.SupabaseURL, cfg.SupabaseKey, cfg.StorageBucket)
	gateway := llm.New(store, cfg.OpenRouterModel, cfg.MaxTokens, llm.WithEnvKey(cfg.OpenRouterAPIKey))

	registry := agents.NewRegistry(cfg.OpenRouterModel, filepath.Join(cfg.WorkspacePath, "agent_overrides.json"))
	go func() {
		if err := registry.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("agent override watcher stopped", "error", err)
		}
	}()

	executor := tools.New(cfg, store)
	chat := orchestrator.New(gateway, registry, orchestrator.WithMaxIterations(cfg.MaxIterations))
	pages := builder.New(gateway, registry, cfg.OpenRouterModel)

	srv := server.New(cfg, server.Deps{
		Registry: registry,
		Chat:     chat,
		Builder:  pages,
		Catalog:  gateway,
		Pages:    store,
		NewSession: func() orchestrator.ToolRunner {
			return executor.NewSession()
		},
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("backend listening", "addr", httpServer.Addr, "model", cfg.OpenRouterModel, "version", server.Version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
