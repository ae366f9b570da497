package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/scout/api"
	"github.com/use-agent/scout/api/handler"
	"github.com/use-agent/scout/cache"
)

func serveCMD(cfgPath *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			// ── 1. Configuration and logging ────────────────────────
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			}
			slog.Info("scout starting",
				"addr", addr,
				"mode", cfg.Server.Mode,
				"model", cfg.LLM.Model,
				"maxSources", cfg.Search.MaxSources,
			)

			// ── 2. Pipeline, cache and job store ────────────────────
			aggregator, llmClient := newPipeline(cfg)
			cc := cache.New(cfg.Cache.MaxEntries)
			defer cc.Close()
			jobs := handler.NewJobStore()
			defer jobs.Close()

			// ── 3. Router ───────────────────────────────────────────
			routerCtx, stopRouter := context.WithCancel(cmd.Context())
			defer stopRouter()
			router := api.NewRouter(routerCtx, cfg, api.Deps{
				Searcher:  aggregator,
				Cache:     cc,
				Jobs:      jobs,
				LLMReady:  llmClient.Ready,
				StartTime: time.Now(),
			})

			// ── 4. HTTP server ──────────────────────────────────────
			srv := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("HTTP server listening", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			// ── 5. Graceful shutdown ────────────────────────────────
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-quit:
				slog.Info("shutdown signal received", "signal", sig.String())
			case err := <-errCh:
				slog.Error("HTTP server error", "error", err)
				return err
			}

			// Give in-flight requests 5 seconds to complete.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				slog.Error("HTTP server forced shutdown", "error", err)
			} else {
				slog.Info("HTTP server drained gracefully")
			}
			slog.Info("scout stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default host:port from config)")
	return cmd
}
