// Bento MCP Server - A Model Context Protocol server for the Bento email marketing API
// Provides tools for subscribers, events, broadcasts, sequences, workflows and templates
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/olgasafonova/bento-mcp-server/internal/bento"
	"github.com/olgasafonova/bento-mcp-server/internal/config"
	"github.com/olgasafonova/bento-mcp-server/tools"
	"github.com/olgasafonova/bento-mcp-server/tracing"
)

// recoverPanic logs a recovered panic instead of crashing the process
func recoverPanic(logger *slog.Logger, operation string) {
	if r := recover(); r != nil {
		logger.Error("Panic recovered",
			"operation", operation,
			"panic", r,
			"stack", string(debug.Stack()))
	}
}

const (
	ServerName    = "bento-mcp-server"
	ServerVersion = "1.0.0"
)

const instructions = `Bento MCP Server provides tools for the Bento email marketing platform.

Tool groups:
- Subscribers: look up, create, import, tag, untag, subscribe and unsubscribe
- Events: track custom events that drive automations
- Tags and fields: list and create
- Broadcasts: list, create draft broadcasts, read site stats
- Automation: list and inspect sequences and workflows, add emails to sequences
- Templates: read and update email templates
- Validation: check whether an email address looks deliverable

Sequences and workflows can be addressed by id or by exact name.
Name matching ignores case and surrounding whitespace; an id always wins when both are given.

Configure via environment variables:
- BENTO_PUBLISHABLE_KEY, BENTO_SECRET_KEY: API key pair
- BENTO_SITE_UUID: site the tools act on`

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var httpAddr string

	cmd := &cobra.Command{
		Use:   ServerName,
		Short: "MCP server for the Bento email marketing API",
		Long: `bento-mcp-server exposes the Bento API as Model Context Protocol tools.

It speaks MCP over stdio by default. Pass --http to serve streamable HTTP
on the given address instead, with /metrics and /health alongside /mcp.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), httpAddr)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "serve streamable HTTP on this address (e.g. :8080) instead of stdio")

	cmd.AddCommand(versionCmd())
	return cmd
}

// Print version info and exit.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version.",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ServerName, ServerVersion)
		},
	}
}

func run(ctx context.Context, httpAddr string) error {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return err
	}

	// Logging goes to stderr; stdout carries the MCP protocol in stdio mode
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger.Info("Starting server", "name", ServerName, "version", ServerVersion, "config", cfg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	traceConfig := tracing.DefaultConfig()
	traceConfig.ServiceVersion = ServerVersion
	shutdownTracing, err := tracing.Setup(ctx, traceConfig)
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	client := bento.NewClientFromConfig(cfg, bento.WithLogger(logger))
	defer client.Close()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, &mcp.ServerOptions{
		Logger:       logger,
		Instructions: instructions,
	})

	tools.NewHandlerRegistry(client, logger).RegisterAll(server)

	if httpAddr != "" {
		return serveHTTP(ctx, httpAddr, server, client, cfg, logger)
	}

	logger.Info("Serving MCP over stdio")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", "error", err)
		return err
	}
	return nil
}

func serveHTTP(ctx context.Context, addr string, server *mcp.Server, client *bento.Client, cfg *config.Config, logger *slog.Logger) error {
	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)

	security := NewSecurityMiddleware(mcpHandler, logger, SecurityConfig{
		RateLimit:   cfg.HTTPRateLimit,
		MaxBodySize: cfg.MaxBodyBytes,
		AuthToken:   cfg.AuthToken,
	})
	defer security.Close()

	if cfg.AuthToken == "" {
		logger.Warn("MCP_AUTH_TOKEN is not set; the HTTP endpoint accepts unauthenticated requests")
	}

	mux := http.NewServeMux()
	mux.Handle("/mcp", security)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/health", healthHandler(client))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer recoverPanic(logger, "http server")
		logger.Info("Serving MCP over HTTP", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("HTTP server error", "error", err)
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// healthHandler reports liveness and the upstream circuit breaker state.
func healthHandler(client *bento.Client) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		stats := client.CircuitBreakerStats()
		status := "ok"
		if stats.State == "open" {
			status = "degraded"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  status,
			"version": ServerVersion,
			"circuit": stats,
		})
	})
}
