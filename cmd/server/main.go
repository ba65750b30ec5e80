package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"notesummary/internal/config"
	mcpserver "notesummary/internal/mcp"
	"notesummary/internal/metrics"
	"notesummary/internal/notes"
	"notesummary/internal/ollama"
	"notesummary/internal/summary"
)

const warmupInterval = 2 * time.Second

var rootCmd = &cobra.Command{
	Use:   "notesummary",
	Short: "Note-taking server that titles and summarizes notes with a local Ollama model.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Under systemd the environment comes from the unit file.
		if !isRunningAsSystemdService() {
			_ = godotenv.Load()
		}
		return nil
	},
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.FromViper(viper.GetViper())
		if err := cfg.Validate(); err != nil {
			return err
		}
		return run(cmd.Context(), cfg)
	},
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())
	if err := config.Bind(viper.GetViper(), rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	// Logger
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Wire dependencies
	m := metrics.New()
	client := ollama.NewClient(cfg.OllamaURL, ollama.WithUserAgent("notesummary"))
	summarizer := summary.New(client, summary.Config{
		Model:           cfg.Model,
		GenerateTimeout: cfg.GenerateTimeout,
		PullTimeout:     cfg.PullTimeout,
	}, logger.With("component", "summarizer"), summary.WithMetrics(m))

	store, err := notes.OpenStore(filepath.Join(cfg.DataDir, notes.SnapshotFile), logger.With("component", "store"))
	if err != nil {
		return fmt.Errorf("open note store: %w", err)
	}
	noteSvc := notes.NewService(store, summarizer, logger, m)
	noteHandler := notes.NewHandler(noteSvc, logger)

	// Create MCP server
	mcpSrv := mcpserver.NewServer(noteSvc)

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      newRouter(noteHandler, mcpSrv, m),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout(cfg),
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Wait for the backend and pull the model without blocking startup.
	go summarizer.Warmup(ctx, cfg.WarmupAttempts, warmupInterval)

	// Graceful shutdown
	go func() {
		<-ctx.Done()

		logger.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	port := strconv.Itoa(cfg.Port)
	logger.Info("server starting", "port", port, "model", cfg.Model, "ollama", cfg.OllamaURL, "data", store.Path())
	logger.Info("endpoints available",
		"web", "http://localhost:"+port,
		"api", "http://localhost:"+port+"/api",
		"mcp", "http://localhost:"+port+"/mcp",
		"metrics", "http://localhost:"+port+"/metrics",
	)

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func newRouter(h *notes.Handler, mcpSrv *server.MCPServer, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()

	// REST API endpoints
	mux.HandleFunc("POST /api/notes", h.CreateNote)
	mux.HandleFunc("GET /api/notes", h.ListNotes)
	mux.HandleFunc("GET /api/notes/{id}", h.GetNote)

	// Web UI (read-only)
	mux.HandleFunc("GET /", h.HomePage)
	mux.HandleFunc("GET /notes/{id}", h.NotePage)

	// MCP endpoint (HTTP transport)
	// MCP uses POST for requests and GET for SSE streams
	mcpHTTP := server.NewStreamableHTTPServer(mcpSrv)
	mux.Handle("POST /mcp", mcpHTTP)
	mux.Handle("GET /mcp", mcpHTTP)
	mux.Handle("DELETE /mcp", mcpHTTP)

	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /metrics", m.Handler())

	return notes.CORS(mux)
}

// writeTimeout must outlast a create request that pulls the model and then
// generates twice.
func writeTimeout(cfg config.Config) time.Duration {
	return cfg.PullTimeout + 2*cfg.GenerateTimeout + 30*time.Second
}

// isRunningAsSystemdService detects if the process is running under systemd
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
