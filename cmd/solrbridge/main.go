package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/atlascope/solrbridge/internal/config"
	logpkg "github.com/atlascope/solrbridge/internal/logger"
	"github.com/atlascope/solrbridge/internal/metrics"
	"github.com/atlascope/solrbridge/internal/solr"
	chiTransport "github.com/atlascope/solrbridge/internal/transport/chi"
	mcpTransport "github.com/atlascope/solrbridge/internal/transport/mcp"
	"github.com/atlascope/solrbridge/internal/transport/ollama"
	healthuc "github.com/atlascope/solrbridge/internal/usecase/health"
	"github.com/atlascope/solrbridge/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting solrbridge",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("solr_url", cfg.Solr.BaseURL),
		zap.String("collection", cfg.Solr.Collection),
		zap.Int("http_port", cfg.HTTP.Port),
	)

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	ctx := context.Background()

	client, err := solr.New(ctx, solr.Config{
		BaseURL:             cfg.Solr.BaseURL,
		Collection:          cfg.Solr.Collection,
		Username:            cfg.Solr.Username,
		Password:            cfg.Solr.Password,
		Timeout:             time.Duration(cfg.Solr.TimeoutSec) * time.Second,
		InsecureSkipVerify:  cfg.Solr.InsecureSkipVerify,
		MaxRows:             cfg.Solr.MaxRows,
		DefaultSearchField:  cfg.Solr.DefaultSearchField,
		FacetLimit:          cfg.Solr.FacetLimit,
		DisableHighlighting: cfg.Solr.DisableHighlight,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Solr", zap.Error(err))
	}
	defer client.Close()
	logger.Info("Connected to Solr")

	// Pass nil interfaces (not typed nil pointers!) when Ollama is not
	// configured. Go gotcha: (*ollama.Rewriter)(nil) wrapped in
	// QueryRewriter != nil.
	var rewriter mcpTransport.QueryRewriter
	var rewriterChecker healthuc.RewriterChecker
	if cfg.Ollama != nil {
		rw := ollama.NewRewriter(&ollama.Config{
			BaseURL: cfg.Ollama.BaseURL,
			Model:   cfg.Ollama.Model,
			Logger:  logger,
		})
		rewriter = rw
		rewriterChecker = rw
		logger.Info("Query rewriter enabled",
			zap.String("ollama_url", cfg.Ollama.BaseURL),
			zap.String("model", cfg.Ollama.Model),
		)
	}

	healthSvc := healthuc.New(client, rewriterChecker)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(healthSvc, logger),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting diagnostic HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// The MCP server owns stdin/stdout; it returns when the client closes
	// the stream.
	mcpSrv := mcpTransport.NewServer(client, rewriter, logger)

	done := make(chan error, 1)
	go func() {
		logger.Info("Serving MCP over stdio")
		done <- mcpSrv.Serve()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-done:
		if err != nil {
			logger.Error("MCP server error", zap.Error(err))
		}
	case <-quit:
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
