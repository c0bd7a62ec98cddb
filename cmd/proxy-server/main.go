package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/spineai/ragproxy/internal/config"
	"github.com/spineai/ragproxy/internal/domain/chat"
	"github.com/spineai/ragproxy/internal/domain/rag"
	"github.com/spineai/ragproxy/internal/domain/system"
	"github.com/spineai/ragproxy/internal/platform/auth"
	"github.com/spineai/ragproxy/internal/platform/middleware"
	"github.com/spineai/ragproxy/internal/platform/storage"
	"github.com/spineai/ragproxy/internal/ragflow"
)

const (
	serviceName = "spineai-proxy"
	version     = "1.0.0"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "proxy-server",
		Short: "HTTP proxy between the SpineAI mobile app and its RAG backend",
	}
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the proxy server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.BodyLimit("1M", "50M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health
	system.NewHandler(serviceName, version, cfg.RAGFlowURL, cfg.RAGFlowConfigured(), cfg.GCSBucket).RegisterRoutes(e)

	// Chat proxy
	chatClient := ragflow.NewChatClient(cfg.RAGFlowURL, cfg.RAGFlowAPIKey, cfg.RAGFlowChatID)
	chat.NewHandler(chatClient, cfg.RAGFlowConfigured(), logger).RegisterRoutes(e)
	if !cfg.RAGFlowConfigured() {
		logger.Warn().Msg("RAGFLOW_API_KEY not set, chat queries will fail")
	}

	// Signed uploads. A missing bucket or credentials leaves the route
	// registered but failing closed.
	var issuer storage.SignedURLIssuer
	if cfg.GCSBucket != "" {
		gcsIssuer, err := storage.NewGCSIssuer(context.Background(), cfg.GCSProjectID, cfg.GCSBucket)
		if err != nil {
			logger.Warn().Err(err).Msg("storage client unavailable, upload URLs disabled")
		} else {
			defer gcsIssuer.Close()
			issuer = gcsIssuer
		}
	}
	storage.NewHandler(issuer, logger).RegisterRoutes(e)

	// Token minting
	tokenIssuer := auth.NewTokenIssuer(cfg.ProxySecretKey)
	authHandler := auth.NewHandler(auth.NewSharedSecretChecker(cfg.ProxySecretKey), tokenIssuer)
	authHandler.RegisterRoutes(e, middleware.RateLimit(middleware.TokenMintRateLimit()))

	// Authenticated retrieval routes
	ragGroup := e.Group("/rag", auth.Middleware(tokenIssuer))
	ragService := rag.NewService(ragflow.NewQueryClient(cfg.RAGFlowQueryURL))
	rag.NewHandler(ragService, logger).RegisterRoutes(ragGroup)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
