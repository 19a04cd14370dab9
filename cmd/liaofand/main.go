package main

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sunears/LiaoFansLifeRecord/internal/adapters/catalog"
	httpadapter "github.com/sunears/LiaoFansLifeRecord/internal/adapters/http"
	"github.com/sunears/LiaoFansLifeRecord/internal/adapters/llm/openrouter"
	"github.com/sunears/LiaoFansLifeRecord/internal/app"
	"github.com/sunears/LiaoFansLifeRecord/internal/config"
)

// stdRNG delegates to math/rand (auto-seeded).
type stdRNG struct{}

func (stdRNG) Intn(n int) int { return rand.Intn(n) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	catalogStore := catalog.NewEmbeddedStore()

	generator := openrouter.NewClient(
		&http.Client{Timeout: cfg.LLMTimeout},
		cfg.OpenRouterAPIKey,
		cfg.OpenRouterBaseURL,
		cfg.LLMModel,
		cfg.LLMFallbackModels,
		logger,
	)

	sessions := app.NewSessionStore(cfg.SessionTTL)
	svc := app.NewGameService(catalogStore, generator, stdRNG{}, sessions, logger, catalog.DefaultCatalogID, cfg.GameLang)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(httpadapter.RequestIDMiddleware())
	e.Use(httpadapter.LoggingMiddleware(logger))

	handler := httpadapter.NewHandler(svc)
	handler.Register(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go sessions.Run(ctx)

	go func() {
		logger.Info("starting server", "addr", cfg.HTTPAddr)
		if err := e.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
