package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/Kini99/MisogiAI-natural-language-task-manager/api"
	"github.com/Kini99/MisogiAI-natural-language-task-manager/config"
	"github.com/Kini99/MisogiAI-natural-language-task-manager/extractor"
	"github.com/Kini99/MisogiAI-natural-language-task-manager/storage"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := log.New()
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		logger.SetLevel(log.DebugLevel)
	}
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
		logger.SetFormatter(&log.JSONFormatter{})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Errorf("close storage: %v", err)
		}
	}()

	model, err := newModel(ctx, cfg)
	if err != nil {
		log.Fatalf("model: %v", err)
	}
	x := extractor.New(model, cfg.ExtractTimeout, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderContentEncoding},
	}))
	api.Register(e, store, x, api.NewMetrics(), logger)

	listenAddr := ":" + cfg.Port
	if val, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		listenAddr = ":" + val
	}

	go func() {
		if err := e.Start(listenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()
	log.WithFields(log.Fields{"addr": listenAddr, "provider": cfg.ModelProvider}).Info("task api started")

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
	log.Info("shutdown complete")
}

func newModel(ctx context.Context, cfg config.Config) (extractor.Model, error) {
	var model extractor.Model
	switch cfg.ModelProvider {
	case config.ProviderBedrock:
		b, err := extractor.NewBedrock(ctx, cfg.BedrockRegion, cfg.BedrockModel)
		if err != nil {
			return nil, err
		}
		model = b
	default:
		model = extractor.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	if cfg.ModelBreaker {
		model = extractor.NewBreaker(cfg.ModelProvider, model)
	}
	return model, nil
}
