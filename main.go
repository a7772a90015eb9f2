// @title Speech Orchestrator
// @version 1.0.0
// @description Transcribes uploaded audio through a speech service and optionally summarizes it or answers questions about it with an LLM service.
// @BasePath /
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	fiberSwagger "github.com/swaggo/fiber-swagger"

	"github.com/daleyadrichem/SpeechLLMOrchestrator/config"
	"github.com/daleyadrichem/SpeechLLMOrchestrator/docs"
	"github.com/daleyadrichem/SpeechLLMOrchestrator/handlers"
	"github.com/daleyadrichem/SpeechLLMOrchestrator/internal/llmclient"
	"github.com/daleyadrichem/SpeechLLMOrchestrator/internal/observability"
	"github.com/daleyadrichem/SpeechLLMOrchestrator/internal/speechclient"
	"github.com/daleyadrichem/SpeechLLMOrchestrator/internal/upstream"
	"github.com/daleyadrichem/SpeechLLMOrchestrator/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := config.InitLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.Fatalf("Failed to initialize logger: %v", err)
	}

	tp, err := observability.InitTracer(context.Background(), observability.TracerConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: docs.SwaggerInfo.Version,
		Environment:    cfg.Environment,
		Endpoint:       cfg.OTLPEndpoint,
		Insecure:       cfg.OTLPInsecure,
		SampleRate:     cfg.TraceSampleRate,
	}, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize tracing: %v", err)
	}

	app := newApp(cfg, logger)

	go func() {
		logger.Infof("Starting Speech Orchestrator on %s...", cfg.HTTPAddr)
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			logger.Fatalf("Server stopped: %v", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down Speech Orchestrator...")
	failed := false
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		logger.Errorf("Shutdown did not complete cleanly: %v", err)
		failed = true
	}

	// Flush spans from requests that finished during shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	if err := tp.Shutdown(ctx); err != nil {
		logger.Errorf("Tracer shutdown failed: %v", err)
		failed = true
	}
	cancel()

	if failed {
		os.Exit(1)
	}
	logger.Info("Speech Orchestrator shut down gracefully.")
}

// newApp wires the gateways, handlers and middleware for cfg.
func newApp(cfg *config.Config, logger *logrus.Logger) *fiber.App {
	speech := speechclient.NewSpeechClient(
		cfg.STTBaseURL,
		upstream.NewClient(upstream.CategoryTranscription, cfg.STTTimeout),
		logger,
	)
	llm := llmclient.NewLLMClient(
		cfg.LLMBaseURL,
		upstream.NewClient(upstream.CategoryGeneration, cfg.LLMTimeout),
		llmclient.Defaults{Temperature: cfg.LLMTemperature, MaxTokens: cfg.LLMMaxTokens},
		logger,
	)
	h := handlers.NewApplicationHandler(speech, llm, logger)

	app := fiber.New(fiber.Config{
		AppName:      "Speech Orchestrator",
		BodyLimit:    cfg.MaxUploadBytes,
		ErrorHandler: handlers.ErrorHandler(logger),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(middleware.RequestLogger(logger))

	// Health check route
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "ok",
			"message": "Speech orchestrator is healthy",
		})
	})
	app.Get("/swagger/*", fiberSwagger.WrapHandler)

	app.Post("/transcribe", h.Transcribe)
	app.Post("/summarize", h.Summarize)
	app.Post("/ask", h.Ask)

	return app
}
