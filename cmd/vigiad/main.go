package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/saturnino-fabrica-de-software/vigia/internal/api"
	"github.com/saturnino-fabrica-de-software/vigia/internal/camera"
	"github.com/saturnino-fabrica-de-software/vigia/internal/config"
	"github.com/saturnino-fabrica-de-software/vigia/internal/enroll"
	"github.com/saturnino-fabrica-de-software/vigia/internal/event"
	"github.com/saturnino-fabrica-de-software/vigia/internal/journal"
	"github.com/saturnino-fabrica-de-software/vigia/internal/metrics"
	"github.com/saturnino-fabrica-de-software/vigia/internal/sensor"
	"github.com/saturnino-fabrica-de-software/vigia/internal/store"
	"github.com/saturnino-fabrica-de-software/vigia/internal/vision"
	"github.com/saturnino-fabrica-de-software/vigia/internal/wakeface"
	"github.com/saturnino-fabrica-de-software/vigia/internal/webhook"
	"github.com/saturnino-fabrica-de-software/vigia/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env é opcional; variáveis já exportadas ganham.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Vigia daemon",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("camera_driver", cfg.CameraDriver),
		slog.String("vision_provider", cfg.VisionProvider),
	)
	if cfg.APIKey == "" {
		logger.Warn("API_KEY is empty, authentication is disabled")
	}

	faceStore, err := store.Load(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("failed to load face store: %w", err)
	}
	logger.Info("face store loaded",
		slog.String("path", cfg.StorePath),
		slog.Int("persons", len(faceStore.Identities())),
		slog.Int("samples", faceStore.Len()),
	)

	device, err := newDevice(cfg)
	if err != nil {
		return err
	}

	providers, err := vision.NewProviders(cfg)
	if err != nil {
		return err
	}

	jrnl, err := journal.New(cfg.JournalSize, cfg.JournalPath, logger)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}

	registry := metrics.NewRegistry()
	hub := ws.NewHub(logger)
	worker := webhook.NewWorker(webhook.NewService(cfg.WebhookURL, cfg.WebhookSecret), logger)

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()
	go hub.Run(bgCtx)
	go worker.Run(bgCtx)

	// Todo evento do sensor passa por aqui uma única vez: o envelope é
	// criado uma vez para que stream, journal e webhook compartilhem o
	// mesmo id.
	fan := event.Combine(
		registry.Observe,
		func(ev event.Event) {
			env := event.NewEnvelope(ev)
			jrnl.Record(env)
			hub.Broadcast(env)
			worker.Enqueue(env)
		},
	)

	controller := sensor.NewController(sensor.Deps{
		Camera:   camera.NewResource(device, logger),
		Detector: providers.Detector,
		Encoder:  providers.Encoder,
		Objects:  providers.Objects,
		Store:    faceStore,
		Events:   fan,
		Logger:   logger,
		Wakeface: wakeface.Config{
			GazeTolerance:  cfg.GazeTolerance,
			MatchTolerance: cfg.MatchTolerance,
			Confirmations:  cfg.Confirmations,
		},
		Enroll: enroll.Config{
			Frames:        cfg.EnrollFrames,
			GazeTolerance: cfg.GazeTolerance,
		},
	})

	router := api.NewRouter(logger, &api.Dependencies{
		Sensor:  controller,
		Journal: jrnl,
		Metrics: registry,
		Hub:     hub,
		APIKey:  cfg.APIKey,
	})
	router.Setup()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	// Shutdown com teto: derruba features e servidor; se algo travar na
	// câmera, o daemon sai mesmo assim.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down...")

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := controller.StopAll(); err != nil {
			logger.Error("stop features", slog.Any("error", err))
		}
		if err := router.Shutdown(); err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timed out")
	}

	bgCancel()
	if err := jrnl.Close(); err != nil {
		logger.Error("close journal", slog.Any("error", err))
	}

	logger.Info("daemon stopped")
	return nil
}

func newDevice(cfg *config.Config) (camera.Device, error) {
	switch cfg.CameraDriver {
	case "v4l2":
		return camera.NewV4L2Device(cfg.CameraDevice, cfg.FrameWidth, cfg.FrameHeight, cfg.ResizeWidth), nil
	case "mock":
		return camera.NewMockDevice(cfg.FrameWidth, cfg.FrameHeight), nil
	default:
		return nil, fmt.Errorf("unknown camera driver %q", cfg.CameraDriver)
	}
}
