package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/vivo/internal/api"
	"github.com/saturnino-fabrica-de-software/vivo/internal/audit"
	"github.com/saturnino-fabrica-de-software/vivo/internal/camera"
	cvcamera "github.com/saturnino-fabrica-de-software/vivo/internal/camera/opencv"
	"github.com/saturnino-fabrica-de-software/vivo/internal/config"
	"github.com/saturnino-fabrica-de-software/vivo/internal/face"
	"github.com/saturnino-fabrica-de-software/vivo/internal/liveness"
	"github.com/saturnino-fabrica-de-software/vivo/internal/mqtt"
	"github.com/saturnino-fabrica-de-software/vivo/internal/verifier"
	"github.com/saturnino-fabrica-de-software/vivo/internal/webhook"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting Vivo liveness API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("detector", cfg.DetectorBackend),
		slog.String("camera", cfg.CameraSource),
	)

	cam, err := newCamera(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to set up camera: %w", err)
	}

	newDetector := func(ctx context.Context) (liveness.Detector, error) {
		return face.NewDetector(ctx, cfg, logger)
	}

	verifierClient := verifier.NewClient(verifier.Config{
		BaseURL: cfg.VerifierURL,
		Timeout: cfg.VerifierTimeout,
	})

	manager := liveness.NewManager(
		liveness.Config{
			Challenges:       cfg.Challenges(),
			CenterTolerance:  cfg.CenterTolerance,
			PresenceInterval: cfg.PresenceInterval,
			JPEGQuality:      cfg.JPEGQuality,
		},
		cam,
		newDetector,
		verifierClient,
		liveness.WithLogger(logger),
		liveness.WithAuditLogger(audit.NewSlogLogger(logger)),
	)
	defer manager.Close()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Outcome fan-out
	if cfg.WebhookURL != "" {
		worker := webhook.NewWorker(webhook.NewService(webhook.Webhook{
			URL:    cfg.WebhookURL,
			Secret: cfg.WebhookSecret,
		}), logger)
		updates, unsubscribe := manager.Subscribe()
		defer unsubscribe()
		go worker.Run(ctx, updates)
	}

	if cfg.MQTTBroker != "" {
		publisher, err := mqtt.Connect(mqtt.Config{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Topic:    cfg.MQTTTopic,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to connect mqtt: %w", err)
		}
		defer publisher.Close()

		updates, unsubscribe := manager.Subscribe()
		defer unsubscribe()
		go publisher.Run(ctx, updates)
	}

	router := api.NewRouter(logger, &api.Dependencies{
		Liveness:     manager,
		RateLimitMax: cfg.RateLimitMax,
	})
	router.Setup()

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

	logger.Info("shutting down server...")

	// the active session owns the camera and must be released first
	done := make(chan struct{})
	go func() {
		manager.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		logger.Warn("liveness session did not release in time")
	}

	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	logger.Info("server stopped")

	return nil
}

func newCamera(cfg *config.Config, logger *slog.Logger) (camera.Camera, error) {
	switch cfg.CameraSource {
	case "still":
		return camera.LoadStill(cfg.StillImage)
	case "device", "":
		return &cvcamera.Device{
			ID:     cfg.CameraDevice,
			Width:  cfg.CameraWidth,
			Height: cfg.CameraHeight,
			Logger: logger,
		}, nil
	default:
		return nil, fmt.Errorf("unknown CAMERA_SOURCE %q", cfg.CameraSource)
	}
}
