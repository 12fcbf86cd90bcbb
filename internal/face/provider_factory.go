package face

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/vivo/internal/config"
	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
	"github.com/saturnino-fabrica-de-software/vivo/internal/provider"
	"github.com/saturnino-fabrica-de-software/vivo/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/vivo/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/vivo/internal/provider/opencv"
	"github.com/saturnino-fabrica-de-software/vivo/internal/provider/rekognition"
)

// ProviderType defines supported face detection backends
type ProviderType string

const (
	// ProviderTypeAuto prefers the native backend and falls back to the polyfill
	ProviderTypeAuto ProviderType = "auto"
	// ProviderTypeOpenCV is the native Haar cascade backend
	ProviderTypeOpenCV ProviderType = "opencv"
	// ProviderTypeDeepFace is the DeepFace polyfill (local HTTP service)
	ProviderTypeDeepFace ProviderType = "deepface"
	// ProviderTypeRekognition is the AWS Rekognition polyfill (cloud)
	ProviderTypeRekognition ProviderType = "rekognition"
	// ProviderTypeMock always sees a centered face (dev/test)
	ProviderTypeMock ProviderType = "mock"
)

// nativeAvailable probes the host for the native backend
var nativeAvailable = opencv.Available

// NewDetector creates the detector for one session based on configuration.
//
// Environment variables:
//   - DETECTOR_BACKEND: "auto", "opencv", "deepface", "rekognition" or "mock" (default: "auto")
//   - DETECTOR_FALLBACK: polyfill used by "auto" when OpenCV is missing (default: "deepface")
//   - CASCADE_PATH: Haar cascade file for OpenCV
//   - DEEPFACE_URL: DeepFace API URL (default: "http://localhost:5005")
//   - AWS_REGION: AWS region for Rekognition (default: "us-east-1")
func NewDetector(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Detector, error) {
	backend, err := newBackend(ctx, cfg, ProviderType(cfg.DetectorBackend))
	if err != nil {
		return nil, err
	}

	return Wrap(backend, logger), nil
}

func newBackend(ctx context.Context, cfg *config.Config, providerType ProviderType) (provider.FaceDetector, error) {
	switch providerType {
	case ProviderTypeAuto, "":
		if nativeAvailable(cfg.CascadePath) {
			return createOpenCVProvider(cfg)
		}
		fallback := ProviderType(cfg.DetectorFallback)
		if fallback != ProviderTypeDeepFace && fallback != ProviderTypeRekognition {
			return nil, fmt.Errorf("unknown fallback detector: %s (supported: %s, %s)",
				cfg.DetectorFallback, ProviderTypeDeepFace, ProviderTypeRekognition)
		}
		return newBackend(ctx, cfg, fallback)

	case ProviderTypeOpenCV:
		return createOpenCVProvider(cfg)

	case ProviderTypeDeepFace:
		return load(ctx, createDeepFaceProvider(cfg))

	case ProviderTypeRekognition:
		return load(ctx, rekognition.NewProvider(rekognition.Config{
			Region:        cfg.AWSRegion,
			MinConfidence: rekognition.DefaultConfig().MinConfidence,
		}))

	case ProviderTypeMock:
		return mock.Centered(), nil

	default:
		return nil, fmt.Errorf("unknown detector backend: %s (supported: %s, %s, %s, %s, %s)",
			cfg.DetectorBackend, ProviderTypeAuto, ProviderTypeOpenCV, ProviderTypeDeepFace,
			ProviderTypeRekognition, ProviderTypeMock)
	}
}

// createOpenCVProvider loads the cascade classifier
func createOpenCVProvider(cfg *config.Config) (provider.FaceDetector, error) {
	prov, err := opencv.NewProvider(cfg.CascadePath)
	if err != nil {
		return nil, domain.ErrDetectorUnavailable.WithError(err)
	}
	return prov, nil
}

// createDeepFaceProvider creates a DeepFace provider instance
func createDeepFaceProvider(cfg *config.Config) *deepface.Provider {
	deepfaceConfig := deepface.DefaultConfig()
	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceDetector != "" {
		deepfaceConfig.Detector = cfg.DeepFaceDetector
	}

	return deepface.NewProvider(deepfaceConfig)
}

// load runs the one-time model initialization polyfills need
func load[T interface {
	provider.FaceDetector
	provider.Loader
}](ctx context.Context, prov T) (provider.FaceDetector, error) {
	if err := prov.Load(ctx); err != nil {
		return nil, domain.ErrDetectorUnavailable.WithError(err)
	}
	return prov, nil
}
