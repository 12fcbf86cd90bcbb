package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Camera
	CameraSource string `envconfig:"CAMERA_SOURCE" default:"device"`
	CameraDevice string `envconfig:"CAMERA_DEVICE" default:"0"`
	CameraWidth  int    `envconfig:"CAMERA_WIDTH" default:"640"`
	CameraHeight int    `envconfig:"CAMERA_HEIGHT" default:"480"`
	StillImage   string `envconfig:"STILL_IMAGE"`

	// Detection
	DetectorBackend  string `envconfig:"DETECTOR_BACKEND" default:"auto"`
	DetectorFallback string `envconfig:"DETECTOR_FALLBACK" default:"deepface"`
	CascadePath      string `envconfig:"CASCADE_PATH" default:"./models/haarcascade_frontalface_default.xml"`
	DeepFaceURL      string `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceDetector string `envconfig:"DEEPFACE_DETECTOR" default:"opencv"`
	AWSRegion        string `envconfig:"AWS_REGION" default:"us-east-1"`

	// Liveness challenge
	CenterTolerance   float64       `envconfig:"CENTER_TOLERANCE" default:"0.22"`
	ChallengeSequence []string      `envconfig:"CHALLENGE_SEQUENCE" default:"LEFT,RIGHT"`
	FramesPerMove     int           `envconfig:"FRAMES_PER_MOVE" default:"10"`
	FrameInterval     time.Duration `envconfig:"FRAME_INTERVAL" default:"400ms"`
	PresenceInterval  time.Duration `envconfig:"PRESENCE_INTERVAL" default:"16ms"`
	JPEGQuality       int           `envconfig:"JPEG_QUALITY" default:"90"`

	// Verification service
	VerifierURL     string        `envconfig:"VERIFIER_URL" required:"true"`
	VerifierTimeout time.Duration `envconfig:"VERIFIER_TIMEOUT" default:"60s"`

	// Outcome fan-out
	WebhookURL    string `envconfig:"WEBHOOK_URL"`
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`
	MQTTBroker    string `envconfig:"MQTT_BROKER"`
	MQTTClientID  string `envconfig:"MQTT_CLIENT_ID" default:"vivo"`
	MQTTTopic     string `envconfig:"MQTT_TOPIC" default:"vivo/liveness"`
	MQTTUsername  string `envconfig:"MQTT_USERNAME"`
	MQTTPassword  string `envconfig:"MQTT_PASSWORD"`

	// Control surface
	RateLimitMax int `envconfig:"RATE_LIMIT_MAX" default:"30"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.CenterTolerance <= 0 || c.CenterTolerance > 0.5 {
		return fmt.Errorf("CENTER_TOLERANCE must be in (0, 0.5], got %v", c.CenterTolerance)
	}
	if c.FramesPerMove <= 0 {
		return fmt.Errorf("FRAMES_PER_MOVE must be positive, got %d", c.FramesPerMove)
	}
	if c.FrameInterval < 0 {
		return fmt.Errorf("FRAME_INTERVAL must not be negative, got %s", c.FrameInterval)
	}
	if c.PresenceInterval <= 0 {
		return fmt.Errorf("PRESENCE_INTERVAL must be positive, got %s", c.PresenceInterval)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be in [1, 100], got %d", c.JPEGQuality)
	}
	if len(c.Challenges()) == 0 {
		return fmt.Errorf("CHALLENGE_SEQUENCE must name at least one movement")
	}
	return nil
}

// Challenges builds the ordered challenge sequence shared by every session.
func (c *Config) Challenges() []domain.Challenge {
	challenges := make([]domain.Challenge, 0, len(c.ChallengeSequence))
	for _, name := range c.ChallengeSequence {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		challenges = append(challenges, domain.Challenge{
			Name:          name,
			FramesPerMove: c.FramesPerMove,
			FrameInterval: c.FrameInterval,
		})
	}
	return challenges
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
