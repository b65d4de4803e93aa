package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"8600"`
	Environment string `envconfig:"ENV" default:"development"`

	// Security. Vazio desabilita autenticação (somente desenvolvimento).
	APIKey string `envconfig:"API_KEY"`

	// Camera
	CameraDriver string `envconfig:"CAMERA_DRIVER" default:"v4l2"`
	CameraDevice string `envconfig:"CAMERA_DEVICE" default:"/dev/video0"`
	FrameWidth   int    `envconfig:"FRAME_WIDTH" default:"640"`
	FrameHeight  int    `envconfig:"FRAME_HEIGHT" default:"480"`
	ResizeWidth  int    `envconfig:"RESIZE_WIDTH" default:"320"`

	// Vision provider
	VisionProvider string `envconfig:"VISION_PROVIDER" default:"visiond"`
	VisiondURL     string `envconfig:"VISIOND_URL" default:"http://localhost:5005"`

	// Recognition
	StorePath      string  `envconfig:"STORE_PATH" default:"files/encodings.csv"`
	GazeTolerance  float64 `envconfig:"GAZE_TOLERANCE" default:"0.25"`
	MatchTolerance float64 `envconfig:"MATCH_TOLERANCE" default:"0.6"`
	EnrollFrames   int     `envconfig:"ENROLL_FRAMES" default:"6"`
	Confirmations  int     `envconfig:"CONFIRMATIONS" default:"3"`

	// Presence
	PresenceScoreThreshold float64  `envconfig:"PRESENCE_SCORE_THRESHOLD" default:"0.3"`
	PresenceMaxResults     int      `envconfig:"PRESENCE_MAX_RESULTS" default:"3"`
	PresenceNumThreads     int      `envconfig:"PRESENCE_NUM_THREADS" default:"1"`
	PresenceLabels         []string `envconfig:"PRESENCE_LABELS" default:"person"`

	// Webhook (opcional; vazio desabilita o worker)
	WebhookURL    string `envconfig:"WEBHOOK_URL"`
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`

	// Journal
	JournalSize int    `envconfig:"JOURNAL_SIZE" default:"256"`
	JournalPath string `envconfig:"JOURNAL_PATH"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
