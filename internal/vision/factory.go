package vision

import (
	"fmt"

	"github.com/saturnino-fabrica-de-software/vigia/internal/config"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider/visiond"
)

// Kind defines supported vision provider types
type Kind string

const (
	// KindVisiond is the local inference sidecar (production)
	KindVisiond Kind = "visiond"
	// KindMock runs without any model (dev/test)
	KindMock Kind = "mock"
)

// Providers agrupa os três colaboradores de visão usados pelo pipeline.
// Tipicamente as três pontas apontam para a mesma implementação.
type Providers struct {
	Detector provider.FaceDetector
	Encoder  provider.FaceEncoder
	Objects  provider.ObjectDetector
}

// NewProviders creates the vision providers based on configuration
//
// Environment variables:
//   - VISION_PROVIDER: "visiond" or "mock" (default: "visiond")
//   - VISIOND_URL: visiond API URL (default: "http://localhost:5005")
func NewProviders(cfg *config.Config) (Providers, error) {
	opts := provider.ObjectDetectorOptions{
		NumThreads:     cfg.PresenceNumThreads,
		ScoreThreshold: cfg.PresenceScoreThreshold,
		MaxResults:     cfg.PresenceMaxResults,
		LabelAllowList: cfg.PresenceLabels,
	}

	switch Kind(cfg.VisionProvider) {
	case KindMock:
		m := mock.New()
		return Providers{Detector: m, Encoder: m, Objects: m}, nil

	case KindVisiond, "":
		vcfg := visiond.DefaultConfig()
		if cfg.VisiondURL != "" {
			vcfg.BaseURL = cfg.VisiondURL
		}
		p := visiond.New(vcfg, opts)
		return Providers{Detector: p, Encoder: p, Objects: p}, nil

	default:
		return Providers{}, fmt.Errorf("unknown vision provider: %s (supported: %s, %s)",
			cfg.VisionProvider, KindVisiond, KindMock)
	}
}
