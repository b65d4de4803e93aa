package provider

import (
	"context"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// FaceDetector localiza faces em um frame e devolve os landmarks de cada
// uma. A lista vem vazia quando não há faces; erro significa falha de
// inferência, não ausência de faces.
type FaceDetector interface {
	DetectFaces(ctx context.Context, frame domain.Frame) ([]domain.FaceLandmarks, error)
}

// FaceEncoder extrai um embedding de EmbeddingDim dimensões para cada
// região de face indicada, na mesma ordem das regiões.
type FaceEncoder interface {
	EncodeFaces(ctx context.Context, frame domain.Frame, boxes []domain.BoundingBox) ([]domain.Embedding, error)
}

// ObjectDetector roda detecção de objetos genérica sobre o frame,
// já filtrada pelas opções configuradas no provider.
type ObjectDetector interface {
	DetectObjects(ctx context.Context, frame domain.Frame) ([]Detection, error)
}

// Detection é um objeto detectado no frame.
type Detection struct {
	Label string             `json:"label"`
	Score float64            `json:"score"`
	Box   domain.BoundingBox `json:"box"`
}

// ObjectDetectorOptions parametriza o detector de objetos do provider.
type ObjectDetectorOptions struct {
	NumThreads     int
	ScoreThreshold float64
	MaxResults     int
	LabelAllowList []string
}

// DefaultObjectDetectorOptions devolve as opções usadas pelo monitor de
// presença: uma thread, score mínimo 0.3, até 3 resultados, só pessoas.
func DefaultObjectDetectorOptions() ObjectDetectorOptions {
	return ObjectDetectorOptions{
		NumThreads:     1,
		ScoreThreshold: 0.3,
		MaxResults:     3,
		LabelAllowList: []string{"person"},
	}
}
