package mock

import (
	"context"
	"crypto/sha256"
	"errors"
	"math"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
)

// ErrEmptyFrame simula a recusa do sidecar para frames sem dados.
var ErrEmptyFrame = errors.New("mock provider: empty frame")

// Provider implementa os três colaboradores de visão sem modelo nenhum,
// para desenvolvimento e demonstração sem o visiond rodando: todo frame
// contém uma face frontal centrada e uma pessoa. Os embeddings são
// derivados do hash do frame, então o mesmo frame produz sempre o mesmo
// vetor e frames diferentes produzem vetores distantes.
type Provider struct{}

// New cria uma nova instância do provider de desenvolvimento
func New() *Provider {
	return &Provider{}
}

// DetectFaces devolve uma única face frontal proporcional ao frame
func (p *Provider) DetectFaces(ctx context.Context, frame domain.Frame) ([]domain.FaceLandmarks, error) {
	if frame.Empty() {
		return nil, ErrEmptyFrame
	}

	w := float64(frame.Width)
	h := float64(frame.Height)
	if w == 0 || h == 0 {
		w, h = 320, 240
	}

	// Caixa central com o nariz no meio dos dois intervalos de
	// normalização: passa o filtro de atenção com folga.
	box := domain.BoundingBox{X: w * 0.3, Y: h * 0.2, Width: w * 0.4, Height: h * 0.6}
	eyeY := box.Y + box.Height*0.35
	mouthY := box.Y + box.Height*0.8

	return []domain.FaceLandmarks{
		{
			Box:          box,
			LeftTragion:  domain.Point{X: box.X, Y: eyeY},
			RightTragion: domain.Point{X: box.X + box.Width, Y: eyeY},
			LeftEye:      domain.Point{X: box.X + box.Width*0.3, Y: eyeY},
			RightEye:     domain.Point{X: box.X + box.Width*0.7, Y: eyeY},
			Mouth:        domain.Point{X: box.X + box.Width*0.5, Y: mouthY},
			NoseTip:      domain.Point{X: box.X + box.Width*0.5, Y: (eyeY + mouthY) / 2},
		},
	}, nil
}

// EncodeFaces gera um embedding determinístico por região, baseado no
// hash do frame e no índice da caixa
func (p *Provider) EncodeFaces(ctx context.Context, frame domain.Frame, boxes []domain.BoundingBox) ([]domain.Embedding, error) {
	if frame.Empty() {
		return nil, ErrEmptyFrame
	}

	embeddings := make([]domain.Embedding, len(boxes))
	for i := range boxes {
		embeddings[i] = generateEmbedding(frame.Data, byte(i))
	}
	return embeddings, nil
}

// DetectObjects devolve sempre uma pessoa ocupando o centro do frame
func (p *Provider) DetectObjects(ctx context.Context, frame domain.Frame) ([]provider.Detection, error) {
	if frame.Empty() {
		return nil, ErrEmptyFrame
	}

	return []provider.Detection{
		{
			Label: "person",
			Score: 0.9,
			Box: domain.BoundingBox{
				X:      float64(frame.Width) * 0.25,
				Y:      float64(frame.Height) * 0.1,
				Width:  float64(frame.Width) * 0.5,
				Height: float64(frame.Height) * 0.85,
			},
		},
	}, nil
}

// generateEmbedding gera embedding determinístico e normalizado a partir
// do hash dos dados do frame
func generateEmbedding(data []byte, salt byte) domain.Embedding {
	hash := sha256.Sum256(append(append([]byte(nil), data...), salt))
	embedding := make(domain.Embedding, domain.EmbeddingDim)
	hashLen := len(hash)

	for i := 0; i < domain.EmbeddingDim; i++ {
		idx := i % hashLen
		embedding[i] = (float64(hash[idx])/255.0)*2 - 1
	}

	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	for i := range embedding {
		embedding[i] /= norm
	}

	return embedding
}

var _ provider.FaceDetector = (*Provider)(nil)
var _ provider.FaceEncoder = (*Provider)(nil)
var _ provider.ObjectDetector = (*Provider)(nil)
