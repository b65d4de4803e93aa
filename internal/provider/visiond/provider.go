package visiond

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
)

// Provider implementa detecção, encoding e detecção de objetos via o
// sidecar visiond. Os modelos rodam no sidecar; aqui é só transporte.
type Provider struct {
	client *Client
	opts   provider.ObjectDetectorOptions
}

var _ provider.FaceDetector = (*Provider)(nil)
var _ provider.FaceEncoder = (*Provider)(nil)
var _ provider.ObjectDetector = (*Provider)(nil)

func New(config Config, opts provider.ObjectDetectorOptions) *Provider {
	return &Provider{
		client: NewClient(config),
		opts:   opts,
	}
}

func (p *Provider) DetectFaces(ctx context.Context, frame domain.Frame) ([]domain.FaceLandmarks, error) {
	resp, err := p.client.Detect(ctx, encodeFrame(frame))
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	faces := make([]domain.FaceLandmarks, len(resp.Faces))
	for i, f := range resp.Faces {
		faces[i] = f.toDomain()
	}
	return faces, nil
}

func (p *Provider) EncodeFaces(ctx context.Context, frame domain.Frame, boxes []domain.BoundingBox) ([]domain.Embedding, error) {
	if len(boxes) == 0 {
		return nil, nil
	}

	wireBoxes := make([]box, len(boxes))
	for i, b := range boxes {
		wireBoxes[i] = boxFromDomain(b)
	}

	resp, err := p.client.Represent(ctx, encodeFrame(frame), wireBoxes)
	if err != nil {
		return nil, fmt.Errorf("encode faces: %w", err)
	}

	if len(resp.Embeddings) != len(boxes) {
		return nil, fmt.Errorf("%w: %d boxes, %d embeddings", ErrInvalidResponse, len(boxes), len(resp.Embeddings))
	}

	embeddings := make([]domain.Embedding, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if len(e) != domain.EmbeddingDim {
			return nil, fmt.Errorf("%w: embedding %d has %d dimensions", ErrInvalidResponse, i, len(e))
		}
		embeddings[i] = domain.Embedding(e)
	}
	return embeddings, nil
}

func (p *Provider) DetectObjects(ctx context.Context, frame domain.Frame) ([]provider.Detection, error) {
	req := objectsRequest{
		Img:            encodeFrame(frame),
		ScoreThreshold: p.opts.ScoreThreshold,
		MaxResults:     p.opts.MaxResults,
		NumThreads:     p.opts.NumThreads,
		Labels:         p.opts.LabelAllowList,
	}

	resp, err := p.client.Objects(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("detect objects: %w", err)
	}

	detections := make([]provider.Detection, len(resp.Detections))
	for i, d := range resp.Detections {
		detections[i] = provider.Detection{
			Label: d.Label,
			Score: d.Score,
			Box:   d.Box.toDomain(),
		}
	}
	return detections, nil
}

func encodeFrame(frame domain.Frame) string {
	return base64.StdEncoding.EncodeToString(frame.Data)
}

func (f detectedFace) toDomain() domain.FaceLandmarks {
	return domain.FaceLandmarks{
		Box:          f.Box.toDomain(),
		LeftTragion:  f.Keypoints.LeftTragion.toDomain(),
		RightTragion: f.Keypoints.RightTragion.toDomain(),
		LeftEye:      f.Keypoints.LeftEye.toDomain(),
		RightEye:     f.Keypoints.RightEye.toDomain(),
		Mouth:        f.Keypoints.MouthCenter.toDomain(),
		NoseTip:      f.Keypoints.NoseTip.toDomain(),
	}
}

func (b box) toDomain() domain.BoundingBox {
	return domain.BoundingBox{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

func boxFromDomain(b domain.BoundingBox) box {
	return box{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

func (p point) toDomain() domain.Point {
	return domain.Point{X: p.X, Y: p.Y}
}
