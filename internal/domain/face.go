package domain

import "math"

// EmbeddingDim é a dimensão dos vetores faciais produzidos pelo encoder.
const EmbeddingDim = 128

// UnknownName é o resultado de reconhecimento para uma face sem match no store.
// Não é uma identidade: nunca entra no arquivo de encodings.
const UnknownName = "unknown"

// Embedding é um vetor facial de EmbeddingDim dimensões.
type Embedding []float64

// EuclideanDistance retorna a distância euclidiana entre dois embeddings.
// Vetores de tamanhos diferentes são incomparáveis e retornam +Inf.
func EuclideanDistance(a, b Embedding) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Point é uma coordenada em pixels no frame capturado.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBox delimita a região de uma face na imagem.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FaceLandmarks representa uma face detectada com os pontos de referência
// usados pelo filtro de atenção.
type FaceLandmarks struct {
	Box          BoundingBox `json:"box"`
	LeftTragion  Point       `json:"left_tragion"`  // trago esquerdo (orelha)
	RightTragion Point       `json:"right_tragion"` // trago direito (orelha)
	LeftEye      Point       `json:"left_eye"`
	RightEye     Point       `json:"right_eye"`
	Mouth        Point       `json:"mouth"`
	NoseTip      Point       `json:"nose_tip"`
}
