// Package gaze decide se uma face detectada está olhando para a câmera.
//
// O critério usa só geometria dos landmarks, sem modelo: a ponta do nariz
// é normalizada no eixo horizontal entre os tragos e no eixo vertical
// entre o ponto médio dos olhos e a boca. Uma face frontal mantém o nariz
// perto do centro dos dois intervalos; quanto maior a rotação da cabeça,
// mais o nariz desliza para uma das bordas.
package gaze

import "github.com/saturnino-fabrica-de-software/vigia/internal/domain"

// DefaultTolerance é a margem aceita em cada eixo: o nariz normalizado
// precisa cair em [tolerance, 1-tolerance].
const DefaultTolerance = 0.25

// LookingAtCamera reporta se os landmarks descrevem uma face voltada para
// a câmera. Geometria degenerada (tragos coincidentes, olhos na altura da
// boca) não é decidível e rejeita a face em vez de propagar NaN.
func LookingAtCamera(lm domain.FaceLandmarks, tolerance float64) bool {
	xRel, ok := normalize(lm.NoseTip.X, lm.LeftTragion.X, lm.RightTragion.X)
	if !ok {
		return false
	}

	eyeMidY := (lm.LeftEye.Y + lm.RightEye.Y) / 2
	yRel, ok := normalize(lm.NoseTip.Y, eyeMidY, lm.Mouth.Y)
	if !ok {
		return false
	}

	return within(xRel, tolerance) && within(yRel, tolerance)
}

// normalize projeta v no intervalo [lo, hi] como fração 0..1.
func normalize(v, lo, hi float64) (float64, bool) {
	span := hi - lo
	if span == 0 {
		return 0, false
	}
	return (v - lo) / span, true
}

func within(rel, tolerance float64) bool {
	return rel >= tolerance && rel <= 1-tolerance
}
