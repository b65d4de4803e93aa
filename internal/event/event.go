// Package event define o contrato de eventos do pipeline de sensores.
//
// O conjunto de eventos é fechado: consumidores fazem switch por tipo
// concreto e o compilador acusa qualquer variante nova não tratada.
package event

// Nomes de evento no fio. São o contrato com os consumidores (websocket,
// webhook, journal) e não mudam sem versionar a API.
const (
	NameNoFaces          = "not_faces"
	NameFaceNotListening = "face_not_listen"
	NameFaceListening    = "face_listen"
	NameFaceRecognized   = "face_recognized"
	NameRecordingFace    = "recording_face"
	NamePersonDetected   = "person_detected"
	NameEmptyRoom        = "empty_room"
)

// Event é um evento emitido pelos sensores. Implementado apenas por tipos
// deste pacote.
type Event interface {
	Name() string
	isEvent()
}

// NoFaces: nenhuma face no frame.
type NoFaces struct{}

// FaceNotListening: há faces, nenhuma olhando para a câmera.
type FaceNotListening struct{}

// FaceListening: pelo menos uma face olhando para a câmera.
type FaceListening struct{}

// FaceRecognized carrega o histórico de votos acumulado no episódio de
// atenção corrente, nome → contagem de frames em que foi visto.
type FaceRecognized struct {
	Usernames map[string]int `json:"usernames"`
}

// RecordingFace reporta progresso de cadastro, em percentual inteiro.
type RecordingFace struct {
	Progress int `json:"progress"`
}

// PersonDetected: monitor de presença viu ao menos uma pessoa.
type PersonDetected struct{}

// EmptyRoom: monitor de presença não viu ninguém.
type EmptyRoom struct{}

func (NoFaces) Name() string          { return NameNoFaces }
func (FaceNotListening) Name() string { return NameFaceNotListening }
func (FaceListening) Name() string    { return NameFaceListening }
func (FaceRecognized) Name() string   { return NameFaceRecognized }
func (RecordingFace) Name() string    { return NameRecordingFace }
func (PersonDetected) Name() string   { return NamePersonDetected }
func (EmptyRoom) Name() string        { return NameEmptyRoom }

func (NoFaces) isEvent()          {}
func (FaceNotListening) isEvent() {}
func (FaceListening) isEvent()    {}
func (FaceRecognized) isEvent()   {}
func (RecordingFace) isEvent()    {}
func (PersonDetected) isEvent()   {}
func (EmptyRoom) isEvent()        {}

// Handler consome eventos. Chamado de forma síncrona pelas goroutines dos
// sensores: implementações não podem bloquear.
type Handler func(Event)

// Discard ignora todos os eventos.
func Discard(Event) {}

// Combine devolve um Handler que repassa cada evento para todos os
// handlers, na ordem dada. Handlers nil são ignorados.
func Combine(handlers ...Handler) Handler {
	hs := make([]Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			hs = append(hs, h)
		}
	}
	return func(e Event) {
		for _, h := range hs {
			h(e)
		}
	}
}
