package event

import (
	"time"

	"github.com/google/uuid"
)

// Envelope embrulha um evento para as superfícies externas. O stream
// websocket, o journal e o webhook recebem o mesmo envelope, então um
// consumidor consegue correlacionar o evento entre os três pelo id.
type Envelope struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Data      Event     `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEnvelope(ev Event) Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		Type:      ev.Name(),
		Data:      ev,
		Timestamp: time.Now().UTC(),
	}
}
