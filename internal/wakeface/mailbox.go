package wakeface

import (
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// observation é o que o detector entrega ao reconhecedor: o frame e as
// faces que passaram o filtro de atenção. Sem faces aceitas, o frame vai
// vazio; a observação vazia sinaliza fim de episódio.
type observation struct {
	frame domain.Frame
	faces []domain.FaceLandmarks
}

// mailbox é um slot de capacidade 1 com sobrescrita: publicar descarta o
// valor ainda não consumido. O reconhecedor processa sempre a observação
// mais recente e nunca acumula atraso atrás do detector.
//
// Um produtor, um consumidor.
type mailbox struct {
	mu    sync.Mutex
	value observation
	full  bool
	ready chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{ready: make(chan struct{}, 1)}
}

// publish deposita a observação, sobrescrevendo qualquer valor pendente.
// Nunca bloqueia.
func (m *mailbox) publish(o observation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.value = o
	m.full = true
	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// receive espera até timeout por uma observação.
func (m *mailbox) receive(timeout time.Duration) (observation, bool) {
	if o, ok := m.take(); ok {
		return o, true
	}

	select {
	case <-m.ready:
		return m.take()
	case <-time.After(timeout):
		return observation{}, false
	}
}

func (m *mailbox) take() (observation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.full {
		return observation{}, false
	}

	o := m.value
	m.value = observation{}
	m.full = false

	// Consome o sinal pendente junto com o valor, senão o próximo
	// receive acordaria à toa.
	select {
	case <-m.ready:
	default:
	}

	return o, true
}
