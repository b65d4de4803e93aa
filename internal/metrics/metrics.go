// Package metrics agrega contadores do sensor em memória. Cada evento
// emitido soma no contador do seu tipo; a API expõe a fotografia.
package metrics

import (
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/vigia/internal/event"
)

// Snapshot é a fotografia dos contadores para a API.
type Snapshot struct {
	UptimeSeconds int64             `json:"uptime_seconds"`
	TotalEvents   uint64            `json:"total_events"`
	Events        map[string]uint64 `json:"events"`
}

// Registry acumula contagens por tipo de evento. Seguro para uso pelos
// loops do sensor e pela API ao mesmo tempo.
type Registry struct {
	startedAt time.Time

	mu     sync.Mutex
	counts map[string]uint64
	total  uint64
}

func NewRegistry() *Registry {
	return &Registry{
		startedAt: time.Now(),
		counts:    make(map[string]uint64),
	}
}

// Observe soma o evento no contador do tipo. Tem a forma de
// event.Handler para entrar direto no fan-out do daemon.
func (r *Registry) Observe(ev event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[ev.Name()]++
	r.total++
}

// Snapshot devolve uma cópia dos contadores correntes.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := make(map[string]uint64, len(r.counts))
	for name, count := range r.counts {
		events[name] = count
	}

	return Snapshot{
		UptimeSeconds: int64(time.Since(r.startedAt).Seconds()),
		TotalEvents:   r.total,
		Events:        events,
	}
}
