// Package presence vigia a sala com um detector genérico de objetos
// filtrado para pessoas: alguém no quadro emite person_detected, quadro
// vazio emite empty_room.
package presence

import (
	"context"
	"log/slog"
	"sync"

	"github.com/saturnino-fabrica-de-software/vigia/internal/camera"
	"github.com/saturnino-fabrica-de-software/vigia/internal/event"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
)

// Owner identifica a feature junto ao recurso de câmera.
const Owner = "presence"

// Deps são os colaboradores do monitor.
type Deps struct {
	Camera  *camera.Resource
	Objects provider.ObjectDetector
	Events  event.Handler
	Logger  *slog.Logger
}

// Monitor é a feature de presença. Um loop só: captura, detecta, emite.
type Monitor struct {
	deps Deps

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	runErr  error
	wg      sync.WaitGroup
}

func New(deps Deps) *Monitor {
	return &Monitor{deps: deps}
}

// Start adquire a câmera e sobe o loop. Chamar com a feature já rodando
// é no-op.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	if err := m.deps.Camera.Acquire(ctx, Owner); err != nil {
		return err
	}

	// O loop vive até Stop: o contexto dele não herda do ctx da chamada
	// de start.
	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running = true
	m.runErr = nil

	m.wg.Add(1)
	go m.run(runCtx)

	m.deps.Logger.Info("presence started")
	return nil
}

// Stop cancela o loop, espera sair e só então libera a câmera. Devolve
// o erro fatal registrado pelo loop, se houver.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	cancel := m.cancel
	m.mu.Unlock()

	cancel()
	m.wg.Wait()

	m.mu.Lock()
	m.running = false
	runErr := m.runErr
	m.mu.Unlock()

	releaseErr := m.deps.Camera.Release(Owner)
	m.deps.Logger.Info("presence stopped")

	if runErr != nil {
		return runErr
	}
	return releaseErr
}

// Running reporta se o loop está de pé.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Err devolve o erro fatal corrente, se o loop morreu sozinho.
func (m *Monitor) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runErr
}

func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, err := m.deps.Camera.Capture(ctx, true)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.fatal(err)
			return
		}

		detections, err := m.deps.Objects.DetectObjects(ctx, frame)
		if err != nil {
			// Falha de inferência vale como sala vazia nesta iteração.
			m.deps.Logger.Error("object detection failed", "error", err)
			detections = nil
		}

		if len(detections) > 0 {
			m.deps.Events(event.PersonDetected{})
		} else {
			m.deps.Events(event.EmptyRoom{})
		}
	}
}

// fatal registra o erro e derruba o loop. A câmera continua adquirida
// até o Stop, que é quem libera.
func (m *Monitor) fatal(err error) {
	m.mu.Lock()
	if m.runErr == nil {
		m.runErr = err
	}
	cancel := m.cancel
	m.mu.Unlock()

	m.deps.Logger.Error("presence capture failed", "error", err)
	cancel()
}
