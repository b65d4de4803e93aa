// Package wakeface detecta quem está olhando para o dispositivo e
// reconhece as identidades cadastradas.
//
// Dois loops cooperam ligados por um mailbox de um slot: o detector
// captura frames, roda detecção de faces e o filtro de atenção, emite os
// eventos imediatos de atenção e publica as faces aceitas; o reconhecedor
// consome a observação mais recente, calcula embeddings, vota contra o
// store e emite face_recognized com o histórico do episódio.
package wakeface

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/vigia/internal/camera"
	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/event"
	"github.com/saturnino-fabrica-de-software/vigia/internal/gaze"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
	"github.com/saturnino-fabrica-de-software/vigia/internal/store"
)

// Owner identifica a feature junto ao recurso de câmera.
const Owner = "wakeface"

// Config ajusta o pipeline. Campos zerados assumem os defaults.
type Config struct {
	// GazeTolerance é a margem do filtro de atenção.
	GazeTolerance float64
	// MatchTolerance é a distância euclidiana máxima para considerar
	// duas faces a mesma pessoa.
	MatchTolerance float64
	// Confirmations é quantos frames um nome precisa somar para fechar
	// o episódio.
	Confirmations int
	// ReceiveTimeout limita a espera do reconhecedor no mailbox; é o
	// teto de latência para observar um pedido de parada.
	ReceiveTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.GazeTolerance == 0 {
		c.GazeTolerance = gaze.DefaultTolerance
	}
	if c.MatchTolerance == 0 {
		c.MatchTolerance = 0.6
	}
	if c.Confirmations == 0 {
		c.Confirmations = 3
	}
	if c.ReceiveTimeout == 0 {
		c.ReceiveTimeout = 500 * time.Millisecond
	}
	return c
}

// Deps são os colaboradores do pipeline.
type Deps struct {
	Camera   *camera.Resource
	Detector provider.FaceDetector
	Encoder  provider.FaceEncoder
	Store    *store.FaceStore
	Events   event.Handler
	Logger   *slog.Logger
}

// Wakeface é a feature de atenção + reconhecimento.
type Wakeface struct {
	deps Deps
	cfg  Config

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	runErr  error
	wg      sync.WaitGroup
}

func New(deps Deps, cfg Config) *Wakeface {
	return &Wakeface{
		deps: deps,
		cfg:  cfg.withDefaults(),
	}
}

// Start adquire a câmera e sobe os dois loops. Se a câmera não abre, nada
// sobe e o erro volta para o chamador. Chamar com a feature já rodando é
// no-op.
func (w *Wakeface) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	if err := w.deps.Camera.Acquire(ctx, Owner); err != nil {
		return err
	}

	// Os loops vivem até Stop: o contexto deles não herda do ctx da
	// chamada de start.
	runCtx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.running = true
	w.runErr = nil

	box := newMailbox()
	w.wg.Add(2)
	go w.runDetector(runCtx, box)
	go w.runRecognizer(runCtx, box)

	w.deps.Logger.Info("wakeface started")
	return nil
}

// Stop cancela os loops, espera os dois saírem e só então libera a
// câmera. Devolve o erro fatal registrado pelos loops, se houver.
func (w *Wakeface) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	cancel := w.cancel
	w.mu.Unlock()

	cancel()
	w.wg.Wait()

	w.mu.Lock()
	w.running = false
	runErr := w.runErr
	w.mu.Unlock()

	releaseErr := w.deps.Camera.Release(Owner)
	w.deps.Logger.Info("wakeface stopped")

	if runErr != nil {
		return runErr
	}
	return releaseErr
}

// Running reporta se os loops estão de pé.
func (w *Wakeface) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Err devolve o erro fatal corrente, se os loops morreram sozinhos.
func (w *Wakeface) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runErr
}

// fatal registra o primeiro erro fatal e derruba os dois loops. A câmera
// continua adquirida até o Stop, que é quem libera.
func (w *Wakeface) fatal(err error) {
	w.mu.Lock()
	if w.runErr == nil {
		w.runErr = err
	}
	cancel := w.cancel
	w.mu.Unlock()

	w.deps.Logger.Error("wakeface capture failed", "error", err)
	cancel()
}

func (w *Wakeface) runDetector(ctx context.Context, box *mailbox) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, err := w.deps.Camera.Capture(ctx, true)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.fatal(err)
			return
		}

		faces, err := w.deps.Detector.DetectFaces(ctx, frame)
		if err != nil {
			// Falha de inferência vale como frame sem faces.
			w.deps.Logger.Error("face detection failed", "error", err)
			faces = nil
		}

		var accepted []domain.FaceLandmarks
		for _, f := range faces {
			if gaze.LookingAtCamera(f, w.cfg.GazeTolerance) {
				accepted = append(accepted, f)
			}
		}

		switch {
		case len(faces) == 0:
			w.deps.Events(event.NoFaces{})
			box.publish(observation{})
		case len(accepted) == 0:
			w.deps.Events(event.FaceNotListening{})
			box.publish(observation{})
		default:
			w.deps.Events(event.FaceListening{})
			box.publish(observation{frame: frame, faces: accepted})
		}
	}
}

func (w *Wakeface) runRecognizer(ctx context.Context, box *mailbox) {
	defer w.wg.Done()

	rec := newRecognizer(w.deps.Encoder, w.deps.Store, w.cfg.MatchTolerance, w.cfg.Confirmations, w.deps.Logger)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		obs, ok := box.receive(w.cfg.ReceiveTimeout)
		if !ok {
			continue
		}

		if ev, emit := rec.process(ctx, obs); emit {
			w.deps.Events(ev)
		}
	}
}
