// Package enroll cadastra identidades novas no store de faces: captura
// frames, exige que a pessoa esteja olhando para o dispositivo e grava
// um embedding por frame aceito até completar a sessão.
package enroll

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/saturnino-fabrica-de-software/vigia/internal/camera"
	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/event"
	"github.com/saturnino-fabrica-de-software/vigia/internal/gaze"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
	"github.com/saturnino-fabrica-de-software/vigia/internal/store"
)

// Owner identifica a feature junto ao recurso de câmera.
const Owner = "enroll"

// DefaultFrames é quantas amostras uma sessão grava por padrão.
const DefaultFrames = 6

// ErrAlreadyRecording indica uma sessão de cadastro em andamento. Ao
// contrário das features contínuas, start aqui não é idempotente: a
// segunda chamada poderia trocar o nome no meio da gravação.
var ErrAlreadyRecording = errors.New("enrollment already in progress")

// Config ajusta a sessão. Campos zerados assumem os defaults.
type Config struct {
	// Frames é quantas amostras gravar por sessão.
	Frames int
	// GazeTolerance é a margem do filtro de atenção.
	GazeTolerance float64
}

func (c Config) withDefaults() Config {
	if c.Frames <= 0 {
		c.Frames = DefaultFrames
	}
	if c.GazeTolerance == 0 {
		c.GazeTolerance = gaze.DefaultTolerance
	}
	return c
}

// Deps são os colaboradores da sessão de cadastro.
type Deps struct {
	Camera   *camera.Resource
	Detector provider.FaceDetector
	Encoder  provider.FaceEncoder
	Store    *store.FaceStore
	Events   event.Handler
	Logger   *slog.Logger
}

// Recorder grava sessões de cadastro, uma por vez. A sessão termina
// sozinha ao completar as amostras; Stop encerra antes da hora.
type Recorder struct {
	deps Deps
	cfg  Config

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	runErr   error
	progress int
	name     string
	wg       sync.WaitGroup
}

func New(deps Deps, cfg Config) *Recorder {
	return &Recorder{
		deps: deps,
		cfg:  cfg.withDefaults(),
	}
}

// Start adquire a câmera e sobe o loop de gravação para name. Devolve
// ErrAlreadyRecording se uma sessão ainda está de pé.
func (r *Recorder) Start(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrAlreadyRecording
	}

	if err := r.deps.Camera.Acquire(ctx, Owner); err != nil {
		return err
	}

	// A sessão vive até completar ou até Stop: o contexto dela não
	// herda do ctx da chamada de start.
	runCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.running = true
	r.runErr = nil
	r.progress = 0
	r.name = name

	r.wg.Add(1)
	go r.run(runCtx, name)

	r.deps.Logger.Info("enrollment started", "name", name, "frames", r.cfg.Frames)
	return nil
}

// Stop encerra a sessão corrente, se houver, e espera o loop sair.
// Devolve o erro fatal da sessão, se houver. Chamada após a sessão
// completar sozinha só recolhe o resultado.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if r.cancel == nil {
		r.mu.Unlock()
		return nil
	}
	cancel := r.cancel
	r.mu.Unlock()

	cancel()
	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancel = nil
	return r.runErr
}

// Running reporta se uma sessão está em andamento.
func (r *Recorder) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Progress devolve o andamento da sessão corrente, de 0 a 100.
func (r *Recorder) Progress() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

// Name devolve o nome da sessão corrente, ou da última encerrada.
func (r *Recorder) Name() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.name
}

// Err devolve o erro fatal da sessão corrente, se o loop morreu sozinho.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runErr
}

// run é o loop da sessão. A câmera é liberada aqui, na saída, em
// qualquer caminho: conclusão, cancelamento ou erro fatal.
func (r *Recorder) run(ctx context.Context, name string) {
	defer r.wg.Done()
	defer func() {
		if err := r.deps.Camera.Release(Owner); err != nil {
			r.deps.Logger.Error("enrollment camera release failed", "error", err)
		}
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	counter := 0
	for counter < r.cfg.Frames {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, err := r.deps.Camera.Capture(ctx, true)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.fail(err)
			return
		}

		faces, err := r.deps.Detector.DetectFaces(ctx, frame)
		if err != nil {
			// Falha de inferência só custa a iteração.
			r.deps.Logger.Error("face detection failed", "error", err)
			continue
		}

		accepted, ok := firstLooking(faces, r.cfg.GazeTolerance)
		if !ok {
			continue
		}

		embeddings, err := r.deps.Encoder.EncodeFaces(ctx, frame, []domain.BoundingBox{accepted.Box})
		if err != nil {
			r.deps.Logger.Error("face encoding failed", "error", err)
			continue
		}
		if len(embeddings) == 0 {
			continue
		}

		// Cadastro sem durabilidade não conta: falha de escrita
		// derruba a sessão e chega ao chamador via Stop.
		if err := r.deps.Store.Append(name, embeddings[0]); err != nil {
			r.fail(err)
			return
		}

		counter++
		progress := counter * 100 / r.cfg.Frames

		r.mu.Lock()
		r.progress = progress
		r.mu.Unlock()

		r.deps.Events(event.RecordingFace{Progress: progress})
		r.deps.Logger.Debug("enrollment frame recorded", "name", name, "progress", progress)
	}
}

func (r *Recorder) fail(err error) {
	r.mu.Lock()
	if r.runErr == nil {
		r.runErr = err
	}
	r.mu.Unlock()
	r.deps.Logger.Error("enrollment failed", "error", err)
}

// firstLooking devolve a primeira face olhando para a câmera, na ordem
// do detector.
func firstLooking(faces []domain.FaceLandmarks, tolerance float64) (domain.FaceLandmarks, bool) {
	for _, f := range faces {
		if gaze.LookingAtCamera(f, tolerance) {
			return f, true
		}
	}
	return domain.FaceLandmarks{}, false
}
