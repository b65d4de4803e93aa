// Package camera serializa o acesso das features à câmera física.
//
// O dispositivo é um recurso exclusivo: wakeface, cadastro e presença
// nunca rodam ao mesmo tempo. O Resource guarda o estado ocioso/capturando
// e qual feature é a dona da captura corrente.
package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// Device abstrai o hardware de captura. Implementações: V4L2Device
// (webcam USB via ffmpeg) e MockDevice (frames sintéticos).
type Device interface {
	Open(ctx context.Context) error
	Close() error
	// ColorFrame captura um frame colorido. Com resize, o frame vem
	// reduzido para a largura de processamento do pipeline.
	ColorFrame(ctx context.Context, resize bool) (domain.Frame, error)
}

// ErrNotCapturing indica captura com a câmera ociosa.
var ErrNotCapturing = errors.New("camera is not capturing")

// CaptureError é fatal para o loop que o recebe: sem frame não há pipeline.
type CaptureError struct {
	Op  string
	Err error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("camera %s: %v", e.Op, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

type state int

const (
	stateIdle state = iota
	stateCapturing
)

// Resource é o handle compartilhado da câmera.
type Resource struct {
	device Device
	logger *slog.Logger

	mu    sync.Mutex
	state state
	owner string
}

func NewResource(device Device, logger *slog.Logger) *Resource {
	return &Resource{
		device: device,
		logger: logger,
	}
}

// Acquire abre o dispositivo e marca a captura como pertencente a owner.
// Se a câmera já está capturando, é no-op: a feature dona original segue
// valendo. Falha de abertura deixa o estado ocioso.
func (r *Resource) Acquire(ctx context.Context, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == stateCapturing {
		r.logger.Debug("camera already capturing", "owner", r.owner, "requested_by", owner)
		return nil
	}

	if err := r.device.Open(ctx); err != nil {
		return &CaptureError{Op: "open", Err: err}
	}

	r.state = stateCapturing
	r.owner = owner
	r.logger.Info("camera acquired", "owner", owner)
	return nil
}

// Release para a captura e fecha o dispositivo. Com a câmera ociosa é
// no-op. O rótulo não é conferido contra o dono: qualquer feature
// consegue derrubar a captura de outra, e o caso fica registrado como
// warning no log.
func (r *Resource) Release(owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == stateIdle {
		r.logger.Debug("camera already idle", "requested_by", owner)
		return nil
	}

	if r.owner != owner {
		r.logger.Warn("camera released by non-owner", "owner", r.owner, "released_by", owner)
	}

	err := r.device.Close()
	r.state = stateIdle
	r.owner = ""

	if err != nil {
		return &CaptureError{Op: "close", Err: err}
	}

	r.logger.Info("camera released", "owner", owner)
	return nil
}

// Capture captura um frame. A câmera precisa estar em captura; o
// dispositivo é chamado fora do mutex para Release não ficar preso
// atrás de um frame lento.
func (r *Resource) Capture(ctx context.Context, resize bool) (domain.Frame, error) {
	r.mu.Lock()
	if r.state != stateCapturing {
		r.mu.Unlock()
		return domain.Frame{}, &CaptureError{Op: "capture", Err: ErrNotCapturing}
	}
	device := r.device
	r.mu.Unlock()

	frame, err := device.ColorFrame(ctx, resize)
	if err != nil {
		return domain.Frame{}, &CaptureError{Op: "capture", Err: err}
	}
	return frame, nil
}

// Owner devolve a feature dona da captura corrente, se houver.
func (r *Resource) Owner() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owner, r.state == stateCapturing
}
