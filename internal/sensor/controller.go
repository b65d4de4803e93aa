// Package sensor orquestra as features de câmera. As três compartilham
// um único dispositivo, então no máximo uma roda por vez; o Controller é
// quem faz valer essa exclusão e quem sabe o que está ativo agora.
package sensor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/vigia/internal/camera"
	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/enroll"
	"github.com/saturnino-fabrica-de-software/vigia/internal/event"
	"github.com/saturnino-fabrica-de-software/vigia/internal/presence"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
	"github.com/saturnino-fabrica-de-software/vigia/internal/store"
	"github.com/saturnino-fabrica-de-software/vigia/internal/wakeface"
)

// Deps são os colaboradores compartilhados pelas features.
type Deps struct {
	Camera   *camera.Resource
	Detector provider.FaceDetector
	Encoder  provider.FaceEncoder
	Objects  provider.ObjectDetector
	Store    *store.FaceStore
	Events   event.Handler
	Logger   *slog.Logger

	Wakeface wakeface.Config
	Enroll   enroll.Config
}

// EnrollmentStatus descreve a sessão de cadastro corrente.
type EnrollmentStatus struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Progress  int    `json:"progress"`
}

// Status é a fotografia do controller para a API.
type Status struct {
	ActiveFeature string            `json:"active_feature"`
	Wakeface      bool              `json:"wakeface"`
	Presence      bool              `json:"presence"`
	Enrollment    *EnrollmentStatus `json:"enrollment,omitempty"`
	Persons       int               `json:"persons"`
	Samples       int               `json:"samples"`
	LastError     string            `json:"last_error,omitempty"`
}

// Controller possui as três features e garante que só uma segura a
// câmera por vez.
type Controller struct {
	wakeface *wakeface.Wakeface
	presence *presence.Monitor
	enroll   *enroll.Recorder
	store    *store.FaceStore
	logger   *slog.Logger

	mu      sync.Mutex
	active  string
	session string
	lastErr error
}

func NewController(deps Deps) *Controller {
	return &Controller{
		wakeface: wakeface.New(wakeface.Deps{
			Camera:   deps.Camera,
			Detector: deps.Detector,
			Encoder:  deps.Encoder,
			Store:    deps.Store,
			Events:   deps.Events,
			Logger:   deps.Logger,
		}, deps.Wakeface),
		presence: presence.New(presence.Deps{
			Camera:  deps.Camera,
			Objects: deps.Objects,
			Events:  deps.Events,
			Logger:  deps.Logger,
		}),
		enroll: enroll.New(enroll.Deps{
			Camera:   deps.Camera,
			Detector: deps.Detector,
			Encoder:  deps.Encoder,
			Store:    deps.Store,
			Events:   deps.Events,
			Logger:   deps.Logger,
		}, deps.Enroll),
		store:  deps.Store,
		logger: deps.Logger,
	}
}

// StartWakeface sobe a feature de atenção. Já rodando é no-op; outra
// feature com a câmera devolve ErrCameraBusy.
func (c *Controller) StartWakeface(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reap()

	if c.active == wakeface.Owner {
		return nil
	}
	if c.active != "" {
		return domain.ErrCameraBusy.WithError(fmt.Errorf("camera held by %s", c.active))
	}

	if err := c.wakeface.Start(ctx); err != nil {
		return domain.ErrCameraUnavailable.WithError(err)
	}
	c.active = wakeface.Owner
	return nil
}

// StopWakeface derruba a feature de atenção e devolve o erro fatal dos
// loops, se houver.
func (c *Controller) StopWakeface() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reap()

	if c.active != wakeface.Owner {
		return domain.ErrFeatureNotRunning
	}

	c.active = ""
	if err := c.wakeface.Stop(); err != nil {
		c.lastErr = err
		return domain.ErrInternal.WithError(err)
	}
	return nil
}

// StartPresence sobe o monitor de presença. Já rodando é no-op; outra
// feature com a câmera devolve ErrCameraBusy.
func (c *Controller) StartPresence(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reap()

	if c.active == presence.Owner {
		return nil
	}
	if c.active != "" {
		return domain.ErrCameraBusy.WithError(fmt.Errorf("camera held by %s", c.active))
	}

	if err := c.presence.Start(ctx); err != nil {
		return domain.ErrCameraUnavailable.WithError(err)
	}
	c.active = presence.Owner
	return nil
}

// StopPresence derruba o monitor de presença.
func (c *Controller) StopPresence() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reap()

	if c.active != presence.Owner {
		return domain.ErrFeatureNotRunning
	}

	c.active = ""
	if err := c.presence.Stop(); err != nil {
		c.lastErr = err
		return domain.ErrInternal.WithError(err)
	}
	return nil
}

// StartEnrollment valida o nome e abre uma sessão de cadastro. Devolve
// o id da sessão para o cliente acompanhar o progresso.
func (c *Controller) StartEnrollment(ctx context.Context, name string) (string, error) {
	name, err := normalizePersonName(name)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.reap()

	if c.active != "" {
		return "", domain.ErrCameraBusy.WithError(fmt.Errorf("camera held by %s", c.active))
	}

	if err := c.enroll.Start(ctx, name); err != nil {
		return "", domain.ErrCameraUnavailable.WithError(err)
	}

	c.active = enroll.Owner
	c.session = uuid.NewString()
	c.logger.Info("enrollment session opened", "session_id", c.session, "name", name)
	return c.session, nil
}

// StopEnrollment encerra a sessão corrente antes da hora. Sessão que já
// completou sozinha devolve ErrFeatureNotRunning.
func (c *Controller) StopEnrollment() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reap()

	if c.active != enroll.Owner {
		return domain.ErrFeatureNotRunning
	}

	c.active = ""
	c.session = ""
	if err := c.enroll.Stop(); err != nil {
		c.lastErr = err
		return domain.ErrInternal.WithError(err)
	}
	return nil
}

// Status devolve a fotografia corrente, já com features mortas colhidas.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reap()

	st := Status{
		ActiveFeature: c.active,
		Wakeface:      c.active == wakeface.Owner,
		Presence:      c.active == presence.Owner,
		Persons:       len(c.store.Identities()),
		Samples:       c.store.Len(),
	}
	if c.active == enroll.Owner {
		st.Enrollment = &EnrollmentStatus{
			SessionID: c.session,
			Name:      c.enroll.Name(),
			Progress:  c.enroll.Progress(),
		}
	}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	return st
}

// Identities expõe o agregado do store para a API de pessoas.
func (c *Controller) Identities() map[string]int {
	return c.store.Identities()
}

// StopAll derruba o que estiver de pé. Usado no shutdown do daemon.
func (c *Controller) StopAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	errs := []error{
		c.wakeface.Stop(),
		c.presence.Stop(),
		c.enroll.Stop(),
	}
	c.active = ""
	c.session = ""
	return errors.Join(errs...)
}

// reap colhe features que morreram sozinhas: captura fatal no wakeface
// ou presence, sessão de cadastro completada ou abortada. Chamar com o
// mutex preso. Sem isso o rótulo ativo travaria a câmera para sempre.
func (c *Controller) reap() {
	switch c.active {
	case wakeface.Owner:
		if c.wakeface.Err() != nil {
			c.finish(c.wakeface.Stop())
		}
	case presence.Owner:
		if c.presence.Err() != nil {
			c.finish(c.presence.Stop())
		}
	case enroll.Owner:
		if !c.enroll.Running() {
			c.finish(c.enroll.Stop())
			c.session = ""
		}
	}
}

func (c *Controller) finish(err error) {
	if err != nil {
		c.lastErr = err
		c.logger.Error("feature ended with error", "feature", c.active, "error", err)
	}
	c.active = ""
}

// normalizePersonName valida e limpa o nome para o formato do store.
// "unknown" é reservado para o resultado sem match do reconhecedor.
func normalizePersonName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrInvalidPersonName
	}
	if strings.ContainsAny(name, ";\n\r") {
		return "", domain.ErrInvalidPersonName
	}
	if strings.EqualFold(name, domain.UnknownName) {
		return "", domain.ErrInvalidPersonName
	}
	return name, nil
}
