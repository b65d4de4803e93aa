package handler

import (
	"context"
	"sort"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/sensor"
)

// Sensor é a superfície do controlador de features consumida pela API.
type Sensor interface {
	StartWakeface(ctx context.Context) error
	StopWakeface() error
	StartPresence(ctx context.Context) error
	StopPresence() error
	StartEnrollment(ctx context.Context, name string) (string, error)
	StopEnrollment() error
	Status() sensor.Status
	Identities() map[string]int
}

// SensorHandler atende as rotas de controle das features de câmera.
type SensorHandler struct {
	sensor Sensor
}

func NewSensorHandler(sensor Sensor) *SensorHandler {
	return &SensorHandler{sensor: sensor}
}

// FeatureResponse confirma uma transição de feature.
type FeatureResponse struct {
	Feature string `json:"feature"`
	Status  string `json:"status"`
}

// EnrollRequest é o corpo de POST /v1/enrollments.
type EnrollRequest struct {
	Name string `json:"name"`
}

// EnrollResponse identifica a sessão de cadastro aceita.
type EnrollResponse struct {
	SessionID string `json:"session_id"`
}

// Person é uma identidade cadastrada e quantas amostras ela tem.
type Person struct {
	Name    string `json:"name"`
	Samples int    `json:"samples"`
}

// PersonsResponse lista as identidades do store.
type PersonsResponse struct {
	Persons []Person `json:"persons"`
	Total   int      `json:"total"`
}

// Status GET /v1/status - fotografia do controller
func (h *SensorHandler) Status(c *fiber.Ctx) error {
	return c.JSON(h.sensor.Status())
}

// StartWakeface POST /v1/wakeface/start
func (h *SensorHandler) StartWakeface(c *fiber.Ctx) error {
	if err := h.sensor.StartWakeface(c.Context()); err != nil {
		return err
	}
	return c.JSON(FeatureResponse{Feature: "wakeface", Status: "started"})
}

// StopWakeface POST /v1/wakeface/stop
func (h *SensorHandler) StopWakeface(c *fiber.Ctx) error {
	if err := h.sensor.StopWakeface(); err != nil {
		return err
	}
	return c.JSON(FeatureResponse{Feature: "wakeface", Status: "stopped"})
}

// StartPresence POST /v1/presence/start
func (h *SensorHandler) StartPresence(c *fiber.Ctx) error {
	if err := h.sensor.StartPresence(c.Context()); err != nil {
		return err
	}
	return c.JSON(FeatureResponse{Feature: "presence", Status: "started"})
}

// StopPresence POST /v1/presence/stop
func (h *SensorHandler) StopPresence(c *fiber.Ctx) error {
	if err := h.sensor.StopPresence(); err != nil {
		return err
	}
	return c.JSON(FeatureResponse{Feature: "presence", Status: "stopped"})
}

// StartEnrollment POST /v1/enrollments - abre uma sessão de cadastro.
// A captura roda em background; o progresso sai em recording_face e no
// status.
func (h *SensorHandler) StartEnrollment(c *fiber.Ctx) error {
	var req EnrollRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	sessionID, err := h.sensor.StartEnrollment(c.Context(), req.Name)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(EnrollResponse{SessionID: sessionID})
}

// StopEnrollment POST /v1/enrollments/stop
func (h *SensorHandler) StopEnrollment(c *fiber.Ctx) error {
	if err := h.sensor.StopEnrollment(); err != nil {
		return err
	}
	return c.JSON(FeatureResponse{Feature: "enrollment", Status: "stopped"})
}

// ListPersons GET /v1/persons
func (h *SensorHandler) ListPersons(c *fiber.Ctx) error {
	identities := h.sensor.Identities()

	persons := make([]Person, 0, len(identities))
	for name, samples := range identities {
		persons = append(persons, Person{Name: name, Samples: samples})
	}
	sort.Slice(persons, func(i, j int) bool {
		return persons[i].Name < persons[j].Name
	})

	return c.JSON(PersonsResponse{Persons: persons, Total: len(persons)})
}
