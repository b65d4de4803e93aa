package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/vigia/internal/event"
	"github.com/saturnino-fabrica-de-software/vigia/internal/metrics"
)

const defaultRecentLimit = 50

// EventLog é a visão do journal exposta pela API.
type EventLog interface {
	Recent(limit int) []event.Envelope
}

// MetricsSource expõe a fotografia de contadores do daemon.
type MetricsSource interface {
	Snapshot() metrics.Snapshot
}

// EventsHandler atende o histórico de eventos e os contadores.
type EventsHandler struct {
	journal EventLog
	metrics MetricsSource
	sensor  Sensor
}

func NewEventsHandler(journal EventLog, metrics MetricsSource, sensor Sensor) *EventsHandler {
	return &EventsHandler{
		journal: journal,
		metrics: metrics,
		sensor:  sensor,
	}
}

// RecentEventsResponse lista envelopes do mais novo para o mais velho.
type RecentEventsResponse struct {
	Events []event.Envelope `json:"events"`
	Count  int              `json:"count"`
}

// MetricsResponse combina contadores de evento com o tamanho do store.
type MetricsResponse struct {
	UptimeSeconds int64             `json:"uptime_seconds"`
	TotalEvents   uint64            `json:"total_events"`
	Events        map[string]uint64 `json:"events"`
	Persons       int               `json:"persons"`
	Samples       int               `json:"samples"`
}

// Recent GET /v1/events/recent?limit=N
func (h *EventsHandler) Recent(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultRecentLimit)

	events := h.journal.Recent(limit)

	return c.JSON(RecentEventsResponse{
		Events: events,
		Count:  len(events),
	})
}

// Metrics GET /v1/metrics
func (h *EventsHandler) Metrics(c *fiber.Ctx) error {
	snap := h.metrics.Snapshot()
	status := h.sensor.Status()

	return c.JSON(MetricsResponse{
		UptimeSeconds: snap.UptimeSeconds,
		TotalEvents:   snap.TotalEvents,
		Events:        snap.Events,
		Persons:       status.Persons,
		Samples:       status.Samples,
	})
}
