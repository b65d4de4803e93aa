package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// EnrollmentData descreve a sessão de cadastro em andamento
type EnrollmentData struct {
	SessionID string `json:"session_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name      string `json:"name" example:"alice"`
	Progress  int    `json:"progress" example:"66"`
}

// StatusResponse é a fotografia do daemon
type StatusResponse struct {
	ActiveFeature string          `json:"active_feature" example:"wakeface"`
	Wakeface      bool            `json:"wakeface" example:"true"`
	Presence      bool            `json:"presence" example:"false"`
	Enrollment    *EnrollmentData `json:"enrollment,omitempty"`
	Persons       int             `json:"persons" example:"3"`
	Samples       int             `json:"samples" example:"18"`
	LastError     string          `json:"last_error,omitempty" example:"capture /dev/video0: device disconnected"`
}

// FeatureResponse confirma uma transição de feature
type FeatureResponse struct {
	Feature string `json:"feature" example:"wakeface"`
	Status  string `json:"status" example:"started"`
}

// EnrollRequest é o corpo para abrir um cadastro
type EnrollRequest struct {
	Name string `json:"name" example:"alice"`
}

// EnrollResponse identifica a sessão de cadastro aceita
type EnrollResponse struct {
	SessionID string `json:"session_id" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// PersonData é uma identidade cadastrada
type PersonData struct {
	Name    string `json:"name" example:"alice"`
	Samples int    `json:"samples" example:"6"`
}

// PersonsResponse lista as identidades conhecidas
type PersonsResponse struct {
	Persons []PersonData `json:"persons"`
	Total   int          `json:"total" example:"1"`
}

// EventEnvelope é um evento como sai no fio
type EventEnvelope struct {
	ID        string      `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Type      string      `json:"type" example:"face_recognized"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp" example:"2024-01-01T00:00:00Z"`
}

// RecentEventsResponse lista eventos recentes, mais novos primeiro
type RecentEventsResponse struct {
	Events []EventEnvelope `json:"events"`
	Count  int             `json:"count" example:"2"`
}

// MetricsResponse combina contadores de evento e tamanho do store
type MetricsResponse struct {
	UptimeSeconds int64             `json:"uptime_seconds" example:"3600"`
	TotalEvents   uint64            `json:"total_events" example:"1250"`
	Events        map[string]uint64 `json:"events"`
	Persons       int               `json:"persons" example:"3"`
	Samples       int               `json:"samples" example:"18"`
}

// ErrorResponse é o envelope de erro padrão
type ErrorResponse struct {
	Code    string `json:"code" example:"CAMERA_BUSY"`
	Message string `json:"message" example:"Another feature is already using the camera"`
}

// NewSwagger monta a documentação Swagger da API do daemon
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Vigia Sensor API",
		Version:     "v1.0.0",
		Description: "Always-on camera assistant daemon: wakeface recognition, person enrollment and presence monitoring over a single camera device",
		Host:        "localhost:8600",
		Path:        "/v1",
	})

	busyErrors := []response.Response{
		response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized"),
		response.New(ErrorResponse{Code: "CAMERA_BUSY", Message: "Another feature is already using the camera"}, "409", "Conflict"),
		response.New(ErrorResponse{Code: "CAMERA_UNAVAILABLE", Message: "Camera device could not be opened"}, "503", "Service Unavailable"),
		response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
	}

	stopErrors := []response.Response{
		response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized"),
		response.New(ErrorResponse{Code: "FEATURE_NOT_RUNNING", Message: "Feature is not running"}, "409", "Conflict"),
		response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
	}

	endpoints := []*endpoint.EndPoint{
		// GET /v1/status
		endpoint.New(
			endpoint.GET,
			"/status",
			endpoint.WithTags("Sensor"),
			endpoint.WithSummary("Get daemon status"),
			endpoint.WithDescription("Returns which feature holds the camera, the enrollment session in progress (if any) and the size of the face store"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StatusResponse{}, "200", "Status retrieved successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// POST /v1/wakeface/start
		endpoint.New(
			endpoint.POST,
			"/wakeface/start",
			endpoint.WithTags("Wakeface"),
			endpoint.WithSummary("Start wakeface recognition"),
			endpoint.WithDescription("Acquires the camera and starts the capture and recognition loops. Fails if another feature holds the camera."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FeatureResponse{}, "200", "Wakeface started"),
			}),
			endpoint.WithErrors(busyErrors),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// POST /v1/wakeface/stop
		endpoint.New(
			endpoint.POST,
			"/wakeface/stop",
			endpoint.WithTags("Wakeface"),
			endpoint.WithSummary("Stop wakeface recognition"),
			endpoint.WithDescription("Stops the capture and recognition loops and releases the camera"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FeatureResponse{}, "200", "Wakeface stopped"),
			}),
			endpoint.WithErrors(stopErrors),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// POST /v1/presence/start
		endpoint.New(
			endpoint.POST,
			"/presence/start",
			endpoint.WithTags("Presence"),
			endpoint.WithSummary("Start presence monitoring"),
			endpoint.WithDescription("Acquires the camera and starts the object detection loop emitting person_detected/empty_room events"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FeatureResponse{}, "200", "Presence started"),
			}),
			endpoint.WithErrors(busyErrors),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// POST /v1/presence/stop
		endpoint.New(
			endpoint.POST,
			"/presence/stop",
			endpoint.WithTags("Presence"),
			endpoint.WithSummary("Stop presence monitoring"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FeatureResponse{}, "200", "Presence stopped"),
			}),
			endpoint.WithErrors(stopErrors),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// POST /v1/enrollments
		endpoint.New(
			endpoint.POST,
			"/enrollments",
			endpoint.WithTags("Enrollment"),
			endpoint.WithSummary("Start a face enrollment session"),
			endpoint.WithDescription("Acquires the camera and records face samples for the given person until the configured number of frames is reached. Progress is reported via recording_face events and GET /v1/status."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EnrollResponse{}, "202", "Enrollment session accepted"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "BAD_REQUEST", Message: "Invalid request"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "CAMERA_BUSY", Message: "Another feature is already using the camera"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "INVALID_PERSON_NAME", Message: "Person name is empty or reserved"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "CAMERA_UNAVAILABLE", Message: "Camera device could not be opened"}, "503", "Service Unavailable"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// POST /v1/enrollments/stop
		endpoint.New(
			endpoint.POST,
			"/enrollments/stop",
			endpoint.WithTags("Enrollment"),
			endpoint.WithSummary("Abort the enrollment session"),
			endpoint.WithDescription("Stops the running enrollment session. Samples already appended to the store are kept."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FeatureResponse{}, "200", "Enrollment stopped"),
			}),
			endpoint.WithErrors(stopErrors),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// GET /v1/persons
		endpoint.New(
			endpoint.GET,
			"/persons",
			endpoint.WithTags("Enrollment"),
			endpoint.WithSummary("List enrolled persons"),
			endpoint.WithDescription("Returns the identities present in the face store and how many samples each one has"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(PersonsResponse{}, "200", "Persons retrieved successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// GET /v1/events/recent
		endpoint.New(
			endpoint.GET,
			"/events/recent",
			endpoint.WithTags("Events"),
			endpoint.WithSummary("List recent events"),
			endpoint.WithDescription("Returns the latest event envelopes from the in-memory journal, newest first"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum number of events (default: 50)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RecentEventsResponse{}, "200", "Events retrieved successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// GET /v1/metrics
		endpoint.New(
			endpoint.GET,
			"/metrics",
			endpoint.WithTags("Events"),
			endpoint.WithSummary("Get daemon metrics"),
			endpoint.WithDescription("Returns per-event counters since boot, uptime and the face store size"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MetricsResponse{}, "200", "Metrics retrieved successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
