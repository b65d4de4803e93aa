package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/vigia/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/vigia/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/vigia/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/vigia/internal/ws"
)

// Dependencies são as peças do daemon que a API expõe. Hub, journal e
// controller pertencem ao main: aqui só são montados nas rotas.
type Dependencies struct {
	Sensor  handler.Sensor
	Journal handler.EventLog
	Metrics handler.MetricsSource
	Hub     *ws.Hub

	// Chave única de autenticação. Vazia desliga o auth.
	APIKey string
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Vigia API",
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Swagger documentation (no auth required)
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints (no auth required)
	healthHandler := handler.NewHealthHandler()
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	v1 := r.app.Group("/v1")
	v1.Use(middleware.Auth(r.deps.APIKey))

	r.rateLimiter = middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	v1.Use(r.rateLimiter.Handler())

	sensorHandler := handler.NewSensorHandler(r.deps.Sensor)
	v1.Get("/status", sensorHandler.Status)
	v1.Post("/wakeface/start", sensorHandler.StartWakeface)
	v1.Post("/wakeface/stop", sensorHandler.StopWakeface)
	v1.Post("/presence/start", sensorHandler.StartPresence)
	v1.Post("/presence/stop", sensorHandler.StopPresence)
	v1.Post("/enrollments", sensorHandler.StartEnrollment)
	v1.Post("/enrollments/stop", sensorHandler.StopEnrollment)
	v1.Get("/persons", sensorHandler.ListPersons)

	eventsHandler := handler.NewEventsHandler(r.deps.Journal, r.deps.Metrics, r.deps.Sensor)
	v1.Get("/events/recent", eventsHandler.Recent)
	v1.Get("/metrics", eventsHandler.Metrics)

	// Stream de eventos ao vivo
	v1.Get("/events/ws", ws.UpgradeMiddleware(), ws.Handler(r.deps.Hub))
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
