package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/vigia/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/vigia/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/vigia/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/vigia/internal/database"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
	"github.com/saturnino-fabrica-de-software/vigia/internal/service"
	"github.com/saturnino-fabrica-de-software/vigia/internal/ws"
)

type Dependencies struct {
	FaceService *service.FaceService
	Embedder    provider.FaceEmbedder

	// DB is only set when the gallery store is backed by postgres; readiness
	// then includes a connectivity check.
	DB *pgxpool.Pool
}

type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Vigia API",
		BodyLimit:    12 * 1024 * 1024,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

type readinessFunc func() bool

func (f readinessFunc) Ready() bool { return f() }

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints
	healthHandler := handler.NewHealthHandler(readinessFunc(r.ready))
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	v1 := r.app.Group("/v1")

	// Face routes
	faceHandler := handler.NewFaceHandler(r.deps.FaceService, r.logger)
	v1.Post("/faces", faceHandler.Enroll)
	v1.Post("/train", faceHandler.Train)
	v1.Get("/people", faceHandler.List)
	v1.Delete("/people/:name", faceHandler.Delete)
	v1.Get("/stats", faceHandler.Stats)

	// WebSocket capture endpoints
	wsHandler := ws.NewHandler(r.deps.FaceService, r.deps.Embedder, r.logger)
	wsGroup := v1.Group("/ws", ws.UpgradeMiddleware())
	wsGroup.Get("/preview", wsHandler.Preview())
	wsGroup.Get("/recognize", wsHandler.Recognize())
	wsGroup.Get("/capture", wsHandler.Capture())
}

func (r *Router) ready() bool {
	if r.deps == nil {
		return false
	}
	if r.deps.DB != nil {
		if err := database.HealthCheck(context.Background(), r.deps.DB); err != nil {
			r.logger.Warn("readiness check failed", slog.Any("error", err))
			return false
		}
	}
	return true
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	return r.app.Shutdown()
}
