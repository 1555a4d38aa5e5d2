package ws

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/saturnino-fabrica-de-software/vigia/internal/capture"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
	"github.com/saturnino-fabrica-de-software/vigia/internal/service"
)

// Handler upgrades websocket connections and runs one capture session per
// connection: the client streams frames in, annotated events stream out.
type Handler struct {
	faces    *service.FaceService
	embedder provider.FaceEmbedder
	logger   *slog.Logger
}

func NewHandler(faces *service.FaceService, embedder provider.FaceEmbedder, logger *slog.Logger) *Handler {
	return &Handler{
		faces:    faces,
		embedder: embedder,
		logger:   logger,
	}
}

func (h *Handler) Preview() fiber.Handler {
	return h.stream(func(*websocket.Conn) capture.Options {
		return capture.Options{Mode: capture.ModePreview}
	})
}

func (h *Handler) Recognize() fiber.Handler {
	return h.stream(func(*websocket.Conn) capture.Options {
		return capture.Options{Mode: capture.ModeRecognition}
	})
}

func (h *Handler) Capture() fiber.Handler {
	return h.stream(func(c *websocket.Conn) capture.Options {
		return capture.Options{
			Mode:        capture.ModeAutoCapture,
			PersonLabel: strings.TrimSpace(c.Query("name")),
			DataDir:     h.faces.DataDir(),
		}
	})
}

func (h *Handler) stream(optionsFor func(*websocket.Conn) capture.Options) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		client := NewClient(c)
		go client.WritePump()
		defer client.Shutdown()

		session, err := capture.NewSession(optionsFor(c), h.embedder, h.faces, client.Emit, h.logger)
		if err != nil {
			h.logger.Warn("rejecting capture session", slog.Any("error", err))
			client.Emit(capture.Event{
				Type:    capture.EventError,
				Message: err.Error(),
			})
			return
		}

		session.Run(context.Background(), &connSource{conn: c})
	})
}

func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}
