package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

const (
	maxImageSize = 10 * 1024 * 1024 // 10MB
)

var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// FaceService interface for the service
type FaceService interface {
	Enroll(ctx context.Context, name string, image []byte) (string, int, error)
	Train(ctx context.Context) (int, error)
	Roster(ctx context.Context) ([]domain.PersonSummary, error)
	Stats(ctx context.Context) (*domain.Stats, error)
	DeletePerson(ctx context.Context, name string) error
}

// FaceHandler handles enrollment and gallery management requests
type FaceHandler struct {
	service FaceService
	logger  *slog.Logger
}

func NewFaceHandler(service FaceService, logger *slog.Logger) *FaceHandler {
	return &FaceHandler{
		service: service,
		logger:  logger,
	}
}

// EnrollResponse response for the enroll endpoint
type EnrollResponse struct {
	Name          string `json:"name"`
	Filename      string `json:"filename"`
	FacesDetected int    `json:"faces_detected"`
}

// TrainResponse response for the train endpoint
type TrainResponse struct {
	Message      string `json:"message"`
	TrainedFaces int    `json:"trained_faces"`
}

// PersonResponse one identity in the roster
type PersonResponse struct {
	Name      string `json:"name"`
	FaceCount int    `json:"face_count"`
}

// RosterResponse response for the people listing
type RosterResponse struct {
	People []PersonResponse `json:"people"`
}

// StatsResponse response for the stats endpoint
type StatsResponse struct {
	TotalPeople int              `json:"total_people"`
	TotalFaces  int              `json:"total_faces"`
	People      []PersonResponse `json:"people"`
}

// Enroll POST /v1/faces - store one labeled face image
func (h *FaceHandler) Enroll(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		return domain.ErrValidationFailed.WithError(errors.New("name is required"))
	}

	imageBytes, err := extractAndValidateImage(c)
	if err != nil {
		return fmt.Errorf("enroll face: %w", err)
	}

	filename, detected, err := h.service.Enroll(c.Context(), name, imageBytes)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(EnrollResponse{
		Name:          name,
		Filename:      filename,
		FacesDetected: detected,
	})
}

// Train POST /v1/train - rebuild the gallery from stored images
func (h *FaceHandler) Train(c *fiber.Ctx) error {
	count, err := h.service.Train(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(TrainResponse{
		Message:      fmt.Sprintf("Training complete: %d faces enrolled", count),
		TrainedFaces: count,
	})
}

// List GET /v1/people - list enrolled identities
func (h *FaceHandler) List(c *fiber.Ctx) error {
	people, err := h.service.Roster(c.Context())
	if err != nil {
		return err
	}

	out := make([]PersonResponse, 0, len(people))
	for _, p := range people {
		out = append(out, PersonResponse{Name: p.Name, FaceCount: p.FaceCount})
	}

	return c.JSON(RosterResponse{People: out})
}

// Delete DELETE /v1/people/:name - remove an identity and its images
func (h *FaceHandler) Delete(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.Params("name"))
	if name == "" {
		return domain.ErrValidationFailed.WithError(errors.New("name is required"))
	}

	if err := h.service.DeletePerson(c.Context(), name); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Stats GET /v1/stats - aggregate gallery statistics
func (h *FaceHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.Context())
	if err != nil {
		return err
	}

	people := make([]PersonResponse, 0, len(stats.People))
	for _, p := range stats.People {
		people = append(people, PersonResponse{Name: p.Name, FaceCount: p.FaceCount})
	}

	return c.JSON(StatsResponse{
		TotalPeople: stats.TotalPeople,
		TotalFaces:  stats.TotalFaces,
		People:      people,
	})
}

// extractAndValidateImage extracts and validates the image from the form
func extractAndValidateImage(c *fiber.Ctx) ([]byte, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(err)
	}

	if file.Size > maxImageSize {
		return nil, domain.ErrInvalidImage.WithError(nil)
	}

	if file.Size == 0 {
		return nil, domain.ErrInvalidImage.WithError(nil)
	}

	contentType := file.Header.Get("Content-Type")
	if !validImageTypes[contentType] {
		return nil, domain.ErrInvalidImage.WithError(nil)
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	imageBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	return imageBytes, nil
}
