package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vigia/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// MockFaceService is a mock implementation of FaceService
type MockFaceService struct {
	mock.Mock
}

func (m *MockFaceService) Enroll(ctx context.Context, name string, image []byte) (string, int, error) {
	args := m.Called(ctx, name, image)
	return args.String(0), args.Int(1), args.Error(2)
}

func (m *MockFaceService) Train(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockFaceService) Roster(ctx context.Context) ([]domain.PersonSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PersonSummary), args.Error(1)
}

func (m *MockFaceService) Stats(ctx context.Context) (*domain.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Stats), args.Error(1)
}

func (m *MockFaceService) DeletePerson(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// testLogger returns a logger that discards all output
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Helper to create multipart request
func createMultipartRequest(name string, imageContent []byte, contentType string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if name != "" {
		_ = writer.WriteField("name", name)
	}

	if imageContent != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="test.jpg"`)
		h.Set("Content-Type", contentType)

		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		_, _ = part.Write(imageContent)
	}

	_ = writer.Close()
	return body, writer.FormDataContentType(), nil
}

func createTestApp(h *FaceHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(testLogger()),
	})

	app.Post("/v1/faces", h.Enroll)
	app.Post("/v1/train", h.Train)
	app.Get("/v1/people", h.List)
	app.Delete("/v1/people/:name", h.Delete)
	app.Get("/v1/stats", h.Stats)

	return app
}

func TestFaceHandler_Enroll(t *testing.T) {
	service := new(MockFaceService)
	service.On("Enroll", mock.Anything, "alice", mock.Anything).
		Return("alice_20250601_120000.jpg", 1, nil)

	app := createTestApp(NewFaceHandler(service, testLogger()))

	body, contentType, err := createMultipartRequest("alice", []byte("fake-jpeg"), "image/jpeg")
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/v1/faces", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var result EnrollResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "alice", result.Name)
	assert.Equal(t, "alice_20250601_120000.jpg", result.Filename)
	assert.Equal(t, 1, result.FacesDetected)

	service.AssertExpectations(t)
}

func TestFaceHandler_Enroll_MissingName(t *testing.T) {
	service := new(MockFaceService)
	app := createTestApp(NewFaceHandler(service, testLogger()))

	body, contentType, err := createMultipartRequest("", []byte("fake-jpeg"), "image/jpeg")
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/v1/faces", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, domain.ErrValidationFailed.StatusCode, resp.StatusCode)

	service.AssertNotCalled(t, "Enroll")
}

func TestFaceHandler_Enroll_MissingImage(t *testing.T) {
	service := new(MockFaceService)
	app := createTestApp(NewFaceHandler(service, testLogger()))

	body, contentType, err := createMultipartRequest("alice", nil, "")
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/v1/faces", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, domain.ErrValidationFailed.StatusCode, resp.StatusCode)
}

func TestFaceHandler_Enroll_InvalidContentType(t *testing.T) {
	service := new(MockFaceService)
	app := createTestApp(NewFaceHandler(service, testLogger()))

	body, contentType, err := createMultipartRequest("alice", []byte("plain text"), "text/plain")
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/v1/faces", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, domain.ErrInvalidImage.StatusCode, resp.StatusCode)
}

func TestFaceHandler_Enroll_NoFaceDetected(t *testing.T) {
	service := new(MockFaceService)
	service.On("Enroll", mock.Anything, "alice", mock.Anything).
		Return("", 0, domain.ErrNoFaceDetected)

	app := createTestApp(NewFaceHandler(service, testLogger()))

	body, contentType, err := createMultipartRequest("alice", []byte("fake-jpeg"), "image/jpeg")
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/v1/faces", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, domain.ErrNoFaceDetected.StatusCode, resp.StatusCode)

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, domain.ErrNoFaceDetected.Code, envelope.Error.Code)
}

func TestFaceHandler_Train(t *testing.T) {
	service := new(MockFaceService)
	service.On("Train", mock.Anything).Return(12, nil)

	app := createTestApp(NewFaceHandler(service, testLogger()))

	resp, err := app.Test(httptest.NewRequest("POST", "/v1/train", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result TrainResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, 12, result.TrainedFaces)

	service.AssertExpectations(t)
}

func TestFaceHandler_List(t *testing.T) {
	service := new(MockFaceService)
	service.On("Roster", mock.Anything).Return([]domain.PersonSummary{
		{Name: "alice", FaceCount: 3},
		{Name: "bob", FaceCount: 1},
	}, nil)

	app := createTestApp(NewFaceHandler(service, testLogger()))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/people", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result RosterResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Len(t, result.People, 2)
	assert.Equal(t, "alice", result.People[0].Name)
	assert.Equal(t, 3, result.People[0].FaceCount)
}

func TestFaceHandler_Delete(t *testing.T) {
	service := new(MockFaceService)
	service.On("DeletePerson", mock.Anything, "alice").Return(nil)

	app := createTestApp(NewFaceHandler(service, testLogger()))

	resp, err := app.Test(httptest.NewRequest("DELETE", "/v1/people/alice", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	service.AssertExpectations(t)
}

func TestFaceHandler_Delete_NotFound(t *testing.T) {
	service := new(MockFaceService)
	service.On("DeletePerson", mock.Anything, "nobody").Return(domain.ErrPersonNotFound)

	app := createTestApp(NewFaceHandler(service, testLogger()))

	resp, err := app.Test(httptest.NewRequest("DELETE", "/v1/people/nobody", nil))
	require.NoError(t, err)
	assert.Equal(t, domain.ErrPersonNotFound.StatusCode, resp.StatusCode)
}

func TestFaceHandler_Stats(t *testing.T) {
	service := new(MockFaceService)
	service.On("Stats", mock.Anything).Return(&domain.Stats{
		TotalPeople: 2,
		TotalFaces:  4,
		People: []domain.PersonSummary{
			{Name: "alice", FaceCount: 3},
			{Name: "empty", FaceCount: 0},
		},
	}, nil)

	app := createTestApp(NewFaceHandler(service, testLogger()))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/stats", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result StatsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, 2, result.TotalPeople)
	assert.Equal(t, 4, result.TotalFaces)
	assert.Len(t, result.People, 2)
}
