package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// EnrollFaceResponse represents the response for a successful enrollment
type EnrollFaceResponse struct {
	Name          string `json:"name" example:"alice"`
	Filename      string `json:"filename" example:"alice_20250601_120000.jpg"`
	FacesDetected int    `json:"faces_detected" example:"1"`
}

// TrainGalleryResponse represents the response for a training run
type TrainGalleryResponse struct {
	Message      string `json:"message" example:"Training complete: 12 faces enrolled"`
	TrainedFaces int    `json:"trained_faces" example:"12"`
}

// PersonData represents one enrolled identity
type PersonData struct {
	Name      string `json:"name" example:"alice"`
	FaceCount int    `json:"face_count" example:"3"`
}

// PeopleListResponse wraps the roster listing
type PeopleListResponse struct {
	People []PersonData `json:"people"`
}

// GalleryStatsResponse represents aggregate gallery statistics
type GalleryStatsResponse struct {
	TotalPeople int          `json:"total_people" example:"5"`
	TotalFaces  int          `json:"total_faces" example:"17"`
	People      []PersonData `json:"people"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Vigia Face Recognition API",
		Version:     "v1.0.0",
		Description: "Face gallery and real-time recognition service: enrollment, training and streaming capture over websockets",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /v1/faces - Enroll Face
		endpoint.New(
			endpoint.POST,
			"/faces",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Enroll a face image for a person"),
			endpoint.WithDescription("Stores one labeled face image in the enrollment tree. The image must contain at least one detectable face. Run training afterwards to update the gallery."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EnrollFaceResponse{}, "201", "Face enrolled successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Invalid request"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "No face detected in image"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// POST /v1/train - Train Gallery
		endpoint.New(
			endpoint.POST,
			"/train",
			endpoint.WithTags("Gallery"),
			endpoint.WithSummary("Rebuild the gallery from stored images"),
			endpoint.WithDescription("Re-encodes every stored enrollment image and atomically publishes the new gallery. Recognition keeps using the previous gallery until training finishes."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(TrainGalleryResponse{}, "200", "Training completed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "TRAINING_FAILED", Message: "Training failed"}, "500", "Internal Server Error"),
			}),
		),

		// GET /v1/people - List People
		endpoint.New(
			endpoint.GET,
			"/people",
			endpoint.WithTags("Gallery"),
			endpoint.WithSummary("List enrolled people"),
			endpoint.WithDescription("Lists every identity with at least one stored enrollment image."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(PeopleListResponse{}, "200", "Roster listed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// DELETE /v1/people/:name - Delete Person
		endpoint.New(
			endpoint.DELETE,
			"/people/{name}",
			endpoint.WithTags("Gallery"),
			endpoint.WithSummary("Delete a person"),
			endpoint.WithDescription("Removes every stored image for the identity and retrains so the embeddings leave the gallery."),
			endpoint.WithParams(
				parameter.StrParam("name", parameter.Path, parameter.WithRequired()),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Person deleted"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "PERSON_NOT_FOUND", Message: "Person not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// GET /v1/stats - Gallery Stats
		endpoint.New(
			endpoint.GET,
			"/stats",
			endpoint.WithTags("Gallery"),
			endpoint.WithSummary("Gallery statistics"),
			endpoint.WithDescription("Aggregates the enrollment tree, including identities whose directories are currently empty."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(GalleryStatsResponse{}, "200", "Statistics computed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
