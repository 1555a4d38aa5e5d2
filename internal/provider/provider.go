package provider

import (
	"context"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// FaceEmbedder define a interface para o colaborador externo que localiza
// faces e produz embeddings. A implementação (sidecar dlib, mock) fica fora
// do núcleo de matching.
type FaceEmbedder interface {
	// DetectFaces localiza todas as faces na imagem codificada (JPEG/PNG)
	// e retorna, para cada uma, a região e o embedding de 128 dimensões.
	// Uma imagem sem faces retorna uma lista vazia, não um erro.
	DetectFaces(ctx context.Context, image []byte) ([]DetectedFace, error)
}

// DetectedFace represents one detected face region plus its embedding.
type DetectedFace struct {
	Box       BoundingBox      `json:"box"`
	Embedding domain.Embedding `json:"-"`
}

// BoundingBox is the face area in pixel coordinates, following the
// (top, right, bottom, left) convention of the upstream detector.
type BoundingBox struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// Width returns the horizontal extent of the box.
func (b BoundingBox) Width() int { return b.Right - b.Left }

// Height returns the vertical extent of the box.
func (b BoundingBox) Height() int { return b.Bottom - b.Top }
