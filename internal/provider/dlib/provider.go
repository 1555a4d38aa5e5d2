package dlib

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
)

// Provider implements provider.FaceEmbedder against a dlib-serving sidecar.
// The sidecar wraps the face_recognition model and returns one box plus one
// 128-d embedding per detected face.
type Provider struct {
	client *Client
}

// NewProvider creates a new dlib provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

// DetectFaces locates faces in the image and returns their embeddings
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	imageBase64 := base64.StdEncoding.EncodeToString(image)

	resp, err := p.client.Encode(ctx, imageBase64)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		if len(result.Embedding) != domain.EmbeddingDim {
			return nil, fmt.Errorf("%w: got %d, want %d",
				ErrBadEmbeddingLength, len(result.Embedding), domain.EmbeddingDim)
		}

		faces = append(faces, provider.DetectedFace{
			Box: provider.BoundingBox{
				Top:    result.Box.Top,
				Right:  result.Box.Right,
				Bottom: result.Box.Bottom,
				Left:   result.Box.Left,
			},
			Embedding: domain.Embedding(result.Embedding),
		})
	}

	return faces, nil
}

var _ provider.FaceEmbedder = (*Provider)(nil)
