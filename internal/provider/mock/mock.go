package mock

import (
	"context"
	"crypto/sha256"
	"math"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
)

// minImageSize separates "an image" from garbage bytes; anything smaller is
// treated as containing no face, which makes training skip-paths testable.
const minImageSize = 1000

// Provider implementa provider.FaceEmbedder para testes e desenvolvimento.
// O embedding é derivado do hash da imagem, então a mesma imagem sempre
// produz o mesmo vetor.
type Provider struct{}

// New cria uma nova instância do provider mock.
func New() *Provider {
	return &Provider{}
}

// DetectFaces reports a single centered face for any plausible image and
// none for inputs below minImageSize.
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	if len(image) == 0 {
		return nil, domain.ErrInvalidImage
	}
	if len(image) < minImageSize {
		return []provider.DetectedFace{}, nil
	}

	return []provider.DetectedFace{
		{
			Box: provider.BoundingBox{
				Top:    48,
				Right:  592,
				Bottom: 432,
				Left:   64,
			},
			Embedding: generateEmbedding(image),
		},
	}, nil
}

// generateEmbedding gera embedding determinístico baseado no hash da imagem
func generateEmbedding(image []byte) domain.Embedding {
	hash := sha256.Sum256(image)
	embedding := make(domain.Embedding, domain.EmbeddingDim)
	hashLen := len(hash)

	for i := 0; i < domain.EmbeddingDim; i++ {
		idx := i % hashLen
		embedding[i] = (float64(hash[idx])/255.0)*2 - 1
	}

	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	for i := range embedding {
		embedding[i] /= norm
	}

	return embedding
}

var _ provider.FaceEmbedder = (*Provider)(nil)
