package gallery

import (
	"math"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// DefaultTolerance is the maximum euclidean distance for an accepted match.
// 0.6 is the common default for 128-d face embeddings; 0.5 trades recall
// for accuracy.
const DefaultTolerance = 0.5

// Recognize finds the enrolled embedding closest to query and derives a
// bounded confidence from the distance. Pure function: repeated calls with
// the same inputs return the same result.
//
// Ties on the minimum distance resolve to the first embedding seen, walking
// identities in gallery insertion order and embeddings in enrollment order.
func Recognize(query domain.Embedding, g *Gallery, tolerance float64) domain.MatchResult {
	if g == nil || g.Empty() {
		return domain.MatchResult{
			Matched:    false,
			Identity:   domain.UnknownIdentity,
			Confidence: 0.0,
			Untrained:  true,
		}
	}

	best := math.Inf(1)
	bestIdentity := domain.UnknownIdentity

	for _, identity := range g.order {
		for _, candidate := range g.entries[identity].Embeddings {
			if d := euclideanDistance(query, candidate); d < best {
				best = d
				bestIdentity = identity
			}
		}
	}

	if best < tolerance {
		return domain.MatchResult{
			Matched:    true,
			Identity:   bestIdentity,
			Confidence: 1 - best/tolerance,
			Distance:   best,
		}
	}

	confidence := 0.0
	if best < 1.0 {
		confidence = math.Max(0, 1-best/tolerance)
	}

	return domain.MatchResult{
		Matched:    false,
		Identity:   domain.UnknownIdentity,
		Confidence: confidence,
		Distance:   best,
	}
}

// euclideanDistance between two embeddings. Lower means more similar.
func euclideanDistance(a, b domain.Embedding) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
