package gallery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// embeddingAt returns a 128-d embedding whose distance to embeddingAt(0) is
// exactly |v| (single non-zero component).
func embeddingAt(v float64) domain.Embedding {
	e := make(domain.Embedding, domain.EmbeddingDim)
	e[0] = v
	return e
}

func TestRecognize_ExactMatch(t *testing.T) {
	g := New()
	g.Add("alice", embeddingAt(0))

	result := Recognize(embeddingAt(0), g, 0.5)

	assert.True(t, result.Matched)
	assert.Equal(t, "alice", result.Identity)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, 0.0, result.Distance)
	assert.False(t, result.Untrained)
}

func TestRecognize_ConfidenceScalesWithDistance(t *testing.T) {
	g := New()
	g.Add("alice", embeddingAt(0))

	result := Recognize(embeddingAt(0.25), g, 0.5)

	assert.True(t, result.Matched)
	assert.InDelta(t, 0.5, result.Confidence, 1e-9)
	assert.InDelta(t, 0.25, result.Distance, 1e-9)
}

func TestRecognize_DistanceEqualToToleranceIsNoMatch(t *testing.T) {
	g := New()
	g.Add("alice", embeddingAt(0))

	// Strict inequality: d == tolerance must not match.
	result := Recognize(embeddingAt(0.5), g, 0.5)

	assert.False(t, result.Matched)
	assert.Equal(t, domain.UnknownIdentity, result.Identity)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestRecognize_DistanceBetweenToleranceAndOne(t *testing.T) {
	g := New()
	g.Add("alice", embeddingAt(0))

	result := Recognize(embeddingAt(0.8), g, 0.5)

	assert.False(t, result.Matched)
	assert.Equal(t, domain.UnknownIdentity, result.Identity)
	// 1 - 0.8/0.5 is negative, clamped at zero.
	assert.Equal(t, 0.0, result.Confidence)
	assert.InDelta(t, 0.8, result.Distance, 1e-9)
}

func TestRecognize_DistanceAtLeastOneHasZeroConfidence(t *testing.T) {
	g := New()
	g.Add("alice", embeddingAt(0))

	for _, tolerance := range []float64{0.5, 2.0, 10.0} {
		result := Recognize(embeddingAt(1.0), g, tolerance)
		if tolerance > 1.0 {
			// Still a match under a loose tolerance, but the clamp only
			// applies to the non-match branch.
			assert.True(t, result.Matched)
			continue
		}
		assert.False(t, result.Matched)
		assert.Equal(t, 0.0, result.Confidence)
	}
}

func TestRecognize_EmptyGallery(t *testing.T) {
	result := Recognize(embeddingAt(0), New(), 0.5)

	assert.False(t, result.Matched)
	assert.Equal(t, domain.UnknownIdentity, result.Identity)
	assert.Equal(t, 0.0, result.Confidence)
	assert.True(t, result.Untrained, "empty gallery must be distinguishable from a plain non-match")
}

func TestRecognize_TieBreaksOnInsertionOrder(t *testing.T) {
	g := New()
	g.Add("alice", embeddingAt(0.1))
	g.Add("bob", embeddingAt(0.1)) // same distance to the query

	result := Recognize(embeddingAt(0.1), g, 0.5)

	require.True(t, result.Matched)
	assert.Equal(t, "alice", result.Identity)
}

func TestRecognize_PicksGlobalMinimumAcrossEntries(t *testing.T) {
	g := New()
	g.Add("alice", embeddingAt(0.4))
	g.Add("bob", embeddingAt(0.3))
	g.Add("bob", embeddingAt(0.45))

	result := Recognize(embeddingAt(0.29), g, 0.5)

	require.True(t, result.Matched)
	assert.Equal(t, "bob", result.Identity)
	assert.InDelta(t, 0.01, result.Distance, 1e-9)
}

func TestRecognize_Deterministic(t *testing.T) {
	g := New()
	g.Add("alice", embeddingAt(0.2))
	g.Add("bob", embeddingAt(0.7))
	query := embeddingAt(0.31)

	first := Recognize(query, g, 0.5)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Recognize(query, g, 0.5))
	}
}
