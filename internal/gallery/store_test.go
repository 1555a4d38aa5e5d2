package gallery

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

func sequenceEmbedding(seed float64) domain.Embedding {
	e := make(domain.Embedding, domain.EmbeddingDim)
	for i := range e {
		e[i] = seed + float64(i)/1000
	}
	return e
}

func TestFileStore_LoadMissingSnapshot(t *testing.T) {
	store := NewFileStore(t.TempDir())

	g, err := store.Load(context.Background())

	require.ErrorIs(t, err, domain.ErrGalleryMissing)
	require.NotNil(t, g, "callers proceed with an empty gallery")
	assert.True(t, g.Empty())
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())

	g := New()
	g.Add("maria", sequenceEmbedding(0.1))
	g.Add("maria", sequenceEmbedding(0.2))
	g.Add("maria", sequenceEmbedding(0.3))
	g.Add("joao", sequenceEmbedding(0.4))
	g.Add("joao", sequenceEmbedding(0.5))

	require.NoError(t, store.Save(context.Background(), g))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"maria", "joao"}, loaded.Identities(), "identity order survives the round trip")
	assert.Equal(t, 5, loaded.Size())

	for _, identity := range g.Identities() {
		want, _ := g.Entry(identity)
		got, ok := loaded.Entry(identity)
		require.True(t, ok)
		assert.Equal(t, want.Embeddings, got.Embeddings)
	}
}

func TestFileStore_SaveIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	g := New()
	g.Add("alice", sequenceEmbedding(0.1))
	g.Add("bob", sequenceEmbedding(0.2))

	require.NoError(t, store.Save(context.Background(), g))
	first, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), g))
	second, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, strings.Index(string(first), "alice") < strings.Index(string(first), "bob"))
}

func TestFileStore_SaveEmptyGallery(t *testing.T) {
	store := NewFileStore(t.TempDir())

	require.NoError(t, store.Save(context.Background(), New()))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, loaded.Empty())
}

func TestFileStore_LoadRejectsWrongDimension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, SnapshotFile)
	require.NoError(t, os.WriteFile(path, []byte(`{"alice": [[1.0, 2.0]]}`), 0o644))

	_, err := NewFileStore(dir).Load(context.Background())

	require.ErrorIs(t, err, domain.ErrPersistence)
}

func TestFileStore_LoadRejectsCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, SnapshotFile)
	require.NoError(t, os.WriteFile(path, []byte(`{"alice": [[`), 0o644))

	_, err := NewFileStore(dir).Load(context.Background())

	require.ErrorIs(t, err, domain.ErrPersistence)
}

func TestGallery_AddPreservesOrder(t *testing.T) {
	g := New()
	g.Add("carla", sequenceEmbedding(0.1))
	g.Add("ana", sequenceEmbedding(0.2))
	g.Add("carla", sequenceEmbedding(0.3))

	assert.Equal(t, []string{"carla", "ana"}, g.Identities())
	assert.Equal(t, 2, g.People())
	assert.Equal(t, 3, g.Size())

	entry, ok := g.Entry("carla")
	require.True(t, ok)
	assert.Len(t, entry.Embeddings, 2)
}
