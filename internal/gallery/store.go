package gallery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// SnapshotFile is the name of the persisted gallery snapshot.
const SnapshotFile = "encodings.json"

// Store abstracts gallery persistence. Save replaces the persisted snapshot
// wholesale; Load on a missing snapshot returns an empty gallery together
// with domain.ErrGalleryMissing so callers can proceed untrained.
type Store interface {
	Load(ctx context.Context) (*Gallery, error)
	Save(ctx context.Context, g *Gallery) error
}

// FileStore persists the gallery as a single JSON document mapping identity
// to its list of embeddings. The document keeps identities in gallery order
// so snapshots are deterministic and human-diffable.
type FileStore struct {
	path string
}

// NewFileStore creates a store rooted at modelsDir.
func NewFileStore(modelsDir string) *FileStore {
	return &FileStore{path: filepath.Join(modelsDir, SnapshotFile)}
}

// Path returns the snapshot file location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(ctx context.Context) (*Gallery, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), domain.ErrGalleryMissing
	}
	if err != nil {
		return nil, domain.ErrPersistence.WithError(fmt.Errorf("read snapshot: %w", err))
	}

	g, err := decodeSnapshot(data)
	if err != nil {
		return nil, domain.ErrPersistence.WithError(err)
	}
	return g, nil
}

func (s *FileStore) Save(ctx context.Context, g *Gallery) error {
	data, err := encodeSnapshot(g)
	if err != nil {
		return domain.ErrPersistence.WithError(err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return domain.ErrPersistence.WithError(fmt.Errorf("create models dir: %w", err))
	}

	// Write-then-rename so readers never observe a partial snapshot.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), SnapshotFile+".*")
	if err != nil {
		return domain.ErrPersistence.WithError(fmt.Errorf("create temp snapshot: %w", err))
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return domain.ErrPersistence.WithError(fmt.Errorf("write snapshot: %w", err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return domain.ErrPersistence.WithError(fmt.Errorf("close snapshot: %w", err))
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return domain.ErrPersistence.WithError(fmt.Errorf("publish snapshot: %w", err))
	}

	return nil
}

// encodeSnapshot marshals the gallery as a JSON object with identities in
// insertion order. encoding/json maps would scramble key order, so the
// object is assembled by hand from per-entry marshals.
func encodeSnapshot(g *Gallery) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")

	for i, identity := range g.order {
		key, err := json.Marshal(identity)
		if err != nil {
			return nil, fmt.Errorf("marshal identity %q: %w", identity, err)
		}
		val, err := json.Marshal(g.entries[identity].Embeddings)
		if err != nil {
			return nil, fmt.Errorf("marshal embeddings for %q: %w", identity, err)
		}

		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(val)
		if i < len(g.order)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}

	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// decodeSnapshot parses the snapshot with a token-level decoder so the
// document's identity order becomes the gallery's insertion order.
func decodeSnapshot(data []byte) (*Gallery, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("decode snapshot: expected object, got %v", tok)
	}

	g := New()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode snapshot key: %w", err)
		}
		identity, ok := keyTok.(string)
		if !ok || identity == "" {
			return nil, fmt.Errorf("decode snapshot: invalid identity key %v", keyTok)
		}

		var embeddings []domain.Embedding
		if err := dec.Decode(&embeddings); err != nil {
			return nil, fmt.Errorf("decode embeddings for %q: %w", identity, err)
		}

		for _, e := range embeddings {
			if len(e) != domain.EmbeddingDim {
				return nil, fmt.Errorf("embedding for %q has %d dimensions, want %d",
					identity, len(e), domain.EmbeddingDim)
			}
			g.Add(identity, e)
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode snapshot end: %w", err)
	}

	return g, nil
}
