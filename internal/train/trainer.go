package train

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/saturnino-fabrica-de-software/vigia/internal/gallery"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
)

// imageExtensions are the training image types the pipeline accepts.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Trainer rebuilds the gallery from a directory tree laid out as
// <root>/<identity>/<image files>. Every detected face in a training image
// is enrolled under that directory's identity.
type Trainer struct {
	embedder provider.FaceEmbedder
	store    gallery.Store
	logger   *slog.Logger
}

func NewTrainer(embedder provider.FaceEmbedder, store gallery.Store, logger *slog.Logger) *Trainer {
	return &Trainer{
		embedder: embedder,
		store:    store,
		logger:   logger,
	}
}

// Train walks the immediate subdirectories of root in lexicographic order,
// embeds every image, and replaces the persisted gallery with the result.
// Per-image failures are logged and skipped; they never abort the run.
// Returns the rebuilt gallery and the total number of embeddings enrolled.
func (t *Trainer) Train(ctx context.Context, root string) (*gallery.Gallery, int, error) {
	g := gallery.New()

	entries, err := os.ReadDir(root)
	if err != nil {
		// Missing data tree means an empty gallery, not a failure.
		t.logger.Warn("training data directory unavailable",
			slog.String("root", root),
			slog.Any("error", err),
		)
		entries = nil
	}

	total := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		identity := entry.Name()
		enrolled, err := t.trainIdentity(ctx, g, root, identity)
		if err != nil {
			return nil, 0, err
		}

		t.logger.Info("trained identity",
			slog.String("identity", identity),
			slog.Int("embeddings", enrolled),
		)
		total += enrolled
	}

	if err := t.store.Save(ctx, g); err != nil {
		return nil, 0, fmt.Errorf("save gallery: %w", err)
	}

	t.logger.Info("training complete",
		slog.Int("identities", g.People()),
		slog.Int("embeddings", total),
	)

	return g, total, nil
}

// trainIdentity embeds every image file in one identity directory. The only
// error it returns is context cancellation; everything else is skipped.
func (t *Trainer) trainIdentity(ctx context.Context, g *gallery.Gallery, root, identity string) (int, error) {
	dir := filepath.Join(root, identity)
	files, err := os.ReadDir(dir)
	if err != nil {
		t.logger.Warn("skipping unreadable identity directory",
			slog.String("identity", identity),
			slog.Any("error", err),
		)
		return 0, nil
	}

	enrolled := 0
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("training canceled: %w", err)
		}

		if file.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(file.Name()))] {
			continue
		}

		path := filepath.Join(dir, file.Name())
		image, err := os.ReadFile(path)
		if err != nil {
			t.logger.Warn("skipping unreadable image",
				slog.String("path", path),
				slog.Any("error", err),
			)
			continue
		}

		faces, err := t.embedder.DetectFaces(ctx, image)
		if err != nil {
			t.logger.Warn("skipping image after embedder failure",
				slog.String("path", path),
				slog.Any("error", err),
			)
			continue
		}
		if len(faces) == 0 {
			t.logger.Debug("no faces in training image", slog.String("path", path))
			continue
		}

		// A training image may contain more than one face of the labeled
		// person; every embedding counts toward this identity.
		for _, face := range faces {
			g.Add(identity, face.Embedding)
			enrolled++
		}
	}

	return enrolled, nil
}
