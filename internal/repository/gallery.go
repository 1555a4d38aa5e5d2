package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/gallery"
)

// PgxPool is the subset of pgxpool.Pool the repository needs (compatible
// with pgxmock for tests).
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// GalleryRepository implements gallery.Store on Postgres with pgvector.
// One row per embedding; (identity, position) reproduces the snapshot's
// insertion order. Save replaces the whole table inside one transaction, so
// concurrent loads see either the old gallery or the new one, never a mix.
type GalleryRepository struct {
	pool PgxPool
}

func NewGalleryRepository(pool PgxPool) *GalleryRepository {
	return &GalleryRepository{pool: pool}
}

var _ gallery.Store = (*GalleryRepository)(nil)

func (r *GalleryRepository) Load(ctx context.Context) (*gallery.Gallery, error) {
	query := `
		SELECT identity, embedding
		FROM gallery_faces
		ORDER BY identity, position
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, domain.ErrPersistence.WithError(fmt.Errorf("load gallery: %w", err))
	}
	defer rows.Close()

	g := gallery.New()
	for rows.Next() {
		var identity string
		var vec pgvector.Vector

		if err := rows.Scan(&identity, &vec); err != nil {
			return nil, domain.ErrPersistence.WithError(fmt.Errorf("scan gallery row: %w", err))
		}

		floats := vec.Slice()
		embedding := make(domain.Embedding, len(floats))
		for i, v := range floats {
			embedding[i] = float64(v)
		}
		g.Add(identity, embedding)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.ErrPersistence.WithError(fmt.Errorf("iterate gallery rows: %w", err))
	}

	if g.Empty() {
		return g, domain.ErrGalleryMissing
	}

	return g, nil
}

func (r *GalleryRepository) Save(ctx context.Context, g *gallery.Gallery) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.ErrPersistence.WithError(fmt.Errorf("begin save: %w", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM gallery_faces`); err != nil {
		return domain.ErrPersistence.WithError(fmt.Errorf("clear gallery: %w", err))
	}

	insert := `
		INSERT INTO gallery_faces (identity, position, embedding)
		VALUES ($1, $2, $3)
	`

	for _, identity := range g.Identities() {
		entry, _ := g.Entry(identity)
		for position, embedding := range entry.Embeddings {
			floats := make([]float32, len(embedding))
			for i, v := range embedding {
				floats[i] = float32(v)
			}

			if _, err := tx.Exec(ctx, insert, identity, position, pgvector.NewVector(floats)); err != nil {
				return domain.ErrPersistence.WithError(
					fmt.Errorf("insert embedding %d for %q: %w", position, identity, err))
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ErrPersistence.WithError(fmt.Errorf("commit save: %w", err))
	}

	return nil
}
