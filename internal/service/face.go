package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/gallery"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
)

// Trainer rebuilds the gallery from the enrollment image tree.
type Trainer interface {
	Train(ctx context.Context, root string) (*gallery.Gallery, int, error)
}

// FaceService owns the enrollment image tree and the published gallery
// snapshot. Readers call Gallery()/Recognize() lock-free against the
// current snapshot; Train swaps in a fresh gallery atomically after the
// store has persisted it.
type FaceService struct {
	dataDir   string
	embedder  provider.FaceEmbedder
	store     gallery.Store
	trainer   Trainer
	logger    *slog.Logger
	tolerance float64

	current atomic.Pointer[gallery.Gallery]
	trainMu sync.Mutex
}

func NewFaceService(
	dataDir string,
	embedder provider.FaceEmbedder,
	store gallery.Store,
	trainer Trainer,
	logger *slog.Logger,
) *FaceService {
	s := &FaceService{
		dataDir:   dataDir,
		embedder:  embedder,
		store:     store,
		trainer:   trainer,
		logger:    logger,
		tolerance: gallery.DefaultTolerance,
	}
	s.current.Store(gallery.New())
	return s
}

func (s *FaceService) WithTolerance(tolerance float64) *FaceService {
	s.tolerance = tolerance
	return s
}

// LoadGallery publishes the persisted snapshot. A missing snapshot is not
// fatal: the service starts untrained with an empty gallery.
func (s *FaceService) LoadGallery(ctx context.Context) error {
	g, err := s.store.Load(ctx)
	if errors.Is(err, domain.ErrGalleryMissing) {
		s.logger.Info("no gallery snapshot found, starting untrained")
		s.current.Store(gallery.New())
		return nil
	}
	if err != nil {
		return fmt.Errorf("load gallery: %w", err)
	}

	s.current.Store(g)
	s.logger.Info("gallery loaded",
		slog.Int("identities", g.People()),
		slog.Int("embeddings", g.Size()),
	)
	return nil
}

// Gallery returns the currently published snapshot.
func (s *FaceService) Gallery() *gallery.Gallery {
	return s.current.Load()
}

// Tolerance returns the configured matching tolerance.
func (s *FaceService) Tolerance() float64 {
	return s.tolerance
}

// Recognize matches one query embedding against the current snapshot.
func (s *FaceService) Recognize(embedding domain.Embedding) domain.MatchResult {
	return gallery.Recognize(embedding, s.current.Load(), s.tolerance)
}

// Enroll stores one labeled face image in the enrollment tree. The image
// must contain at least one detectable face. Returns the stored filename
// and how many faces were detected.
func (s *FaceService) Enroll(ctx context.Context, name string, image []byte) (string, int, error) {
	name, err := sanitizeName(name)
	if err != nil {
		return "", 0, err
	}

	faces, err := s.embedder.DetectFaces(ctx, image)
	if err != nil {
		return "", 0, fmt.Errorf("enroll %q: detect faces: %w", name, err)
	}
	if len(faces) == 0 {
		return "", 0, domain.ErrNoFaceDetected
	}

	personDir := filepath.Join(s.dataDir, name)
	if err := os.MkdirAll(personDir, 0o755); err != nil {
		return "", 0, domain.ErrPersistence.WithError(fmt.Errorf("create person dir: %w", err))
	}

	filename := fmt.Sprintf("%s_%s.jpg", name, time.Now().Format("20060102_150405"))
	if err := os.WriteFile(filepath.Join(personDir, filename), image, 0o644); err != nil {
		return "", 0, domain.ErrPersistence.WithError(fmt.Errorf("store image: %w", err))
	}

	s.logger.Info("face enrolled",
		slog.String("name", name),
		slog.String("filename", filename),
		slog.Int("faces_detected", len(faces)),
	)

	return filename, len(faces), nil
}

// Train rebuilds the gallery from the enrollment tree and publishes the
// result. Retrains are serialized; recognition keeps reading the previous
// snapshot until the new one is stored.
func (s *FaceService) Train(ctx context.Context) (int, error) {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	g, count, err := s.trainer.Train(ctx, s.dataDir)
	if err != nil {
		return 0, domain.ErrTrainingFailed.WithError(err)
	}

	s.current.Store(g)
	return count, nil
}

// Roster lists every identity with at least one stored image.
func (s *FaceService) Roster(ctx context.Context) ([]domain.PersonSummary, error) {
	people, err := s.scanDataDir()
	if err != nil {
		return nil, err
	}

	roster := make([]domain.PersonSummary, 0, len(people))
	for _, p := range people {
		if p.FaceCount > 0 {
			roster = append(roster, p)
		}
	}
	return roster, nil
}

// Stats aggregates the whole enrollment tree, including identities whose
// directories are currently empty.
func (s *FaceService) Stats(ctx context.Context) (*domain.Stats, error) {
	people, err := s.scanDataDir()
	if err != nil {
		return nil, err
	}

	stats := &domain.Stats{
		TotalPeople: len(people),
		People:      people,
	}
	for _, p := range people {
		stats.TotalFaces += p.FaceCount
	}
	return stats, nil
}

// DeletePerson removes every stored image for one identity and retrains so
// the embeddings disappear from recognition as well.
func (s *FaceService) DeletePerson(ctx context.Context, name string) error {
	name, err := sanitizeName(name)
	if err != nil {
		return err
	}

	personDir := filepath.Join(s.dataDir, name)
	if _, err := os.Stat(personDir); err != nil {
		return domain.ErrPersonNotFound
	}

	if err := os.RemoveAll(personDir); err != nil {
		return domain.ErrPersistence.WithError(fmt.Errorf("delete person dir: %w", err))
	}

	s.logger.Info("person deleted", slog.String("name", name))

	if _, err := s.Train(ctx); err != nil {
		return err
	}
	return nil
}

// DataDir exposes the enrollment tree root for capture sessions.
func (s *FaceService) DataDir() string {
	return s.dataDir
}

func (s *FaceService) scanDataDir() ([]domain.PersonSummary, error) {
	entries, err := os.ReadDir(s.dataDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.ErrPersistence.WithError(fmt.Errorf("read data dir: %w", err))
	}

	people := make([]domain.PersonSummary, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		files, err := os.ReadDir(filepath.Join(s.dataDir, entry.Name()))
		if err != nil {
			s.logger.Warn("skipping unreadable person directory",
				slog.String("name", entry.Name()),
				slog.Any("error", err),
			)
			continue
		}

		count := 0
		for _, f := range files {
			ext := strings.ToLower(filepath.Ext(f.Name()))
			if !f.IsDir() && (ext == ".jpg" || ext == ".jpeg" || ext == ".png") {
				count++
			}
		}

		people = append(people, domain.PersonSummary{
			Name:      entry.Name(),
			FaceCount: count,
		})
	}

	return people, nil
}

// sanitizeName keeps identity labels usable as directory names.
func sanitizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrValidationFailed.WithError(errors.New("name is required"))
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", domain.ErrValidationFailed.WithError(fmt.Errorf("invalid name %q", name))
	}
	return name, nil
}
