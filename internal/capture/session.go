package capture

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
)

type Mode string

const (
	// ModePreview only detects and annotates; nothing is matched or stored.
	ModePreview Mode = "preview"
	// ModeRecognition matches detected faces against the published gallery.
	ModeRecognition Mode = "recognition"
	// ModeAutoCapture stores frames for one person whenever a face dwells
	// in roughly the same position long enough.
	ModeAutoCapture Mode = "auto_capture"
)

const (
	defaultDetectEvery   = 2
	defaultDwellInterval = 500 * time.Millisecond
	defaultEmitInterval  = 33 * time.Millisecond

	// keyQuantum coarsens bounding boxes into spatial buckets so small
	// frame-to-frame jitter still counts as the same face position.
	keyQuantum = 16
)

// Recognizer matches one embedding against the current gallery snapshot.
type Recognizer interface {
	Recognize(embedding domain.Embedding) domain.MatchResult
}

// Options configures one capture session.
type Options struct {
	Mode Mode

	// PersonLabel and DataDir are required in auto-capture mode: stored
	// frames land in <DataDir>/<PersonLabel>/.
	PersonLabel string
	DataDir     string

	// DetectEvery is the recognition cadence in frames; skipped frames
	// reuse the previous detection's annotations.
	DetectEvery int

	DwellInterval time.Duration

	// EmitInterval throttles outward emission; zero means the default and a
	// negative value disables the throttle.
	EmitInterval time.Duration
}

type faceKey struct {
	top, right, bottom, left int
}

func keyFor(box provider.BoundingBox) faceKey {
	return faceKey{
		top:    box.Top / keyQuantum,
		right:  box.Right / keyQuantum,
		bottom: box.Bottom / keyQuantum,
		left:   box.Left / keyQuantum,
	}
}

// Session runs one streaming capture loop over a FrameSource. It owns the
// source for its whole lifetime: the source is closed exactly once and the
// event stream always ends with exactly one complete event, whatever the
// exit path.
type Session struct {
	id         uuid.UUID
	opts       Options
	embedder   provider.FaceEmbedder
	recognizer Recognizer
	emit       func(Event)
	logger     *slog.Logger

	// Injetáveis para os testes controlarem o tempo.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	frameCount  int
	captured    int
	lastFaces   []FaceAnnotation
	lastCapture map[faceKey]time.Time
}

func NewSession(
	opts Options,
	embedder provider.FaceEmbedder,
	recognizer Recognizer,
	emit func(Event),
	logger *slog.Logger,
) (*Session, error) {
	if opts.Mode == "" {
		opts.Mode = ModePreview
	}
	if opts.Mode == ModeRecognition && recognizer == nil {
		return nil, domain.ErrValidationFailed.WithError(errors.New("recognition mode requires a recognizer"))
	}
	if opts.Mode == ModeAutoCapture {
		if opts.PersonLabel == "" {
			return nil, domain.ErrValidationFailed.WithError(errors.New("auto-capture requires a person label"))
		}
		if opts.DataDir == "" {
			return nil, domain.ErrValidationFailed.WithError(errors.New("auto-capture requires a data dir"))
		}
	}
	if opts.DetectEvery <= 0 {
		opts.DetectEvery = defaultDetectEvery
	}
	if opts.DwellInterval <= 0 {
		opts.DwellInterval = defaultDwellInterval
	}
	if opts.EmitInterval == 0 {
		opts.EmitInterval = defaultEmitInterval
	}

	return &Session{
		id:          uuid.New(),
		opts:        opts,
		embedder:    embedder,
		recognizer:  recognizer,
		emit:        emit,
		logger:      logger,
		now:         time.Now,
		sleep:       sleepCtx,
		lastCapture: make(map[faceKey]time.Time),
	}, nil
}

// Run drives the session until the source is exhausted, the context is
// canceled or a frame fails. It always returns after closing the source and
// emitting the final complete event.
func (s *Session) Run(ctx context.Context, src FrameSource) {
	s.logger.Info("capture session started",
		slog.String("session_id", s.id.String()),
		slog.String("mode", string(s.opts.Mode)),
	)

	defer func() {
		if err := src.Close(); err != nil {
			s.logger.Warn("closing frame source",
				slog.String("session_id", s.id.String()),
				slog.Any("error", err),
			)
		}
		s.emit(s.completeEvent())
		s.logger.Info("capture session finished",
			slog.String("session_id", s.id.String()),
			slog.Int("frames", s.frameCount),
			slog.Int("captured", s.captured),
		)
	}()

	if s.opts.Mode == ModeAutoCapture {
		s.emit(Event{
			Type:    EventStatus,
			Message: fmt.Sprintf("Ready. Position the face for %s.", s.opts.PersonLabel),
		})
	}

	for {
		if ctx.Err() != nil {
			return
		}

		frame, err := src.Read(ctx)
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return
		}
		if err != nil {
			s.emit(Event{
				Type:    EventError,
				Message: "frame source failed: " + err.Error(),
			})
			return
		}

		s.frameCount++
		if err := s.processFrame(ctx, frame); err != nil {
			s.emit(Event{Type: EventError, Message: err.Error()})
			return
		}

		if s.opts.EmitInterval > 0 {
			if err := s.sleep(ctx, s.opts.EmitInterval); err != nil {
				return
			}
		}
	}
}

func (s *Session) processFrame(ctx context.Context, frame []byte) error {
	switch s.opts.Mode {
	case ModeRecognition:
		return s.processRecognition(ctx, frame)
	case ModeAutoCapture:
		return s.processAutoCapture(ctx, frame)
	default:
		return s.processPreview(ctx, frame)
	}
}

func (s *Session) processPreview(ctx context.Context, frame []byte) error {
	faces, err := s.embedder.DetectFaces(ctx, frame)
	if err != nil {
		return fmt.Errorf("detect faces: %w", err)
	}

	if len(faces) == 0 {
		s.emit(Event{Type: EventStatus, Message: "No face detected."})
		return nil
	}

	annotations := make([]FaceAnnotation, len(faces))
	for i, f := range faces {
		annotations[i] = FaceAnnotation{Box: f.Box}
	}
	s.emitFrame(frame, annotations)
	return nil
}

func (s *Session) processRecognition(ctx context.Context, frame []byte) error {
	// Detecção roda em cadência; frames intermediários reaproveitam as
	// anotações anteriores sem reavaliar o reconhecimento.
	if s.frameCount%s.opts.DetectEvery == 0 {
		faces, err := s.embedder.DetectFaces(ctx, frame)
		if err != nil {
			return fmt.Errorf("detect faces: %w", err)
		}

		annotations := make([]FaceAnnotation, len(faces))
		for i, f := range faces {
			result := s.recognizer.Recognize(f.Embedding)
			label := result.Identity
			if result.Matched {
				label = fmt.Sprintf("%s (%.0f%%)", result.Identity, result.Confidence*100)
			}
			annotations[i] = FaceAnnotation{
				Box:     f.Box,
				Label:   label,
				Matched: result.Matched,
			}
		}
		s.lastFaces = annotations
	}

	if len(s.lastFaces) == 0 {
		s.emit(Event{Type: EventStatus, Message: "No face detected."})
		return nil
	}
	s.emitFrame(frame, s.lastFaces)
	return nil
}

func (s *Session) processAutoCapture(ctx context.Context, frame []byte) error {
	faces, err := s.embedder.DetectFaces(ctx, frame)
	if err != nil {
		return fmt.Errorf("detect faces: %w", err)
	}

	if len(faces) == 0 {
		s.emit(Event{
			Type:     EventStatus,
			Captured: s.captured,
			Message:  "No face detected.",
		})
		return nil
	}

	now := s.now()
	annotations := make([]FaceAnnotation, len(faces))
	for i, f := range faces {
		annotations[i] = FaceAnnotation{Box: f.Box, Label: s.opts.PersonLabel}

		key := keyFor(f.Box)
		last, seen := s.lastCapture[key]
		if seen && now.Sub(last) <= s.opts.DwellInterval {
			continue
		}

		filename, err := s.storeFrame(frame, now)
		if err != nil {
			return err
		}
		s.lastCapture[key] = now
		s.captured++

		s.logger.Info("frame captured",
			slog.String("session_id", s.id.String()),
			slog.String("name", s.opts.PersonLabel),
			slog.String("filename", filename),
		)
		s.emit(Event{
			Type:     EventCaptured,
			Captured: s.captured,
			Detected: len(faces),
			Filename: filename,
		})
	}

	s.emitFrame(frame, annotations)
	return nil
}

func (s *Session) storeFrame(frame []byte, now time.Time) (string, error) {
	personDir := filepath.Join(s.opts.DataDir, s.opts.PersonLabel)
	if err := os.MkdirAll(personDir, 0o755); err != nil {
		return "", domain.ErrPersistence.WithError(fmt.Errorf("create person dir: %w", err))
	}

	// Milissegundos no sufixo evitam colisão entre capturas próximas.
	filename := fmt.Sprintf("%s_%s%03d.jpg",
		s.opts.PersonLabel,
		now.Format("20060102_150405"),
		now.Nanosecond()/int(time.Millisecond),
	)
	if err := os.WriteFile(filepath.Join(personDir, filename), frame, 0o644); err != nil {
		return "", domain.ErrPersistence.WithError(fmt.Errorf("store frame: %w", err))
	}
	return filename, nil
}

func (s *Session) emitFrame(frame []byte, faces []FaceAnnotation) {
	s.emit(Event{
		Type:     EventFrame,
		Image:    base64.StdEncoding.EncodeToString(frame),
		Faces:    faces,
		Detected: len(faces),
		Captured: s.captured,
	})
}

func (s *Session) completeEvent() Event {
	message := "Session complete."
	if s.opts.Mode == ModeAutoCapture {
		message = fmt.Sprintf("Captured %d frames for %s.", s.captured, s.opts.PersonLabel)
	}
	return Event{
		Type:     EventComplete,
		Captured: s.captured,
		Message:  message,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
