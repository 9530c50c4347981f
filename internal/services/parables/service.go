package parables

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/killallgit/parable-studio/internal/models"
	"github.com/killallgit/parable-studio/internal/services/assets"
	"github.com/killallgit/parable-studio/internal/services/jobs"
	apperrors "github.com/killallgit/parable-studio/pkg/errors"
	"github.com/killallgit/parable-studio/pkg/logger"
)

const (
	MaxTitleLength  = 500
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ServiceImpl implements the Service interface
type ServiceImpl struct {
	repository Repository
	store      assets.Store
	jobs       jobs.Service
	log        *logger.Logger
}

// NewService creates a new parable service. jobs may be nil, in which case
// deleting a parable does not cancel queued work.
func NewService(repository Repository, store assets.Store, jobService jobs.Service, log *logger.Logger) *ServiceImpl {
	if log == nil {
		log = logger.Nop()
	}
	return &ServiceImpl{
		repository: repository,
		store:      store,
		jobs:       jobService,
		log:        log.With("service", "parables"),
	}
}

// CreateParable stores the source text and its original track in draft
func (s *ServiceImpl) CreateParable(ctx context.Context, title, text string) (*models.Parable, error) {
	title = strings.TrimSpace(title)
	text = strings.TrimSpace(text)
	if title == "" {
		return nil, apperrors.MissingFieldError("title")
	}
	if text == "" {
		return nil, apperrors.MissingFieldError("text")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, apperrors.ValidationError("title", "must be at most 500 characters")
	}

	parable := &models.Parable{
		TitleOriginal: title,
		TextOriginal:  text,
		Tracks: []models.Track{
			{Language: models.LanguageOriginal, Status: models.TrackStatusDraft},
		},
	}
	if err := s.repository.CreateParable(ctx, parable); err != nil {
		return nil, apperrors.DatabaseError("create parable", err)
	}

	s.log.Info("parable created", "parable_id", parable.ID, "track_id", parable.Tracks[0].ID)
	return parable, nil
}

// ListParables returns one page, newest first
func (s *ServiceImpl) ListParables(ctx context.Context, limit, offset int) ([]models.Parable, int64, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	parables, total, err := s.repository.ListParables(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.DatabaseError("list parables", err)
	}
	return parables, total, nil
}

func (s *ServiceImpl) GetParable(ctx context.Context, id uint) (*models.Parable, error) {
	parable, err := s.repository.GetParable(ctx, id)
	if err != nil {
		if errors.Is(err, ErrParableNotFound) {
			return nil, apperrors.NotFound("parable", id)
		}
		return nil, apperrors.DatabaseError("get parable", err)
	}
	return parable, nil
}

func (s *ServiceImpl) GetTrack(ctx context.Context, parableID uint, language models.Language) (*models.Track, error) {
	if !language.Valid() {
		return nil, apperrors.ValidationError("language", "must be original or english")
	}

	track, err := s.repository.GetTrack(ctx, parableID, language)
	if err != nil {
		if errors.Is(err, ErrTrackNotFound) {
			// Distinguish a missing parable from a missing english track
			if _, perr := s.repository.GetParable(ctx, parableID); errors.Is(perr, ErrParableNotFound) {
				return nil, apperrors.NotFound("parable", parableID)
			}
			return nil, apperrors.NotFound(string(language)+" track", parableID)
		}
		return nil, apperrors.DatabaseError("get track", err)
	}
	return track, nil
}

func (s *ServiceImpl) GetTitleVariants(ctx context.Context, parableID uint, language models.Language) ([]models.TitleVariant, error) {
	track, err := s.GetTrack(ctx, parableID, language)
	if err != nil {
		return nil, err
	}
	return track.TitleVariants, nil
}

// CreateEnglishTrack implements Service
func (s *ServiceImpl) CreateEnglishTrack(ctx context.Context, parableID uint) (*models.Track, error) {
	parable, err := s.GetParable(ctx, parableID)
	if err != nil {
		return nil, err
	}

	if parable.Track(models.LanguageEnglish) != nil {
		return nil, apperrors.AlreadyExists("english track", parableID)
	}
	original := parable.Track(models.LanguageOriginal)
	if original == nil || strings.TrimSpace(original.TextForTTS) == "" {
		return nil, apperrors.PreconditionFailed("the original track has no narration text yet; process it first")
	}

	track := &models.Track{
		ParableID: parableID,
		Language:  models.LanguageEnglish,
		Status:    models.TrackStatusDraft,
	}
	if err := s.repository.CreateTrack(ctx, track); err != nil {
		// Lost a race against a concurrent create
		if existing, gerr := s.repository.GetTrack(ctx, parableID, models.LanguageEnglish); gerr == nil && existing != nil {
			return nil, apperrors.AlreadyExists("english track", parableID)
		}
		return nil, apperrors.DatabaseError("create english track", err)
	}

	s.log.Info("english track created", "parable_id", parableID, "track_id", track.ID)
	return track, nil
}

// DeleteParable implements Service. Binaries are removed after the rows; a
// storage failure is logged and does not resurrect the parable. A pipeline
// run still in flight discards its own output when its step ends.
func (s *ServiceImpl) DeleteParable(ctx context.Context, id uint) error {
	trackIDs, err := s.repository.DeleteParable(ctx, id)
	if err != nil {
		if errors.Is(err, ErrParableNotFound) {
			return apperrors.NotFound("parable", id)
		}
		return apperrors.DatabaseError("delete parable", err)
	}

	for _, trackID := range trackIDs {
		if s.jobs != nil {
			if _, err := s.jobs.CancelTrackJobs(ctx, trackID); err != nil {
				s.log.Warn("failed to cancel jobs of deleted track", "track_id", trackID, "error", err)
			}
		}
		if s.store != nil {
			if err := s.store.DeletePrefix(ctx, models.TrackAssetPrefix(trackID)); err != nil {
				s.log.Warn("failed to delete track assets", "track_id", trackID, "error", err)
			}
		}
	}

	s.log.Info("parable deleted", "parable_id", id, "tracks", len(trackIDs))
	return nil
}
