package music

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"

	"github.com/killallgit/parable-studio/internal/models"
	"github.com/killallgit/parable-studio/internal/services/assets"
	"github.com/killallgit/parable-studio/internal/services/generation"
	apperrors "github.com/killallgit/parable-studio/pkg/errors"
	"github.com/killallgit/parable-studio/pkg/logger"
	"gorm.io/gorm"
)

// UploadInput describes a new background bed
type UploadInput struct {
	Name     string
	Mood     string
	Filename string
	Data     io.Reader
	Size     int64
	VolumeDB *float64
}

// Service manages the music library
type Service struct {
	db        *gorm.DB
	store     assets.Store
	durations generation.DurationReader
	log       *logger.Logger
}

// NewService creates the music library service
func NewService(db *gorm.DB, store assets.Store, durations generation.DurationReader, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		db:        db,
		store:     store,
		durations: durations,
		log:       log.With("service", "music"),
	}
}

func validMood(mood string) bool {
	for _, m := range models.Moods {
		if m == mood {
			return true
		}
	}
	return false
}

// List returns the library, optionally filtered by mood
func (s *Service) List(ctx context.Context, mood string) ([]models.MusicTrack, error) {
	query := s.db.WithContext(ctx).Order("mood ASC, name ASC")
	if mood != "" {
		query = query.Where("mood = ?", strings.ToLower(mood))
	}

	var tracks []models.MusicTrack
	if err := query.Find(&tracks).Error; err != nil {
		return nil, apperrors.DatabaseError("list music", err)
	}
	return tracks, nil
}

// Get loads one library entry
func (s *Service) Get(ctx context.Context, id uint) (*models.MusicTrack, error) {
	var track models.MusicTrack
	if err := s.db.WithContext(ctx).First(&track, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("music track", id)
		}
		return nil, apperrors.DatabaseError("get music", err)
	}
	return &track, nil
}

// Upload stores the file, measures it and adds it to the library
func (s *Service) Upload(ctx context.Context, in UploadInput) (*models.MusicTrack, error) {
	mood := strings.ToLower(strings.TrimSpace(in.Mood))
	if !validMood(mood) {
		return nil, apperrors.ValidationError("mood", "must be one of "+strings.Join(models.Moods, ", "))
	}
	if _, ok := assets.UploadExtension(in.Filename, assets.AudioExtensions); !ok {
		return nil, apperrors.ValidationError("file", "must be .mp3, .wav or .m4a")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = strings.TrimSuffix(in.Filename, fileExt(in.Filename))
	}

	key := assets.MusicKey(mood, in.Filename)
	if err := s.store.Save(ctx, key, in.Data, in.Size); err != nil {
		return nil, apperrors.StorageError("save music", err)
	}

	duration, err := s.measure(ctx, key)
	if err != nil {
		s.discard(key)
		return nil, err
	}

	track := &models.MusicTrack{
		Name:     name,
		Mood:     mood,
		FilePath: key,
		Duration: duration,
	}
	if in.VolumeDB != nil {
		track.VolumeDB = *in.VolumeDB
	}
	if err := s.db.WithContext(ctx).Create(track).Error; err != nil {
		s.discard(key)
		return nil, apperrors.DatabaseError("create music", err)
	}

	s.log.Info("music track added", "music_track_id", track.ID, "mood", mood, "duration", duration)
	return track, nil
}

func (s *Service) measure(ctx context.Context, key string) (float64, error) {
	path, release, err := s.store.LocalPath(ctx, key)
	if err != nil {
		return 0, apperrors.StorageError("read music", err)
	}
	defer release()

	duration, err := s.durations.ReadDuration(ctx, path)
	if err != nil || duration <= 0 {
		return 0, apperrors.ValidationError("file", "could not read media duration")
	}
	return duration, nil
}

func (s *Service) discard(key string) {
	if err := s.store.Delete(context.Background(), key); err != nil {
		s.log.Warn("failed to remove rejected upload", "key", key, "error", err)
	}
}

// PickForMood returns a random bed matching mood, any bed when none match,
// or nil for an empty library.
func (s *Service) PickForMood(ctx context.Context, mood string) (*models.MusicTrack, error) {
	var candidates []models.MusicTrack
	if err := s.db.WithContext(ctx).Where("mood = ?", mood).Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("finding music for mood %s: %w", mood, err)
	}
	if len(candidates) == 0 {
		if err := s.db.WithContext(ctx).Find(&candidates).Error; err != nil {
			return nil, fmt.Errorf("finding fallback music: %w", err)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	pick := candidates[rand.IntN(len(candidates))]
	return &pick, nil
}

func fileExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}
