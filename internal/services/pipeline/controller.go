package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/killallgit/parable-studio/internal/models"
	"github.com/killallgit/parable-studio/internal/services/assets"
	"github.com/killallgit/parable-studio/internal/services/generation"
	"github.com/killallgit/parable-studio/internal/services/jobs"
	"github.com/killallgit/parable-studio/internal/services/locks"
	"github.com/killallgit/parable-studio/internal/services/scenes"
	apperrors "github.com/killallgit/parable-studio/pkg/errors"
	"github.com/killallgit/parable-studio/pkg/logger"
	"gorm.io/gorm"
)

// Config bounds adapter calls and the image fan-out
type Config struct {
	StepTimeout      time.Duration
	ImageTimeout     time.Duration
	AssemblyTimeout  time.Duration
	ImageConcurrency int
	MusicEnabled     bool
	// TempDir holds render scratch space; empty means os.TempDir
	TempDir string
}

// DefaultConfig returns the timeouts used when none are configured
func DefaultConfig() Config {
	return Config{
		StepTimeout:      3 * time.Minute,
		ImageTimeout:     2 * time.Minute,
		AssemblyTimeout:  10 * time.Minute,
		ImageConcurrency: 3,
		MusicEnabled:     true,
	}
}

// MusicPicker chooses a background bed for a mood. A nil track means none.
type MusicPicker interface {
	PickForMood(ctx context.Context, mood string) (*models.MusicTrack, error)
}

// Deps are the collaborators of a Controller
type Deps struct {
	DB        *gorm.DB
	Scenes    scenes.Service
	Jobs      jobs.Service
	Store     assets.Store
	Provider  generation.Provider
	Assembler generation.VideoAssembler
	Durations generation.DurationReader
	Music     MusicPicker
	Locker    locks.Locker
	Log       *logger.Logger
}

// Trigger reports the outcome of a step-trigger request
type Trigger struct {
	TrackID   uint               `json:"track_id"`
	Status    models.TrackStatus `json:"status"`
	JobID     uint               `json:"job_id,omitempty"`
	Coalesced bool               `json:"coalesced"`
}

// ProgressFunc receives a completion percentage for the running job
type ProgressFunc func(percent int)

// Controller drives tracks through the pipeline steps
type Controller struct {
	db        *gorm.DB
	scenes    scenes.Service
	jobs      jobs.Service
	store     assets.Store
	provider  generation.Provider
	assembler generation.VideoAssembler
	durations generation.DurationReader
	music     MusicPicker
	locker    locks.Locker
	cfg       Config
	log       *logger.Logger
}

// New creates a pipeline controller
func New(deps Deps, cfg Config) *Controller {
	defaults := DefaultConfig()
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = defaults.StepTimeout
	}
	if cfg.ImageTimeout <= 0 {
		cfg.ImageTimeout = defaults.ImageTimeout
	}
	if cfg.AssemblyTimeout <= 0 {
		cfg.AssemblyTimeout = defaults.AssemblyTimeout
	}
	if cfg.ImageConcurrency <= 0 {
		cfg.ImageConcurrency = defaults.ImageConcurrency
	}
	if deps.Locker == nil {
		deps.Locker = locks.NewMemoryLocker()
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}

	return &Controller{
		db:        deps.DB,
		scenes:    deps.Scenes,
		jobs:      deps.Jobs,
		store:     deps.Store,
		provider:  deps.Provider,
		assembler: deps.Assembler,
		durations: deps.Durations,
		music:     deps.Music,
		locker:    deps.Locker,
		cfg:       cfg,
		log:       deps.Log.With("service", "pipeline"),
	}
}

// errStatusChanged means a compare-and-set on the track status matched no row
var errStatusChanged = errors.New("track status changed concurrently")

func (c *Controller) loadTrack(ctx context.Context, trackID uint) (*models.Track, error) {
	var track models.Track
	if err := c.db.WithContext(ctx).First(&track, trackID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("track", trackID)
		}
		return nil, apperrors.DatabaseError("get track", err)
	}
	return &track, nil
}

func (c *Controller) loadAudio(ctx context.Context, db *gorm.DB, trackID uint) (*models.AudioFile, error) {
	var audio models.AudioFile
	err := db.WithContext(ctx).Where("track_id = ?", trackID).First(&audio).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.DatabaseError("get audio", err)
	}
	return &audio, nil
}

// transition applies updates only while the track still has status from
func transition(ctx context.Context, db *gorm.DB, trackID uint, from models.TrackStatus, updates map[string]interface{}) error {
	res := db.WithContext(ctx).
		Model(&models.Track{}).
		Where("id = ? AND status = ?", trackID, from).
		Updates(updates)
	if res.Error != nil {
		return apperrors.DatabaseError("update track", res.Error)
	}
	if res.RowsAffected == 0 {
		return errStatusChanged
	}
	return nil
}

func jobPriority(jobType models.JobType) int {
	if jobType == models.JobTypeAssembleFinal {
		return jobs.FinalPriority
	}
	return jobs.DefaultPriority
}

func busyError(track *models.Track) error {
	return apperrors.PreconditionFailed(
		fmt.Sprintf("track is %s; wait for the running step to finish", track.Status))
}

// coalesce answers a trigger that found the track busy: the same operation
// already running is reported back, anything else is refused.
func (c *Controller) coalesce(ctx context.Context, trackID uint, jobType models.JobType) (*Trigger, error) {
	track, err := c.loadTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if !track.Status.IsBusy() {
		return nil, apperrors.PreconditionFailed(
			fmt.Sprintf("track changed to %s while the request was handled; retry", track.Status))
	}

	job, err := c.jobs.GetActiveJob(ctx, jobType, trackID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			return nil, busyError(track)
		}
		return nil, apperrors.DatabaseError("get active job", err)
	}
	return &Trigger{TrackID: trackID, Status: track.Status, JobID: job.ID, Coalesced: true}, nil
}

// begin moves a track from its observed status into a busy status and queues
// the job in the same transaction. prepare runs inside the transaction and
// returns asset keys to delete once it commits.
func (c *Controller) begin(ctx context.Context, track *models.Track, busy models.TrackStatus, jobType models.JobType,
	updates map[string]interface{}, prepare func(tx *gorm.DB) ([]string, error)) (*Trigger, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = busy
	updates["error_message"] = nil

	var job *models.Job
	var obsolete []string
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := transition(ctx, tx, track.ID, track.Status, updates); err != nil {
			return err
		}
		if prepare != nil {
			keys, err := prepare(tx)
			if err != nil {
				return err
			}
			obsolete = keys
		}
		var err error
		job, _, err = c.jobs.WithTx(tx).EnqueueUniqueJob(ctx, jobType, track.ID, nil, jobs.WithPriority(jobPriority(jobType)))
		return err
	})
	if errors.Is(err, errStatusChanged) {
		return c.coalesce(ctx, track.ID, jobType)
	}
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, apperrors.DatabaseError("start "+string(jobType), err)
	}

	c.deleteAssets(obsolete...)
	c.log.Info("track step queued", "track_id", track.ID, "job_id", job.ID, "type", jobType, "from", track.Status)
	return &Trigger{TrackID: track.ID, Status: busy, JobID: job.ID}, nil
}

// TriggerProcess starts or resumes the automated steps of a track
func (c *Controller) TriggerProcess(ctx context.Context, trackID uint) (*Trigger, error) {
	track, err := c.loadTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if track.Status.IsBusy() {
		return c.coalesce(ctx, trackID, models.JobTypeTrackProcess)
	}
	if track.Status != models.TrackStatusDraft && track.Status != models.TrackStatusError {
		return nil, apperrors.PreconditionFailed(
			fmt.Sprintf("track is %s; processing starts from draft or resumes from error", track.Status))
	}

	switch next := track.CurrentStep + 1; {
	case next <= models.StepImages:
		return c.begin(ctx, track, models.TrackStatusProcessing, models.JobTypeTrackProcess, nil, nil)
	case next == models.StepAudio:
		return c.settle(ctx, track)
	default:
		return c.beginFinal(ctx, track)
	}
}

// settle resumes a track whose next step is the manual audio upload
func (c *Controller) settle(ctx context.Context, track *models.Track) (*Trigger, error) {
	audio, err := c.loadAudio(ctx, c.db, track.ID)
	if err != nil {
		return nil, err
	}
	status := models.TrackStatusAwaitingAudio
	if audio != nil {
		status = models.TrackStatusAwaitingVideos
	}

	err = transition(ctx, c.db, track.ID, track.Status, map[string]interface{}{
		"status":        status,
		"error_message": nil,
	})
	if errors.Is(err, errStatusChanged) {
		return c.coalesce(ctx, track.ID, models.JobTypeTrackProcess)
	}
	if err != nil {
		return nil, err
	}
	return &Trigger{TrackID: track.ID, Status: status}, nil
}

// TriggerRegenerateImages replaces every image of the track. Existing
// fragments are kept and become stale.
func (c *Controller) TriggerRegenerateImages(ctx context.Context, trackID uint) (*Trigger, error) {
	track, err := c.loadTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if track.Status.IsBusy() {
		return c.coalesce(ctx, trackID, models.JobTypeRegenerateImages)
	}

	report, err := c.scenes.Status(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if report.Total == 0 {
		return nil, apperrors.PreconditionFailed("track has no image prompts yet; run processing first")
	}

	previousFinal := track.FinalVideoPath
	updates := map[string]interface{}{
		"current_step":         models.StepMetadata,
		"final_video_path":     "",
		"final_video_duration": nil,
		"completed_at":         nil,
	}
	trigger, err := c.begin(ctx, track, models.TrackStatusProcessing, models.JobTypeRegenerateImages, updates,
		func(tx *gorm.DB) ([]string, error) {
			return c.scenes.WithTx(tx).ClearImages(ctx, trackID)
		})
	if err != nil {
		return nil, err
	}
	if !trigger.Coalesced && previousFinal != "" {
		c.deleteAssets(previousFinal)
	}
	return trigger, nil
}

// TriggerFinal starts final assembly
func (c *Controller) TriggerFinal(ctx context.Context, trackID uint) (*Trigger, error) {
	track, err := c.loadTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if track.Status.IsBusy() {
		return c.coalesce(ctx, trackID, models.JobTypeAssembleFinal)
	}

	switch {
	case track.Status == models.TrackStatusAwaitingVideos,
		track.Status == models.TrackStatusCompleted,
		track.Status == models.TrackStatusError && track.CurrentStep >= models.StepAudio:
	default:
		return nil, apperrors.PreconditionFailed(
			fmt.Sprintf("track is %s at step %d; final assembly needs audio and every video fragment", track.Status, track.CurrentStep))
	}
	return c.beginFinal(ctx, track)
}

func (c *Controller) beginFinal(ctx context.Context, track *models.Track) (*Trigger, error) {
	audio, err := c.loadAudio(ctx, c.db, track.ID)
	if err != nil {
		return nil, err
	}
	if audio == nil {
		return nil, apperrors.PreconditionFailed("track has no audio; upload the narration first")
	}

	report, err := c.scenes.Status(ctx, track.ID)
	if err != nil {
		return nil, err
	}
	if !report.Complete {
		return nil, apperrors.PreconditionFailed(fmt.Sprintf(
			"%d of %d scenes are ready; every scene needs an image and a current video fragment",
			report.Total-missingScenes(report), report.Total))
	}

	return c.begin(ctx, track, models.TrackStatusGeneratingFinal, models.JobTypeAssembleFinal, nil, nil)
}

func missingScenes(report *scenes.Report) int {
	missing := 0
	for _, s := range report.Scenes {
		if !s.Ready {
			missing++
		}
	}
	return missing
}

// UploadAudio stores the narration, replacing any previous file
func (c *Controller) UploadAudio(ctx context.Context, trackID uint, filename string, data io.Reader, size int64) (*models.AudioFile, error) {
	ext, ok := assets.UploadExtension(filename, assets.AudioExtensions)
	if !ok {
		return nil, apperrors.ValidationError("file", "audio must be .mp3, .wav or .m4a")
	}

	track, err := c.loadTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if track.Status.IsBusy() {
		return nil, busyError(track)
	}
	if track.CurrentStep < models.StepImages {
		return nil, apperrors.PreconditionFailed("images must be generated before the narration is uploaded")
	}

	key := assets.AudioKey(trackID, ext)
	duration, err := c.saveMedia(ctx, key, data, size)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"current_step": max(track.CurrentStep, models.StepAudio),
	}
	switch track.Status {
	case models.TrackStatusAwaitingAudio:
		updates["status"] = models.TrackStatusAwaitingVideos
	case models.TrackStatusCompleted:
		updates["status"] = models.TrackStatusAwaitingVideos
		updates["current_step"] = models.StepAudio
	}

	audio := &models.AudioFile{
		TrackID:          trackID,
		AudioPath:        key,
		Duration:         duration,
		OriginalFilename: filename,
	}
	var previous *models.AudioFile
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := transition(ctx, tx, trackID, track.Status, updates); err != nil {
			return err
		}
		prior, err := c.loadAudio(ctx, tx, trackID)
		if err != nil {
			return err
		}
		if prior != nil {
			previous = prior
			if err := tx.Delete(prior).Error; err != nil {
				return err
			}
		}
		return tx.Create(audio).Error
	})
	if err != nil {
		c.deleteAssets(key)
		if errors.Is(err, errStatusChanged) {
			return nil, apperrors.PreconditionFailed("track changed while the audio was uploading; retry")
		}
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, apperrors.DatabaseError("save audio", err)
	}

	if previous != nil && previous.AudioPath != key {
		c.deleteAssets(previous.AudioPath)
	}
	c.log.Info("audio uploaded", "track_id", trackID, "duration", duration, "replaced", previous != nil)
	return audio, nil
}

// UploadVideo stores the motion clip for one scene
func (c *Controller) UploadVideo(ctx context.Context, trackID uint, sceneOrder int, filename string, data io.Reader, size int64) (*models.VideoFragment, error) {
	ext, ok := assets.UploadExtension(filename, assets.VideoExtensions)
	if !ok {
		return nil, apperrors.ValidationError("file", "video must be .mp4, .mov or .webm")
	}

	track, err := c.loadTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if track.Status.IsBusy() {
		return nil, busyError(track)
	}

	// Refuse before storing anything when the scene has no image
	report, err := c.scenes.Status(ctx, trackID)
	if err != nil {
		return nil, err
	}
	known := false
	for _, s := range report.Scenes {
		if s.SceneOrder == sceneOrder && s.HasImage {
			known = true
			break
		}
	}
	if !known {
		return nil, apperrors.UnknownScene(sceneOrder, "generated image")
	}

	key := assets.VideoKey(trackID, sceneOrder, ext)
	duration, err := c.saveMedia(ctx, key, data, size)
	if err != nil {
		return nil, err
	}

	fragment, replaced, err := c.scenes.AttachVideo(ctx, trackID, sceneOrder, key, duration)
	if err != nil {
		c.deleteAssets(key)
		return nil, err
	}
	if replaced != "" && replaced != key {
		c.deleteAssets(replaced)
	}
	if c.purgeIfDeleted(ctx, trackID) {
		return nil, apperrors.NotFound("track", trackID)
	}

	if track.Status == models.TrackStatusCompleted {
		err := transition(ctx, c.db, trackID, models.TrackStatusCompleted, map[string]interface{}{
			"status":       models.TrackStatusAwaitingVideos,
			"current_step": models.StepAudio,
		})
		if err != nil && !errors.Is(err, errStatusChanged) {
			return nil, err
		}
	}

	c.log.Info("video fragment uploaded", "track_id", trackID, "scene_order", sceneOrder, "duration", duration)
	return fragment, nil
}

// SetTargetDuration sets or clears a fragment's length in the final video
func (c *Controller) SetTargetDuration(ctx context.Context, trackID, fragmentID uint, target *float64) (*models.VideoFragment, error) {
	track, err := c.loadTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if track.Status == models.TrackStatusGeneratingFinal {
		return nil, busyError(track)
	}
	return c.scenes.SetTargetDuration(ctx, trackID, fragmentID, target)
}

// saveMedia stores an upload and measures it. Unreadable media is removed.
func (c *Controller) saveMedia(ctx context.Context, key string, data io.Reader, size int64) (float64, error) {
	if err := c.store.Save(ctx, key, data, size); err != nil {
		return 0, apperrors.StorageError("save upload", err)
	}

	path, release, err := c.store.LocalPath(ctx, key)
	if err != nil {
		c.deleteAssets(key)
		return 0, apperrors.StorageError("read upload", err)
	}
	defer release()

	duration, err := c.durations.ReadDuration(ctx, path)
	if err != nil || duration <= 0 {
		c.deleteAssets(key)
		if err != nil {
			c.log.Warn("duration read failed", "key", key, "error", err)
		}
		return 0, apperrors.ValidationError("file", "could not read media duration")
	}
	return duration, nil
}

// deleteAssets removes binaries no row references any more. Failures only
// leak storage, so they are logged.
func (c *Controller) deleteAssets(keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := c.store.Delete(context.Background(), key); err != nil {
			c.log.Warn("failed to delete asset", "key", key, "error", err)
		}
	}
}

// purgeIfDeleted removes what a step stored for a track whose parable was
// deleted while the step ran. Rows and binaries written after the delete
// would otherwise be orphaned.
func (c *Controller) purgeIfDeleted(ctx context.Context, trackID uint) bool {
	ctx = context.WithoutCancel(ctx)
	var count int64
	if err := c.db.WithContext(ctx).Model(&models.Track{}).Where("id = ?", trackID).Count(&count).Error; err != nil {
		c.log.Warn("failed to check track", "track_id", trackID, "error", err)
		return false
	}
	if count > 0 {
		return false
	}

	owned := []any{
		&models.TitleVariant{},
		&models.VideoFragment{},
		&models.GeneratedImage{},
		&models.ImagePrompt{},
		&models.AudioFile{},
	}
	for _, m := range owned {
		if err := c.db.WithContext(ctx).Where("track_id = ?", trackID).Delete(m).Error; err != nil {
			c.log.Warn("failed to delete orphaned rows", "track_id", trackID, "error", err)
		}
	}
	if err := c.store.DeletePrefix(ctx, models.TrackAssetPrefix(trackID)); err != nil {
		c.log.Warn("failed to delete orphaned assets", "track_id", trackID, "error", err)
	}
	c.log.Info("track deleted during run, output discarded", "track_id", trackID)
	return true
}

// Recover moves tracks left busy by a previous process into error so they
// can be resumed. It must run before the worker pool starts.
func (c *Controller) Recover(ctx context.Context) (int, error) {
	if _, err := c.jobs.FailInterruptedJobs(ctx); err != nil {
		return 0, err
	}

	var busy []models.Track
	if err := c.db.WithContext(ctx).Where("status IN ?", models.BusyStatuses).Find(&busy).Error; err != nil {
		return 0, apperrors.DatabaseError("find busy tracks", err)
	}

	recovered := 0
	for _, track := range busy {
		active, err := c.jobs.HasActiveJob(ctx, track.ID)
		if err != nil {
			return recovered, err
		}
		if active {
			continue
		}

		msg := fmt.Sprintf("Step %d: interrupted", track.CurrentStep+1)
		err = transition(ctx, c.db, track.ID, track.Status, map[string]interface{}{
			"status":        models.TrackStatusError,
			"error_message": msg,
		})
		if errors.Is(err, errStatusChanged) {
			continue
		}
		if err != nil {
			return recovered, err
		}
		recovered++
		c.log.Warn("recovered interrupted track", "track_id", track.ID, "was", track.Status, "error", msg)
	}
	return recovered, nil
}
