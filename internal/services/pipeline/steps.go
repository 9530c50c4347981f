package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/killallgit/parable-studio/internal/models"
	"github.com/killallgit/parable-studio/internal/services/assets"
	"github.com/killallgit/parable-studio/internal/services/generation"
	"github.com/killallgit/parable-studio/internal/services/scenes"
	apperrors "github.com/killallgit/parable-studio/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// step is one row of the pipeline table
type step struct {
	number int
	name   string
	manual bool
	run    func(c *Controller, ctx context.Context, track *models.Track) error
}

// steps lists the pipeline in execution order
var steps = []step{
	{number: models.StepRewrite, name: "rewrite", run: (*Controller).rewrite},
	{number: models.StepMetadata, name: "metadata", run: (*Controller).metadata},
	{number: models.StepImages, name: "images", run: (*Controller).images},
	{number: models.StepAudio, name: "audio", manual: true},
	{number: models.StepFinal, name: "final", run: (*Controller).final},
}

func stepByNumber(n int) step {
	for _, s := range steps {
		if s.number == n {
			return s
		}
	}
	panic(fmt.Sprintf("pipeline: no step %d", n))
}

func trackLockKey(trackID uint) string {
	return fmt.Sprintf("track:%d", trackID)
}

// RunProcess executes the automated steps from current_step+1 through the
// image step for a track in processing.
func (c *Controller) RunProcess(ctx context.Context, trackID uint, progress ProgressFunc) error {
	return c.runAutomated(ctx, trackID, models.TrackStatusProcessing, models.StepImages, progress)
}

// RunRegenerateImages executes the image step after a regeneration trigger
// reset the track to its metadata step.
func (c *Controller) RunRegenerateImages(ctx context.Context, trackID uint, progress ProgressFunc) error {
	return c.runAutomated(ctx, trackID, models.TrackStatusProcessing, models.StepImages, progress)
}

// RunFinal assembles the final video for a track in generating_final
func (c *Controller) RunFinal(ctx context.Context, trackID uint, progress ProgressFunc) error {
	return c.runAutomated(ctx, trackID, models.TrackStatusGeneratingFinal, models.StepFinal, progress)
}

func (c *Controller) runAutomated(ctx context.Context, trackID uint, want models.TrackStatus, last int, progress ProgressFunc) error {
	unlock, err := c.locker.Lock(ctx, trackLockKey(trackID))
	if err != nil {
		return models.NewSystemError("lock_failed", "could not lock track", err.Error(), err)
	}
	defer unlock()

	track, err := c.loadTrack(ctx, trackID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrCodeNotFound) {
			return models.NewNotFoundError("track_not_found", fmt.Sprintf("track %d not found", trackID), "", err)
		}
		return models.NewSystemError("database_error", "failed to load track", err.Error(), err)
	}
	if track.Status != want {
		return models.NewValidationError("unexpected_status",
			fmt.Sprintf("track %d is %s, expected %s", trackID, track.Status, want), "", nil)
	}

	first := track.CurrentStep + 1
	if want == models.TrackStatusGeneratingFinal {
		first = models.StepFinal
	}
	if first > last {
		return c.fail(ctx, track, first, fmt.Errorf("no automated step left after step %d", track.CurrentStep))
	}
	for n := first; n <= last; n++ {
		s := stepByNumber(n)
		if s.manual {
			continue
		}

		start := time.Now()
		c.log.Info("step started", "track_id", trackID, "step", n, "name", s.name)
		err := s.run(c, ctx, track)
		if c.purgeIfDeleted(ctx, trackID) {
			return models.NewNotFoundError("track_deleted",
				fmt.Sprintf("track %d was deleted during step %d", trackID, n), "", err)
		}
		if err != nil {
			if errors.Is(err, errStatusChanged) {
				return models.NewValidationError("status_changed",
					fmt.Sprintf("track %d left %s during step %d", trackID, want, n), "", err)
			}
			return c.fail(ctx, track, n, err)
		}
		c.log.Info("step finished", "track_id", trackID, "step", n, "name", s.name, "elapsed", time.Since(start).String())

		if progress != nil {
			progress((n - first + 1) * 100 / (last - first + 1))
		}
	}
	return nil
}

// Abort puts a busy track into error for a failure outside any step, such as
// a worker panic.
func (c *Controller) Abort(ctx context.Context, trackID uint, cause error) {
	track, err := c.loadTrack(ctx, trackID)
	if err != nil || !track.Status.IsBusy() {
		return
	}
	n := track.CurrentStep + 1
	if track.Status == models.TrackStatusGeneratingFinal {
		n = models.StepFinal
	}
	_ = c.fail(ctx, track, n, cause)
}

// fail records "Step n: cause" on the track and classifies the job error.
// current_step is left where the last durable step put it.
func (c *Controller) fail(ctx context.Context, track *models.Track, n int, cause error) error {
	msg := fmt.Sprintf("Step %d: %s", n, causeText(cause))

	// The job context may already be cancelled at shutdown
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	err := transition(wctx, c.db, track.ID, track.Status, map[string]interface{}{
		"status":        models.TrackStatusError,
		"error_message": msg,
	})
	if err != nil && !errors.Is(err, errStatusChanged) {
		c.log.Error("failed to record step failure", "track_id", track.ID, "step", n, "error", err)
	}
	c.log.Error("step failed", "track_id", track.ID, "step", n, "error", cause)

	if apperrors.Is(cause, apperrors.ErrCodeGenerationFailed) {
		return models.NewGenerationError("step_failed", msg, cause.Error(), cause)
	}
	return models.NewSystemError("step_failed", msg, cause.Error(), cause)
}

func causeText(err error) string {
	if errors.Is(err, context.Canceled) {
		return "interrupted"
	}
	if appErr, ok := apperrors.As(err); ok {
		if appErr.Code == apperrors.ErrCodeGenerationFailed && appErr.Cause != nil {
			return causeText(appErr.Cause)
		}
		return appErr.Message
	}
	return err.Error()
}

type outcome[T any] struct {
	value T
	err   error
}

// call runs one adapter invocation under timeout. Any failure becomes
// GenerationFailed with the adapter's own message as cause. The step returns
// at the deadline even when the adapter ignores its context; a late result is
// discarded.
func call[T any](ctx context.Context, timeout time.Duration, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan outcome[T], 1)
	go func() {
		v, err := fn(cctx)
		done <- outcome[T]{value: v, err: err}
	}()

	var zero T
	select {
	case res := <-done:
		if res.err == nil {
			return res.value, nil
		}
		err := res.err
		if ctx.Err() == nil && errors.Is(cctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%s timed out after %s", op, timeout)
		}
		return zero, apperrors.GenerationFailed(op, err)
	case <-cctx.Done():
		if err := ctx.Err(); err != nil {
			return zero, apperrors.GenerationFailed(op, err)
		}
		return zero, apperrors.GenerationFailed(op, fmt.Errorf("%s timed out after %s", op, timeout))
	}
}

func (c *Controller) loadParable(ctx context.Context, parableID uint) (*models.Parable, error) {
	var parable models.Parable
	if err := c.db.WithContext(ctx).First(&parable, parableID).Error; err != nil {
		return nil, apperrors.DatabaseError("get parable", err)
	}
	return &parable, nil
}

// rewrite is step 1. The english track translates the original narration.
func (c *Controller) rewrite(ctx context.Context, track *models.Track) error {
	parable, err := c.loadParable(ctx, track.ParableID)
	if err != nil {
		return err
	}

	req := generation.RewriteRequest{
		Title:    parable.TitleOriginal,
		Text:     parable.TextOriginal,
		Language: track.Language,
	}
	if track.Language == models.LanguageEnglish {
		var original models.Track
		err := c.db.WithContext(ctx).
			Where("parable_id = ? AND language = ?", track.ParableID, models.LanguageOriginal).
			First(&original).Error
		if err != nil {
			return apperrors.DatabaseError("get original track", err)
		}
		if strings.TrimSpace(original.TextForTTS) == "" {
			return apperrors.PreconditionFailed("the original track has no narration text")
		}
		req.Text = original.TextForTTS
	}

	narration, err := call(ctx, c.cfg.StepTimeout, "narration rewrite", func(ctx context.Context) (*generation.Narration, error) {
		return c.provider.RewriteForNarration(ctx, req)
	})
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"hook_text":    narration.HookText,
		"text_for_tts": narration.TTSText,
		"current_step": models.StepRewrite,
	}
	if track.Language == models.LanguageEnglish {
		updates["title_translated"] = narration.TranslatedTitle
		updates["text_translated"] = narration.TranslatedText
	}
	if err := transition(ctx, c.db, track.ID, track.Status, updates); err != nil {
		return err
	}

	track.HookText = narration.HookText
	track.TextForTTS = narration.TTSText
	track.TitleTranslated = narration.TranslatedTitle
	track.TextTranslated = narration.TranslatedText
	track.CurrentStep = models.StepRewrite
	return nil
}

// metadata is step 2: YouTube fields, scene prompts, title variants, mood
// and music, persisted in one transaction.
func (c *Controller) metadata(ctx context.Context, track *models.Track) error {
	source := track.TextTranslated
	if track.Language != models.LanguageEnglish || source == "" {
		parable, err := c.loadParable(ctx, track.ParableID)
		if err != nil {
			return err
		}
		if track.Language != models.LanguageEnglish {
			source = parable.TextOriginal
		} else {
			source = track.TextForTTS
		}
	}

	md, err := call(ctx, c.cfg.StepTimeout, "metadata synthesis", func(ctx context.Context) (*generation.Metadata, error) {
		return c.provider.SynthesizeMetadata(ctx, source, track.TextForTTS)
	})
	if err != nil {
		return err
	}

	sceneSet := make([]scenes.SceneInput, 0, len(md.Scenes))
	for _, sc := range md.Scenes {
		sceneSet = append(sceneSet, scenes.SceneInput{
			SceneOrder:      sc.SceneOrder,
			PromptText:      sc.PromptText,
			VideoPromptText: sc.VideoPromptText,
		})
	}
	if err := scenes.ValidateSceneSet(sceneSet); err != nil {
		return apperrors.GenerationFailed("metadata synthesis", err)
	}

	tc := generation.TitleContext{Title: md.Title, Text: track.TextForTTS, HookText: track.HookText}
	drafts, err := call(ctx, c.cfg.StepTimeout, "title variant generation", func(ctx context.Context) ([]generation.TitleDraft, error) {
		return c.provider.GenerateTitleVariants(ctx, tc)
	})
	if err != nil {
		return err
	}
	if len(drafts) == 0 {
		return apperrors.GenerationFailed("title variant generation", generation.ErrEmptyResponse)
	}

	best, err := call(ctx, c.cfg.StepTimeout, "title selection", func(ctx context.Context) (int, error) {
		return c.provider.SelectBest(ctx, tc, drafts)
	})
	if err != nil {
		return err
	}
	if best < 0 || best >= len(drafts) {
		return apperrors.GenerationFailed("title selection", fmt.Errorf("index %d out of range", best))
	}

	mood, musicID := c.pickMood(ctx, track)

	variants := make([]models.TitleVariant, 0, len(drafts))
	for i, d := range drafts {
		variants = append(variants, models.TitleVariant{
			TrackID:     track.ID,
			Position:    i,
			VariantType: d.Type,
			VariantText: d.Text,
			IsSelected:  i == best,
		})
	}

	var obsolete []string
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed, err := c.scenes.WithTx(tx).RegisterPrompts(ctx, track.ID, sceneSet)
		if err != nil {
			return err
		}
		obsolete = removed

		if err := tx.Where("track_id = ?", track.ID).Delete(&models.TitleVariant{}).Error; err != nil {
			return apperrors.DatabaseError("replace title variants", err)
		}
		if err := tx.Create(&variants).Error; err != nil {
			return apperrors.DatabaseError("replace title variants", err)
		}

		return transition(ctx, tx, track.ID, track.Status, map[string]interface{}{
			"youtube_title":       drafts[best].Text,
			"youtube_description": md.Description,
			"youtube_hashtags":    datatypes.JSONSlice[string](md.Hashtags),
			"mood":                mood,
			"music_track_id":      musicID,
			"current_step":        models.StepMetadata,
		})
	})
	if err != nil {
		return err
	}

	c.deleteAssets(obsolete...)
	track.Mood = mood
	track.MusicTrackID = musicID
	track.CurrentStep = models.StepMetadata
	return nil
}

// pickMood detects the narration mood and a matching bed. Both are optional
// enrichments, so failures fall back to the default mood and no music.
func (c *Controller) pickMood(ctx context.Context, track *models.Track) (string, *uint) {
	mood := "dramatic"
	detected, err := call(ctx, c.cfg.StepTimeout, "mood detection", func(ctx context.Context) (string, error) {
		return c.provider.DetectMood(ctx, track.TextForTTS)
	})
	if err != nil {
		c.log.Warn("mood detection failed, using default", "track_id", track.ID, "error", err)
	} else {
		mood = models.NormalizeMood(detected)
	}

	if !c.cfg.MusicEnabled || c.music == nil {
		return mood, nil
	}
	pick, err := c.music.PickForMood(ctx, mood)
	if err != nil {
		c.log.Warn("music selection failed", "track_id", track.ID, "mood", mood, "error", err)
		return mood, nil
	}
	if pick == nil {
		return mood, nil
	}
	id := pick.ID
	return mood, &id
}

// images is step 3. Scenes without an image are synthesized concurrently;
// every scene settles before the step reports how many failed.
func (c *Controller) images(ctx context.Context, track *models.Track) error {
	report, err := c.scenes.Status(ctx, track.ID)
	if err != nil {
		return err
	}
	missing, err := c.scenes.PromptsWithoutImage(ctx, track.ID)
	if err != nil {
		return err
	}

	var (
		mu       sync.Mutex
		failed   int
		firstErr error
	)
	g := new(errgroup.Group)
	g.SetLimit(c.cfg.ImageConcurrency)
	for _, prompt := range missing {
		g.Go(func() error {
			if err := c.synthesizeScene(ctx, track.ID, prompt, report.Total); err != nil {
				c.log.Warn("scene image failed", "track_id", track.ID, "scene_order", prompt.SceneOrder, "error", err)
				mu.Lock()
				failed++
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if failed > 0 {
		return apperrors.GenerationFailed("image synthesis",
			fmt.Errorf("%d of %d images failed: %s", failed, len(missing), causeText(firstErr)))
	}

	audio, err := c.loadAudio(ctx, c.db, track.ID)
	if err != nil {
		return err
	}
	now := time.Now()
	updates := map[string]interface{}{
		"status":       models.TrackStatusAwaitingAudio,
		"current_step": models.StepImages,
		"processed_at": &now,
	}
	if audio != nil {
		updates["status"] = models.TrackStatusAwaitingVideos
		updates["current_step"] = models.StepAudio
	}
	if err := transition(ctx, c.db, track.ID, track.Status, updates); err != nil {
		return err
	}

	track.Status = updates["status"].(models.TrackStatus)
	track.CurrentStep = updates["current_step"].(int)
	track.ProcessedAt = &now
	return nil
}

func (c *Controller) synthesizeScene(ctx context.Context, trackID uint, prompt models.ImagePrompt, total int) error {
	op := fmt.Sprintf("image synthesis for scene %d", prompt.SceneOrder)
	img, err := call(ctx, c.cfg.ImageTimeout, op, func(ctx context.Context) (*generation.Image, error) {
		return c.provider.SynthesizeImage(ctx, generation.ImageRequest{
			SceneOrder: prompt.SceneOrder,
			Total:      total,
			Prompt:     prompt.PromptText,
		})
	})
	if err != nil {
		return err
	}
	if img == nil || len(img.Data) == 0 {
		return apperrors.GenerationFailed(op, generation.ErrEmptyResponse)
	}

	key := assets.ImageKey(trackID, prompt.SceneOrder, assets.ExtensionForContentType(img.ContentType))
	if err := c.store.Save(ctx, key, bytes.NewReader(img.Data), int64(len(img.Data))); err != nil {
		return apperrors.StorageError("save image", err)
	}
	replaced, err := c.scenes.AttachImage(ctx, trackID, prompt.SceneOrder, key)
	if err != nil {
		c.deleteAssets(key)
		return err
	}
	if replaced != "" && replaced != key {
		c.deleteAssets(replaced)
	}
	return nil
}

// final is step 5: localize every input, render, store the result.
func (c *Controller) final(ctx context.Context, track *models.Track) error {
	audio, err := c.loadAudio(ctx, c.db, track.ID)
	if err != nil {
		return err
	}
	if audio == nil {
		return apperrors.PreconditionFailed("track has no audio")
	}
	complete, err := c.scenes.IsComplete(ctx, track.ID)
	if err != nil {
		return err
	}
	if !complete {
		return apperrors.PreconditionFailed("scene assets are incomplete")
	}
	fragments, err := c.scenes.OrderedFragments(ctx, track.ID)
	if err != nil {
		return err
	}

	var releases []func()
	defer func() {
		for _, release := range releases {
			release()
		}
	}()
	localize := func(key string) (string, error) {
		path, release, err := c.store.LocalPath(ctx, key)
		if err != nil {
			return "", apperrors.StorageError("read "+key, err)
		}
		releases = append(releases, release)
		return path, nil
	}

	in := generation.AssemblyInput{AudioDuration: audio.Duration}
	if in.AudioPath, err = localize(audio.AudioPath); err != nil {
		return err
	}
	for _, f := range fragments {
		path, err := localize(f.VideoPath)
		if err != nil {
			return err
		}
		in.Fragments = append(in.Fragments, generation.FragmentInput{
			SceneOrder:     f.SceneOrder,
			Path:           path,
			Duration:       f.Duration,
			TargetDuration: f.TargetDuration,
		})
	}
	if c.cfg.MusicEnabled && track.MusicTrackID != nil {
		var bed models.MusicTrack
		if err := c.db.WithContext(ctx).First(&bed, *track.MusicTrackID).Error; err != nil {
			c.log.Warn("music track unavailable, rendering without it", "track_id", track.ID, "error", err)
		} else if path, err := localize(bed.FilePath); err != nil {
			c.log.Warn("music file unavailable, rendering without it", "track_id", track.ID, "error", err)
		} else {
			in.MusicPath = path
			in.MusicVolumeDB = bed.VolumeDB
		}
	}

	workDir, err := os.MkdirTemp(c.cfg.TempDir, "final-*")
	if err != nil {
		return apperrors.StorageError("create render dir", err)
	}
	defer os.RemoveAll(workDir)
	in.OutputPath = filepath.Join(workDir, "final.mp4")

	result, err := call(ctx, c.cfg.AssemblyTimeout, "final assembly", func(ctx context.Context) (*generation.AssemblyResult, error) {
		return c.assembler.AssembleFinalVideo(ctx, in)
	})
	if err != nil {
		return err
	}

	key := assets.FinalKey(track.ID)
	if err := c.saveFile(ctx, key, result.Path); err != nil {
		return err
	}

	now := time.Now()
	duration := result.Duration
	err = transition(ctx, c.db, track.ID, track.Status, map[string]interface{}{
		"status":               models.TrackStatusCompleted,
		"current_step":         models.StepFinal,
		"final_video_path":     key,
		"final_video_duration": &duration,
		"completed_at":         &now,
		"error_message":        nil,
	})
	if err != nil {
		c.deleteAssets(key)
		return err
	}

	if track.FinalVideoPath != "" && track.FinalVideoPath != key {
		c.deleteAssets(track.FinalVideoPath)
	}
	track.Status = models.TrackStatusCompleted
	track.CurrentStep = models.StepFinal
	track.FinalVideoPath = key
	track.FinalVideoDuration = &duration
	track.CompletedAt = &now
	return nil
}

func (c *Controller) saveFile(ctx context.Context, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return apperrors.StorageError("open render", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return apperrors.StorageError("stat render", err)
	}
	if err := c.store.Save(ctx, key, f, info.Size()); err != nil {
		return apperrors.StorageError("save final video", err)
	}
	return nil
}
