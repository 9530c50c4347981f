package types

import (
	"github.com/killallgit/parable-studio/internal/models"
	"github.com/killallgit/parable-studio/internal/services/scenes"
)

func resolve(urls URLResolver, key string) string {
	if urls == nil || key == "" {
		return ""
	}
	return urls.URL(key)
}

// FromTrack builds the snapshot of a track. report may be nil.
func FromTrack(t *models.Track, urls URLResolver, report *scenes.Report) TrackResponse {
	resp := TrackResponse{
		ID:                 t.ID,
		ParableID:          t.ParableID,
		Language:           t.Language,
		Status:             t.Status,
		CurrentStep:        t.CurrentStep,
		ErrorMessage:       t.ErrorMessage,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
		TitleTranslated:    t.TitleTranslated,
		TextTranslated:     t.TextTranslated,
		HookText:           t.HookText,
		TextForTTS:         t.TextForTTS,
		YouTubeTitle:       t.YouTubeTitle,
		YouTubeDescription: t.YouTubeDescription,
		YouTubeHashtags:    []string(t.YouTubeHashtags),
		Mood:               t.Mood,
		MusicTrackID:       t.MusicTrackID,
		FinalVideoPath:     t.FinalVideoPath,
		FinalVideoURL:      resolve(urls, t.FinalVideoPath),
		FinalVideoDuration: t.FinalVideoDuration,
		ProcessedAt:        t.ProcessedAt,
		CompletedAt:        t.CompletedAt,
		TitleVariants:      t.TitleVariants,
		ImagePrompts:       t.ImagePrompts,
		GeneratedImages:    make([]ImageResponse, 0, len(t.GeneratedImages)),
		VideoFragments:     make([]FragmentResponse, 0, len(t.VideoFragments)),
		Scenes:             report,
	}

	if resp.YouTubeHashtags == nil {
		resp.YouTubeHashtags = []string{}
	}
	if resp.TitleVariants == nil {
		resp.TitleVariants = []models.TitleVariant{}
	}
	if resp.ImagePrompts == nil {
		resp.ImagePrompts = []models.ImagePrompt{}
	}

	for _, img := range t.GeneratedImages {
		resp.GeneratedImages = append(resp.GeneratedImages, ImageResponse{
			GeneratedImage: img,
			ImageURL:       resolve(urls, img.ImagePath),
		})
	}
	for _, frag := range t.VideoFragments {
		resp.VideoFragments = append(resp.VideoFragments, FromFragment(&frag, urls))
	}
	if t.Audio != nil {
		resp.Audio = FromAudio(t.Audio, urls)
	}

	return resp
}

// FromFragment adds the resolved URL and effective duration to a fragment
func FromFragment(f *models.VideoFragment, urls URLResolver) FragmentResponse {
	return FragmentResponse{
		VideoFragment:     *f,
		VideoURL:          resolve(urls, f.VideoPath),
		EffectiveDuration: f.EffectiveDuration(),
	}
}

// FromAudio adds the resolved URL to an audio file
func FromAudio(a *models.AudioFile, urls URLResolver) *AudioResponse {
	return &AudioResponse{AudioFile: *a, AudioURL: resolve(urls, a.AudioPath)}
}

// FromParable builds the parable snapshot. reports is keyed by track id.
func FromParable(p *models.Parable, urls URLResolver, reports map[uint]*scenes.Report) ParableResponse {
	resp := ParableResponse{
		ID:            p.ID,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		TitleOriginal: p.TitleOriginal,
		TextOriginal:  p.TextOriginal,
		Tracks:        make([]TrackResponse, 0, len(p.Tracks)),
	}
	for i := range p.Tracks {
		resp.Tracks = append(resp.Tracks, FromTrack(&p.Tracks[i], urls, reports[p.Tracks[i].ID]))
	}
	return resp
}

// FromParableSummary builds one row of the parable list
func FromParableSummary(p *models.Parable) ParableSummary {
	s := ParableSummary{
		ID:            p.ID,
		CreatedAt:     p.CreatedAt,
		TitleOriginal: p.TitleOriginal,
		Tracks:        make([]TrackSummary, 0, len(p.Tracks)),
	}
	for _, t := range p.Tracks {
		s.Tracks = append(s.Tracks, TrackSummary{
			ID:          t.ID,
			Language:    t.Language,
			Status:      t.Status,
			CurrentStep: t.CurrentStep,
		})
	}
	return s
}

// FromMusicTrack adds the resolved URL to a library entry
func FromMusicTrack(m *models.MusicTrack, urls URLResolver) MusicTrackResponse {
	return MusicTrackResponse{MusicTrack: *m, FileURL: resolve(urls, m.FilePath)}
}

// FromJob drops the queue bookkeeping from a job row
func FromJob(j *models.Job) JobResponse {
	return JobResponse{
		ID:          j.ID,
		Type:        j.Type,
		Status:      j.Status,
		TrackID:     j.TrackID,
		Progress:    j.Progress,
		CreatedAt:   j.CreatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		Error:       j.Error,
		ErrorType:   j.ErrorType,
	}
}

// SelectedVariant returns the chosen title variant, if any
func SelectedVariant(variants []models.TitleVariant) *models.TitleVariant {
	for i := range variants {
		if variants[i].IsSelected {
			return &variants[i]
		}
	}
	return nil
}
