package generation

import (
	"context"
	"sort"

	"github.com/killallgit/parable-studio/pkg/ffmpeg"
)

// FFmpegAssembler implements VideoAssembler with pkg/ffmpeg
type FFmpegAssembler struct {
	ff       *ffmpeg.FFmpeg
	defaults ffmpeg.AssembleOptions
}

// NewFFmpegAssembler renders with ff using defaults for frame size, fps and
// maximum length.
func NewFFmpegAssembler(ff *ffmpeg.FFmpeg, defaults ffmpeg.AssembleOptions) *FFmpegAssembler {
	return &FFmpegAssembler{ff: ff, defaults: defaults}
}

// Segments orders fragments for playback, hook first, and resolves each
// one's timeline length: the override when set, else the measured duration.
// Overridden segments are fixed; the rest are refitted to the narration at
// render time.
func Segments(fragments []FragmentInput) []ffmpeg.Segment {
	ordered := make([]FragmentInput, len(fragments))
	copy(ordered, fragments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SceneOrder < ordered[j].SceneOrder
	})

	segments := make([]ffmpeg.Segment, 0, len(ordered))
	for _, f := range ordered {
		target := f.Duration
		if f.TargetDuration != nil {
			target = *f.TargetDuration
		}
		segments = append(segments, ffmpeg.Segment{
			Path:           f.Path,
			SourceDuration: f.Duration,
			TargetDuration: target,
			Fixed:          f.TargetDuration != nil,
		})
	}
	return segments
}

// AssembleFinalVideo implements VideoAssembler
func (a *FFmpegAssembler) AssembleFinalVideo(ctx context.Context, in AssemblyInput) (*AssemblyResult, error) {
	opts := a.defaults
	opts.Segments = Segments(in.Fragments)
	opts.AudioPath = in.AudioPath
	opts.AudioDuration = in.AudioDuration
	opts.OutputPath = in.OutputPath
	opts.MusicPath = in.MusicPath
	if in.MusicPath != "" && in.MusicVolumeDB != 0 {
		opts.MusicVolumeDB = in.MusicVolumeDB
	}

	res, err := a.ff.Assemble(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &AssemblyResult{Path: res.Path, Duration: res.Duration}, nil
}
