package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// FFmpeg wraps ffmpeg and ffprobe functionality
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration // applied to ffprobe runs; renders use the caller's context
}

// New creates a new FFmpeg instance
func New(ffmpegPath, ffprobePath string, timeout time.Duration) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		timeout:     timeout,
	}
}

// ValidateBinaries checks if ffmpeg and ffprobe are available
func (f *FFmpeg) ValidateBinaries() error {
	if _, err := exec.LookPath(f.ffmpegPath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, f.ffmpegPath)
	}
	if _, err := exec.LookPath(f.ffprobePath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFprobeNotFound, f.ffprobePath)
	}
	return nil
}

// Assemble renders the segments over the narration (and optional music bed)
// into opts.OutputPath and reports the measured duration of the result.
func (f *FFmpeg) Assemble(ctx context.Context, opts AssembleOptions) (*AssembleResult, error) {
	args, length, err := BuildAssembleArgs(opts)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0755); err != nil {
		return nil, NewProcessingError("assemble", opts.OutputPath, err, "")
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.Remove(opts.OutputPath)
		if ctx.Err() == context.DeadlineExceeded {
			return nil, NewProcessingError("assemble", opts.OutputPath, ErrProcessingTimeout, stderr.String())
		}
		return nil, NewProcessingError("assemble", opts.OutputPath, err, stderr.String())
	}

	result := &AssembleResult{Path: opts.OutputPath, Duration: length}
	if measured, err := f.ReadDuration(ctx, opts.OutputPath); err == nil {
		result.Duration = measured
	}
	return result, nil
}

// FitToNarration retimes segments so the video covers the narration. Fixed
// segments keep their length and the others share the narration time left
// over in proportion to their own length. When no segment can absorb a
// shortfall every segment is stretched. Narration shorter than the fixed
// segments alone is padded with silence.
func FitToNarration(segments []Segment, audio float64) []Segment {
	out := make([]Segment, len(segments))
	copy(out, segments)
	if audio <= 0 {
		return out
	}

	var fixed, free float64
	for _, s := range out {
		if s.Fixed {
			fixed += s.TargetDuration
		} else {
			free += s.TargetDuration
		}
	}

	if free > 0 && audio > fixed {
		scale := (audio - fixed) / free
		for i := range out {
			if !out[i].Fixed {
				out[i].TargetDuration *= scale
			}
		}
		return out
	}
	if total := fixed + free; total > 0 && total < audio {
		scale := audio / total
		for i := range out {
			out[i].TargetDuration *= scale
		}
	}
	return out
}

// atempoChain speeds audio up by speed. A single atempo filter is limited
// to 2x on older ffmpeg builds, so larger factors are chained.
func atempoChain(speed float64) string {
	var parts []string
	for speed > 2 {
		parts = append(parts, "atempo=2.0")
		speed /= 2
	}
	parts = append(parts, "atempo="+formatSeconds(speed))
	return strings.Join(parts, ",")
}

// BuildAssembleArgs returns the ffmpeg argument list for a render together with
// the expected output length in seconds. Segments are first fitted to the
// narration, then each one is retimed with setpts so that it occupies exactly
// its TargetDuration on the timeline. A render longer than MaxDuration is sped
// up as a whole, narration included, rather than cut.
func BuildAssembleArgs(opts AssembleOptions) ([]string, float64, error) {
	if len(opts.Segments) == 0 {
		return nil, 0, ErrNoSegments
	}
	if opts.AudioPath == "" {
		return nil, 0, fmt.Errorf("%w: narration audio is required", ErrInvalidMediaFile)
	}
	if opts.OutputPath == "" {
		return nil, 0, fmt.Errorf("output path is required")
	}

	defaults := DefaultAssembleOptions()
	if opts.Width <= 0 {
		opts.Width = defaults.Width
	}
	if opts.Height <= 0 {
		opts.Height = defaults.Height
	}
	if opts.FPS <= 0 {
		opts.FPS = defaults.FPS
	}

	for i, seg := range opts.Segments {
		if seg.SourceDuration <= 0 || seg.TargetDuration <= 0 {
			return nil, 0, fmt.Errorf("%w: segment %d (%s) has source %.3fs, target %.3fs",
				ErrInvalidSegment, i, seg.Path, seg.SourceDuration, seg.TargetDuration)
		}
	}

	segments := FitToNarration(opts.Segments, opts.AudioDuration)
	var timeline float64
	for _, seg := range segments {
		timeline += seg.TargetDuration
	}
	length := math.Max(timeline, opts.AudioDuration)

	speed := 1.0
	if opts.MaxDuration > 0 && length > opts.MaxDuration.Seconds() {
		speed = length / opts.MaxDuration.Seconds()
		length = opts.MaxDuration.Seconds()
		for i := range segments {
			segments[i].TargetDuration /= speed
		}
	}

	args := []string{"-y"}
	var graph []string
	var concatInputs strings.Builder

	for i, seg := range segments {
		args = append(args, "-i", seg.Path)

		factor := seg.TargetDuration / seg.SourceDuration
		graph = append(graph, fmt.Sprintf(
			"[%d:v]setpts=%s*(PTS-STARTPTS),fps=%d,scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1,trim=duration=%s,setpts=PTS-STARTPTS[v%d]",
			i, formatSeconds(factor), opts.FPS, opts.Width, opts.Height, opts.Width, opts.Height,
			formatSeconds(seg.TargetDuration), i))
		fmt.Fprintf(&concatInputs, "[v%d]", i)
	}
	graph = append(graph, fmt.Sprintf("%sconcat=n=%d:v=1:a=0[vout]", concatInputs.String(), len(segments)))

	narration := len(segments)
	args = append(args, "-i", opts.AudioPath)

	voice := "aresample=44100"
	if speed > 1 {
		voice += "," + atempoChain(speed)
	}

	if opts.MusicPath != "" {
		args = append(args, "-stream_loop", "-1", "-i", opts.MusicPath)
		graph = append(graph,
			fmt.Sprintf("[%d:a]%s,apad[narr]", narration, voice),
			fmt.Sprintf("[%d:a]aresample=44100,volume=%s[bed]", narration+1, formatGain(opts.MusicVolumeDB)),
			"[narr][bed]amix=inputs=2:duration=first:dropout_transition=0:normalize=0[aout]",
		)
	} else {
		graph = append(graph, fmt.Sprintf("[%d:a]%s,apad[aout]", narration, voice))
	}

	args = append(args,
		"-filter_complex", strings.Join(graph, ";"),
		"-map", "[vout]",
		"-map", "[aout]",
		"-c:v", "libx264",
		"-preset", "medium",
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(opts.FPS),
		"-c:a", "aac",
		"-b:a", "192k",
		"-t", formatSeconds(length),
		"-movflags", "+faststart",
		opts.OutputPath,
	)

	return args, length, nil
}

// GainFromDB converts a decibel offset into a linear volume multiplier
func GainFromDB(db float64) float64 {
	return math.Pow(10, db/20)
}

func formatGain(db float64) string {
	return strconv.FormatFloat(GainFromDB(db), 'f', 4, 64)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
