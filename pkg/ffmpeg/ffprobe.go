package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ffprobeOutput represents the JSON structure returned by ffprobe
type ffprobeOutput struct {
	Format struct {
		Duration   string `json:"duration"`
		Size       string `json:"size"`
		Bitrate    string `json:"bit_rate"`
		FormatName string `json:"format_name"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		SampleRate   string `json:"sample_rate"`
		Channels     int    `json:"channels"`
		Duration     string `json:"duration"`
	} `json:"streams"`
}

// GetMetadata extracts container and stream metadata using ffprobe
func (f *FFmpeg) GetMetadata(ctx context.Context, filePath string) (*MediaMetadata, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	args := []string{
		"-v", "quiet",
		"-show_format",
		"-show_streams",
		"-of", "json",
		filePath,
	}

	cmd := exec.CommandContext(ctx, f.ffprobePath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, NewProcessingError("metadata_extraction", filePath, ErrProcessingTimeout, stderr.String())
		}
		return nil, NewProcessingError("metadata_extraction", filePath, err, stderr.String())
	}

	return parseFFprobeOutput(stdout.Bytes(), filePath)
}

// ReadDuration returns the duration in seconds of a media file
func (f *FFmpeg) ReadDuration(ctx context.Context, filePath string) (float64, error) {
	metadata, err := f.GetMetadata(ctx, filePath)
	if err != nil {
		return 0, err
	}
	return metadata.Duration, nil
}

func parseFFprobeOutput(raw []byte, filePath string) (*MediaMetadata, error) {
	var output ffprobeOutput
	if err := json.Unmarshal(raw, &output); err != nil {
		return nil, NewProcessingError("metadata_parsing", filePath, err, "")
	}

	metadata := &MediaMetadata{Format: output.Format.FormatName}
	if d, err := strconv.ParseFloat(output.Format.Duration, 64); err == nil {
		metadata.Duration = d
	}
	if size, err := strconv.ParseInt(output.Format.Size, 10, 64); err == nil {
		metadata.Size = size
	}
	if bitrate, err := strconv.Atoi(output.Format.Bitrate); err == nil {
		metadata.Bitrate = bitrate
	}

	var streamDuration float64
	for _, stream := range output.Streams {
		switch stream.CodecType {
		case "video":
			if metadata.HasVideo {
				continue
			}
			metadata.HasVideo = true
			metadata.VideoCodec = stream.CodecName
			metadata.Width = stream.Width
			metadata.Height = stream.Height
			metadata.FrameRate = parseFrameRate(stream.AvgFrameRate)
		case "audio":
			if metadata.HasAudio {
				continue
			}
			metadata.HasAudio = true
			metadata.AudioCodec = stream.CodecName
			metadata.Channels = stream.Channels
			if sr, err := strconv.Atoi(stream.SampleRate); err == nil {
				metadata.SampleRate = sr
			}
		default:
			continue
		}
		if d, err := strconv.ParseFloat(stream.Duration, 64); err == nil && d > streamDuration {
			streamDuration = d
		}
	}

	// Use stream duration if format duration is not available
	if metadata.Duration == 0 {
		metadata.Duration = streamDuration
	}

	if !metadata.HasVideo && !metadata.HasAudio {
		return nil, NewProcessingError("metadata_validation", filePath, ErrInvalidMediaFile, "")
	}
	if metadata.Duration <= 0 {
		return nil, NewProcessingError("metadata_validation", filePath,
			fmt.Errorf("%w: could not determine duration", ErrInvalidMediaFile), "")
	}

	return metadata, nil
}

// parseFrameRate parses ffprobe rationals like "30000/1001"
func parseFrameRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
