package ffmpeg

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrFFmpegNotFound    = errors.New("ffmpeg binary not found")
	ErrFFprobeNotFound   = errors.New("ffprobe binary not found")
	ErrInvalidMediaFile  = errors.New("invalid or unsupported media file")
	ErrNoSegments        = errors.New("no video segments to assemble")
	ErrInvalidSegment    = errors.New("invalid video segment")
	ErrProcessingTimeout = errors.New("media processing timeout")
)

// ProcessingError represents an error during media processing
type ProcessingError struct {
	Operation string // e.g. "metadata_extraction", "assemble"
	File      string
	Err       error
	Stderr    string // stderr output from ffmpeg/ffprobe
}

func (e *ProcessingError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("ffmpeg %s failed for %s: %v (stderr: %s)", e.Operation, e.File, e.Err, e.Stderr)
	}
	return fmt.Sprintf("ffmpeg %s failed for %s: %v", e.Operation, e.File, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// NewProcessingError creates a new ProcessingError
func NewProcessingError(operation, file string, err error, stderr string) *ProcessingError {
	return &ProcessingError{
		Operation: operation,
		File:      file,
		Err:       err,
		Stderr:    tail(stderr, 2000),
	}
}

// tail keeps the end of long ffmpeg logs, where the actual failure is printed.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
