package domain

import (
	"errors"
	"fmt"
)

// ErrNoShareURL means the share text contained no URL-shaped substring.
// This is a caller-input error and is never retried.
var ErrNoShareURL = errors.New("no url found in share text")

// ResolutionError means the share link could not be resolved to a video
// descriptor after exhausting all attempts.
type ResolutionError struct {
	Attempts int
	Detail   string
	Err      error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolving share link after %d attempts: %s: %v", e.Attempts, e.Detail, e.Err)
	}
	return fmt.Sprintf("resolving share link after %d attempts: %s", e.Attempts, e.Detail)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// DownloadError means the media stream could not be fetched or written.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("downloading video: %v", e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ExtractionError means the transcoding step failed or its input was missing.
type ExtractionError struct {
	Input string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting audio from %s: %v", e.Input, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// TranscriptionError means the speech-recognition call failed or its input
// was missing.
type TranscriptionError struct {
	Input string
	Err   error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcribing %s: %v", e.Input, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// PipelineError annotates a stage failure with the stage that produced it.
// The underlying error message is preserved as-is.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
