package openai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/wjllance/douyin-text-extractor/pkg/domain"
)

// NoSpeechPlaceholder is returned when the API recognizes no text. An empty
// transcript is not an error.
const NoSpeechPlaceholder = "(no speech recognized)"

// Transcriber uploads audio files to a Whisper-compatible endpoint and
// returns the recognized text.
type Transcriber struct {
	api   *openai.Client
	model string
}

// NewTranscriber creates a transcriber for the given endpoint. baseURL may
// point at any server implementing the audio transcription contract.
func NewTranscriber(token, baseURL, model string) *Transcriber {
	cfg := openai.DefaultConfig(token)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Transcriber{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
	}
}

// Transcribe uploads the audio file and returns the recognized text. The
// transport offers no intermediate progress, so only 0% and 100% are
// reported.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath string, onProgress domain.ProgressFunc) (string, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return "", &domain.TranscriptionError{Input: audioPath, Err: fmt.Errorf("input audio missing: %w", err)}
	}

	onProgress.Emit(domain.StageSpeechRecognition, 0, "uploading audio")

	resp, err := t.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: audioPath,
	})
	if err != nil {
		return "", &domain.TranscriptionError{Input: audioPath, Err: fmt.Errorf("creating transcription: %w", err)}
	}

	onProgress.Emit(domain.StageSpeechRecognition, 100, "transcription received")

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		slog.Info("transcription returned no text, using placeholder", "audioPath", audioPath)
		return NoSpeechPlaceholder, nil
	}
	return text, nil
}
