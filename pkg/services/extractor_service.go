package services

import (
	"context"
	"log/slog"

	"github.com/wjllance/douyin-text-extractor/pkg/artifact"
	"github.com/wjllance/douyin-text-extractor/pkg/domain"
	"github.com/wjllance/douyin-text-extractor/pkg/logger"
)

type LinkResolver interface {
	Resolve(ctx context.Context, shareText string, maxAttempts int) (domain.VideoDescriptor, error)
}

type VideoDownloader interface {
	Download(ctx context.Context, desc domain.VideoDescriptor, onProgress domain.ProgressFunc) (string, error)
}

type AudioExtractor interface {
	Extract(ctx context.Context, videoPath string, onProgress domain.ProgressFunc) (string, error)
}

type SpeechTranscriber interface {
	Transcribe(ctx context.Context, audioPath string, onProgress domain.ProgressFunc) (string, error)
}

type extractorService struct {
	resolver    LinkResolver
	downloader  VideoDownloader
	extractor   AudioExtractor
	transcriber SpeechTranscriber
	maxAttempts int
	autoClean   bool
}

func NewExtractorService(
	resolver LinkResolver,
	downloader VideoDownloader,
	extractor AudioExtractor,
	transcriber SpeechTranscriber,
	maxAttempts int,
	autoClean bool,
) *extractorService {
	return &extractorService{
		resolver:    resolver,
		downloader:  downloader,
		extractor:   extractor,
		transcriber: transcriber,
		maxAttempts: maxAttempts,
		autoClean:   autoClean,
	}
}

// ExtractText runs the full share-text → transcript pipeline. Stage
// progress events are forwarded to onProgress verbatim; failures carry the
// failing stage and the original cause. Intermediate files are removed at
// the end of the run, on both outcome paths, when auto-clean is on.
func (s *extractorService) ExtractText(ctx context.Context, shareText string, onProgress domain.ProgressFunc) (domain.TranscriptResult, error) {
	tracker := artifact.NewTracker()

	result, err := s.run(ctx, shareText, tracker, onProgress)
	s.cleanup(tracker, onProgress)
	if err != nil {
		return domain.TranscriptResult{}, err
	}

	onProgress.Emit(domain.StageCompleted, 100, "done")
	return result, nil
}

func (s *extractorService) run(ctx context.Context, shareText string, tracker *artifact.Tracker, onProgress domain.ProgressFunc) (domain.TranscriptResult, error) {
	onProgress.Emit(domain.StageParsing, 0, "resolving share link")
	desc, err := s.resolver.Resolve(ctx, shareText, s.maxAttempts)
	if err != nil {
		return domain.TranscriptResult{}, &domain.PipelineError{Stage: domain.StageParsing, Err: err}
	}
	onProgress.Emit(domain.StageParsing, 100, "resolved "+desc.VideoID)
	slog.Info("share link resolved", "videoID", desc.VideoID, "title", desc.Title)

	videoPath, err := s.downloader.Download(ctx, desc, onProgress)
	if err != nil {
		return domain.TranscriptResult{}, &domain.PipelineError{Stage: domain.StageDownloading, Err: err}
	}
	tracker.Add(videoPath)

	audioPath, err := s.extractor.Extract(ctx, videoPath, onProgress)
	if audioPath != "" {
		tracker.Add(audioPath)
	}
	if err != nil {
		return domain.TranscriptResult{}, &domain.PipelineError{Stage: domain.StageExtractingAudio, Err: err}
	}

	text, err := s.transcriber.Transcribe(ctx, audioPath, onProgress)
	if err != nil {
		return domain.TranscriptResult{}, &domain.PipelineError{Stage: domain.StageSpeechRecognition, Err: err}
	}

	return domain.TranscriptResult{Descriptor: desc, Text: text}, nil
}

// cleanup removes tracked artifacts when auto-clean is on; otherwise the
// files stay for the caller, who may pass the same paths to
// artifact.Cleanup later.
func (s *extractorService) cleanup(tracker *artifact.Tracker, onProgress domain.ProgressFunc) {
	if !s.autoClean {
		if paths := tracker.Paths(); len(paths) > 0 {
			slog.Info("auto-clean disabled, keeping artifacts", "paths", paths)
		}
		return
	}

	onProgress.Emit(domain.StageCleaning, 0, "removing temporary files")
	removed, err := tracker.Cleanup()
	if err != nil {
		slog.Warn("some temporary files could not be removed", logger.Err(err))
	}
	onProgress.Emit(domain.StageCleaning, 100, "cleanup finished")
	if len(removed) > 0 {
		slog.Info("temporary files removed", "count", len(removed))
	}
}
