package converter

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wjllance/douyin-text-extractor/pkg/domain"
)

// runner abstracts process execution so the extractor is testable without
// a real ffmpeg install.
type runner interface {
	Output(ctx context.Context, name string, args ...string) (string, error)
	RunWithProgress(ctx context.Context, onLine func(string), name string, args ...string) error
}

type execRunner struct{}

func (execRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	if _, err := exec.LookPath(name); err != nil {
		return "", fmt.Errorf("looking for `%s`: %w", name, err)
	}
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", fmt.Errorf("running `%s`: %w", name, err)
	}
	return string(out), nil
}

// RunWithProgress runs the command, feeding each stdout line to onLine.
// Stderr is captured for the error message.
func (execRunner) RunWithProgress(ctx context.Context, onLine func(string), name string, args ...string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("looking for `%s`: %w", name, err)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("attaching to `%s` stdout: %w", name, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting `%s`: %w", name, err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		onLine(scanner.Text())
	}
	_, _ = io.Copy(io.Discard, stdout)

	if err := cmd.Wait(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 512 {
			msg = msg[len(msg)-512:]
		}
		return fmt.Errorf("running `%s`: %w; stderr: %s", name, err, msg)
	}
	return nil
}

// AudioExtractor demuxes a video's audio track to mp3 via ffmpeg, mapping
// the transcoder's progress protocol to percent events.
type AudioExtractor struct {
	ffmpegPath  string
	ffprobePath string
	runner      runner
}

func NewAudioExtractor() *AudioExtractor {
	return &AudioExtractor{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		runner:      execRunner{},
	}
}

// Extract converts the video's audio track to a standalone mp3 next to the
// video file. Partial output is removed if the transcoder fails.
func (e *AudioExtractor) Extract(ctx context.Context, videoPath string, onProgress domain.ProgressFunc) (string, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return "", &domain.ExtractionError{Input: videoPath, Err: fmt.Errorf("input video missing: %w", err)}
	}

	audioPath := strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".mp3"

	total := e.probeDuration(ctx, videoPath)
	onProgress.Emit(domain.StageExtractingAudio, 0, "starting audio extraction")

	args := []string{
		"-y", "-i", videoPath,
		"-vn",
		"-acodec", "libmp3lame",
		"-q:a", "0",
		"-progress", "pipe:1",
		"-nostats",
		audioPath,
	}

	lastPercent := 0
	onLine := func(line string) {
		if done, ok := parseProgressLine(line); ok && total > 0 {
			p := int(done * 100 / total)
			if p > 100 {
				p = 100
			}
			if p > lastPercent {
				lastPercent = p
				onProgress.Emit(domain.StageExtractingAudio, p, "transcoding audio")
			}
		}
	}

	if err := e.runner.RunWithProgress(ctx, onLine, e.ffmpegPath, args...); err != nil {
		if rmErr := os.Remove(audioPath); rmErr != nil && !os.IsNotExist(rmErr) {
			slog.Error("removing partial audio output", "path", audioPath, "err", rmErr)
		}
		return "", &domain.ExtractionError{Input: videoPath, Err: err}
	}

	onProgress.Emit(domain.StageExtractingAudio, 100, "audio extraction complete")
	slog.Info("audio extracted", "inputPath", videoPath, "outputPath", audioPath)
	return audioPath, nil
}

// probeDuration asks ffprobe for the container duration. Progress stays at
// zero until completion when the duration is unknown.
func (e *AudioExtractor) probeDuration(ctx context.Context, path string) time.Duration {
	out, err := e.runner.Output(ctx, e.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		slog.Warn("probing media duration failed", "path", path, "err", err)
		return 0
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

// parseProgressLine reads ffmpeg -progress key=value lines. out_time_us and
// out_time_ms both carry microseconds.
func parseProgressLine(line string) (time.Duration, bool) {
	key, value, found := strings.Cut(strings.TrimSpace(line), "=")
	if !found {
		return 0, false
	}
	switch key {
	case "out_time_us", "out_time_ms":
		us, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || us < 0 {
			return 0, false
		}
		return time.Duration(us) * time.Microsecond, true
	}
	return 0, false
}
