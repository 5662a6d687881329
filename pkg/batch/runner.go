package batch

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/wjllance/douyin-text-extractor/pkg/domain"
	"github.com/wjllance/douyin-text-extractor/pkg/logger"
)

type Extractor interface {
	ExtractText(ctx context.Context, shareText string, onProgress domain.ProgressFunc) (domain.TranscriptResult, error)
}

// Runner processes a list of share texts sequentially, waiting between
// pipeline runs. One failing link does not abort the batch.
type Runner struct {
	extractor Extractor
	delay     time.Duration
	sleep     func(time.Duration)
}

func NewRunner(extractor Extractor, delay time.Duration) *Runner {
	return &Runner{
		extractor: extractor,
		delay:     delay,
		sleep:     time.Sleep,
	}
}

// Run executes the pipeline for every share text and collects per-link
// outcomes into a report.
func (r *Runner) Run(ctx context.Context, shareTexts []string, onProgress domain.ProgressFunc) Report {
	report := Report{StartedAt: time.Now()}

	for i, shareText := range shareTexts {
		if i > 0 && r.delay > 0 {
			r.sleep(r.delay)
		}
		if ctx.Err() != nil {
			break
		}

		slog.Info("processing batch entry", "index", i+1, "total", len(shareTexts))

		item := Item{ShareText: shareText}
		result, err := r.extractor.ExtractText(ctx, shareText, onProgress)
		if err != nil {
			slog.Error("batch entry failed", "index", i+1, logger.Err(err))
			item.Error = err.Error()
			report.Failed++
		} else {
			item.VideoID = result.Descriptor.VideoID
			item.Title = result.Descriptor.Title
			item.Text = result.Text
			report.Succeeded++
		}
		report.Items = append(report.Items, item)
	}

	report.FinishedAt = time.Now()
	return report
}

// ReadLinksFile reads one share text per line, skipping blank lines and
// `#` comments.
func ReadLinksFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening links file: %w", err)
	}
	defer f.Close()

	var links []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		links = append(links, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading links file: %w", err)
	}
	return links, nil
}
