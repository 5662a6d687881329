package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/wjllance/douyin-text-extractor/pkg/auth"
	"github.com/wjllance/douyin-text-extractor/pkg/batch"
	"github.com/wjllance/douyin-text-extractor/pkg/config"
	"github.com/wjllance/douyin-text-extractor/pkg/converter"
	"github.com/wjllance/douyin-text-extractor/pkg/domain"
	"github.com/wjllance/douyin-text-extractor/pkg/douyin"
	"github.com/wjllance/douyin-text-extractor/pkg/logger"
	"github.com/wjllance/douyin-text-extractor/pkg/openai"
	"github.com/wjllance/douyin-text-extractor/pkg/services"
	"github.com/wjllance/douyin-text-extractor/pkg/telegram"
	"github.com/wjllance/douyin-text-extractor/pkg/workers"
)

func main() {
	var (
		batchFile  = flag.String("batch", "", "process share links from a file, one per line")
		reportFile = flag.String("report", "report.json", "where to write the batch JSON report")
		keep       = flag.Bool("keep", false, "keep downloaded video/audio files")
		attempts   = flag.Int("attempts", 0, "override share link resolution attempts")
		botMode    = flag.Bool("bot", false, "run as a telegram bot (requires TELEGRAM_BOT_TOKEN)")
		verbose    = flag.Bool("v", false, "enable debug logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: %s [flags] <share text>\n\nExtracts the spoken text from a Douyin video share link.\n\nFlags:\n",
			os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	opts := *logger.DefaultOptions
	if *verbose {
		opts.Level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, &opts)))

	if err := run(*batchFile, *reportFile, *keep, *attempts, *botMode); err != nil {
		slog.Error("shutting down due to error", logger.Err(err))
		os.Exit(1)
	}
}

func run(batchFile, reportFile string, keep bool, attempts int, botMode bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if keep {
		cfg.AutoClean = false
	}
	if attempts > 0 {
		cfg.MaxAttempts = attempts
	}
	if cfg.OpenAIKey == "" {
		return errors.New("OPENAI_API_KEY is required")
	}

	extractor := buildExtractor(cfg)

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case s := <-sigCh:
			slog.Info("shutting down due to signal", "signal", s.String())
			cancelFn()
		case <-ctx.Done():
		}
	}()

	switch {
	case botMode:
		return runBot(ctx, cfg, extractor)
	case batchFile != "":
		return runBatch(ctx, cfg, extractor, batchFile, reportFile)
	default:
		shareText := strings.TrimSpace(strings.Join(flag.Args(), " "))
		if shareText == "" {
			flag.Usage()
			return errors.New("share text argument is required")
		}
		return runSingle(ctx, extractor, shareText)
	}
}

func buildExtractor(cfg config.Config) batch.Extractor {
	resolver := douyin.NewResolver(cfg.UserAgent, cfg.HTTPTimeout)
	downloader := douyin.NewDownloader(cfg.DownloadDir, cfg.UserAgent, cfg.HTTPTimeout)
	extractor := converter.NewAudioExtractor()
	transcriber := openai.NewTranscriber(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.WhisperModel)

	return services.NewExtractorService(
		resolver,
		downloader,
		extractor,
		transcriber,
		cfg.MaxAttempts,
		cfg.AutoClean,
	)
}

func runSingle(ctx context.Context, extractor batch.Extractor, shareText string) error {
	result, err := extractor.ExtractText(ctx, shareText, logProgress())
	if err != nil {
		return err
	}

	fmt.Printf("Video ID: %s\nTitle:    %s\n\n%s\n", result.Descriptor.VideoID, result.Descriptor.Title, result.Text)
	return nil
}

func runBatch(ctx context.Context, cfg config.Config, extractor batch.Extractor, linksFile, reportFile string) error {
	links, err := batch.ReadLinksFile(linksFile)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		return fmt.Errorf("no share links found in %s", linksFile)
	}

	runner := batch.NewRunner(extractor, cfg.BatchDelay)
	report := runner.Run(ctx, links, logProgress())

	if err := report.Write(reportFile); err != nil {
		return err
	}
	slog.Info("batch finished", "succeeded", report.Succeeded, "failed", report.Failed, "report", reportFile)
	return nil
}

func runBot(ctx context.Context, cfg config.Config, extractor batch.Extractor) error {
	if cfg.TelegramBotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required in bot mode")
	}

	telegramClient, err := telegram.NewClient(cfg.TelegramBotToken)
	if err != nil {
		return fmt.Errorf("creating telegram client: %w", err)
	}
	authenticator := auth.NewAuthenticator(cfg.TelegramAuthorizedUserIDs)

	group := workers.Group{
		workers.NewShareLinkListener(telegramClient, authenticator, extractor),
	}
	return group.Start(ctx)
}

// logProgress reports stage transitions and quarter milestones to the log.
func logProgress() domain.ProgressFunc {
	var lastStage domain.Stage
	lastPercent := -1

	return func(e domain.ProgressEvent) {
		if e.Stage != lastStage {
			lastStage = e.Stage
			lastPercent = -1
		}
		milestone := e.Percent / 25
		if milestone == lastPercent/25 && lastPercent >= 0 {
			return
		}
		lastPercent = e.Percent
		slog.Info("progress", "stage", e.Stage, "percent", e.Percent, "msg", e.Message)
	}
}
