package workers

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/wjllance/douyin-text-extractor/pkg/domain"
	"github.com/wjllance/douyin-text-extractor/pkg/logger"
)

type TelegramClient interface {
	GetUpdates() tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	SendReply(chatID int64, replyToMessageID int, text string) error
	SendStatus(chatID int64, text string) (int, error)
	EditStatus(chatID int64, messageID int, text string) error
}

type Authenticator interface {
	IsAuthorized(userID int64) bool
}

type Extractor interface {
	ExtractText(ctx context.Context, shareText string, onProgress domain.ProgressFunc) (domain.TranscriptResult, error)
}

// shareLinkListener turns incoming Telegram messages containing share
// links into transcript replies, editing a status message per stage.
type shareLinkListener struct {
	client        TelegramClient
	authenticator Authenticator
	extractor     Extractor
}

func NewShareLinkListener(client TelegramClient, authenticator Authenticator, extractor Extractor) *shareLinkListener {
	return &shareLinkListener{
		client:        client,
		authenticator: authenticator,
		extractor:     extractor,
	}
}

func (l *shareLinkListener) Name() string { return "share_link_listener" }

func (l *shareLinkListener) Start(ctx context.Context) error {
	slog.Info("Starting worker", "name", l.Name())
	defer slog.Info("Worker stopped", "name", l.Name())

	for {
		select {
		case <-ctx.Done():
			l.client.StopReceivingUpdates()
			return nil
		case update := <-l.client.GetUpdates():
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			l.handleMessage(ctx, update.Message)
		}
	}
}

func (l *shareLinkListener) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if !l.authenticator.IsAuthorized(userID) {
		slog.Warn("unauthorized telegram user", "userID", userID)
		if err := l.client.SendReply(chatID, msg.MessageID, "You are not authorized to use this bot."); err != nil {
			slog.Error("replying to unauthorized user", logger.Err(err))
		}
		return
	}

	statusID, err := l.client.SendStatus(chatID, "Processing share link...")
	if err != nil {
		slog.Error("sending status message", logger.Err(err))
	}

	// edit the status message only at stage boundaries to stay well under
	// Telegram's edit rate limits
	var lastStage domain.Stage
	onProgress := func(e domain.ProgressEvent) {
		if statusID == 0 || e.Stage == lastStage {
			return
		}
		lastStage = e.Stage
		if editErr := l.client.EditStatus(chatID, statusID, fmt.Sprintf("Stage: %s", e.Stage)); editErr != nil {
			slog.Debug("editing status message", logger.Err(editErr))
		}
	}

	result, err := l.extractor.ExtractText(ctx, msg.Text, onProgress)
	if err != nil {
		slog.Error("extracting text for telegram chat", "chatID", chatID, logger.Err(err))
		if replyErr := l.client.SendReply(chatID, msg.MessageID, "Extraction failed: "+err.Error()); replyErr != nil {
			slog.Error("sending failure reply", logger.Err(replyErr))
		}
		return
	}

	reply := fmt.Sprintf("%s\n\n%s", result.Descriptor.Title, result.Text)
	if err := l.client.SendReply(chatID, msg.MessageID, reply); err != nil {
		slog.Error("sending transcript reply", logger.Err(err))
	}
}
