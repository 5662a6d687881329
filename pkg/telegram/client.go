package telegram

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const maxMessageLen = 4000

type client struct {
	bot       *tgbotapi.BotAPI
	updatesCh tgbotapi.UpdatesChannel
}

func NewClient(token string) (*client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating bot api instance: %w", err)
	}

	slog.Info("authorized on telegram", "account", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	return &client{
		bot:       bot,
		updatesCh: bot.GetUpdatesChan(u),
	}, nil
}

func (c *client) GetUpdates() tgbotapi.UpdatesChannel {
	return c.updatesCh
}

func (c *client) StopReceivingUpdates() {
	c.bot.StopReceivingUpdates()
}

// SendReply sends text as a reply, splitting it when it exceeds the
// Telegram message size limit.
func (c *client) SendReply(chatID int64, replyToMessageID int, text string) error {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ReplyToMessageID = replyToMessageID
		if _, err := c.bot.Send(msg); err != nil {
			return fmt.Errorf("sending message: %w", err)
		}
		replyToMessageID = 0
	}
	return nil
}

// SendStatus sends a standalone status message and returns its ID so it
// can be edited as the pipeline progresses.
func (c *client) SendStatus(chatID int64, text string) (int, error) {
	sent, err := c.bot.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return 0, fmt.Errorf("sending status message: %w", err)
	}
	return sent.MessageID, nil
}

func (c *client) EditStatus(chatID int64, messageID int, text string) error {
	if _, err := c.bot.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		return fmt.Errorf("editing status message: %w", err)
	}
	return nil
}

func splitMessage(text string, limit int) []string {
	if text == "" {
		return []string{""}
	}
	var chunks []string
	runes := []rune(text)
	for len(runes) > 0 {
		n := limit
		if n > len(runes) {
			n = len(runes)
		}
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}
	return chunks
}
