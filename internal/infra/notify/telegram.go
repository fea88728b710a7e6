package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// botAPI is the part of *bot.Bot used for sending.
type botAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	SendVideo(ctx context.Context, params *bot.SendVideoParams) (*models.Message, error)
}

// Telegram sends messages to one chat.
type Telegram struct {
	api    botAPI
	chatID string
	log    *slog.Logger
}

// NewTelegram creates the bot client. Commands are registered separately
// with RegisterCommands.
func NewTelegram(token, chatID string) (*Telegram, *bot.Bot, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, nil, fmt.Errorf("telegram init: %w", err)
	}
	return newTelegram(b, chatID), b, nil
}

func newTelegram(api botAPI, chatID string) *Telegram {
	return &Telegram{
		api:    api,
		chatID: chatID,
		log:    slog.Default().With("component", "telegram"),
	}
}

// Send implements Sink.
func (t *Telegram) Send(ctx context.Context, msg Message) error {
	mode := models.ParseMode("")
	if msg.Markdown {
		mode = models.ParseModeMarkdownV1
	}

	if msg.Media == MediaNone {
		_, err := t.api.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    t.chatID,
			Text:      msg.Text,
			ParseMode: mode,
		})
		return err
	}

	f, err := os.Open(msg.MediaPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMediaUnavailable, err)
	}
	defer f.Close()
	upload := &models.InputFileUpload{Filename: filepath.Base(msg.MediaPath), Data: f}

	switch msg.Media {
	case MediaPhoto:
		_, err = t.api.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:    t.chatID,
			Photo:     upload,
			Caption:   msg.Text,
			ParseMode: mode,
		})
	case MediaVideo:
		_, err = t.api.SendVideo(ctx, &bot.SendVideoParams{
			ChatID:    t.chatID,
			Video:     upload,
			Caption:   msg.Text,
			ParseMode: mode,
		})
	default:
		err = fmt.Errorf("unknown media kind %d", msg.Media)
	}
	return err
}
