package notify

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// StatusSource renders replies to operator commands.
type StatusSource interface {
	PingText() string
	VolumeText(ctx context.Context) string
}

// RegisterCommands wires /ping and /volume to src.
func RegisterCommands(b *bot.Bot, src StatusSource) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/ping", bot.MatchTypeExact, replyWith(func(context.Context) string {
		return src.PingText()
	}))
	b.RegisterHandler(bot.HandlerTypeMessageText, "/volume", bot.MatchTypeExact, replyWith(src.VolumeText))
}

func replyWith(render func(context.Context) string) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil {
			return
		}
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   render(ctx),
		})
		if err != nil {
			slog.Warn("Command reply failed", "chat", update.Message.Chat.ID, "error", err)
		}
	}
}
