package telegram

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/movierank/internal/core"
	"github.com/vadimtrunov/movierank/internal/ranker"
)

const (
	unauthorizedMsg = "Sorry, you are not authorized to use this bot."
	errorMsg        = "An error occurred while processing your request. Please try again."
	busyMsg         = "Still working on your previous request, please wait."
	noTitlesMsg     = "Send me one or more movie titles separated by commas."
	helpMsg         = "Send me the movie(s) you would like recommendations based on, separated by a comma(,).\n" +
		"Example: Se7en, Zodiac\n\n" +
		"I will reply with related titles sorted by rating."

	callbackPrefix = "seed:" // prefix for "more like this" callback data

	maxCallbackData = 64 // Telegram limit for callback data, in bytes
	maxButtonLabel  = 30 // max characters in inline keyboard button label
	maxButtons      = 5
)

// handleMessage processes an incoming text message.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	userID := msg.From.ID
	chatID := msg.Chat.ID

	b.logger.Debug("received message",
		slog.Int64("user_id", userID),
	)

	if !b.sessions.isAllowed(userID) {
		b.sendText(chatID, unauthorizedMsg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	switch text {
	case "/start", "/help":
		b.sendText(chatID, helpMsg)
		return
	}

	seeds := ranker.ParseTitles(text)
	if len(seeds) == 0 {
		b.sendText(chatID, noTitlesMsg)
		return
	}
	b.recommend(ctx, userID, chatID, seeds)
}

// handleCallback processes "more like this" inline keyboard presses.
func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	userID := cq.From.ID
	chatID := cq.Message.Chat.ID

	b.logger.Debug("received callback",
		slog.Int64("user_id", userID),
		slog.String("data", cq.Data),
	)

	// Acknowledge the callback immediately.
	if _, err := b.send.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.logger.Debug("failed to ack callback", slog.String("error", err.Error()))
	}

	if !b.sessions.isAllowed(userID) {
		return
	}

	if !strings.HasPrefix(cq.Data, callbackPrefix) {
		return
	}
	seed := strings.TrimPrefix(cq.Data, callbackPrefix)
	if seed == "" {
		return
	}
	b.recommend(ctx, userID, chatID, []core.Title{seed})
}

// recommend ranks seeds and replies with the result.
func (b *Bot) recommend(ctx context.Context, userID, chatID int64, seeds []core.Title) {
	if !b.sessions.acquire(userID) {
		b.sendText(chatID, busyMsg)
		return
	}
	defer b.sessions.release(userID)

	// Show typing indicator.
	if _, err := b.send.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.logger.Debug("failed to send typing action", slog.String("error", err.Error()))
	}

	res, err := b.ranker.Rank(ctx, seeds)
	if err != nil {
		b.logger.Error("ranking failed",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		b.sendText(chatID, errorMsg)
		return
	}

	b.sendResult(chatID, res)
}

// sendResult sends a ranked list as MarkdownV2, falling back to plain text.
func (b *Bot) sendResult(chatID int64, res *ranker.Result) {
	source := b.ranker.Source()

	msg := tgbotapi.NewMessage(chatID, FormatRankedList(res, source))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	kb := buildSeedKeyboard(res)
	if kb != nil {
		msg.ReplyMarkup = kb
	}
	if _, err := b.send.Send(msg); err != nil {
		b.logger.Warn("failed to send markdown, retrying plain",
			slog.String("error", err.Error()),
		)
		plain := tgbotapi.NewMessage(chatID, FormatRankedListPlain(res, source))
		if kb != nil {
			plain.ReplyMarkup = kb
		}
		if _, err := b.send.Send(plain); err != nil {
			b.logger.Error("failed to send message",
				slog.Int64("chat_id", chatID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// sendText sends a plain text message (no parse mode).
func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.send.Send(msg); err != nil {
		b.logger.Error("failed to send message",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}

// buildSeedKeyboard offers a "more like this" button for each of the top
// ranked titles. Titles that do not fit in callback data are left out.
// Returns nil if there is nothing to offer.
func buildSeedKeyboard(res *ranker.Result) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, t := range res.Titles {
		if len(rows) == maxButtons {
			break
		}
		data := callbackPrefix + t.Title
		if len(data) > maxCallbackData {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("More like "+truncate(t.Title, maxButtonLabel), data),
		))
	}

	if len(rows) == 0 {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// truncate shortens s to at most n runes, adding an ellipsis when cut.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
