package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/movierank/internal/core"
	"github.com/vadimtrunov/movierank/internal/ranker"
)

// Recommender ranks titles related to a list of seeds.
type Recommender interface {
	Rank(ctx context.Context, seeds []core.Title) (*ranker.Result, error)
	Source() string
}

// sender is the subset of *tgbotapi.BotAPI used to talk back to users.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot is the Telegram frontend for movierank.
type Bot struct {
	api      *tgbotapi.BotAPI
	send     sender
	sessions *sessionManager
	ranker   Recommender
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// New creates a new Telegram Bot.
func New(token string, allowedUserIDs []int64, r Recommender, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	b := newBot(api, allowedUserIDs, r, logger)
	b.api = api
	return b, nil
}

func newBot(s sender, allowedUserIDs []int64, r Recommender, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		send:     s,
		sessions: newSessionManager(allowedUserIDs),
		ranker:   r,
		logger:   logger,
	}
}

// Name returns the frontend name.
func (b *Bot) Name() string { return "telegram" }

// Start starts the long-polling loop. It blocks until ctx is canceled and
// in-flight updates have finished.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("telegram bot started",
		slog.String("username", b.api.Self.UserName),
	)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("telegram bot stopped")
			return nil

		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

// handleUpdate dispatches an incoming Telegram update.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}
