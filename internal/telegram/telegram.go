// Package telegram is the bot surface: the long-poll intake loop, the mapping
// from inbound messages to transfer descriptors, commands, and the reply flow
// that edits the "processing" message in place once a transfer finishes.
package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/fileferry/ferry/internal/relay"
	"github.com/fileferry/ferry/internal/staging"
	"github.com/fileferry/ferry/internal/version"
)

// NewAPI dials the Bot API and validates the token.
func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram: bot token is required")
	}
	return tgbotapi.NewBotAPI(token)
}

// Bot consumes updates and hands file messages to the transfer runner. The
// intake loop never blocks on a transfer; handlers run on tracked goroutines
// so Stop can wait for them.
type Bot struct {
	api      *tgbotapi.BotAPI
	runner   *relay.Runner
	staging  *staging.Dir
	limiter  *chatLimiter
	maxBytes int64
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBot wires the bot surface. maxBytes is the transfer ceiling shown in
// user-facing texts; perChatPerMinute caps file submissions per chat.
func NewBot(log *slog.Logger, api *tgbotapi.BotAPI, runner *relay.Runner, dir *staging.Dir, maxBytes int64, perChatPerMinute int) *Bot {
	if log == nil {
		log = slog.Default()
	}
	return &Bot{
		api:      api,
		runner:   runner,
		staging:  dir,
		limiter:  newChatLimiter(perChatPerMinute),
		maxBytes: maxBytes,
		logger:   log.With(slog.String("service", "bot")),
	}
}

// Start begins long polling. The loop runs until Stop.
func (b *Bot) Start(_ context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := b.api.GetUpdatesChan(updateConfig)

	loopCtx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.wg.Add(1)
	go b.run(loopCtx, updates)
	b.logger.Info("intake started", slog.String("bot", b.api.Self.UserName))
	return nil
}

// Stop ends polling and waits for in-flight handlers (not transfers; the
// runner drains those) until ctx expires.
func (b *Bot) Stop(ctx context.Context) error {
	if b.cancel != nil {
		b.cancel()
	}
	b.api.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		b.logger.Info("intake stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bot) run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				b.logger.Info("updates channel closed")
				return
			}
			msg := update.Message
			if msg == nil || msg.Chat == nil {
				continue
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handle(ctx, msg)
			}()
		}
	}
}

func (b *Bot) handle(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	cat, ok := categoryOf(msg)
	if !ok {
		return
	}
	chatID := msg.Chat.ID
	if !b.limiter.Allow(chatID) {
		b.reply(chatID, msg.MessageID, rateLimitedText)
		return
	}

	desc := DescriptorFromMessage(msg, cat)
	b.logger.Info("file received",
		slog.String("file", desc.DisplayName),
		slog.String("category", string(desc.Category)),
		slog.Int64("declared", desc.DeclaredSize),
		slog.Int64("chat_id", chatID))

	processing, err := b.reply(chatID, msg.MessageID, processingText)
	if err != nil {
		return
	}
	err = b.runner.Submit(ctx, desc, func(res relay.TransferResult, err error) {
		b.finish(chatID, processing.MessageID, desc, res, err)
	})
	if err != nil {
		b.finish(chatID, processing.MessageID, desc, relay.TransferResult{}, err)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.reply(msg.Chat.ID, msg.MessageID, welcomeText(b.maxBytes))
	case "help":
		b.reply(msg.Chat.ID, msg.MessageID, helpText())
	case "status":
		gw := b.runner.Gateway()
		status := gw.Describe(ctx)
		count, total, err := b.staging.Stats()
		if err != nil {
			b.logger.Warn("staging stats failed", slog.Any("error", err))
		}
		b.reply(msg.Chat.ID, msg.MessageID, statusText(gw.Name(), status, count, total, version.GetInfo()))
	}
}

// finish rewrites the processing message with the transfer outcome.
func (b *Bot) finish(chatID int64, messageID int, desc relay.FileDescriptor, res relay.TransferResult, err error) {
	if err != nil {
		b.edit(chatID, messageID, failureText(err, b.maxBytes))
		return
	}
	url := ""
	if len(res.Locator.URLs) > 0 {
		url = res.Locator.URLs[0]
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID,
		successText(desc.DisplayName, res.FinalByteLength, url))
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.DisableWebPagePreview = true
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Error("edit message failed", slog.Any("error", err))
	}
}

func (b *Bot) reply(chatID int64, replyTo int, text string) (tgbotapi.Message, error) {
	message := tgbotapi.NewMessage(chatID, text)
	if replyTo > 0 {
		message.ReplyToMessageID = replyTo
	}
	sent, err := b.api.Send(message)
	if err != nil {
		b.logger.Error("send message failed",
			slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
	return sent, err
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Error("edit message failed",
			slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
}
