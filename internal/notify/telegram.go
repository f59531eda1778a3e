package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"habittracker/backend/internal/logger"
)

var ErrNoChat = errors.New("no chat id")

// Notifier delivers a text message to a user's chat.
type Notifier interface {
	Notify(ctx context.Context, chatID, text string) error
}

// Sender is the part of *tgbotapi.BotAPI used for delivery.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramNotifier struct {
	sender Sender
}

// NewTelegramNotifier connects to the Bot API. An empty endpoint uses the
// public Telegram server. Every Bot API request, including the initial
// getMe, is bounded by timeout.
func NewTelegramNotifier(token, endpoint string, timeout time.Duration) (*TelegramNotifier, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	logger.Info("telegram bot authorized", "username", bot.Self.UserName)
	return NewTelegramNotifierWithSender(bot), nil
}

func NewTelegramNotifierWithSender(sender Sender) *TelegramNotifier {
	return &TelegramNotifier{sender: sender}
}

func (n *TelegramNotifier) Notify(ctx context.Context, chatID, text string) error {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return ErrNoChat
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg tgbotapi.MessageConfig
	if numericID, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		msg = tgbotapi.NewMessage(numericID, text)
	} else {
		// @channelname style ids
		msg = tgbotapi.NewMessageToChannel(chatID, text)
	}

	if _, err := n.sender.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// NopNotifier drops every message. Used when no bot token is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, string) error {
	return nil
}

// Dispatch sends text in the background and only logs failures. The caller's
// request is never delayed or failed by delivery. timeout cancels ctx, which
// Notify checks before sending; the send itself is bounded by the notifier's
// HTTP client.
func Dispatch(notifier Notifier, timeout time.Duration, chatID, text string) <-chan error {
	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := notifier.Notify(ctx, chatID, text)
		switch {
		case errors.Is(err, ErrNoChat):
			logger.Debug("notification skipped, user has no chat id")
		case err != nil:
			logger.Warn("notification failed", "chat_id", chatID, "err", err)
		}
		done <- err
		close(done)
	}()
	return done
}
