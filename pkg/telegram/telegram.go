package telegram

import (
	"context"
	"fmt"
	"strings"

	"golang-backtest/config"
	"golang-backtest/pkg/logger"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

// maxMessageLength is the Telegram limit for one text message.
const maxMessageLength = 4096

// Sender is the subset of *telebot.Bot used by the notifier.
type Sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// Notifier delivers HTML messages to a single chat.
type Notifier interface {
	SendMessage(ctx context.Context, message string) error
	SendAlert(ctx context.Context, message string) error
}

type notifier struct {
	log           *logger.Logger
	sender        Sender
	chat          *telebot.Chat
	globalLimiter *rate.Limiter
}

// NewNotifier builds a notifier sending to cfg.ChatID, limited to
// cfg.MaxGlobalRequestPerSecond messages per second.
func NewNotifier(cfg *config.TelegramConfig, log *logger.Logger, sender Sender) Notifier {
	perSecond := max(cfg.MaxGlobalRequestPerSecond, 1)
	return &notifier{
		log:           log,
		sender:        sender,
		chat:          &telebot.Chat{ID: cfg.ChatID},
		globalLimiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
	}
}

// NewBot creates an offline bot: no request is made until the first send.
func NewBot(cfg *config.TelegramConfig, log *logger.Logger) (*telebot.Bot, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:   cfg.BotToken,
		Offline: true,
		OnError: func(err error, _ telebot.Context) {
			log.Error("Telegram bot error", logger.ErrorField(err))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return bot, nil
}

func (n *notifier) SendMessage(ctx context.Context, message string) error {
	for _, chunk := range Split(message, maxMessageLength) {
		if err := n.globalLimiter.Wait(ctx); err != nil {
			n.log.ErrorContext(ctx, "Failed to wait for global rate limit", logger.ErrorField(err))
			return err
		}
		if _, err := n.sender.Send(n.chat, chunk, telebot.ModeHTML, telebot.NoPreview); err != nil {
			n.log.ErrorContext(ctx, "Failed to send message", logger.ErrorField(err))
			return fmt.Errorf("failed to send telegram message: %w", err)
		}
	}
	return nil
}

// SendAlert satisfies logger.AlertSender. It must not log an alert itself.
func (n *notifier) SendAlert(ctx context.Context, message string) error {
	if err := n.globalLimiter.Wait(ctx); err != nil {
		return err
	}
	_, err := n.sender.Send(n.chat, truncate(message, maxMessageLength), telebot.ModeHTML)
	return err
}

type nopNotifier struct {
	log *logger.Logger
}

// NewNopNotifier logs messages instead of sending them. It is used when no
// bot token is configured.
func NewNopNotifier(log *logger.Logger) Notifier {
	return &nopNotifier{log: log}
}

func (n *nopNotifier) SendMessage(ctx context.Context, message string) error {
	n.log.InfoContext(ctx, "Telegram disabled, message not sent", logger.IntField("length", len(message)))
	return nil
}

func (n *nopNotifier) SendAlert(context.Context, string) error {
	return nil
}

// Split cuts message into chunks of at most limit bytes, preferring line
// boundaries. A <pre> block cut in two is closed and reopened.
func Split(message string, limit int) []string {
	const openPre, closePre = "<pre>", "</pre>"
	if len(message) <= limit || limit <= len(openPre)+len(closePre) {
		return []string{message}
	}

	var (
		chunks []string
		sb     strings.Builder
		inPre  bool
		start  int
	)
	flush := func() {
		chunk := sb.String()
		if inPre {
			chunk += closePre
		}
		chunks = append(chunks, chunk)
		sb.Reset()
		if inPre {
			sb.WriteString(openPre)
		}
		start = sb.Len()
	}

	for _, line := range strings.SplitAfter(message, "\n") {
		rest := line
		for rest != "" {
			room := limit - sb.Len()
			if inPre {
				room -= len(closePre)
			}
			if len(rest) <= room {
				sb.WriteString(rest)
				break
			}
			if sb.Len() > start {
				flush()
				continue
			}
			sb.WriteString(rest[:room])
			rest = rest[room:]
			flush()
		}
		if strings.Contains(line, openPre) {
			inPre = true
		}
		if strings.Contains(line, closePre) {
			inPre = false
		}
	}
	if sb.Len() > start {
		chunks = append(chunks, sb.String())
	}
	return chunks
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
