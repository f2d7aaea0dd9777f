package telegram

import (
	"context"
	"fmt"
	"time"

	"golang-backtest/config"
	"golang-backtest/internal/service"
	"golang-backtest/pkg/logger"

	"github.com/labstack/echo/v4"
	"gopkg.in/telebot.v3"
)

const (
	webhookPath     = "/api/telegram/webhook"
	shutdownTimeout = 10 * time.Second
)

// Bot is the subset of *telebot.Bot the command handler needs.
type Bot interface {
	Handle(endpoint interface{}, h telebot.HandlerFunc, m ...telebot.MiddlewareFunc)
	ProcessUpdate(u telebot.Update)
	SetWebhook(w *telebot.Webhook) error
	RemoveWebhook(dropPending ...bool) error
}

// TelegramBotHandler answers chat commands coming through the webhook.
type TelegramBotHandler struct {
	ctx     context.Context
	cfg     *config.Config
	bot     Bot
	log     *logger.Logger
	echo    *echo.Echo
	service *service.Service
}

func NewTelegramBotHandler(
	ctx context.Context,
	cfg *config.Config,
	log *logger.Logger,
	bot Bot,
	echo *echo.Echo,
	service *service.Service) *TelegramBotHandler {
	return &TelegramBotHandler{
		ctx:     ctx,
		cfg:     cfg,
		log:     log,
		bot:     bot,
		echo:    echo,
		service: service,
	}
}

// Start registers the webhook and the commands. It is a no-op when no
// webhook URL is configured.
func (t *TelegramBotHandler) Start() error {
	if t.cfg.Telegram.WebhookURL == "" {
		t.log.Info("Telegram webhook is disabled")
		return nil
	}

	t.log.Info("Setting webhook URL", logger.StringField("webhook_url", t.cfg.Telegram.WebhookURL))
	if err := t.bot.SetWebhook(&telebot.Webhook{
		Endpoint: &telebot.WebhookEndpoint{PublicURL: t.cfg.Telegram.WebhookURL},
	}); err != nil {
		return fmt.Errorf("failed to set telegram webhook: %w", err)
	}

	t.RegisterHandlers()
	return nil
}

// Stop removes the webhook so telegram stops pushing updates.
func (t *TelegramBotHandler) Stop() {
	if t.cfg.Telegram.WebhookURL == "" {
		return
	}
	t.log.Info("Stopping Telegram bot...")

	ctx, cancel := context.WithTimeout(context.WithoutCancel(t.ctx), shutdownTimeout)
	defer cancel()

	stopDone := make(chan error, 1)
	go func() {
		stopDone <- t.bot.RemoveWebhook()
	}()

	select {
	case err := <-stopDone:
		if err != nil {
			t.log.Error("Failed to remove telegram webhook", logger.ErrorField(err))
			return
		}
		t.log.Info("Telegram bot stopped successfully")
	case <-ctx.Done():
		t.log.Warn("Timeout while stopping bot, forcing shutdown")
	}
}
