package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang-backtest/internal/dto"
	"golang-backtest/internal/service"
	"golang-backtest/internal/strategy"
	"golang-backtest/pkg/logger"

	"github.com/labstack/echo/v4"
	"gopkg.in/telebot.v3"
)

func (t *TelegramBotHandler) WithContext(handler func(ctx context.Context, c telebot.Context) error) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if c.Chat() == nil || c.Chat().ID != t.cfg.Telegram.ChatID {
			return c.Send(messageUnauthorized)
		}

		ctx, cancel := context.WithTimeout(t.ctx, t.cfg.API.Timeout)
		defer cancel()

		return handler(ctx, c)
	}
}

func (t *TelegramBotHandler) RegisterHandlers() {
	t.echo.POST(webhookPath, t.handleWebhook)

	t.bot.Handle("/start", t.WithContext(t.handleHelp))
	t.bot.Handle("/help", t.WithContext(t.handleHelp))
	t.bot.Handle("/signals", t.WithContext(t.handleSignals))
	t.bot.Handle("/jobs", t.WithContext(t.handleScheduler))

	t.bot.Handle(&btnDetailJob, t.WithContext(t.handleBtnDetailJob))
	t.bot.Handle(&btnActionRunJob, t.WithContext(t.handleBtnActionRunJob))
	t.bot.Handle(&btnActionBackToJobList, t.WithContext(t.handleScheduler))
	t.bot.Handle(&btnDeleteMessage, t.WithContext(t.handleBtnDeleteMessage))
}

func (t *TelegramBotHandler) handleWebhook(c echo.Context) error {
	var update telebot.Update
	if err := c.Bind(&update); err != nil {
		t.log.ErrorContext(t.ctx, "Cannot bind JSON", logger.ErrorField(err))
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}
	t.bot.ProcessUpdate(update)
	return c.JSON(http.StatusOK, dto.NewBaseResponse(http.StatusOK, "ok", nil))
}

func (t *TelegramBotHandler) handleHelp(ctx context.Context, c telebot.Context) error {
	return c.Send(helpMessage, telebot.ModeHTML)
}

// parseSignalArgs reads "<strategy> [rank_start] [rank_end]".
func parseSignalArgs(args []string) (dto.SignalRequest, error) {
	var req dto.SignalRequest
	if len(args) == 0 {
		return req, errors.New("strategy wajib diisi, contoh: /signals macd 0 100")
	}
	req.Strategy = strings.ToLower(args[0])

	ranks := make([]int, 0, 2)
	for _, a := range args[1:min(len(args), 3)] {
		v, err := strconv.Atoi(a)
		if err != nil || v < 0 {
			return req, fmt.Errorf("rank tidak valid: %s", a)
		}
		ranks = append(ranks, v)
	}
	switch len(ranks) {
	case 1:
		req.RankEnd = ranks[0]
	case 2:
		req.RankStart, req.RankEnd = ranks[0], ranks[1]
	}
	if req.RankEnd < req.RankStart {
		return req, errors.New("rank_end harus >= rank_start")
	}
	return req, nil
}

func (t *TelegramBotHandler) handleSignals(ctx context.Context, c telebot.Context) error {
	req, err := parseSignalArgs(c.Args())
	if err != nil {
		return c.Send(err.Error())
	}

	result, err := t.service.SignalService.GetTodaySignals(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) || errors.Is(err, service.ErrEmptyUniverse) ||
			errors.Is(err, strategy.ErrInvalidParameters) {
			return c.Send(err.Error())
		}
		t.log.ErrorContext(ctx, "Failed to get today signals", logger.ErrorField(err), logger.StringField("strategy", req.Strategy))
		return c.Send(commonErrorInternal)
	}

	return c.Send(service.FormatSignalMessage(result), telebot.ModeHTML, telebot.NoPreview)
}

func (t *TelegramBotHandler) handleBtnDeleteMessage(ctx context.Context, c telebot.Context) error {
	if err := c.Delete(); err != nil {
		t.log.ErrorContext(ctx, "Failed to delete message", logger.ErrorField(err))
	}
	return c.Respond()
}
