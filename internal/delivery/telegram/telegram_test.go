package telegram

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang-backtest/config"
	"golang-backtest/internal/model"
	"golang-backtest/internal/service"
	"golang-backtest/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

type fakeBot struct {
	handled []interface{}
	updates []telebot.Update
	webhook *telebot.Webhook
	removed bool
}

func (b *fakeBot) Handle(endpoint interface{}, _ telebot.HandlerFunc, _ ...telebot.MiddlewareFunc) {
	b.handled = append(b.handled, endpoint)
}

func (b *fakeBot) ProcessUpdate(u telebot.Update) { b.updates = append(b.updates, u) }

func (b *fakeBot) SetWebhook(w *telebot.Webhook) error {
	b.webhook = w
	return nil
}

func (b *fakeBot) RemoveWebhook(...bool) error {
	b.removed = true
	return nil
}

type fakeContext struct {
	telebot.Context
	chat *telebot.Chat
	args []string
	sent []interface{}
}

func (c *fakeContext) Chat() *telebot.Chat { return c.chat }
func (c *fakeContext) Args() []string      { return c.args }

func (c *fakeContext) Send(what interface{}, _ ...interface{}) error {
	c.sent = append(c.sent, what)
	return nil
}

func testHandler(bot Bot) *TelegramBotHandler {
	cfg := &config.Config{
		API:      config.API{Timeout: time.Minute},
		Telegram: config.TelegramConfig{ChatID: 42, WebhookURL: "https://example.com/hook"},
	}
	return NewTelegramBotHandler(context.Background(), cfg, logger.NewNop(), bot, echo.New(), &service.Service{})
}

func TestStartRegistersWebhookAndCommands(t *testing.T) {
	bot := &fakeBot{}
	h := testHandler(bot)

	require.NoError(t, h.Start())
	require.NotNil(t, bot.webhook)
	assert.Equal(t, "https://example.com/hook", bot.webhook.Endpoint.PublicURL)
	assert.Contains(t, bot.handled, "/signals")
	assert.Contains(t, bot.handled, "/jobs")

	body := `{"update_id":11,"message":{"message_id":1,"text":"/help","chat":{"id":42,"type":"private"}}}`
	req := httptest.NewRequest(http.MethodPost, webhookPath, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	h.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, bot.updates, 1)
	assert.Equal(t, 11, bot.updates[0].ID)

	h.Stop()
	assert.True(t, bot.removed)
}

func TestStartWithoutWebhook(t *testing.T) {
	bot := &fakeBot{}
	h := testHandler(bot)
	h.cfg.Telegram.WebhookURL = ""

	require.NoError(t, h.Start())
	assert.Nil(t, bot.webhook)
	assert.Empty(t, bot.handled)

	h.Stop()
	assert.False(t, bot.removed)
}

func TestWithContextRejectsOtherChats(t *testing.T) {
	h := testHandler(&fakeBot{})
	called := false
	handler := h.WithContext(func(ctx context.Context, c telebot.Context) error {
		called = true
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return nil
	})

	c := &fakeContext{chat: &telebot.Chat{ID: 7}}
	require.NoError(t, handler(c))
	assert.False(t, called)
	assert.Equal(t, []interface{}{messageUnauthorized}, c.sent)

	require.NoError(t, handler(&fakeContext{chat: &telebot.Chat{ID: 42}}))
	assert.True(t, called)
}

func TestHandleSignalsBadArgs(t *testing.T) {
	h := testHandler(&fakeBot{})
	c := &fakeContext{chat: &telebot.Chat{ID: 42}, args: []string{"macd", "x"}}

	require.NoError(t, h.handleSignals(context.Background(), c))
	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "rank tidak valid")
}

func TestParseSignalArgs(t *testing.T) {
	req, err := parseSignalArgs([]string{"MACD"})
	require.NoError(t, err)
	assert.Equal(t, "macd", req.Strategy)
	assert.Zero(t, req.RankEnd)

	req, err = parseSignalArgs([]string{"record", "50"})
	require.NoError(t, err)
	assert.Equal(t, 0, req.RankStart)
	assert.Equal(t, 50, req.RankEnd)

	req, err = parseSignalArgs([]string{"reverse", "10", "20", "ignored"})
	require.NoError(t, err)
	assert.Equal(t, 10, req.RankStart)
	assert.Equal(t, 20, req.RankEnd)

	_, err = parseSignalArgs(nil)
	assert.Error(t, err)
	_, err = parseSignalArgs([]string{"macd", "30", "10"})
	assert.Error(t, err)
	_, err = parseSignalArgs([]string{"macd", "-1"})
	assert.Error(t, err)
}

func TestFormatJobs(t *testing.T) {
	job := config.SchedulerJob{Name: "daily-macd", Strategy: "macd", Cron: "0 18 * * 1-5", RankEnd: 100}

	list := formatJobList([]config.SchedulerJob{job})
	assert.Contains(t, list, "<b>daily-macd</b> - macd (<code>0 18 * * 1-5</code>)")

	assert.Contains(t, formatJobDetail(job, nil), "Tidak ada")

	started := time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC)
	runs := []model.JobRun{
		{Status: model.StatusCompleted, StartedAt: started, CompletedAt: sql.NullTime{Time: started.Add(1500 * time.Millisecond), Valid: true}},
		{Status: model.StatusRunning, StartedAt: started},
	}
	detail := formatJobDetail(job, runs)
	assert.Contains(t, detail, "Rank: 0 - 100")
	assert.Contains(t, detail, "1. 🟢 03/04 18:00 - COMPLETED (1.5s)")
	assert.Contains(t, detail, "2. 🟡 03/04 18:00 - RUNNING\n")
}
