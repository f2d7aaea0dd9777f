package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang-backtest/config"
	"golang-backtest/internal/model"
	"golang-backtest/internal/service"
	"golang-backtest/pkg/logger"
	"golang-backtest/pkg/utils"

	"gopkg.in/telebot.v3"
)

func (t *TelegramBotHandler) handleScheduler(ctx context.Context, c telebot.Context) error {
	jobs := t.service.SchedulerService.Jobs()
	if len(jobs) == 0 {
		return c.Send(messageNoJobs)
	}

	menu := &telebot.ReplyMarkup{}
	rows := make([]telebot.Row, 0, len(jobs)+1)
	for _, job := range jobs {
		rows = append(rows, menu.Row(menu.Data(job.Name, btnDetailJob.Unique, job.Name)))
	}
	rows = append(rows, menu.Row(menu.Data(btnDeleteMessage.Text, btnDeleteMessage.Unique)))
	menu.Inline(rows...)

	msg := formatJobList(jobs)
	if c.Callback() != nil {
		return c.Edit(msg, menu, telebot.ModeHTML)
	}
	return c.Send(msg, menu, telebot.ModeHTML)
}

func (t *TelegramBotHandler) findJob(name string) (config.SchedulerJob, bool) {
	for _, job := range t.service.SchedulerService.Jobs() {
		if job.Name == name {
			return job, true
		}
	}
	return config.SchedulerJob{}, false
}

func (t *TelegramBotHandler) handleBtnDetailJob(ctx context.Context, c telebot.Context) error {
	job, ok := t.findJob(c.Data())
	if !ok {
		return c.Send(messageJobNotFound)
	}

	runs, err := t.service.SchedulerService.GetRecentRuns(ctx, job.Name, recentRunLimit)
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to get job runs", logger.ErrorField(err), logger.StringField("job", job.Name))
		return c.Send(commonErrorInternal)
	}

	menu := &telebot.ReplyMarkup{}
	menu.Inline(menu.Row(
		menu.Data(btnActionRunJob.Text, btnActionRunJob.Unique, job.Name),
		menu.Data(btnActionBackToJobList.Text, btnActionBackToJobList.Unique),
	))

	return c.Edit(formatJobDetail(job, runs), menu, telebot.ModeHTML)
}

func (t *TelegramBotHandler) handleBtnActionRunJob(ctx context.Context, c telebot.Context) error {
	job, ok := t.findJob(c.Data())
	if !ok {
		return c.Send(messageJobNotFound)
	}

	// the run outlives the callback, results arrive through the notifier
	runCtx := context.WithoutCancel(t.ctx)
	utils.GoSafe(func() {
		if err := t.service.SchedulerService.RunJob(runCtx, job.Name); err != nil && !errors.Is(err, service.ErrInvalidRequest) {
			t.log.ErrorContext(runCtx, "Failed to run job", logger.ErrorField(err), logger.StringField("job", job.Name))
		}
	})

	return c.Respond(&telebot.CallbackResponse{Text: messageJobStarted})
}

func formatJobList(jobs []config.SchedulerJob) string {
	var sb strings.Builder
	sb.WriteString("📋 <b>Daftar Scheduler:</b>\n\n")
	for _, job := range jobs {
		sb.WriteString(fmt.Sprintf(" • <b>%s</b> - %s (<code>%s</code>)\n", job.Name, job.Strategy, job.Cron))
	}
	sb.WriteString("\n<i>👉 Tekan tombol di bawah untuk lihat detail dan jalankan manual</i>")
	return sb.String()
}

func runStatusIcon(status model.RunStatus) string {
	switch status {
	case model.StatusRunning:
		return "🟡"
	case model.StatusFailed:
		return "🔴"
	default:
		return "🟢"
	}
}

func formatJobDetail(job config.SchedulerJob, runs []model.JobRun) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>%s</b>\n\n", job.Name))
	sb.WriteString(fmt.Sprintf("🔍 Strategy: %s\n", job.Strategy))
	sb.WriteString(fmt.Sprintf("📅 Jadwal: <code>%s</code>\n", job.Cron))
	if job.RankEnd > 0 {
		sb.WriteString(fmt.Sprintf("🏷 Rank: %d - %d\n", job.RankStart, job.RankEnd))
	}

	sb.WriteString("\n📜 Riwayat Eksekusi Terakhir:\n")
	if len(runs) == 0 {
		sb.WriteString(" Tidak ada\n")
		return sb.String()
	}
	for idx, run := range runs {
		line := fmt.Sprintf("%d. %s %s - %s", idx+1, runStatusIcon(run.Status), run.StartedAt.Format("01/02 15:04"), strings.ToUpper(string(run.Status)))
		if run.CompletedAt.Valid {
			line += fmt.Sprintf(" (%.1fs)", run.CompletedAt.Time.Sub(run.StartedAt).Seconds())
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}
