package logger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang-backtest/pkg/common"

	"go.uber.org/zap/zapcore"
)

// AlertSender delivers an already formatted alert message.
type AlertSender interface {
	SendAlert(ctx context.Context, message string) error
}

type AlertCore struct {
	sender   AlertSender
	core     zapcore.Core
	minLevel zapcore.Level
	timeout  time.Duration

	// fields bound through With, rendered in the alert too
	bound []zapcore.Field
}

// NewAlertCore wraps core so entries tagged with send_alert=true and at or
// above minLevel are also delivered through sender.
func NewAlertCore(core zapcore.Core, sender AlertSender, minLevel zapcore.Level) *AlertCore {
	return &AlertCore{
		sender:   sender,
		core:     core,
		minLevel: minLevel,
		timeout:  10 * time.Second,
	}
}

func (a *AlertCore) Enabled(lvl zapcore.Level) bool {
	return a.core.Enabled(lvl)
}

func (a *AlertCore) With(fields []zapcore.Field) zapcore.Core {
	bound := make([]zapcore.Field, 0, len(a.bound)+len(fields))
	bound = append(append(bound, a.bound...), fields...)
	return &AlertCore{
		sender:   a.sender,
		core:     a.core.With(fields),
		minLevel: a.minLevel,
		timeout:  a.timeout,
		bound:    bound,
	}
}

func (a *AlertCore) Check(entry zapcore.Entry, checkedEntry *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if a.Enabled(entry.Level) {
		return checkedEntry.AddCore(entry, a)
	}
	return checkedEntry
}

func (a *AlertCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	shouldSend := false
	for _, f := range fields {
		if f.Key == common.KEY_LOG_HOOK_SEND_ALERT && f.Type == zapcore.BoolType && f.Integer == 1 {
			shouldSend = true
			break
		}
	}
	if entry.Level >= a.minLevel && shouldSend && a.sender != nil {
		all := make([]zapcore.Field, 0, len(a.bound)+len(fields))
		all = append(append(all, a.bound...), fields...)
		go a.sendAlert(entry, all) // async biar tidak blocking
	}
	return a.core.Write(entry, fields)
}

func (a *AlertCore) Sync() error {
	return a.core.Sync()
}

func (a *AlertCore) sendAlert(entry zapcore.Entry, fields []zapcore.Field) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	_ = a.sender.SendAlert(ctx, FormatAlert(entry, fields))
}

// FormatAlert renders an entry as an HTML alert message.
func FormatAlert(entry zapcore.Entry, fields []zapcore.Field) string {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		if f.Key == common.KEY_LOG_HOOK_SEND_ALERT {
			continue
		}
		f.AddTo(enc)
	}

	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("• %s: %v\n", k, enc.Fields[k]))
	}

	return fmt.Sprintf(
		"🚨 <b>%s Alert</b>\n\n<b>Message:</b> %s\n\n<b>Fields:</b>\n%s\n<b>Time:</b> %s",
		entry.Level.CapitalString(),
		entry.Message,
		sb.String(),
		entry.Time.Format("2006-01-02 15:04:05"),
	)
}
