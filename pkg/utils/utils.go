package utils

import (
	"context"
	"fmt"
	"log"
	"math"
	"runtime"
	"runtime/debug"
	"strings"

	"golang-backtest/pkg/logger"
)

// GoSafe runs fn in a new goroutine. A panic is logged with its stack
// instead of crashing the process.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[Panic Recovered] %v\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}

func ToPointer[T any](value T) *T {
	return &value
}

// FiniteOrNil returns nil for NaN and infinities so the value can be JSON
// encoded.
func FiniteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ShouldContinue reports whether ctx is still live. A cancelled context is
// logged once with the calling function name.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	if ctx.Err() == nil {
		return true
	}
	log.WarnContext(ctx, "Context cancelled",
		logger.StringField("caller", callerName(2)),
		logger.ErrorField(context.Cause(ctx)),
	)
	return false
}

func callerName(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}
	name := fn.Name()
	return name[strings.LastIndex(name, "/")+1:]
}

func FormatPercentage(value float64) string {
	if math.IsNaN(value) {
		return "-"
	}
	return fmt.Sprintf("%+.1f%%", value)
}

// FormatFloat prints v with two decimals, or "-" when it is NaN.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}
