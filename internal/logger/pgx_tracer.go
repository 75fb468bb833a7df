package logger

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
)

// NewPGXTracer bridges pgx query logging into l. Query args are never logged, they carry
// user supplied filter text.
func NewPGXTracer(l *slog.Logger) *tracelog.TraceLog {
	return &tracelog.TraceLog{
		Logger: tracelog.LoggerFunc(func(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
			lvl, known := slogLevel(level)
			if !l.Enabled(ctx, lvl) {
				return
			}

			r := slog.NewRecord(time.Now(), lvl, msg, callerPC())
			r.AddAttrs(traceAttrs(data)...)
			if !known {
				r.AddAttrs(slog.Any("INVALID_PGX_LOG_LEVEL", level))
			}
			_ = l.Handler().Handle(ctx, r)
		}),
		LogLevel: tracelog.LogLevelDebug,
	}
}

func slogLevel(l tracelog.LogLevel) (slog.Level, bool) {
	switch l {
	case tracelog.LogLevelTrace, tracelog.LogLevelDebug, tracelog.LogLevelInfo:
		return slog.LevelDebug, true
	case tracelog.LogLevelWarn:
		return slog.LevelWarn, true
	case tracelog.LogLevelError:
		return slog.LevelError, true
	default:
		return slog.LevelError, false
	}
}

func traceAttrs(data map[string]any) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(data))
	for k, v := range data {
		switch k {
		case "args", "pid":
		case "sql":
			if s, ok := v.(string); ok {
				v = strings.Join(strings.Fields(s), " ")
			}
			attrs = append(attrs, slog.Any(k, v))
		default:
			attrs = append(attrs, slog.Any(k, v))
		}
	}

	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].Key < attrs[j].Key
	})

	return attrs
}

func callerPC() uintptr {
	var pcs [1]uintptr
	// skip [runtime.Callers, this function, the LoggerFunc closure, its callers inside tracelog * 3]
	runtime.Callers(6, pcs[:])
	return pcs[0]
}
