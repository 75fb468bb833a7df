package logger

import (
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/stretchr/testify/assert"
)

func TestTraceAttrs_DropsArgs(t *testing.T) {
	attrs := traceAttrs(map[string]any{
		"sql":  "SELECT *\n\tFROM \"book\"\n  WHERE id = $1",
		"args": []any{"secret"},
		"pid":  uint32(42),
		"time": "1ms",
	})

	keys := make([]string, 0, len(attrs))
	for _, a := range attrs {
		keys = append(keys, a.Key)
	}
	assert.Equal(t, []string{"sql", "time"}, keys)
	assert.Equal(t, `SELECT * FROM "book" WHERE id = $1`, attrs[0].Value.String())
}

func TestSlogLevel(t *testing.T) {
	for in, want := range map[tracelog.LogLevel]slog.Level{
		tracelog.LogLevelTrace: slog.LevelDebug,
		tracelog.LogLevelInfo:  slog.LevelDebug,
		tracelog.LogLevelWarn:  slog.LevelWarn,
		tracelog.LogLevelError: slog.LevelError,
	} {
		got, known := slogLevel(in)
		assert.True(t, known)
		assert.Equal(t, want, got)
	}

	_, known := slogLevel(tracelog.LogLevel(99))
	assert.False(t, known)
}
