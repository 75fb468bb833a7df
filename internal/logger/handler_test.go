package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path"
	"runtime"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_StripsRootAndAddsRequestId(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	root := path.Dir(path.Dir(path.Dir(thisFile)))

	var buf bytes.Buffer
	h, err := NewHandler(&buf, "json", slog.LevelDebug, root, middleware.RequestIDKey)
	require.NoError(t, err)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "host/abc-000001")
	slog.New(h).With("component", "test").WithGroup("g").InfoContext(ctx, "hello", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))

	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "test", rec["component"])

	// attributes added after WithGroup land inside the group
	group, ok := rec["g"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "host/abc-000001", group["request_id"])

	src, ok := group[slog.SourceKey].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "internal/logger/handler_test.go", src["file"])
}

func TestHandler_TextFormatWithoutRequestId(t *testing.T) {
	var buf bytes.Buffer
	h, err := NewHandler(&buf, "text", slog.LevelInfo, "/nowhere", middleware.RequestIDKey)
	require.NoError(t, err)

	l := slog.New(h)
	l.Debug("hidden")
	l.Info("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.False(t, strings.Contains(out, "request_id"))
}

func TestNewHandler_RejectsUnknownFormat(t *testing.T) {
	_, err := NewHandler(&bytes.Buffer{}, "xml", slog.LevelInfo, "/", nil)
	assert.Error(t, err)
}
