package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureJSONLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(previous) })
	return &buf
}

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestLogError(t *testing.T) {
	buf := captureJSONLog(t)

	LogError(errors.New("disk full"), "Failed to save rules", Fields{"rules": 3, "backend": "file"})

	record := decodeRecord(t, buf)
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "Failed to save rules", record["msg"])
	assert.Equal(t, "disk full", record["error"])
	assert.InDelta(t, 3, record["rules"], 0)
	assert.Equal(t, "file", record["backend"])
}

func TestLogInfo(t *testing.T) {
	buf := captureJSONLog(t)

	LogInfo("Applied rules", Fields{"matched": 2})

	record := decodeRecord(t, buf)
	assert.Equal(t, "INFO", record["level"])
	assert.Equal(t, "Applied rules", record["msg"])
	assert.InDelta(t, 2, record["matched"], 0)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "verbose", want: slog.LevelInfo, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewHandler(t *testing.T) {
	var buf bytes.Buffer
	h, err := NewHandler(&buf, slog.LevelInfo, "json")
	require.NoError(t, err)
	slog.New(h).Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	_, err = NewHandler(&buf, slog.LevelInfo, "xml")
	require.ErrorIs(t, err, ErrInvalidConfig)
}
