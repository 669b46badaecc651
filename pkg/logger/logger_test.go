package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, LevelError, ParseLevel("ERROR"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelInfo}).With(Component("swap"))

	log.Debug("hidden")
	log.Info("request accepted",
		SwapRequestID("req-1"),
		UserID("bob"),
		Err(errors.New("boom")),
		Latency(1500*time.Millisecond),
	)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "request accepted", rec["msg"])
	assert.Equal(t, "swap", rec["component"])
	assert.Equal(t, "req-1", rec["swap_request_id"])
	assert.Equal(t, "bob", rec["user_id"])
	assert.Equal(t, "boom", rec["error"])
	assert.Equal(t, "1.5s", rec["latency"])
}

func TestContextPropagation(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Format: "text"}).WithRequestID("abc")

	ctx := WithContext(context.Background(), log)
	FromContext(ctx).Info("hello")

	assert.Contains(t, buf.String(), "request_id=abc")
	assert.NotNil(t, FromContext(context.Background()))
}
