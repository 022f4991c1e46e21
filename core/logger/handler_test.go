package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emitOne(t *testing.T, format logFormat, build func(*slog.Logger)) string {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	h := newStructuredHandler(handlerConfig{
		level:  slog.LevelDebug,
		writer: aw,
		format: format,
	})
	build(slog.New(h))
	require.NoError(t, aw.Flush())
	require.NoError(t, aw.Close())
	return strings.TrimSpace(buf.String())
}

func TestHandlerKVKeyOrder(t *testing.T) {
	ctx := WithUpdateMeta(WithRID(context.Background(), "rid-1"), 42, 7, 9)
	line := emitOne(t, formatKV, func(l *slog.Logger) {
		LogEvent(ctx, l.With("component", CompSession), slog.LevelInfo, "session.transition",
			slog.String("status", "OK"),
			slog.String("from_state", "idle"),
			slog.String("to_state", "awaiting_city"),
		)
	})

	tokens := strings.Split(line, " ")
	want := []string{"ts=", "level=INFO", "component=service.session", "event=session.transition", "status=ok", "rid=rid-1"}
	require.GreaterOrEqual(t, len(tokens), len(want))
	for i, prefix := range want {
		assert.True(t, strings.HasPrefix(tokens[i], prefix), "token %d = %q, want prefix %q", i, tokens[i], prefix)
	}
	assert.Contains(t, line, "user_id=7")
	assert.Contains(t, line, "chat_id=9")
	assert.Less(t, strings.Index(line, "from_state="), strings.Index(line, "to_state="))
}

func TestHandlerJSONCompactRID(t *testing.T) {
	raw := "12:34:56"
	ctx := WithRID(context.Background(), raw)
	line := emitOne(t, formatJSON, func(l *slog.Logger) {
		LogEvent(ctx, l, slog.LevelError, "weather.fetch",
			slog.String("err", "boom"),
			slog.Duration("duration", 1500*time.Microsecond),
		)
	})

	require.True(t, strings.HasPrefix(line, `{"ts":`), line)
	assert.Contains(t, line, `"level":"ERROR"`)
	assert.Contains(t, line, `"component":"app"`)
	assert.Contains(t, line, `"rid":"`+CompactRID(raw)+`"`)
	assert.Contains(t, line, `"rid_full":"`+raw+`"`)
	assert.Contains(t, line, `"duration_ms":2`)
	assert.Contains(t, line, `"ts_unix_nano"`)
}

func TestHandlerKVOmitsFullRID(t *testing.T) {
	ctx := WithRID(context.Background(), "123:456:789")
	line := emitOne(t, formatKV, func(l *slog.Logger) {
		LogEvent(ctx, l, slog.LevelInfo, "rid.test")
	})
	assert.Contains(t, line, "rid="+CompactRID("123:456:789"))
	assert.NotContains(t, line, "rid_full=")
}

func TestHandlerDropsUnknownEnums(t *testing.T) {
	line := emitOne(t, formatKV, func(l *slog.Logger) {
		l.Info("", slog.String("event", "cache.lookup"), slog.String("cache", "HIT"), slog.String("outcome", "weird"))
	})
	assert.Contains(t, line, "cache=hit")
	assert.NotContains(t, line, "outcome=")
}

func TestHandlerQuotesValues(t *testing.T) {
	line := emitOne(t, formatKV, func(l *slog.Logger) {
		l.Info("lookup", slog.String("city", "New York"))
	})
	assert.Contains(t, line, `city="New York"`)
	assert.Contains(t, line, "event=lookup")
}

func TestHandlerGroupsFlatten(t *testing.T) {
	line := emitOne(t, formatKV, func(l *slog.Logger) {
		l.WithGroup("http").Info("served", slog.Int("code", 200))
	})
	assert.Contains(t, line, "http.code=200")
}

func TestCompactRID(t *testing.T) {
	assert.Equal(t, "2s.5k.8c", CompactRID("100:200:300"))
	assert.Equal(t, "rid-x", CompactRID("rid-x"))
	assert.Equal(t, "1:a:2", CompactRID("1:a:2"))
}

func TestSanitizeLimit(t *testing.T) {
	assert.Equal(t, "Paris\tok", Sanitize("Par\x00is\tok\u200b"))
	assert.Equal(t, "Tok", SanitizeLimit("Tokyo", 3))
	assert.Equal(t, "", SanitizeLimit("Tokyo", 0))
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	got := []bool{s.Allow(), s.Allow(), s.Allow(), s.Allow()}
	assert.Equal(t, []bool{true, false, false, true}, got)

	s.Set(0, 0)
	assert.True(t, s.Allow())

	num, den := parseRatioSpec("2/5")
	assert.Equal(t, 2, num)
	assert.Equal(t, 5, den)
	num, den = parseRatioSpec("10")
	assert.Equal(t, 1, num)
	assert.Equal(t, 10, den)
}
