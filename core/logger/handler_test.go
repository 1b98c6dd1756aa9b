package logger

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sink struct {
	buf *bytes.Buffer
	w   *queuedWriter
}

func newSink() sink {
	buf := &bytes.Buffer{}
	return sink{buf: buf, w: newQueuedWriter([]io.Writer{buf}, 16)}
}

func (s sink) line(t *testing.T) string {
	t.Helper()
	require.NoError(t, s.w.Flush())
	require.NoError(t, s.w.Close())
	return strings.TrimSpace(s.buf.String())
}

func newTestHandler(main sink, format logFormat) *lineHandler {
	return newLineHandler(handlerConfig{
		level:  slog.LevelInfo,
		writer: main.w,
		format: format,
	})
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	out := newSink()
	ctx := WithRID(Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	log := slog.New(newTestHandler(out, formatKV)).With("component", "app")
	LogEvent(ctx, log, slog.LevelInfo, "test.event",
		slog.String("status", "ok"),
		slog.String("cause", "unit"),
	)

	line := out.line(t)
	require.NotEmpty(t, line)
	tokens := strings.Split(line, " ")
	require.GreaterOrEqual(t, len(tokens), 6, line)
	expected := []string{"ts=", "level=INFO", "component=app", "event=test.event", "status=ok", "rid=rid-123"}
	for i, prefix := range expected {
		assert.True(t, strings.HasPrefix(tokens[i], prefix), "token %d = %s, expected prefix %s", i, tokens[i], prefix)
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	out := newSink()
	ctx := WithRID(Background(), "rid-json")
	ctx = WithUpdateMeta(ctx, 11, 22, 33)

	log := slog.New(newTestHandler(out, formatJSON)).With("component", "service.search")
	LogEvent(ctx, log, slog.LevelError, "search.failed",
		slog.String("status", "fail"),
		slog.String("err", "boom"),
		slog.String("err_code", "provider_error"),
	)

	line := out.line(t)
	require.True(t, strings.HasPrefix(line, "{"), line)
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"service.search"`, `"event":"search.failed"`, `"status":"fail"`, `"rid":"rid-json"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		require.True(t, idx != -1 && idx >= pos, "prefix %s not found in order within %s", pref, line)
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	out := newSink()
	rawRID := BuildRID(123, 456, 789)
	ctx := WithRID(Background(), rawRID)

	log := slog.New(newTestHandler(out, formatKV)).With("component", "app")
	LogEvent(ctx, log, slog.LevelInfo, "rid.test", slog.String("status", "ok"))

	line := out.line(t)
	assert.Contains(t, line, "rid="+CompactRID(rawRID))
	assert.NotContains(t, line, "rid_full=", "rid_full is JSON only")
}

func TestStructuredHandlerCompactRIDJSON(t *testing.T) {
	out := newSink()
	rawRID := "12:34:56"
	ctx := WithRID(Background(), rawRID)

	log := slog.New(newTestHandler(out, formatJSON)).With("component", "app")
	LogEvent(ctx, log, slog.LevelInfo, "rid.test", slog.String("status", "ok"))

	line := out.line(t)
	assert.Contains(t, line, `"rid":"`+CompactRID(rawRID)+`"`)
	assert.Contains(t, line, `"rid_full":"`+rawRID+`"`)
}

func TestStructuredHandlerErrorSink(t *testing.T) {
	out, errs := newSink(), newSink()
	h := newLineHandler(handlerConfig{
		level:     slog.LevelInfo,
		writer:    out.w,
		errWriter: errs.w,
		format:    formatKV,
	})
	log := slog.New(h).With("component", "service.gate")
	LogEvent(Background(), log, slog.LevelInfo, "gate.checked")
	LogEvent(Background(), log, slog.LevelWarn, "gate.member_check_failed", slog.String("channel", "@news"))

	all := out.line(t)
	warn := errs.line(t)
	assert.Contains(t, all, "event=gate.checked")
	assert.Contains(t, all, "event=gate.member_check_failed")
	assert.NotContains(t, warn, "gate.checked")
	assert.Contains(t, warn, "channel=@news")
}

func TestCompactRID(t *testing.T) {
	assert.Equal(t, "3f.co.lx", CompactRID("123:456:789"))
	assert.Equal(t, "rid-123", CompactRID("rid-123"))
	assert.Equal(t, "a:b:c", CompactRID("a:b:c"))
}

func TestSanitizeLimit(t *testing.T) {
	assert.Equal(t, "ab\tc", Sanitize("a\x00b\tc\u200b"))
	assert.Equal(t, "héll", SanitizeLimit("héllo", 4))
	assert.Empty(t, SanitizeLimit("x", 0))
}

func TestMetaAccumulates(t *testing.T) {
	ctx := WithUpdateMeta(Background(), 5, 6, 7)
	ctx = WithHandler(ctx, "cmd:start")
	ctx = WithUser(ctx, 99)

	assert.Equal(t, Meta{UpdateID: 5, UserID: 99, ChatID: 7, Handler: "cmd:start"}, MetaFrom(ctx))
	assert.Empty(t, RIDFrom(ctx))
}

func TestHandlerGroupsAndDurations(t *testing.T) {
	out := newSink()
	log := slog.New(newTestHandler(out, formatKV)).With("component", "service.search")
	log = log.WithGroup("pixabay").With("endpoint", "videos")
	LogEvent(Background(), log, slog.LevelInfo, "search.done",
		slog.Duration("took", 1500*time.Microsecond),
		slog.String("empty", ""),
		slog.Any("tags", []string{"cat", "dog"}),
	)

	line := out.line(t)
	assert.Contains(t, line, "pixabay.endpoint=videos")
	assert.Contains(t, line, "pixabay.took_ms=2")
	assert.Contains(t, line, "pixabay.tags=cat,dog")
	assert.NotContains(t, line, "empty")
}

func TestHandlerDropsUnknownOutcomeAndQuotes(t *testing.T) {
	out := newSink()
	log := slog.New(newTestHandler(out, formatKV))
	LogEvent(Background(), log, slog.LevelInfo, "",
		slog.String("outcome", "exploded"),
		slog.String("status", "OK"),
		slog.String("query", "red car"),
	)

	line := out.line(t)
	assert.Contains(t, line, "event=unknown")
	assert.Contains(t, line, "component=app")
	assert.Contains(t, line, "status=ok")
	assert.Contains(t, line, `query="red car"`)
	assert.NotContains(t, line, "outcome=")
}

func TestQueuedWriterRejectsAfterClose(t *testing.T) {
	s := newSink()
	require.NoError(t, s.w.Write([]byte("a\n")))
	require.NoError(t, s.w.Close())
	assert.ErrorIs(t, s.w.Write([]byte("b\n")), errWriterClosed)
	assert.NoError(t, s.w.Flush())
	assert.Equal(t, "a\n", s.buf.String())
}

func TestSamplerRatio(t *testing.T) {
	s := newSampler(2, 5)
	var passed int
	for range 10 {
		if s.allow() {
			passed++
		}
	}
	assert.Equal(t, 4, passed)

	s.set(0, 0)
	assert.True(t, s.allow())
}

func TestParseRatio(t *testing.T) {
	cases := map[string][2]int{
		"1/50":  {1, 50},
		" 3/4 ": {3, 4},
		"10":    {1, 10},
		"0":     {0, 0},
		"x/2":   {0, 0},
		"-1/5":  {0, 0},
	}
	for spec, want := range cases {
		keep, window := parseRatio(spec)
		assert.Equal(t, want, [2]int{keep, window}, spec)
	}
}

func TestParseSettings(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, parseLevel("Warning"))
	assert.Equal(t, slog.LevelInfo, parseLevel("loud"))
	assert.Equal(t, []string{"ts", "event"}, parseKeyOrder(" ts, ,event "))
	assert.Equal(t, defaultKeyOrder, parseKeyOrder("default"))
	assert.Equal(t, "INFO+2", levelName("INFO+2"))
}

func TestWholeMS(t *testing.T) {
	assert.Equal(t, time.Duration(0), wholeMS(-time.Second))
	assert.Equal(t, 2*time.Millisecond, wholeMS(1600*time.Microsecond))
	assert.GreaterOrEqual(t, Since(time.Now().Add(-time.Second)), time.Second)
	assert.Equal(t, time.Duration(0), Since(time.Now().Add(time.Hour)))
}

func TestPreview(t *testing.T) {
	attrs := Preview("files", []string{"a", "b", "c"}, 2)
	require.Len(t, attrs, 3)
	assert.Equal(t, int64(3), attrs[0].Value.Int64())
	assert.Equal(t, "files", attrs[1].Key)
	assert.Equal(t, "a, b", attrs[1].Value.String())
	assert.Equal(t, "files_truncated", attrs[2].Key)

	attrs = Preview("missing", []string{"@a"}, 5)
	require.Len(t, attrs, 2)
	assert.Equal(t, "@a", attrs[1].Value.String())

	assert.Len(t, Preview("files", nil, 5), 1)
	assert.Len(t, Preview("files", []string{"a"}, 0), 2, "a zero limit only counts")
}
