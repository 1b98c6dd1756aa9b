package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	tsLayout    = "2006-01-02T15:04:05.000Z07:00"
	stackLimit  = 4096
	unknownName = "unknown"
)

var errNoWriter = errors.New("logger: writer not initialized")

type handlerConfig struct {
	level slog.Leveler
	// writer gets every line; errWriter also gets WARN and above.
	writer    *queuedWriter
	errWriter *queuedWriter
	format    logFormat
	keyOrder  []string
	stacks    bool
}

// field is one rendered key/value pair.
type field struct {
	key string
	val any
}

// lineHandler renders each record as a single line of ordered fields.
type lineHandler struct {
	cfg    handlerConfig
	pre    []field
	prefix string
}

func newLineHandler(cfg handlerConfig) *lineHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if len(cfg.keyOrder) == 0 {
		cfg.keyOrder = defaultKeyOrder
	}
	return &lineHandler{cfg: cfg}
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *lineHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errNoWriter
	}

	e := entry{
		"ts":    r.Time.UTC().Truncate(time.Millisecond).Format(tsLayout),
		"level": levelName(r.Level.String()),
	}
	for _, f := range h.pre {
		e[f.key] = f.val
	}
	r.Attrs(func(a slog.Attr) bool {
		flatten(h.prefix, a, e.put)
		return true
	})
	e.fromContext(ctx)
	e.finish(r.Message, h.cfg.format == formatJSON)
	if h.cfg.stacks && r.Level >= slog.LevelError {
		e.setDefault("stack", SanitizeLimit(string(debug.Stack()), stackLimit))
	}

	line, err := encode(h.cfg.format, e.ordered(h.cfg.keyOrder))
	if err != nil {
		return err
	}
	if err := h.cfg.writer.Write(line); err != nil {
		return err
	}
	if h.cfg.errWriter != nil && r.Level >= slog.LevelWarn {
		return h.cfg.errWriter.Write(line)
	}
	return nil
}

// WithAttrs renders attrs once, under the current group prefix.
func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.pre = append([]field(nil), h.pre...)
	for _, a := range attrs {
		flatten(h.prefix, a, func(k string, v any) {
			clone.pre = append(clone.pre, field{key: k, val: v})
		})
	}
	return &clone
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

// flatten walks nested groups and emits dotted keys with plain values.
func flatten(prefix string, a slog.Attr, emit func(string, any)) {
	key := joinKey(prefix, a.Key)
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			flatten(key, child, emit)
		}
		return
	}
	if key == "" {
		return
	}
	if k, val, ok := plain(key, v); ok {
		emit(k, val)
	}
}

// plain converts a slog value to something both encoders print well.
// Durations become milliseconds with a _ms key.
func plain(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(v.String()), true
	case slog.KindBool:
		return key, v.Bool(), true
	case slog.KindInt64:
		return key, v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, v.Uint64(), true
	case slog.KindFloat64:
		return key, v.Float64(), true
	case slog.KindDuration:
		return msKey(key), wholeMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return "", nil, false
	case error:
		return key, x.Error(), true
	case time.Duration:
		return msKey(key), wholeMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, x.String(), true
	case []string:
		return key, strings.Join(x, ","), true
	default:
		return key, fmt.Sprint(x), true
	}
}

func msKey(key string) string {
	if key == "duration" {
		return "duration_ms"
	}
	if strings.HasSuffix(key, "_ms") {
		return key
	}
	return key + "_ms"
}

// entry collects the fields of one line.
type entry map[string]any

func (e entry) put(key string, val any) { e[key] = val }

func (e entry) setDefault(key string, val any) {
	if _, ok := e[key]; !ok {
		e[key] = val
	}
}

func (e entry) str(key string) string {
	switch v := e[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (e entry) fromContext(ctx context.Context) {
	m := MetaFrom(ctx)
	for _, f := range []struct {
		key  string
		val  any
		zero bool
	}{
		{"rid", m.RID, m.RID == ""},
		{"update_id", m.UpdateID, m.UpdateID == 0},
		{"user_id", m.UserID, m.UserID == 0},
		{"chat_id", m.ChatID, m.ChatID == 0},
		{"handler", m.Handler, m.Handler == ""},
	} {
		if !f.zero {
			e.setDefault(f.key, f.val)
		}
	}
}

// finish fills event and component, compacts the rid and normalizes the
// enumerated fields. Empty strings are dropped.
func (e entry) finish(msg string, keepFullRID bool) {
	if e.str("event") == "" {
		e["event"] = msg
		if msg == "" {
			e["event"] = unknownName
		}
	}
	if e.str("component") == "" {
		e["component"] = "app"
	}
	if rid := e.str("rid"); rid != "" {
		if short := CompactRID(rid); short != rid {
			e["rid"] = short
			if keepFullRID {
				e.setDefault("rid_full", rid)
			}
		}
	}
	if s := e.str("status"); s != "" {
		e["status"] = normalizeStatus(s)
	}
	if o := e.str("outcome"); o != "" {
		if norm, ok := normalizeOutcome(o); ok {
			e["outcome"] = norm
		} else {
			delete(e, "outcome")
		}
	}
	for k, v := range e {
		if s, ok := v.(string); ok && s == "" {
			delete(e, k)
		}
	}
}

// ordered lists the keys named in order first, then the rest alphabetically.
func (e entry) ordered(order []string) []field {
	out := make([]field, 0, len(e))
	used := make(map[string]bool, len(order))
	for _, k := range order {
		if v, ok := e[k]; ok && !used[k] {
			out = append(out, field{key: k, val: v})
			used[k] = true
		}
	}
	rest := make([]string, 0, len(e)-len(out))
	for k := range e {
		if !used[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		out = append(out, field{key: k, val: e[k]})
	}
	return out
}

func encode(format logFormat, fields []field) ([]byte, error) {
	var buf bytes.Buffer
	if format == formatJSON {
		buf.WriteByte('{')
		for i, f := range fields {
			data, err := json.Marshal(f.val)
			if err != nil {
				return nil, fmt.Errorf("logger: encode %s: %w", f.key, err)
			}
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.Quote(f.key))
			buf.WriteByte(':')
			buf.Write(data)
		}
		buf.WriteString("}\n")
		return buf.Bytes(), nil
	}
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(f.key)
		buf.WriteByte('=')
		buf.WriteString(kvValue(f.val))
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func kvValue(v any) string {
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	if strings.IndexFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) >= 0 {
		return strconv.Quote(s)
	}
	return s
}
