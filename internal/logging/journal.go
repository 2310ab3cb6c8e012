package logging

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/journal"
)

// JournalHandler writes records to the systemd journal as structured
// fields, so `journalctl MODULE=engine LED=status` works.
type JournalHandler struct {
	level  slog.Leveler
	fields map[string]string
	prefix string
}

// NewJournalHandler creates a journal handler. The level may be a
// *slog.LevelVar so module levels can change at runtime.
func NewJournalHandler(level slog.Leveler) *JournalHandler {
	return &JournalHandler{level: level, fields: map[string]string{}}
}

func (h *JournalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *JournalHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make(map[string]string, len(h.fields)+r.NumAttrs()+1)
	for k, v := range h.fields {
		fields[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		addField(fields, h.prefix, a)
		return true
	})
	fields["SYSLOG_IDENTIFIER"] = Identifier

	return journal.Send(r.Message, priority(r.Level), fields)
}

func (h *JournalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	fields := make(map[string]string, len(h.fields)+len(attrs))
	for k, v := range h.fields {
		fields[k] = v
	}
	for _, a := range attrs {
		addField(fields, h.prefix, a)
	}
	return &JournalHandler{level: h.level, fields: fields, prefix: h.prefix}
}

func (h *JournalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &JournalHandler{level: h.level, fields: h.fields, prefix: h.prefix + fieldName(name) + "_"}
}

func priority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	}
	return journal.PriDebug
}

// addField flattens an attribute into journal fields. Groups nest by
// joining keys with underscores.
func addField(fields map[string]string, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	v := a.Value
	if v.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += fieldName(a.Key) + "_"
		}
		for _, child := range v.Group() {
			addField(fields, prefix, child)
		}
		return
	}

	key := prefix + fieldName(a.Key)
	switch v.Kind() {
	case slog.KindInt64:
		fields[key] = strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		fields[key] = strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		fields[key] = strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindBool:
		fields[key] = strconv.FormatBool(v.Bool())
	case slog.KindTime:
		fields[key] = v.Time().Format(time.RFC3339Nano)
	default:
		fields[key] = v.String()
	}
}

// fieldName maps a slog key onto the journal's field alphabet: upper-case
// letters, digits and underscores, not starting with an underscore.
func fieldName(key string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, key)
	name = strings.TrimLeft(name, "_")
	if name == "" {
		return "FIELD"
	}
	return name
}

// IsJournalAvailable checks if systemd journal is available.
func IsJournalAvailable() bool {
	return journal.Enabled()
}
