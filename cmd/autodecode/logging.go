package main

import (
	"context"
	"log/slog"

	log "github.com/sirupsen/logrus"
)

// logrusHandler forwards slog records from the decoder to logrus so the CLI
// has a single verbosity switch.
type logrusHandler struct {
	logger *log.Logger
	fields log.Fields
	groups []string
}

func newLogrusHandler(l *log.Logger) slog.Handler {
	return &logrusHandler{logger: l}
}

func (h *logrusHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.logger.IsLevelEnabled(logrusLevel(level))
}

func (h *logrusHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make(log.Fields, len(h.fields)+r.NumAttrs())
	for k, v := range h.fields {
		fields[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		addField(fields, h.groups, a)
		return true
	})
	h.logger.WithFields(fields).Log(logrusLevel(r.Level), r.Message)
	return nil
}

func (h *logrusHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	// attrs are qualified by the groups open now, not by later ones
	fields := make(log.Fields, len(h.fields)+len(attrs))
	for k, v := range h.fields {
		fields[k] = v
	}
	for _, a := range attrs {
		addField(fields, h.groups, a)
	}
	return &logrusHandler{logger: h.logger, fields: fields, groups: h.groups}
}

func (h *logrusHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &logrusHandler{logger: h.logger, fields: h.fields, groups: newGroups}
}

func addField(fields log.Fields, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		sub := groups
		if a.Key != "" {
			sub = append(sub[:len(sub):len(sub)], a.Key)
		}
		for _, ga := range a.Value.Group() {
			addField(fields, sub, ga)
		}
		return
	}

	key := a.Key
	for i := len(groups) - 1; i >= 0; i-- {
		key = groups[i] + "." + key
	}
	fields[key] = a.Value.Any()
}

func logrusLevel(l slog.Level) log.Level {
	switch {
	case l >= slog.LevelError:
		return log.ErrorLevel
	case l >= slog.LevelWarn:
		return log.WarnLevel
	case l >= slog.LevelInfo:
		return log.InfoLevel
	default:
		return log.DebugLevel
	}
}
