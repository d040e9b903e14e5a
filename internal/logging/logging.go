// Package logging provides structured logging setup for rumah-finder.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/lmittmann/tint"
)

// Options configures Setup.
type Options struct {
	DevMode bool
	Writer  io.Writer // defaults to os.Stdout

	// FluentHost enables forwarding to a Fluent Bit / fluentd forward input.
	FluentHost string
	FluentPort int
	FluentTag  string
}

// Setup initializes the default slog logger.
// Dev mode uses colored text at debug level; prod uses JSON at info. When a
// Fluent host is configured, records are also forwarded there. The returned
// function flushes and closes the forwarder.
func Setup(opts Options) (func() error, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	var handler slog.Handler
	level := slog.LevelInfo
	if opts.DevMode {
		level = slog.LevelDebug
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}

	closeFn := func() error { return nil }
	if opts.FluentHost != "" {
		port := opts.FluentPort
		if port == 0 {
			port = 24224
		}
		client, err := fluent.New(fluent.Config{
			FluentHost: opts.FluentHost,
			FluentPort: port,
			Async:      true,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to fluent at %s:%d: %w", opts.FluentHost, port, err)
		}
		tag := opts.FluentTag
		if tag == "" {
			tag = "rumah-finder"
		}
		handler = Fanout(handler, NewFluentHandler(client, tag, level))
		closeFn = client.Close
	}

	slog.SetDefault(slog.New(handler))
	return closeFn, nil
}

// Poster sends one record to a log collector.
type Poster interface {
	Post(tag string, message interface{}) error
}

// FluentHandler is a slog.Handler that posts each record as a map.
type FluentHandler struct {
	poster Poster
	tag    string
	level  slog.Leveler
	attrs  []slog.Attr
	group  string
}

// NewFluentHandler creates a handler posting records at or above level
// under tag.
func NewFluentHandler(p Poster, tag string, level slog.Leveler) *FluentHandler {
	return &FluentHandler{poster: p, tag: tag, level: level}
}

// Enabled implements slog.Handler.
func (h *FluentHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *FluentHandler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]interface{}{
		"level":     r.Level.String(),
		"message":   r.Message,
		"timestamp": r.Time.UTC().Format(time.RFC3339Nano),
	}
	for _, a := range h.attrs {
		addAttr(data, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(data, h.group, a)
		return true
	})
	return h.poster.Post(h.tag, data)
}

func addAttr(data map[string]interface{}, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Key == "" && a.Value.Kind() != slog.KindGroup {
		return
	}
	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	}
	switch a.Value.Kind() {
	case slog.KindGroup:
		for _, ga := range a.Value.Group() {
			addAttr(data, key, ga)
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			data[key] = err.Error()
			return
		}
		data[key] = a.Value.Any()
	default:
		data[key] = a.Value.String()
	}
}

// WithAttrs implements slog.Handler.
func (h *FluentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		nh.attrs = append(nh.attrs, a)
	}
	return &nh
}

// WithGroup implements slog.Handler.
func (h *FluentHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	if h.group != "" {
		name = h.group + "." + name
	}
	nh.group = name
	return &nh
}

// fanout sends every record to several handlers.
type fanout []slog.Handler

// Fanout returns a handler that writes to every h.
func Fanout(hs ...slog.Handler) slog.Handler {
	return fanout(hs)
}

func (f fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
