// Package log provides the component-tagged slog setup shared by
// every part of the service.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Logger is a slog.Logger permanently tagged with the component it
// logs for. The tag is attached once at construction rather than on
// every call.
type Logger struct {
	*slog.Logger
	handler   slog.Handler
	component string
}

// Options configures a Logger. Zero values fall back to Info level,
// stdout and the app component.
type Options struct {
	Level     slog.Level
	Component string
	Writer    io.Writer
}

// New builds a text-handler logger tagged with opts.Component.
func New(opts Options) *Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	component := opts.Component
	if component == "" {
		component = ComponentApp
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: opts.Level})
	return &Logger{
		Logger:    slog.New(handler).With(FieldComponent, component),
		handler:   handler,
		component: component,
	}
}

// Named returns a logger for another component sharing this logger's
// handler.
func (l *Logger) Named(component string) *Logger {
	if component == l.component {
		return l
	}
	return &Logger{
		Logger:    slog.New(l.handler).With(FieldComponent, component),
		handler:   l.handler,
		component: component,
	}
}

// Component reports which component this logger is tagged with.
func (l *Logger) Component() string {
	return l.component
}

// SetDefault routes package-level slog calls through l.
func SetDefault(l *Logger) {
	slog.SetDefault(l.Logger)
}
