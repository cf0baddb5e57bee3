package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// field names shared by every component logger
const (
	Component = "component"
	SessionID = "session_id"
	MealID    = "meal_id"
	Event     = "event"
)

// New builds the root logger. dev renders human-readable console output, anything else JSON.
func New(level, env string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level, env)
}

func NewWithWriter(w io.Writer, level, env string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}

	out := w
	if env == "dev" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(parsed).With().Timestamp().Logger()
}

// For returns a child logger tagged with the component name.
func For(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str(Component, component).Logger()
}
