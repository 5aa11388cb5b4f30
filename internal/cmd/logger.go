package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-cz/devslog"
	"github.com/mattn/go-isatty"

	"transcribot/internal/cmd/flags"
)

var ErrInvalidLogLevel = errors.New("invalid log level")

func initLogger(level string) error {
	parsed, ok := flags.LogLevels[level]
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidLogLevel, level)
	}

	w := os.Stdout
	opts := &slog.HandlerOptions{Level: parsed}

	var handler slog.Handler
	if isatty.IsTerminal(w.Fd()) {
		handler = devslog.NewHandler(w, &devslog.Options{HandlerOptions: opts})
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}
