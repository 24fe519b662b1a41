package main

import (
	"log/slog"
	"os"
)

// NewLogger returns a JSON logger on stderr. Stdout is kept for command output.
func NewLogger(level slog.Leveler) *slog.Logger {
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}
