package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dshills/keycmd/internal/config"
)

// NewLogger builds the process logger from the logging section.
// A nil w logs to stderr. The returned LevelVar adjusts the level later.
func NewLogger(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, *slog.LevelVar, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	if w == nil {
		w = os.Stderr
	}

	lv := new(slog.LevelVar)
	lv.Set(level)
	opts := &slog.HandlerOptions{Level: lv}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), lv, nil
}
