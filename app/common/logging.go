package common

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/lmittmann/tint"
)

type LogFormat string

const (
	LogJSON LogFormat = "json"
	LogText LogFormat = "text"
	LogTint LogFormat = "tint"
)

func ParseLogLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}

// NewLogger builds the process logger. tint is meant for terminals, json for
// everything that ends up in a log collector.
func NewLogger(w io.Writer, format LogFormat, level slog.Level) (*slog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	var h slog.Handler
	switch format {
	case LogJSON, "":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case LogText:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	case LogTint:
		h = tint.NewHandler(w, &tint.Options{
			NoColor:   runtime.GOOS == "windows",
			AddSource: level <= slog.LevelDebug,
			Level:     level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey && len(groups) == 0 {
					return slog.Attr{}
				}
				return a
			},
		})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return slog.New(h), nil
}
