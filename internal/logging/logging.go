// Package logging builds the structured loggers shared by every command.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/unklstewy/skyscope/pkg/config"
)

// New returns a logger writing to w in the configured format, filtered at
// the configured level. Every line carries a UTC timestamp and the caller.
func New(w io.Writer, cfg config.LoggingConfig) (log.Logger, error) {
	var logger log.Logger
	switch strings.ToLower(cfg.Format) {
	case "", "logfmt":
		logger = log.NewLogfmtLogger(log.NewSyncWriter(w))
	case "json":
		logger = log.NewJSONLogger(log.NewSyncWriter(w))
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	logger, err := Filter(logger, cfg.Level)
	if err != nil {
		return nil, err
	}
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	return logger, nil
}

// Filter drops records below the named level.
func Filter(logger log.Logger, name string) (log.Logger, error) {
	option, err := levelOption(name)
	if err != nil {
		return nil, err
	}
	return level.NewFilter(logger, option), nil
}

// Nop returns a logger that discards everything.
func Nop() log.Logger {
	return log.NewNopLogger()
}

// OrNop returns logger, or a discarding logger when it is nil.
func OrNop(logger log.Logger) log.Logger {
	if logger == nil {
		return log.NewNopLogger()
	}
	return logger
}

func levelOption(name string) (level.Option, error) {
	switch strings.ToLower(name) {
	case "debug":
		return level.AllowDebug(), nil
	case "", "info":
		return level.AllowInfo(), nil
	case "warn", "warning":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	default:
		return nil, fmt.Errorf("unknown log level %q", name)
	}
}
