package cli

import (
	"fmt"
	"os"
	"time"

	"event-trivia-service/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// setupLogging configures the global zerolog logger. Empty values keep the
// defaults: info level, console output.
func setupLogging(level, format string) error {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}
	zerolog.SetGlobalLevel(lvl)

	switch format {
	case "", "console":
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	case "json":
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	default:
		return fmt.Errorf("invalid log format %q", format)
	}
	return nil
}

// applyLogConfig falls back to the config file's log section for anything the
// flags left unset.
func applyLogConfig(opts *options, cfg config.Config) error {
	if opts.logLevel != "" && opts.logFormat != "" {
		return nil
	}
	level, format := opts.logLevel, opts.logFormat
	if level == "" {
		level = cfg.Log.Level
	}
	if format == "" {
		format = cfg.Log.Format
	}
	return setupLogging(level, format)
}
