package logger

import (
	"os"

	"github.com/rs/zerolog"
)

const (
	DefaultLogLevel = "info"
	VerboseLogLevel = "debug"
)

// New creates a new logger instance
func New(opts ...Option) *zerolog.Logger {
	config := &Config{
		output:       os.Stderr,
		level:        zerolog.InfoLevel,
		excludeParts: []string{zerolog.TimestampFieldName},
		isDev:        true,
	}

	for _, opt := range opts {
		opt.apply(config)
	}

	logger := zerolog.New(config.output).
		Level(config.level).
		With().
		Logger()

	// Pretty logging for interactive use
	if config.isDev {
		logger = logger.Output(zerolog.ConsoleWriter{
			Out:          config.output,
			PartsExclude: config.excludeParts,
		})
	}

	return &logger
}

// NewConsoleLogger returns the logger used by the CLI entry point. Verbose
// switches it to debug level.
func NewConsoleLogger(verbose bool) *zerolog.Logger {
	level := DefaultLogLevel
	if verbose {
		level = VerboseLogLevel
	}
	return New(
		WithLevel(level),
		WithOutput(os.Stderr),
		WithConsoleWriter(true),
	)
}
