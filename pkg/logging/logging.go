package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures zerolog for the process. Logs go to stderr so stdout
// stays reserved for actuation output.
func Setup(environment, level string) zerolog.Logger {
	return SetupWithWriter(environment, level, os.Stderr)
}

// SetupWithWriter configures zerolog to write to w
func SetupWithWriter(environment, level string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if environment == "development" && lvl > zerolog.DebugLevel {
		lvl = zerolog.DebugLevel
	}

	// Console writer for human-readable output in development, JSON otherwise
	var writer io.Writer = w
	if environment == "development" {
		writer = zerolog.ConsoleWriter{Out: w}
	}

	logger := zerolog.New(writer).With().Timestamp().Logger().Level(lvl)
	log.Logger = logger
	return logger
}
