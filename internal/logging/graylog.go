package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
)

// ZerologOptions configures NewZerolog.
type ZerologOptions struct {
	Level string
	// File receives JSON records. Nil means console output on stdout.
	File io.Writer
	// GraylogAddress, when set, adds a GELF UDP writer (host:port).
	GraylogAddress string
}

// NewZerolog builds the structured logger used by the journal backends and
// the dispatcher. The returned writer is the GELF writer, nil when Graylog is
// disabled, and must be closed by the caller.
func NewZerolog(opts ZerologOptions) (zerolog.Logger, *gelf.Writer, error) {
	zerolog.TimeFieldFormat = time.RFC3339

	var writers []io.Writer
	if opts.File != nil {
		writers = append(writers, opts.File)
	} else {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	var gw *gelf.Writer
	if opts.GraylogAddress != "" {
		var err error
		gw, err = gelf.NewWriter(opts.GraylogAddress)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to create graylog writer: %w", err)
		}
		writers = append(writers, gw)
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(zerologLevel(opts.Level)).
		With().
		Timestamp().
		Str("service", ServiceName).
		Logger()

	return logger, gw, nil
}

func zerologLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "TRACE":
		return zerolog.TraceLevel
	default:
		return zerolog.InfoLevel
	}
}
