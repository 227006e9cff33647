package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Development writes human-readable console
// lines, production writes JSON for log shipping. An explicit level from
// config wins; otherwise development logs at debug and production at info.
func New(service, level, environment string) zerolog.Logger {
	production := environment == "production"

	var out io.Writer = os.Stdout
	if !production {
		out = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	lvl := zerolog.InfoLevel
	if !production {
		lvl = zerolog.DebugLevel
	}
	if level != "" {
		if parsed, err := zerolog.ParseLevel(level); err == nil {
			lvl = parsed
		}
	}

	return zerolog.New(out).Level(lvl).With().
		Timestamp().
		Str("service", service).
		Str("env", environment).
		Logger()
}
