package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogging points the global zerolog logger at out using the configured
// level and format.
func SetupLogging(cfg LogConfig, out io.Writer) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	w := out
	if cfg.Format != "json" {
		if f, ok := out.(*os.File); ok {
			w = ConsoleWriter(f)
		} else {
			w = zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: time.DateTime}
		}
	}

	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// ConsoleWriter returns a human-readable zerolog writer, coloured only when f
// is a terminal.
func ConsoleWriter(f *os.File) io.Writer {
	noColor := !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())

	w := zerolog.ConsoleWriter{Out: f, NoColor: noColor, TimeFormat: time.DateTime}

	if !noColor {
		w.FormatPrepare = func(m map[string]any) error {
			// Collapse request logs into one line
			if sys, ok := m["sys"]; ok && sys == "http" {
				m["message"] = fmt.Sprintf("%v %-6v %v", m["status"], m["method"], m["path"])
				delete(m, "sys")
				delete(m, "status")
				delete(m, "method")
				delete(m, "path")
			}
			return nil
		}
	}

	return w
}
