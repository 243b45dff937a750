// Package sysutil holds process-level helpers used by the server entrypoint:
// logger bootstrap, flag-style string parsing and periodic background jobs.
package sysutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetLogLevel configures the global zerolog level based on a string value.
// Supported values (case-insensitive): debug, info, warn, error, fatal, panic.
// Unknown values fall back to info. The applied level is returned.
func SetLogLevel(lvl string) zerolog.Level {
	level := zerolog.InfoLevel
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn", "warning":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	case "fatal":
		level = zerolog.FatalLevel
	case "panic":
		level = zerolog.PanicLevel
	}
	zerolog.SetGlobalLevel(level)
	return level
}

// LoggerOptions configures SetupLogger.
type LoggerOptions struct {
	Level   string
	Pretty  bool // human-readable console output for development
	Service string
	Version string
	Out     io.Writer // nil means os.Stderr
}

// SetupLogger installs the process-wide logger: global level, output format
// and the service/version fields. It also becomes zerolog.DefaultContextLogger
// so zerolog.Ctx never returns a disabled logger for contexts without one.
func SetupLogger(opts LoggerOptions) zerolog.Logger {
	SetLogLevel(opts.Level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	ctx := zerolog.New(out).With().Timestamp()
	if s := strings.TrimSpace(opts.Service); s != "" {
		ctx = ctx.Str("service", s)
	}
	if v := strings.TrimSpace(opts.Version); v != "" {
		ctx = ctx.Str("version", v)
	}
	l := ctx.Logger()

	log.Logger = l
	zerolog.DefaultContextLogger = &log.Logger
	return l
}

// IsTruthy reports whether a flag-style string should be considered true.
// Accepted values (case-insensitive): "1", "true", "yes", "y", "on".
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// IsFalsy reports whether a flag-style string should be considered false.
// Accepted values (case-insensitive): "0", "false", "no", "n", "off".
func IsFalsy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "no", "n", "off":
		return true
	default:
		return false
	}
}

// FirstNonEmpty returns the first non-blank string from a variadic list,
// unmodified. If all values are blank, it returns "".
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Every runs job once immediately and then every interval until ctx is done.
// Job errors and panics are logged under the job name and never stop the
// loop. Every blocks; run it on its own goroutine.
func Every(ctx context.Context, interval time.Duration, name string, job func(context.Context) error) {
	if interval <= 0 {
		return
	}
	lg := log.With().Str("job", name).Logger()
	ctx = lg.WithContext(ctx)

	run := func() {
		defer func() {
			if rec := recover(); rec != nil {
				lg.Error().Err(fmt.Errorf("panic: %v", rec)).Msg("background job panicked")
			}
		}()
		if err := job(ctx); err != nil && ctx.Err() == nil {
			lg.Error().Err(err).Msg("background job failed")
		}
	}

	run()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
