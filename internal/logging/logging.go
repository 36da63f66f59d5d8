// Package logging builds the structured audit logger. Every line is a log15
// record; the default output is logfmt on stdout.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/inconshreveable/log15"
)

// Supported output formats.
const (
	FormatLogfmt = "logfmt"
	FormatJSON   = "json"
)

// Options configures New. Zero values select info level, logfmt and stdout.
type Options struct {
	Level  string
	Format string
	Writer io.Writer
}

// New returns a root logger filtered at opts.Level.
func New(opts Options) (log15.Logger, error) {
	level := log15.LvlInfo
	if opts.Level != "" {
		lvl, err := ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		level = lvl
	}

	format, err := ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	l := log15.New()
	l.SetHandler(
		log15.LvlFilterHandler(
			level,
			log15.StreamHandler(w, format),
		),
	)
	return l, nil
}

// ParseLevel maps debug, info, warn and error onto log15 levels.
func ParseLevel(s string) (log15.Lvl, error) {
	switch strings.ToLower(s) {
	case "debug":
		return log15.LvlDebug, nil
	case "info":
		return log15.LvlInfo, nil
	case "warn", "warning":
		return log15.LvlWarn, nil
	case "error":
		return log15.LvlError, nil
	}
	return log15.LvlInfo, fmt.Errorf("unknown log level %q", s)
}

// ParseFormat returns the log15 format for name. An empty name is logfmt.
func ParseFormat(name string) (log15.Format, error) {
	switch strings.ToLower(name) {
	case "", FormatLogfmt:
		return log15.LogfmtFormat(), nil
	case FormatJSON:
		return log15.JsonFormat(), nil
	}
	return nil, fmt.Errorf("unknown log format %q", name)
}

// Discard returns a logger that drops every record.
func Discard() log15.Logger {
	l := log15.New()
	l.SetHandler(log15.DiscardHandler())
	return l
}

// CronLogger adapts a log15 logger to the cron.Logger interface so scheduler
// events land in the audit log.
type CronLogger struct {
	Log log15.Logger
}

// Info logs routine scheduler events at debug level.
func (c CronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.Log.Debug("cron: "+msg, keysAndValues...)
}

// Error logs scheduler failures, including recovered job panics.
func (c CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.Log.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
