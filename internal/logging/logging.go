package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how the global logger writes.
type Options struct {
	Env     string // "DEV" gets a human readable console writer
	Level   string // zerolog level name, defaults to info
	LogFile string // optional path, rotated by lumberjack
}

// Setup configures the global zerolog logger and returns a closer for the log file.
func Setup(opts Options) io.Closer {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var console io.Writer = os.Stderr
	if opts.Env == "DEV" {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}

	var closer io.Closer = nopCloser{}
	writer := console
	if opts.LogFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    20, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		writer = zerolog.MultiLevelWriter(console, rotating)
		closer = rotating
	}

	log.Logger = zerolog.New(writer).With().Timestamp().Logger()
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// MaskToken keeps enough of a bearer token to correlate log lines without
// making the value usable: "eyJhb#####Qssw5c".
func MaskToken(raw string) string {
	const (
		prefix = 5
		suffix = 6
		hidden = 5
	)
	if len(raw) <= prefix+suffix {
		return strings.Repeat("#", hidden)
	}
	return raw[:prefix] + strings.Repeat("#", hidden) + raw[len(raw)-suffix:]
}
