package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/cuemby/hbase-mesos/pkg/types"
	"github.com/rs/zerolog"
)

// Logger is the global logger. Until Init runs it writes JSON to stderr.
var Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Level represents log level
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds logging configuration
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init initializes the global logger. An unknown level falls back to info.
func Init(cfg Config) {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if !cfg.JSONOutput {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}
	Logger = zerolog.New(output).With().Timestamp().Logger()
}

// ParseLevel maps a configured level name to a zerolog level
func ParseLevel(l Level) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(string(l)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// WithComponent creates a child logger with component field
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// ForTask adds the task id, and the role encoded in it, to l
func ForTask(l zerolog.Logger, taskID string) zerolog.Logger {
	ctx := l.With().Str("task_id", taskID)
	if role := types.RoleOfTaskID(taskID); role != "" {
		ctx = ctx.Str("role", string(role))
	}
	return ctx.Logger()
}

// ForOffer adds the offer id and host to l
func ForOffer(l zerolog.Logger, offer *types.Offer) zerolog.Logger {
	return l.With().Str("offer_id", offer.ID).Str("host", offer.Hostname).Logger()
}
