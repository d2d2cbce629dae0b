package logger

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger creates a ZerologLogger writing to stderr, leaving stdout
// to reports. APP_ENV=dev switches to the human-readable console writer and
// LOG_FILE redirects records to a size-rotated file.
func NewZerologLogger(component string) Logger {
	return newFromEnv(component)
}

func newFromEnv(component string) *ZerologLogger {
	var out io.Writer = os.Stderr
	if path := os.Getenv("LOG_FILE"); path != "" {
		out = fileWriter(path)
	}
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: os.Getenv("LOG_FILE") != ""}
	}
	return NewWithWriter(component, out, levelFromEnv())
}

var (
	filesMu sync.Mutex
	files   = map[string]*lumberjack.Logger{}
)

// fileWriter returns the rotating writer for path. Loggers share one writer
// per file so rotation happens in a single place.
func fileWriter(path string) *lumberjack.Logger {
	filesMu.Lock()
	defer filesMu.Unlock()
	if w, ok := files[path]; ok {
		return w
	}
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    envInt("LOG_MAX_SIZE_MB", 10),
		MaxBackups: envInt("LOG_MAX_BACKUPS", 3),
		MaxAge:     envInt("LOG_MAX_AGE_DAYS", 7),
	}
	files[path] = w
	return w
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return def
}

// NewWithWriter creates a JSON logger on w filtered at level.
func NewWithWriter(component string, w io.Writer, level zerolog.Level) *ZerologLogger {
	z := zerolog.New(w).Level(level).With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

// levelFromEnv reads LOG_LEVEL, defaulting to info on empty or unknown values.
func levelFromEnv() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL")))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	l.log.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Infow(msg string, fields map[string]any) {
	l.log.Info().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
