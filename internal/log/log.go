package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	mu       sync.RWMutex
	logger   = newLogger(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	minLevel = LevelInfo
)

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// ParseLevel maps a config string ("debug", "INFO", ...) to a Level.
// Unknown values fall back to LevelInfo.
func ParseLevel(s string) Level {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn, "WARNING":
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
	logger = logger.Level(zerologLevel(l))
}

// SetOutput redirects log lines to w as JSON objects (one per line).
// Tests use it to capture output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w).Level(zerologLevel(minLevel))
}

// SetConsole redirects human-readable log lines to w.
func SetConsole(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).Level(zerologLevel(minLevel))
}

// Logger returns the underlying zerolog logger, e.g. for gin middleware.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debug(msg string, kv ...any) {
	l := Logger()
	emit(l.Debug(), msg, kv)
}

func Info(msg string, kv ...any) {
	l := Logger()
	emit(l.Info(), msg, kv)
}

func Warn(msg string, kv ...any) {
	l := Logger()
	emit(l.Warn(), msg, kv)
}

func Error(msg string, err error, kv ...any) {
	l := Logger()
	emit(l.Error().Err(err), msg, kv)
}

// emit attaches kv as fields. Pairs whose key is not a string are skipped;
// an odd trailing value is ignored.
func emit(ev *zerolog.Event, msg string, kv []any) {
	if ev == nil {
		return
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}

func zerologLevel(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
