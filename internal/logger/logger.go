package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log line.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ParseLevel reads a log_level setting ("debug", "INFO", ...). Empty means info.
func ParseLevel(s string) (Level, error) {
	level := Level(strings.ToUpper(strings.TrimSpace(s)))
	if level == "" {
		return LevelInfo, nil
	}
	if _, ok := levelRank[level]; !ok {
		return "", fmt.Errorf("unknown log level: %q", s)
	}
	return level, nil
}

// Fields are the structured values attached to a line.
type Fields map[string]interface{}

// Entry is the JSON shape of one log line.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Level     Level  `json:"level"`
	Message   string `json:"message"`
	Fields    Fields `json:"fields,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Logger writes entries at or above its level to w. It is safe for
// concurrent use.
type Logger struct {
	mu    sync.Mutex
	level Level
	w     io.Writer
	now   func() time.Time
}

// New creates a Logger writing to w.
func New(level Level, w io.Writer) *Logger {
	return &Logger{level: level, w: w, now: time.Now}
}

var defaultLogger = New(LevelInfo, os.Stderr)

// SetDefault replaces the logger behind the package-level functions.
func SetDefault(l *Logger) {
	defaultLogger = l
}

// Default returns the logger behind the package-level functions.
func Default() *Logger {
	return defaultLogger
}

// Enabled reports whether lines at level are written.
func (l *Logger) Enabled(level Level) bool {
	return levelRank[level] >= levelRank[l.level]
}

func (l *Logger) write(level Level, msg string, fields Fields, err error) {
	if !l.Enabled(level) {
		return
	}

	e := Entry{
		Timestamp: l.now().UTC().Format(time.RFC3339),
		Level:     level,
		Message:   msg,
		Fields:    fields,
	}
	if err != nil {
		e.Error = err.Error()
	}

	line, marshalErr := json.Marshal(e)
	l.mu.Lock()
	defer l.mu.Unlock()
	if marshalErr != nil {
		// A field value json cannot encode; keep the message.
		fmt.Fprintf(l.w, "%s %s %s (fields dropped: %v)\n", e.Timestamp, level, msg, marshalErr)
		return
	}
	l.w.Write(append(line, '\n'))
}

func (l *Logger) Debug(msg string, fields Fields) {
	l.write(LevelDebug, msg, fields, nil)
}

func (l *Logger) Info(msg string, fields Fields) {
	l.write(LevelInfo, msg, fields, nil)
}

// Warn is for data that looks wrong but does not stop the run.
func (l *Logger) Warn(msg string, fields Fields) {
	l.write(LevelWarn, msg, fields, nil)
}

func (l *Logger) Error(msg string, fields Fields, err error) {
	l.write(LevelError, msg, fields, err)
}

func Debug(msg string, fields Fields) {
	defaultLogger.Debug(msg, fields)
}

func Info(msg string, fields Fields) {
	defaultLogger.Info(msg, fields)
}

func Warn(msg string, fields Fields) {
	defaultLogger.Warn(msg, fields)
}

func Error(msg string, fields Fields, err error) {
	defaultLogger.Error(msg, fields, err)
}
