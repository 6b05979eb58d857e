package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a config string to a Level, defaulting to INFO
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Logger writes leveled, component-scoped entries with optional key=value fields.
// Child loggers created by WithContext/WithFields share the parent's output.
type Logger struct {
	level     Level
	component string
	out       *lockedWriter
	fields    map[string]interface{}
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) write(p []byte) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.w.Write(p)
}

// NewLogger creates a logger for a component. A nil output means stdout.
func NewLogger(component string, level Level, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	return &Logger{
		level:     level,
		component: component,
		out:       &lockedWriter{w: output},
	}
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *Logger {
	return NewLogger("discard", ERROR+1, io.Discard)
}

// Named returns a logger for another component sharing this logger's output and level.
func (l *Logger) Named(component string) *Logger {
	return &Logger{level: l.level, component: component, out: l.out, fields: l.fields}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) { l.log(INFO, format, args...) }

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) { l.log(WARN, format, args...) }

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

// WithContext returns a child logger with one extra field
func (l *Logger) WithContext(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a child logger with the given fields merged in
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{level: l.level, component: l.component, out: l.out, fields: merged}
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if l == nil || level < l.level {
		return
	}

	// two frames up: log() and Debug/Info/Warn/Error
	src := SourceLocation{File: "unknown", Function: "unknown"}
	if pc, file, line, ok := runtime.Caller(2); ok {
		src.File = filepath.Base(file)
		src.Line = line
		if fn := runtime.FuncForPC(pc); fn != nil {
			src.Function = filepath.Base(fn.Name())
		}
	}

	entry := Entry{
		Timestamp: time.Now(),
		Level:     level,
		Component: l.component,
		Source:    src,
		Message:   fmt.Sprintf(format, args...),
		Fields:    l.fields,
	}
	l.out.write([]byte(Format(entry)))
}
