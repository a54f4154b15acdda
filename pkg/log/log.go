// Package log is the process-wide slog logger with printf-style helpers.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// LogLevel is an alias for slog's Level
type LogLevel = slog.Level

const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelError = slog.LevelError
)

var levelNames = map[string]LogLevel{
	"trace": LevelTrace,
	"debug": LevelDebug,
	"info":  LevelInfo,
	"error": LevelError,
}

// L is the current logger. It is replaced whenever the level or output changes.
var L *slog.Logger

var (
	mu     sync.Mutex
	level  LogLevel  = LevelInfo
	output io.Writer = os.Stderr
)

func init() {
	configure(func() {})
}

// configure applies change under the lock and swaps in a fresh logger.
func configure(change func()) {
	mu.Lock()
	defer mu.Unlock()
	change()
	L = slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		AddSource:   true,
		Level:       level,
		ReplaceAttr: replaceAttr,
	}))
}

// replaceAttr names the trace level and shortens source paths to the
// module-relative file.
func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.LevelKey:
		if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	case slog.SourceKey:
		if src, ok := a.Value.Any().(*slog.Source); ok {
			src.File = trimSource(src.File)
		}
	}
	return a
}

func trimSource(file string) string {
	if idx := strings.LastIndex(file, "boundedvote/"); idx > -1 {
		return file[idx:]
	}
	return filepath.Base(file)
}

// SetLevel sets the minimum level that gets written.
func SetLevel(l LogLevel) {
	configure(func() { level = l })
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	configure(func() { output = w })
}

// ParseLevel maps "trace", "debug", "info" or "error" to a level.
// The boolean is false for unknown names.
func ParseLevel(name string) (LogLevel, bool) {
	l, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return LevelInfo, false
	}
	return l, true
}

func logf(l LogLevel, format string, v ...any) {
	logger := L
	ctx := context.Background()
	if !logger.Handler().Enabled(ctx, l) {
		return
	}
	// Skip runtime.Callers, logf and the exported helper.
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), l, fmt.Sprintf(format, v...), pcs[0])
	_ = logger.Handler().Handle(ctx, r)
}

func Trace(format string, v ...any) { logf(LevelTrace, format, v...) }
func Debug(format string, v ...any) { logf(LevelDebug, format, v...) }
func Info(format string, v ...any)  { logf(LevelInfo, format, v...) }
func Error(format string, v ...any) { logf(LevelError, format, v...) }

// Fatalf logs at the Error level and exits with status 1.
func Fatalf(format string, v ...any) {
	logf(LevelError, format, v...)
	os.Exit(1)
}
