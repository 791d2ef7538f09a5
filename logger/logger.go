package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	OffLevel
)

var (
	std = &Logger{
		logger: log.New(os.Stdout, "", log.LstdFlags),
		level:  InfoLevel,
	}

	debugPrintf = color.New(color.FgCyan).SprintfFunc()
	infoPrintf  = color.New(color.FgGreen).SprintfFunc()
	warnPrintf  = color.New(color.FgYellow).SprintfFunc()
	errorPrintf = color.New(color.FgRed).SprintfFunc()
)

type Logger struct {
	logger *log.Logger
	level  Level
	mu     sync.Mutex
}

// ParseLevel maps LOG_LEVEL values onto a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "off", "none":
		return OffLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level %q", s)
}

func SetLevel(level Level) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.level = level
}

func SetOutput(w io.Writer) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.logger = log.New(w, "", log.LstdFlags)

	// no colour codes when not writing to a terminal
	if f, ok := w.(*os.File); !ok || (f != os.Stdout && f != os.Stderr) {
		color.NoColor = true
	}
}

func output(level Level, printf func(string, ...interface{}) string, prefix, format string, v ...interface{}) {
	std.mu.Lock()
	defer std.mu.Unlock()
	if std.level > level {
		return
	}
	std.logger.Print(printf(prefix+format, v...))
}

func Debug(format string, v ...interface{}) {
	output(DebugLevel, debugPrintf, "[DEBUG] ", format, v...)
}

func Info(format string, v ...interface{}) {
	output(InfoLevel, infoPrintf, "[INFO] ", format, v...)
}

func Warn(format string, v ...interface{}) {
	output(WarnLevel, warnPrintf, "[WARN] ", format, v...)
}

func Error(format string, v ...interface{}) {
	output(ErrorLevel, errorPrintf, "[ERROR] ", format, v...)
}
