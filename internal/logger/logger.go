package logger

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Logger writes categorized, colorized log lines to stdout and mirrors them
// to a plain-text logfile when EVENTHUB_LOG_FILE is set.
type Logger struct {
	mu   sync.Mutex
	file *os.File

	debugEnabled bool
}

var (
	infoColor    = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	debugColor   = color.New(color.FgCyan)
	fatalColor   = color.New(color.FgRed, color.Bold)
	processColor = color.New(color.FgMagenta)
)

func NewLogger() *Logger {
	l := &Logger{
		debugEnabled: os.Getenv("DEBUG") == "true",
	}

	if path := os.Getenv("EVENTHUB_LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err == nil {
			l.file = f
		} else {
			fmt.Fprintf(os.Stderr, "logger: cannot open %s: %v\n", path, err)
		}
	}

	return l
}

func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}

func (l *Logger) write(level string, c *color.Color, category, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := time.Now().Format("2006-01-02 15:04:05.000")
	c.Printf("[%s] %-5s [%s] %s\n", ts, level, category, message)

	if l.file != nil {
		fmt.Fprintf(l.file, "[%s] %-5s [%s] %s\n", ts, level, category, message)
	}
}

func (l *Logger) Info(category, message string) {
	l.write("INFO", infoColor, category, message)
}

func (l *Logger) Warn(category, message string) {
	l.write("WARN", warnColor, category, message)
}

func (l *Logger) Error(category, message string) {
	l.write("ERROR", errorColor, category, message)
}

func (l *Logger) Debug(category, message string) {
	if !l.debugEnabled {
		return
	}
	l.write("DEBUG", debugColor, category, message)
}

func (l *Logger) Fatal(category, message string) {
	l.write("FATAL", fatalColor, category, message)
	l.Close()
	os.Exit(1)
}

// LogProcess marks lifecycle milestones (startup, shutdown, component init).
func (l *Logger) LogProcess(stage, message string) {
	l.write("PROC", processColor, stage, message)
}

func (l *Logger) LogAPI(method, path, status, duration string) {
	l.Info("API", fmt.Sprintf("%s %s - %s (%s)", method, path, status, duration))
}

func (l *Logger) LogDatabase(operation, store, message string) {
	l.Info("DATABASE", fmt.Sprintf("[%s:%s] %s", store, operation, message))
}

func (l *Logger) LogKafka(operation, topic, message string) {
	l.Info("KAFKA", fmt.Sprintf("[%s:%s] %s", topic, operation, message))
}

func (l *Logger) LogBooking(action, bookingID, message string) {
	l.Info("BOOKING", fmt.Sprintf("[%s:%s] %s", action, bookingID, message))
}

func (l *Logger) LogSecurity(event, message string) {
	l.Warn("SECURITY", fmt.Sprintf("[%s] %s", event, message))
}
