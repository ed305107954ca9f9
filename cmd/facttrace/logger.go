// cmd/facttrace/logger.go
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarning
	LogError
)

var logLevelStrings = map[LogLevel]string{
	LogDebug:   "DEBUG",
	LogInfo:    "INFO",
	LogWarning: "WARN",
	LogError:   "ERROR",
}

// AppLogger handles application logging
type AppLogger struct {
	logger    *log.Logger
	file      *os.File
	level     LogLevel
	filename  string
	maxSize   int64
	mutex     sync.Mutex
	startTime time.Time
}

var (
	instance   *AppLogger
	instanceMu sync.Mutex
)

// ParseLogLevel converts a level name to a LogLevel, defaulting to info
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LogDebug
	case "WARN", "WARNING":
		return LogWarning
	case "ERROR":
		return LogError
	default:
		return LogInfo
	}
}

// InitLogger initializes the global logger instance. An empty logPath logs to stdout only.
func InitLogger(logPath string, level LogLevel) error {
	l, err := newLogger(logPath, level)
	if err != nil {
		return err
	}

	instanceMu.Lock()
	instance = l
	instanceMu.Unlock()
	return nil
}

// Logger returns the global logger instance
func Logger() *AppLogger {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance == nil {
		instance = &AppLogger{
			logger:    log.New(os.Stdout, "", log.LstdFlags),
			level:     LogInfo,
			startTime: time.Now(),
		}
	}
	return instance
}

// newLogger creates a new logger instance
func newLogger(logPath string, level LogLevel) (*AppLogger, error) {
	l := &AppLogger{
		level:     level,
		filename:  logPath,
		maxSize:   50 * 1024 * 1024, // 50MB
		startTime: time.Now(),
	}

	if logPath == "" {
		l.logger = log.New(os.Stdout, "", log.LstdFlags)
		return l, nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	l.file = file
	l.logger = log.New(io.MultiWriter(file, os.Stdout), "", log.LstdFlags)
	return l, nil
}

// log formats and writes a log message
func (l *AppLogger) log(level LogLevel, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	if err := l.rotateIfNeeded(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to rotate log file: %v\n", err)
	}

	msg := fmt.Sprintf("[%s] %s", logLevelStrings[level], fmt.Sprintf(format, args...))
	l.logger.Print(msg)
}

// Debug logs a debug message
func (l *AppLogger) Debug(format string, args ...interface{}) {
	l.log(LogDebug, format, args...)
}

// Info logs an info message
func (l *AppLogger) Info(format string, args ...interface{}) {
	l.log(LogInfo, format, args...)
}

// Warning logs a warning message
func (l *AppLogger) Warning(format string, args ...interface{}) {
	l.log(LogWarning, format, args...)
}

// Error logs an error message
func (l *AppLogger) Error(format string, args ...interface{}) {
	l.log(LogError, format, args...)
}

// rotateIfNeeded checks if log rotation is needed and performs it.
// Caller holds l.mutex.
func (l *AppLogger) rotateIfNeeded() error {
	if l.file == nil {
		return nil
	}

	info, err := l.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat log file: %v", err)
	}
	if info.Size() < l.maxSize {
		return nil
	}

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %v", err)
	}

	rotatedPath := fmt.Sprintf("%s.%s", l.filename, time.Now().Format("20060102-150405"))
	renameErr := os.Rename(l.filename, rotatedPath)

	// The old handle is closed either way, so reopen the original path
	file, err := os.OpenFile(l.filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		l.file = nil
		l.logger.SetOutput(os.Stdout)
		return fmt.Errorf("failed to open new log file, logging to stdout only: %v", err)
	}
	l.logger.SetOutput(io.MultiWriter(file, os.Stdout))
	l.file = file

	if renameErr != nil {
		return fmt.Errorf("failed to rename log file: %v", renameErr)
	}
	l.logger.Printf("[%s] Log file rotated to %s", logLevelStrings[LogInfo], rotatedPath)
	return nil
}

// Close closes the underlying file, if any
func (l *AppLogger) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.file == nil {
		return nil
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %v", err)
	}
	l.file = nil
	return nil
}

// Level returns the configured level name
func (l *AppLogger) Level() string {
	return logLevelStrings[l.level]
}
