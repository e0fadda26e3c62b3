// Package logger provides structured logging with phase-specific support
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Logger interface for abstracted logging
type Logger interface {
	Info(message string, fields ...Field)
	Warn(message string, fields ...Field)
	Error(message string, fields ...Field)
	Debug(message string, fields ...Field)
	WithPhase(phase string) Logger
}

// Field represents a structured logging field
type Field struct {
	Key   string
	Value interface{}
}

// WithField creates a new field
func WithField(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// PhaseLogger implements Logger with phase awareness
type PhaseLogger struct {
	logger *logrus.Logger
	phase  string
	mu     sync.RWMutex
}

// PhaseFormatter formats log lines with a colored level and phase prefix
type PhaseFormatter struct {
	TimestampFormat string
	DisableColors   bool
}

// Format implements logrus.Formatter
func (f *PhaseFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	timestamp := entry.Time.Format(f.TimestampFormat)

	var levelColor *color.Color
	var levelText string
	switch entry.Level {
	case logrus.ErrorLevel:
		levelColor = color.New(color.FgRed, color.Bold)
		levelText = "ERROR"
	case logrus.WarnLevel:
		levelColor = color.New(color.FgYellow, color.Bold)
		levelText = "WARN"
	case logrus.DebugLevel:
		levelColor = color.New(color.FgWhite, color.Faint)
		levelText = "DEBUG"
	default:
		levelColor = color.New(color.FgCyan)
		levelText = "INFO"
	}

	phasePrefix := ""
	if phase, ok := entry.Data["phase"]; ok {
		phasePrefix = fmt.Sprintf("[%s] ", color.New(color.FgBlue).Sprint(phase))
		delete(entry.Data, "phase") // Avoid duplication in the field dump
	}

	var output string
	if f.DisableColors {
		output = fmt.Sprintf("[%s] %s: %s%s", timestamp, levelText, phasePrefix, entry.Message)
	} else {
		output = fmt.Sprintf("[%s] %s: %s%s",
			timestamp,
			levelColor.Sprint(levelText),
			phasePrefix,
			entry.Message,
		)
	}

	if len(entry.Data) > 0 {
		fields := " {"
		first := true
		for k, v := range entry.Data {
			if !first {
				fields += ", "
			}
			fields += fmt.Sprintf("%s=%v", k, v)
			first = false
		}
		fields += "}"
		output += color.New(color.FgWhite, color.Faint).Sprint(fields)
	}

	return []byte(output + "\n"), nil
}

// CreateLogger creates a new logger instance
func CreateLogger(logFile string, logLevel string) Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	log.SetFormatter(&PhaseFormatter{
		TimestampFormat: "15:04:05.000",
	})

	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			log.SetOutput(io.MultiWriter(os.Stdout, file))
		}
	}

	return &PhaseLogger{logger: log}
}

// CreateLoggerWithOutput creates a logger with custom output (for testing)
func CreateLoggerWithOutput(logLevel string, output io.Writer) Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	log.SetFormatter(&PhaseFormatter{
		TimestampFormat: "15:04:05.000",
		DisableColors:   true,
	})
	log.SetOutput(output)

	return &PhaseLogger{logger: log}
}

// WithPhase creates a new logger scoped to a phase
func (l *PhaseLogger) WithPhase(phase string) Logger {
	return &PhaseLogger{
		logger: l.logger,
		phase:  phase,
	}
}

func (l *PhaseLogger) convertFields(fields []Field) logrus.Fields {
	result := make(logrus.Fields)
	if l.phase != "" {
		result["phase"] = l.phase
	}
	for _, f := range fields {
		result[f.Key] = f.Value
	}
	return result
}

// Info logs an info message
func (l *PhaseLogger) Info(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.WithFields(l.convertFields(fields)).Info(message)
}

// Warn logs a warning message
func (l *PhaseLogger) Warn(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.WithFields(l.convertFields(fields)).Warn(message)
}

// Error logs an error message
func (l *PhaseLogger) Error(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.WithFields(l.convertFields(fields)).Error(message)
}

// Debug logs a debug message
func (l *PhaseLogger) Debug(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.WithFields(l.convertFields(fields)).Debug(message)
}

// ConsoleLogger provides simple console output for CLI commands
type ConsoleLogger struct{}

// NewConsoleLogger creates a console logger for CLI output
func NewConsoleLogger() *ConsoleLogger {
	return &ConsoleLogger{}
}

// Info prints an info message
func (c *ConsoleLogger) Info(message string) {
	fmt.Printf("%s %s\n", color.CyanString("[stagehand]"), message)
}

// Error prints an error message
func (c *ConsoleLogger) Error(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("[stagehand]"), message)
}

// Warn prints a warning message
func (c *ConsoleLogger) Warn(message string) {
	fmt.Printf("%s %s\n", color.YellowString("[stagehand]"), message)
}

// Success prints a success message
func (c *ConsoleLogger) Success(message string) {
	fmt.Printf("%s %s\n", color.GreenString("[stagehand]"), message)
}
