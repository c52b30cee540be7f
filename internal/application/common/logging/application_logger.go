// Package logging provides structured JSON application logging.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ApplicationLogger defines the interface for structured application logging.
type ApplicationLogger interface {
	Debug(ctx context.Context, message string, fields Fields)
	Info(ctx context.Context, message string, fields Fields)
	Warn(ctx context.Context, message string, fields Fields)
	Error(ctx context.Context, message string, fields Fields)
	ErrorWithError(ctx context.Context, err error, message string, fields Fields)
	WithComponent(component string) ApplicationLogger
}

// Fields represents structured logging fields.
type Fields map[string]interface{}

// Config represents logger configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, text
	Output string // stdout, stderr
}

// Log levels in ascending severity order.
const (
	levelDebug = iota
	levelInfo
	levelWarn
	levelError
)

var levelNames = map[string]int{
	"debug": levelDebug,
	"info":  levelInfo,
	"warn":  levelWarn,
	"error": levelError,
}

// LogEntry represents the structure of log entries.
type LogEntry struct {
	Timestamp     string                 `json:"timestamp"`
	Level         string                 `json:"level"`
	Message       string                 `json:"message"`
	Component     string                 `json:"component,omitempty"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Error         string                 `json:"error,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

type applicationLoggerImpl struct {
	config    Config
	component string
	minLevel  int
	out       io.Writer
	mu        *sync.Mutex
}

// NewApplicationLogger creates a structured logger from configuration.
func NewApplicationLogger(config Config) (ApplicationLogger, error) {
	level, ok := levelNames[strings.ToLower(config.Level)]
	if !ok {
		return nil, fmt.Errorf("invalid log level: %s", config.Level)
	}

	var out io.Writer
	switch config.Output {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		return nil, fmt.Errorf("invalid log output: %s", config.Output)
	}

	return &applicationLoggerImpl{
		config:   config,
		minLevel: level,
		out:      out,
		mu:       &sync.Mutex{},
	}, nil
}

func (l *applicationLoggerImpl) Debug(ctx context.Context, message string, fields Fields) {
	l.log(ctx, levelDebug, "DEBUG", message, nil, fields)
}

func (l *applicationLoggerImpl) Info(ctx context.Context, message string, fields Fields) {
	l.log(ctx, levelInfo, "INFO", message, nil, fields)
}

func (l *applicationLoggerImpl) Warn(ctx context.Context, message string, fields Fields) {
	l.log(ctx, levelWarn, "WARN", message, nil, fields)
}

func (l *applicationLoggerImpl) Error(ctx context.Context, message string, fields Fields) {
	l.log(ctx, levelError, "ERROR", message, nil, fields)
}

func (l *applicationLoggerImpl) ErrorWithError(ctx context.Context, err error, message string, fields Fields) {
	l.log(ctx, levelError, "ERROR", message, err, fields)
}

// WithComponent returns a logger that tags entries with a component name.
func (l *applicationLoggerImpl) WithComponent(component string) ApplicationLogger {
	clone := *l
	clone.component = component
	return &clone
}

func (l *applicationLoggerImpl) log(ctx context.Context, level int, levelName, message string, err error, fields Fields) {
	if level < l.minLevel {
		return
	}

	entry := LogEntry{
		Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
		Level:         levelName,
		Message:       message,
		Component:     l.component,
		CorrelationID: CorrelationIDFromContext(ctx),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if len(fields) > 0 {
		entry.Metadata = fields
	}

	var line []byte
	if l.config.Format == "text" {
		line = []byte(fmt.Sprintf("%s [%s] %s %v", entry.Timestamp, entry.Level, entry.Message, entry.Metadata))
	} else {
		encoded, encodeErr := json.Marshal(entry)
		if encodeErr != nil {
			// Fall back to a plain line rather than dropping the event.
			line = []byte(fmt.Sprintf("%s [%s] %s", entry.Timestamp, entry.Level, entry.Message))
		} else {
			line = encoded
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(append(line, '\n'))
}
