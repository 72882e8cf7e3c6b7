// Package logging provides the structured logging interface used throughout
// the coordination kernel. Output is human-readable text by default and
// newline-delimited JSON when WithFormat("json") is given; the format is not
// chosen from the environment, and no metrics hook is provided.
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

// Logger is the minimal structured logging contract used by every
// component. Context-aware variants let call sites propagate correlation
// ids (task id, contract id) without threading a separate parameter.
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Debug(msg string, fields map[string]interface{})

	InfoContext(ctx context.Context, msg string, fields map[string]interface{})
	ErrorContext(ctx context.Context, msg string, fields map[string]interface{})

	// WithComponent returns a child logger that tags every entry with a
	// component name (e.g. "coordination", "security").
	WithComponent(component string) Logger
}

type correlationKey struct{}

// WithCorrelationID attaches a correlation id (typically a task id) to the
// context so every log line emitted underneath carries it.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func correlationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(correlationKey{}).(string); ok {
		return v
	}
	return ""
}

// NoOpLogger discards everything. It is the safe default for constructors
// that accept an optional Logger.
type NoOpLogger struct{}

func (NoOpLogger) Info(string, map[string]interface{})                        {}
func (NoOpLogger) Warn(string, map[string]interface{})                        {}
func (NoOpLogger) Error(string, map[string]interface{})                       {}
func (NoOpLogger) Debug(string, map[string]interface{})                       {}
func (NoOpLogger) InfoContext(context.Context, string, map[string]interface{})  {}
func (NoOpLogger) ErrorContext(context.Context, string, map[string]interface{}) {}
func (n NoOpLogger) WithComponent(string) Logger                               { return n }

// rateLimiter caps how often Error lines are emitted, protecting stdout from
// floods during a cascading detector/circuit-breaker storm.
type rateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if now.Sub(r.last) < r.interval {
		return false
	}
	r.last = now
	return true
}

// jsonLogger is the production implementation: JSON lines when the format
// is "json" (set explicitly via WithFormat), human-readable text otherwise.
type jsonLogger struct {
	service      string
	component    string
	level        string
	debug        bool
	format       string
	output       io.Writer
	errorLimiter *rateLimiter
}

// Option configures a Logger built by New.
type Option func(*jsonLogger)

// WithFormat selects "json" or "text" output. Defaults to "text".
func WithFormat(format string) Option {
	return func(l *jsonLogger) { l.format = format }
}

// WithLevel sets the minimum level ("debug", "info", "warn", "error").
func WithLevel(level string) Option {
	return func(l *jsonLogger) {
		l.level = strings.ToLower(level)
		l.debug = l.level == "debug"
	}
}

// WithOutput overrides the destination writer (defaults to os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(l *jsonLogger) { l.output = w }
}

// New builds a production logger for serviceName.
func New(serviceName string, opts ...Option) Logger {
	l := &jsonLogger{
		service:      serviceName,
		level:        "info",
		format:       "text",
		output:       os.Stdout,
		errorLimiter: newRateLimiter(time.Second),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *jsonLogger) Info(msg string, fields map[string]interface{})  { l.log(nil, "INFO", msg, fields) }
func (l *jsonLogger) Warn(msg string, fields map[string]interface{})  { l.log(nil, "WARN", msg, fields) }
func (l *jsonLogger) Debug(msg string, fields map[string]interface{}) {
	if l.debug {
		l.log(nil, "DEBUG", msg, fields)
	}
}

func (l *jsonLogger) Error(msg string, fields map[string]interface{}) {
	if l.errorLimiter != nil && !l.errorLimiter.allow() {
		return
	}
	l.log(nil, "ERROR", msg, fields)
}

func (l *jsonLogger) InfoContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(ctx, "INFO", msg, fields)
}

func (l *jsonLogger) ErrorContext(ctx context.Context, msg string, fields map[string]interface{}) {
	if l.errorLimiter != nil && !l.errorLimiter.allow() {
		return
	}
	l.log(ctx, "ERROR", msg, fields)
}

func (l *jsonLogger) WithComponent(component string) Logger {
	clone := *l
	clone.component = component
	return &clone
}

func (l *jsonLogger) log(ctx context.Context, level, msg string, fields map[string]interface{}) {
	rank := map[string]int{"DEBUG": 0, "INFO": 1, "WARN": 2, "ERROR": 3}
	if rank[level] < rank[strings.ToUpper(l.level)] {
		return
	}
	ts := time.Now().Format(time.RFC3339)
	corr := correlationID(ctx)

	if l.format == "json" {
		entry := map[string]interface{}{
			"timestamp": ts,
			"level":     level,
			"service":   l.service,
			"message":   msg,
		}
		if l.component != "" {
			entry["component"] = l.component
		}
		if corr != "" {
			entry["correlation_id"] = corr
		}
		for k, v := range fields {
			entry[k] = v
		}
		if data, err := json.Marshal(entry); err == nil {
			fmt.Fprintln(l.output, string(data))
		}
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] [%s]", ts, level, l.service)
	if l.component != "" {
		fmt.Fprintf(&b, " [%s]", l.component)
	}
	if corr != "" {
		fmt.Fprintf(&b, " [corr=%s]", corr)
	}
	fmt.Fprintf(&b, " %s", msg)
	for k, v := range fields {
		fmt.Fprintf(&b, " %s=%v", k, v)
	}
	fmt.Fprintln(l.output, b.String())
}
