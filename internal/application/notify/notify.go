// Package notify carries user-facing notices out of the application
// services. The CLI prints them and the view server returns them with the
// response.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Level is the severity of a notice
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is one message for the user
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier receives notices
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

type contextKey struct{}

// WithNotifier attaches n to ctx
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, contextKey{}, n)
}

// FromContext returns the notifier in ctx, or one that drops everything
func FromContext(ctx context.Context) Notifier {
	if n, ok := ctx.Value(contextKey{}).(Notifier); ok && n != nil {
		return n
	}
	return discard{}
}

func Info(ctx context.Context, format string, args ...any) {
	send(ctx, LevelInfo, format, args...)
}

func Success(ctx context.Context, format string, args ...any) {
	send(ctx, LevelSuccess, format, args...)
}

func Warn(ctx context.Context, format string, args ...any) {
	send(ctx, LevelWarning, format, args...)
}

func Error(ctx context.Context, format string, args ...any) {
	send(ctx, LevelError, format, args...)
}

func send(ctx context.Context, level Level, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	FromContext(ctx).Notify(ctx, Notice{Level: level, Message: msg})
}

type discard struct{}

func (discard) Notify(context.Context, Notice) {}

// Collector buffers notices for one request
type Collector struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify implements Notifier
func (c *Collector) Notify(_ context.Context, n Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, n)
}

// Notices returns the collected notices in arrival order
func (c *Collector) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.notices))
	copy(out, c.notices)
	return out
}

// Printer writes notices as lines, e.g. "[warning] Stock adjusted"
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPrinter creates a Printer writing to w
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Notify implements Notifier
func (p *Printer) Notify(_ context.Context, n Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.w, "[%s] %s\n", n.Level, n.Message)
}
