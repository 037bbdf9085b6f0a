// Package notify delivers user-facing build notifications.
//
// Alerts report fatal, user-visible conditions (a theme without a manifest,
// a parser without a renderer). Errors report non-fatal problems such as a
// single output file that could not be written.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Notifier is the notification sink used by the build pipeline.
type Notifier interface {
	Alert(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
}

// LogNotifier forwards notifications to slog.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

func (n LogNotifier) Alert(ctx context.Context, msg string) {
	n.logger().ErrorContext(ctx, msg, slog.String("notification", "alert"))
}

func (n LogNotifier) Error(ctx context.Context, msg string) {
	n.logger().WarnContext(ctx, msg, slog.String("notification", "error"))
}

// WriterNotifier prints alerts to a terminal. Errors are left to the log.
type WriterNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

func NewWriterNotifier(out io.Writer) *WriterNotifier {
	return &WriterNotifier{out: out}
}

func (n *WriterNotifier) Alert(_ context.Context, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintf(n.out, "! %s\n", msg)
}

func (n *WriterNotifier) Error(context.Context, string) {}

// Multi fans out to every notifier in order.
type Multi []Notifier

func (m Multi) Alert(ctx context.Context, msg string) {
	for _, n := range m {
		n.Alert(ctx, msg)
	}
}

func (m Multi) Error(ctx context.Context, msg string) {
	for _, n := range m {
		n.Error(ctx, msg)
	}
}

// Nop discards all notifications.
type Nop struct{}

func (Nop) Alert(context.Context, string) {}
func (Nop) Error(context.Context, string) {}

// Recorder keeps notifications in memory. Useful in tests.
type Recorder struct {
	mu     sync.Mutex
	alerts []string
	errors []string
}

func (r *Recorder) Alert(_ context.Context, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, msg)
}

func (r *Recorder) Error(_ context.Context, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

// Alerts returns a copy of the recorded alerts.
func (r *Recorder) Alerts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.alerts...)
}

// Errors returns a copy of the recorded error notifications.
func (r *Recorder) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}
