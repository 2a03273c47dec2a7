// Package notify delivers operator notifications (the toasts of the console)
// to logs, terminals and connected browsers.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Level is the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Kind separates user-facing toasts from refresh hints sent to open views.
type Kind string

const (
	KindToast   Kind = "toast"
	KindRefresh Kind = "refresh"
)

// Notification is a single message for the operator.
type Notification struct {
	Kind    Kind      `json:"kind"`
	Level   Level     `json:"level"`
	View    string    `json:"view,omitempty"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// Toast builds a toast notification.
func Toast(level Level, view, format string, args ...any) Notification {
	return Notification{
		Kind:    KindToast,
		Level:   level,
		View:    view,
		Message: fmt.Sprintf(format, args...),
		SentAt:  time.Now(),
	}
}

// Refresh builds a hint telling clients showing view to refetch it.
func Refresh(view string) Notification {
	return Notification{
		Kind:   KindRefresh,
		Level:  LevelInfo,
		View:   view,
		SentAt: time.Now(),
	}
}

// LogNotifier writes notifications to a slog.Logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, msg Notification) error {
	level := slog.LevelInfo
	switch msg.Level {
	case LevelWarning:
		level = slog.LevelWarn
	case LevelError:
		level = slog.LevelError
	}

	n.logger.Log(ctx, level, "notification",
		"kind", msg.Kind,
		"level", msg.Level,
		"view", msg.View,
		"message", msg.Message,
	)
	return nil
}

// WriterNotifier prints toasts as lines, for terminal use. Refresh hints are dropped.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier creates a notifier printing to w.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Send(_ context.Context, msg Notification) error {
	if msg.Kind == KindRefresh {
		return nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintf(n.w, "[%s] %s\n", msg.Level, msg.Message)
	return err
}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Send(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

// Toasts returns a copy of the recorded toasts, in order.
func (r *Recorder) Toasts() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Notification, 0, len(r.sent))
	for _, n := range r.sent {
		if n.Kind == KindToast {
			out = append(out, n)
		}
	}
	return out
}

// All returns a copy of everything recorded, in order.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}

// Multi fans a notification out to several notifiers and joins their errors.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if notifier == nil {
			continue
		}
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
