package notify

import (
	"context"
	"log/slog"
)

// Notifier delivers a notification to the operating environment. Delivery is
// best-effort; a failure never retracts the notification from the log.
type Notifier interface {
	Deliver(ctx context.Context, title, body string) error
}

// LogNotifier writes notifications to the structured log. It is the adapter
// for environments without a system notification facility.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs a LogNotifier. A nil logger falls back to slog.Default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Deliver implements Notifier.
func (n *LogNotifier) Deliver(ctx context.Context, title, body string) error {
	n.logger.InfoContext(ctx, "notification delivered", "title", title, "body", body)
	return nil
}
