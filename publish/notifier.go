package publish

import (
	"context"
	"fmt"
	"log/slog"
)

// TelegramNotifier reports fatal run failures to a Telegram chat.
// Delivery is best-effort: failures are logged, never propagated.
type TelegramNotifier struct {
	publisher *TelegramPublisher
	logger    *slog.Logger
}

var _ Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier wraps a publisher for failure notifications,
// typically pointed at an operator chat rather than the digest channel.
func NewTelegramNotifier(publisher *TelegramPublisher) *TelegramNotifier {
	return &TelegramNotifier{
		publisher: publisher,
		logger:    slog.Default().With("component", "telegram-notifier"),
	}
}

// NotifyFailure posts the run identifier and error summary.
func (n *TelegramNotifier) NotifyFailure(ctx context.Context, runID, summary string) {
	message := fmt.Sprintf("Run %s failed: %s", runID, summary)
	if _, err := n.publisher.Publish(ctx, message); err != nil {
		n.logger.Error("failed to deliver failure notification",
			"run_id", runID, "err", err)
	}
}

// LogNotifier records failures to the log only, used when no outbound
// notification channel is configured.
type LogNotifier struct {
	logger *slog.Logger
}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: slog.Default().With("component", "notifier")}
}

// NotifyFailure logs the failure summary.
func (n *LogNotifier) NotifyFailure(ctx context.Context, runID, summary string) {
	n.logger.Error("run failed", "run_id", runID, "summary", summary)
}
