package notify

import (
	"context"
	"encoding/json"
	"log/slog"
)

// LogQueue implements domain.TaskQueue by logging jobs instead of queuing
// them. It backs local development when no Redis is configured.
type LogQueue struct {
	logger *slog.Logger
}

func NewLogQueue(logger *slog.Logger) *LogQueue {
	return &LogQueue{logger: logger.With("component", "queue")}
}

func (q *LogQueue) Enqueue(_ context.Context, handler string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	q.logger.Info("job logged instead of queued", "handler", handler, "payload", string(body))
	return nil
}
