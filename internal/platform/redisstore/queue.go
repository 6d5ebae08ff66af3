package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const queueKeyPrefix = "donate:queue:"

// jobEnvelope is the wire form a worker pops off the list.
type jobEnvelope struct {
	Handler    string          `json:"handler"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Queue pushes background jobs onto a Redis list per handler name, for an
// external worker to drain. It implements domain.TaskQueue.
type Queue struct {
	rdb *redis.Client
	now func() time.Time
}

func NewQueue(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb, now: time.Now}
}

func (q *Queue) Enqueue(ctx context.Context, handler string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode job payload: %w", err)
	}
	job, err := json.Marshal(jobEnvelope{
		Handler:    handler,
		Payload:    body,
		EnqueuedAt: q.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	if err := q.rdb.LPush(ctx, queueKeyPrefix+handler, job).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}
