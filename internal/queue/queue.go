package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RunMessage is the unit of work handed to the evaluation worker.
type RunMessage struct {
	CorrectionID uint      `json:"correction_id"`
	UserID       uint      `json:"user_id"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
}

// Queue is a Redis-list backed run queue: the API pushes, workers pop.
type Queue struct {
	client *redis.Client
	name   string
}

// New constructs a run queue on the given Redis list.
func New(client *redis.Client, name string) *Queue {
	return &Queue{client: client, name: name}
}

// Push enqueues a run message.
func (q *Queue) Push(ctx context.Context, msg RunMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal run message: %w", err)
	}

	if err := q.client.LPush(ctx, q.name, data).Err(); err != nil {
		return fmt.Errorf("enqueue run: %w", err)
	}
	return nil
}

// Pop blocks up to timeout for the next run message. It returns
// (nil, nil) when the wait timed out with no work available.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (*RunMessage, error) {
	result, err := q.client.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("dequeue run: %w", err)
	}

	if len(result) < 2 {
		return nil, nil
	}

	var msg RunMessage
	if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
		return nil, fmt.Errorf("unmarshal run message: %w", err)
	}
	return &msg, nil
}

// Length reports the number of queued runs.
func (q *Queue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.name).Result()
}
