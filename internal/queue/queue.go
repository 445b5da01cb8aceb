package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Job kinds understood by the notification worker.
const (
	KindEmail   = "email"
	KindWebhook = "webhook"
)

// Job is the envelope pushed onto the delivery queue.
type Job struct {
	ID      string          `json:"id"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Queue is the fire-and-forget boundary between the workflow core and
// message delivery. Enqueue returns once the job is queued; the producer
// never observes delivery outcomes.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Dequeue(ctx context.Context, timeout time.Duration) (*Job, error)
}

type redisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue builds a Redis list backed queue.
func NewRedisQueue(client *redis.Client, key string) Queue {
	return &redisQueue{client: client, key: key}
}

func (q *redisQueue) Enqueue(ctx context.Context, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, encoded).Err()
}

// Dequeue blocks up to timeout for the next job. A nil job with nil error
// means the timeout elapsed with nothing queued.
func (q *redisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	values, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(values) != 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(values[1]), &job); err != nil {
		return nil, err
	}
	return &job, nil
}
