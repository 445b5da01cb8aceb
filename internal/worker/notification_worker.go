package worker

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/complykit/request-service/internal/notify"
	"github.com/complykit/request-service/internal/queue"
)

// dequeueTimeout bounds each blocking pop so the loop can observe
// context cancellation.
const dequeueTimeout = 5 * time.Second

// DeliveryWorker drains the notification queue and performs the actual
// email and webhook sends. Delivery failures are logged and dropped; they
// never block the loop.
type DeliveryWorker struct {
	jobs    queue.Queue
	mailer  notify.Mailer
	webhook notify.WebhookSender
	logger  *zap.Logger
}

// NewDeliveryWorker creates a worker over the given queue and senders.
func NewDeliveryWorker(jobs queue.Queue, mailer notify.Mailer, webhook notify.WebhookSender, logger *zap.Logger) *DeliveryWorker {
	return &DeliveryWorker{jobs: jobs, mailer: mailer, webhook: webhook, logger: logger}
}

// Run consumes jobs until the context is canceled.
func (w *DeliveryWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		job, err := w.jobs.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Warn("failed to dequeue delivery job", zap.Error(err))
			continue
		}
		if job == nil {
			continue
		}
		w.Process(ctx, *job)
	}
}

// Process delivers a single job.
func (w *DeliveryWorker) Process(ctx context.Context, job queue.Job) {
	switch job.Kind {
	case queue.KindEmail:
		var msg notify.EmailMessage
		if err := json.Unmarshal(job.Payload, &msg); err != nil {
			w.logger.Warn("discarding malformed email job", zap.String("job_id", job.ID), zap.Error(err))
			return
		}
		if err := w.mailer.Send(ctx, msg); err != nil {
			w.logger.Warn("email delivery failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	case queue.KindWebhook:
		var msg notify.WebhookMessage
		if err := json.Unmarshal(job.Payload, &msg); err != nil {
			w.logger.Warn("discarding malformed webhook job", zap.String("job_id", job.ID), zap.Error(err))
			return
		}
		if err := w.webhook.Send(ctx, msg); err != nil {
			w.logger.Warn("webhook delivery failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	default:
		w.logger.Warn("discarding job of unknown kind", zap.String("kind", job.Kind))
	}
}
