package producer

import (
	"context"
	"time"

	"go-bizops/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	defaultPollInterval = 3 * time.Second
	outboxBatchSize     = 50
)

// ProcessOutboxEvents drains pending outbox rows on a fixed interval and
// publishes them to Kafka. Runs until ctx is cancelled.
func ProcessOutboxEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer *kafkago.Writer,
	logger *zap.Logger,
	pollInterval time.Duration,
) {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	log := logger.Named("kafka.producer.worker")
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	log.Info("outbox worker started", zap.Duration("poll_interval", pollInterval))

	for {
		select {
		case <-ctx.Done():
			log.Info("outbox worker stopped")
			return
		case <-ticker.C:
			sent, err := drainOutbox(ctx, repo, writer, log)
			if err != nil {
				log.Error("drain outbox failed", zap.Int("sent", sent), zap.Error(err))
			}
		}
	}
}

// drainOutbox publishes pending events batch by batch until the backlog is
// empty. A batch with failures ends the drain early; the failed rows are
// marked and the next tick picks up whatever is still pending.
func drainOutbox(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer *kafkago.Writer,
	logger *zap.Logger,
) (int, error) {
	totalSent := 0

	for {
		events, err := repo.ListPending(ctx, outboxBatchSize)
		if err != nil {
			return totalSent, err
		}
		if len(events) == 0 {
			return totalSent, nil
		}

		logger.Debug("publishing outbox batch", zap.Int("count", len(events)))

		batchSent := 0
		for _, event := range events {
			if err := publish(ctx, writer, event); err != nil {
				logger.Error("publish outbox event failed",
					zap.String("outbox_id", event.ID),
					zap.String("event_type", event.EventType),
					zap.String("topic", event.Topic),
					zap.Error(err),
				)
				_ = repo.MarkFailed(ctx, event.ID, err.Error())
				continue
			}

			if err := repo.MarkSent(ctx, event.ID); err != nil {
				logger.Error("mark outbox sent failed",
					zap.String("outbox_id", event.ID),
					zap.Error(err),
				)
				continue
			}

			batchSent++
			logger.Info("outbox event sent",
				zap.String("outbox_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.String("topic", event.Topic),
			)
		}

		totalSent += batchSent
		if batchSent < len(events) || len(events) < outboxBatchSize {
			return totalSent, nil
		}
	}
}
