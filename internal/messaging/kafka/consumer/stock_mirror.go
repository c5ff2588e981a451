package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"go-bizops/internal/events"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const stockKeyPrefix = "stock:"

// ConsumeStockAdjustments mirrors committed inventory quantities into
// Redis so read-heavy callers (dashboards, availability checks) can poll
// cheaply. Events arrive unordered; the payload carries the absolute
// quantity after the adjustment, so last-write-wins is safe enough for a
// cache that the database remains authoritative over.
func ConsumeStockAdjustments(
	ctx context.Context,
	reader *kafkago.Reader,
	rdb *redis.Client,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.stock_mirror")
	log.Info("stock mirror consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("stock mirror consumer stopped")
				return
			}
			log.Error("fetch stock adjustment message failed", zap.Error(err))
			continue
		}

		var event events.StockAdjustedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode stock_adjusted event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		key := fmt.Sprintf("%s%s", stockKeyPrefix, event.ItemID)
		if err := rdb.Set(ctx, key, event.Quantity, 0).Err(); err != nil {
			log.Error("mirror stock quantity failed",
				zap.String("item_id", event.ItemID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit stock adjustment message failed", zap.Error(err))
			continue
		}

		log.Debug("stock quantity mirrored",
			zap.String("item_id", event.ItemID),
			zap.Int("quantity", event.Quantity),
			zap.String("source", event.Source),
		)
	}
}
