package events

import "time"

const StockAdjustedTopic = "ops.inventory.stock.v1"

// StockAdjustedEvent is written to the outbox in the same transaction as
// the inventory mutation, so observers eventually see every adjustment
// exactly once even though delivery order is not guaranteed.
type StockAdjustedEvent struct {
	EventType  string    `json:"event_type"`
	ItemID     string    `json:"item_id"`
	Delta      int       `json:"delta"`
	Quantity   int       `json:"quantity"`
	Source     string    `json:"source"` // SUPPLY_ISSUE | GOODS_RECEIPT | MANUAL
	OccurredAt time.Time `json:"occurred_at"`
}
