package inventory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go-bizops/internal/events"
	inventoryerrors "go-bizops/internal/inventory/errors"
	"go-bizops/internal/messaging/kafka"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=inventory_service.go -destination=mock/inventory_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, actorID string, req CreateItemRequest) (ItemResponse, error)
	GetAll(ctx context.Context, itemType string) ([]ItemResponse, error)
	GetByID(ctx context.Context, id string) (ItemResponse, error)
	Update(ctx context.Context, actorID, id string, req UpdateItemRequest) (ItemResponse, error)
	Delete(ctx context.Context, id string) error
	Adjust(ctx context.Context, actorID, id string, req AdjustItemRequest) (ItemResponse, error)
	BulkSetQuantities(ctx context.Context, actorID string, req BulkSetQuantityRequest) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	now    func() time.Time
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, outbox kafka.OutboxRepository, logger ...*zap.Logger) Service {
	l := zap.L().Named("inventory.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("inventory.service")
	}
	return &service{db: db, repo: repo, outbox: outbox, now: time.Now, logger: l}
}

func (s *service) Create(ctx context.Context, actorID string, req CreateItemRequest) (ItemResponse, error) {
	s.logger.Debug("create inventory item requested",
		zap.String("actor_id", actorID),
		zap.String("item_code", req.ItemCode),
	)

	unit := req.Unit
	if unit == "" {
		unit = "pcs"
	}

	item := &Item{
		ID:          uuid.New(),
		ItemCode:    req.ItemCode,
		Name:        req.Name,
		ItemType:    req.ItemType,
		SubCategory: req.SubCategory,
		Quantity:    req.Quantity,
		Unit:        unit,
		Location:    req.Location,
		Condition:   req.Condition,
		Status:      StatusAvailable,
		AssignedTo:  req.AssignedTo,
	}

	if err := s.repo.Create(ctx, item); err != nil {
		if isUniqueViolation(err) {
			return ItemResponse{}, inventoryerrors.ErrDuplicateItemCode
		}
		s.logger.Error("create inventory item persist failed", zap.Error(err))
		return ItemResponse{}, err
	}

	s.logger.Info("inventory item created",
		zap.String("item_id", item.ID.String()),
		zap.String("item_code", item.ItemCode),
	)

	return mapToResponse(*item), nil
}

func (s *service) GetAll(ctx context.Context, itemType string) ([]ItemResponse, error) {
	items, err := s.repo.FindAll(ctx, itemType)
	if err != nil {
		return nil, err
	}

	out := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, mapToResponse(item))
	}
	return out, nil
}

func (s *service) GetByID(ctx context.Context, id string) (ItemResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return ItemResponse{}, inventoryerrors.ErrInvalidItemID
	}

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ItemResponse{}, inventoryerrors.ErrItemNotFound
		}
		return ItemResponse{}, err
	}
	return mapToResponse(*item), nil
}

func (s *service) Update(ctx context.Context, actorID, id string, req UpdateItemRequest) (ItemResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return ItemResponse{}, inventoryerrors.ErrInvalidItemID
	}

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ItemResponse{}, inventoryerrors.ErrItemNotFound
		}
		return ItemResponse{}, err
	}

	item.Name = req.Name
	item.ItemType = req.ItemType
	item.SubCategory = req.SubCategory
	if req.Unit != "" {
		item.Unit = req.Unit
	}
	item.Location = req.Location
	item.Condition = req.Condition
	item.Status = req.Status
	item.AssignedTo = req.AssignedTo

	if err := s.repo.Update(ctx, item); err != nil {
		s.logger.Error("update inventory item persist failed", zap.Error(err))
		return ItemResponse{}, err
	}

	return mapToResponse(*item), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return inventoryerrors.ErrInvalidItemID
	}
	return s.repo.Delete(ctx, id)
}

// Adjust applies a manual signed quantity correction. The adjustment and
// its outbox event commit together.
func (s *service) Adjust(ctx context.Context, actorID, id string, req AdjustItemRequest) (ItemResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return ItemResponse{}, inventoryerrors.ErrInvalidItemID
	}
	if req.Delta == 0 {
		return ItemResponse{}, inventoryerrors.ErrZeroDelta
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ItemResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	quantity, err := qtx.AdjustQuantity(ctx, id, req.Delta)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ItemResponse{}, inventoryerrors.ErrItemNotFound
		}
		s.logger.Error("adjust inventory quantity failed", zap.Error(err))
		return ItemResponse{}, err
	}

	if err := s.enqueueStockEvent(ctx, tx, id, req.Delta, quantity, "MANUAL"); err != nil {
		s.logger.Error("enqueue stock_adjusted event failed", zap.Error(err))
		return ItemResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("adjust inventory commit failed", zap.Error(err))
		return ItemResponse{}, err
	}

	s.logger.Info("inventory quantity adjusted",
		zap.String("item_id", id),
		zap.Int("delta", req.Delta),
		zap.Int("quantity", quantity),
		zap.String("actor_id", actorID),
	)

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ItemResponse{}, err
	}
	return mapToResponse(*item), nil
}

// BulkSetQuantities overwrites quantities for many items in one tx, for
// periodic stock-takes of consumables.
func (s *service) BulkSetQuantities(ctx context.Context, actorID string, req BulkSetQuantityRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	for _, line := range req.Items {
		if err := qtx.SetQuantity(ctx, line.ItemID, line.Quantity); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return inventoryerrors.ErrItemNotFound
			}
			s.logger.Error("bulk set quantity failed",
				zap.String("item_id", line.ItemID),
				zap.Error(err),
			)
			return err
		}

		if err := s.enqueueStockEvent(ctx, tx, line.ItemID, 0, line.Quantity, "MANUAL"); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("bulk set quantities commit failed", zap.Error(err))
		return err
	}

	s.logger.Info("bulk stock take applied",
		zap.Int("items", len(req.Items)),
		zap.String("actor_id", actorID),
	)

	return nil
}

func (s *service) enqueueStockEvent(ctx context.Context, tx *sql.Tx, itemID string, delta, quantity int, source string) error {
	if s.outbox == nil {
		return nil
	}

	payload, err := json.Marshal(events.StockAdjustedEvent{
		EventType:  "stock_adjusted",
		ItemID:     itemID,
		Delta:      delta,
		Quantity:   quantity,
		Source:     source,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		AggregateType: "inventory_item",
		AggregateID:   itemID,
		EventType:     "stock_adjusted",
		Topic:         events.StockAdjustedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func mapToResponse(item Item) ItemResponse {
	return ItemResponse{
		ID:          item.ID.String(),
		ItemCode:    item.ItemCode,
		Name:        item.Name,
		ItemType:    item.ItemType,
		SubCategory: item.SubCategory,
		Quantity:    item.Quantity,
		Unit:        item.Unit,
		Location:    item.Location,
		Condition:   item.Condition,
		Status:      item.Status,
		AssignedTo:  item.AssignedTo,
	}
}
