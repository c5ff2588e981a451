package procurement

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-bizops/internal/domain"
	"go-bizops/internal/events"
	"go-bizops/internal/messaging/kafka"
	procurementerrors "go-bizops/internal/procurement/errors"
	"go-bizops/internal/shared/counter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=procurement_service.go -destination=mock/procurement_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, actor domain.Actor, req CreatePurchaseOrder) (PurchaseOrderResponse, error)
	GetAll(ctx context.Context, status string) ([]PurchaseOrderResponse, error)
	GetByID(ctx context.Context, id string) (PurchaseOrderResponse, error)
	Act(ctx context.Context, actor domain.Actor, id string, req ActPurchaseOrder) (PurchaseOrderResponse, error)
	ReceiveGoods(ctx context.Context, actor domain.Actor, id string, req ReceiveGoodsRequest) (PurchaseOrderResponse, error)
}

type service struct {
	db      *sql.DB
	repo    Repository
	counter counter.Repository
	outbox  kafka.OutboxRepository
	now     func() time.Time
	logger  *zap.Logger
}

func NewService(db *sql.DB, repo Repository, counterRepo counter.Repository, outbox kafka.OutboxRepository, logger ...*zap.Logger) Service {
	l := zap.L().Named("procurement.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("procurement.service")
	}
	return &service{db: db, repo: repo, counter: counterRepo, outbox: outbox, now: time.Now, logger: l}
}

func (s *service) Create(ctx context.Context, actor domain.Actor, req CreatePurchaseOrder) (PurchaseOrderResponse, error) {
	s.logger.Debug("create purchase order",
		zap.String("actor_id", actor.ID),
		zap.String("vendor", req.Vendor),
		zap.Int("lines", len(req.Items)),
	)

	actorUUID, err := uuid.Parse(actor.ID)
	if err != nil {
		return PurchaseOrderResponse{}, procurementerrors.ErrInvalidActorID
	}

	seq, err := s.counter.GetNextValue(ctx, counter.TypePurchaseOrder)
	if err != nil {
		s.logger.Error("draw purchase order number failed", zap.Error(err))
		return PurchaseOrderResponse{}, err
	}

	order := &PurchaseOrder{
		ID:          uuid.New(),
		OrderNumber: fmt.Sprintf("PO-%06d", seq),
		Vendor:      req.Vendor,
		Status:      StatusPendingAccountManager,
		CreatedBy:   actorUUID,
	}

	if req.SupplyRequestID != nil {
		srID, err := uuid.Parse(*req.SupplyRequestID)
		if err != nil {
			return PurchaseOrderResponse{}, procurementerrors.ErrInvalidOrderID
		}
		order.SupplyRequestID = &srID
	}

	for _, line := range req.Items {
		item := PurchaseOrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			Description: line.Description,
			Quantity:    line.Quantity,
		}
		if line.UnitCost != "" {
			cost, err := decimal.NewFromString(line.UnitCost)
			if err != nil || cost.IsNegative() {
				return PurchaseOrderResponse{}, procurementerrors.ErrInvalidUnitCost
			}
			item.UnitCost = cost
		}
		if line.InventoryItemID != nil {
			invID, err := uuid.Parse(*line.InventoryItemID)
			if err != nil {
				return PurchaseOrderResponse{}, procurementerrors.ErrInvalidOrderID
			}
			item.InventoryItemID = &invID
		}
		order.Items = append(order.Items, item)
	}

	if err := s.repo.Create(ctx, order); err != nil {
		s.logger.Error("create purchase order persist failed", zap.Error(err))
		return PurchaseOrderResponse{}, err
	}

	s.logger.Info("purchase order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
	)

	return mapToResponse(*order), nil
}

func (s *service) GetAll(ctx context.Context, status string) ([]PurchaseOrderResponse, error) {
	orders, err := s.repo.FindAll(ctx, status)
	if err != nil {
		return nil, err
	}

	out := make([]PurchaseOrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, mapToResponse(o))
	}
	return out, nil
}

func (s *service) GetByID(ctx context.Context, id string) (PurchaseOrderResponse, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PurchaseOrderResponse{}, procurementerrors.ErrOrderNotFound
		}
		return PurchaseOrderResponse{}, err
	}
	return mapToResponse(*order), nil
}

// Act resolves the account-manager stage of an order.
func (s *service) Act(ctx context.Context, actor domain.Actor, id string, req ActPurchaseOrder) (PurchaseOrderResponse, error) {
	if req.Action == ActionReject && req.Reason == "" {
		return PurchaseOrderResponse{}, procurementerrors.ErrRejectionReasonRequired
	}
	if _, err := uuid.Parse(actor.ID); err != nil {
		return PurchaseOrderResponse{}, procurementerrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return PurchaseOrderResponse{}, procurementerrors.ErrInvalidOrderID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PurchaseOrderResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	order, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PurchaseOrderResponse{}, procurementerrors.ErrOrderNotFound
		}
		return PurchaseOrderResponse{}, err
	}

	// Rejection stays open until the goods are received; approval is only
	// valid at the account-manager stage.
	actionable := order.Status == StatusPendingAccountManager ||
		(req.Action == ActionReject && order.Status == StatusApproved)
	if !actionable {
		s.logger.Warn("invalid purchase order transition",
			zap.String("order_id", id),
			zap.String("current_status", order.Status),
			zap.String("action", req.Action),
		)
		return PurchaseOrderResponse{}, procurementerrors.ErrInvalidStatusTransition
	}

	toStatus := StatusApproved
	var rejectionReason *string
	var approvedAt *time.Time
	if req.Action == ActionReject {
		toStatus = StatusRejected
		reason := req.Reason
		rejectionReason = &reason
	} else {
		now := s.now()
		approvedAt = &now
	}

	applied, err := qtx.TransitionStatus(ctx, id, order.Status, toStatus, rejectionReason, nil, nil, approvedAt, nil)
	if err != nil {
		s.logger.Error("purchase order transition failed", zap.Error(err))
		return PurchaseOrderResponse{}, err
	}
	if !applied {
		return PurchaseOrderResponse{}, procurementerrors.ErrConcurrentUpdate
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("purchase order transition commit failed", zap.Error(err))
		return PurchaseOrderResponse{}, err
	}

	s.logger.Info("purchase order transitioned",
		zap.String("order_id", id),
		zap.String("from", order.Status),
		zap.String("to", toStatus),
		zap.String("actor_id", actor.ID),
	)

	order.Status = toStatus
	order.RejectionReason = rejectionReason
	if approvedAt != nil {
		order.ApprovedAt = approvedAt
	}
	return mapToResponse(*order), nil
}

// ReceiveGoods books delivery of an approved order: the status write,
// the receipt metadata, every stock credit, and the linked requisition's
// return to the store queue commit as one unit.
func (s *service) ReceiveGoods(ctx context.Context, actor domain.Actor, id string, req ReceiveGoodsRequest) (PurchaseOrderResponse, error) {
	if _, err := uuid.Parse(actor.ID); err != nil {
		return PurchaseOrderResponse{}, procurementerrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return PurchaseOrderResponse{}, procurementerrors.ErrInvalidOrderID
	}

	// The delivery document usually carries its own number; mint one only
	// when the caller has none.
	receiptNumber := req.ReceiptNumber
	if receiptNumber == "" {
		seq, err := s.counter.GetNextValue(ctx, counter.TypeGoodsReceipt)
		if err != nil {
			s.logger.Error("draw goods receipt number failed", zap.Error(err))
			return PurchaseOrderResponse{}, err
		}
		receiptNumber = fmt.Sprintf("GR-%06d", seq)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PurchaseOrderResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	order, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PurchaseOrderResponse{}, procurementerrors.ErrOrderNotFound
		}
		return PurchaseOrderResponse{}, err
	}

	if order.Status != StatusApproved {
		s.logger.Warn("receipt attempted on non-approved order",
			zap.String("order_id", id),
			zap.String("current_status", order.Status),
		)
		return PurchaseOrderResponse{}, procurementerrors.ErrInvalidStatusTransition
	}

	receivedAt := s.now()
	var remarks *string
	if req.Remarks != "" {
		remarks = &req.Remarks
	}

	applied, err := qtx.TransitionStatus(ctx, id, order.Status, StatusReceived, nil, &receiptNumber, remarks, nil, &receivedAt)
	if err != nil {
		s.logger.Error("receipt status transition failed", zap.Error(err))
		return PurchaseOrderResponse{}, err
	}
	if !applied {
		return PurchaseOrderResponse{}, procurementerrors.ErrConcurrentUpdate
	}

	for _, line := range order.Items {
		if line.InventoryItemID == nil {
			continue // non-stocked line, nothing to credit
		}

		quantity, err := qtx.IncrementStock(ctx, line.InventoryItemID.String(), line.Quantity)
		if err != nil {
			s.logger.Error("stock increment failed",
				zap.String("order_id", id),
				zap.String("inventory_item_id", line.InventoryItemID.String()),
				zap.Error(err),
			)
			return PurchaseOrderResponse{}, err
		}

		if err := s.enqueueStockEvent(ctx, tx, line.InventoryItemID.String(), line.Quantity, quantity); err != nil {
			s.logger.Error("enqueue stock_adjusted event failed", zap.Error(err))
			return PurchaseOrderResponse{}, err
		}
	}

	if order.SupplyRequestID != nil {
		returned, err := qtx.ReturnSupplyRequestToStore(ctx, order.SupplyRequestID.String())
		if err != nil {
			s.logger.Error("return supply request to store failed", zap.Error(err))
			return PurchaseOrderResponse{}, err
		}
		if !returned {
			s.logger.Warn("linked supply request no longer forwarded, left as is",
				zap.String("order_id", id),
				zap.String("supply_request_id", order.SupplyRequestID.String()),
			)
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("receipt commit failed", zap.Error(err))
		return PurchaseOrderResponse{}, err
	}

	s.logger.Info("goods received",
		zap.String("order_id", id),
		zap.String("order_number", order.OrderNumber),
		zap.String("receipt_number", receiptNumber),
		zap.String("actor_id", actor.ID),
	)

	order.Status = StatusReceived
	order.ReceiptNumber = &receiptNumber
	order.ReceiptRemarks = remarks
	order.ReceivedAt = &receivedAt
	return mapToResponse(*order), nil
}

func (s *service) enqueueStockEvent(ctx context.Context, tx *sql.Tx, itemID string, delta, quantity int) error {
	if s.outbox == nil {
		return nil
	}

	payload, err := json.Marshal(events.StockAdjustedEvent{
		EventType:  "stock_adjusted",
		ItemID:     itemID,
		Delta:      delta,
		Quantity:   quantity,
		Source:     "GOODS_RECEIPT",
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

func mapToResponse(o PurchaseOrder) PurchaseOrderResponse {
	resp := PurchaseOrderResponse{
		ID:              o.ID.String(),
		OrderNumber:     o.OrderNumber,
		Vendor:          o.Vendor,
		Status:          o.Status,
		RejectionReason: o.RejectionReason,
		ReceiptNumber:   o.ReceiptNumber,
		ReceiptRemarks:  o.ReceiptRemarks,
		CreatedBy:       o.CreatedBy.String(),
		Items:           make([]OrderLineResponse, 0, len(o.Items)),
	}
	if o.SupplyRequestID != nil {
		srID := o.SupplyRequestID.String()
		resp.SupplyRequestID = &srID
	}
	if o.ApprovedAt != nil {
		approvedAt := o.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &approvedAt
	}
	if o.ReceivedAt != nil {
		receivedAt := o.ReceivedAt.Format(time.RFC3339)
		resp.ReceivedAt = &receivedAt
	}
	for _, line := range o.Items {
		lineResp := OrderLineResponse{
			ID:          line.ID.String(),
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitCost:    line.UnitCost.StringFixed(2),
		}
		if line.InventoryItemID != nil {
			invID := line.InventoryItemID.String()
			lineResp.InventoryItemID = &invID
		}
		resp.Items = append(resp.Items, lineResp)
	}
	return resp
}
