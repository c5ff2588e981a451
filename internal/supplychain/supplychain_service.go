package supplychain

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
	"go-bizops/internal/shared/counter"
	supplychainerrors "go-bizops/internal/supplychain/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=supplychain_service.go -destination=mock/supplychain_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, actor domain.Actor, req CreateSupplyRequest) (SupplyRequestResponse, error)
	GetAll(ctx context.Context, status string) ([]SupplyRequestResponse, error)
	GetByID(ctx context.Context, id string) (SupplyRequestResponse, error)
	Act(ctx context.Context, actor domain.Actor, id string, req ActSupplyRequest) (SupplyRequestResponse, error)
	ForwardToPurchase(ctx context.Context, actor domain.Actor, id string) (SupplyRequestResponse, error)
	Issue(ctx context.Context, actor domain.Actor, id string) (SupplyRequestResponse, error)
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
	l := zap.L().Named("supplychain.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("supplychain.service")
	}
	return &service{db: db, repo: repo, counter: counterRepo, outbox: outbox, now: time.Now, logger: l}
}

func (s *service) Create(ctx context.Context, actor domain.Actor, req CreateSupplyRequest) (SupplyRequestResponse, error) {
	s.logger.Debug("create supply request",
		zap.String("actor_id", actor.ID),
		zap.String("department", req.Department),
		zap.Int("lines", len(req.Items)),
	)

	actorUUID, err := uuid.Parse(actor.ID)
	if err != nil {
		return SupplyRequestResponse{}, supplychainerrors.ErrInvalidActorID
	}

	seq, err := s.counter.GetNextValue(ctx, counter.TypeSupplyRequest)
	if err != nil {
		s.logger.Error("draw supply request number failed", zap.Error(err))
		return SupplyRequestResponse{}, err
	}

	request := &SupplyRequest{
		ID:            uuid.New(),
		RequestNumber: fmt.Sprintf("SR-%06d", seq),
		Department:    req.Department,
		Status:        StatusPendingAccountManager,
		CreatedBy:     actorUUID,
	}

	for _, line := range req.Items {
		item := SupplyRequestItem{
			ID:          uuid.New(),
			RequestID:   request.ID,
			Description: line.Description,
			Quantity:    line.Quantity,
		}
		if line.InventoryItemID != nil {
			invID, err := uuid.Parse(*line.InventoryItemID)
			if err != nil {
				return SupplyRequestResponse{}, supplychainerrors.ErrInvalidRequestID
			}
			item.InventoryItemID = &invID
		}
		request.Items = append(request.Items, item)
	}

	if err := s.repo.Create(ctx, request); err != nil {
		s.logger.Error("create supply request persist failed", zap.Error(err))
		return SupplyRequestResponse{}, err
	}

	s.logger.Info("supply request created",
		zap.String("request_id", request.ID.String()),
		zap.String("request_number", request.RequestNumber),
	)

	return mapToResponse(*request), nil
}

func (s *service) GetAll(ctx context.Context, status string) ([]SupplyRequestResponse, error) {
	requests, err := s.repo.FindAll(ctx, status)
	if err != nil {
		return nil, err
	}

	out := make([]SupplyRequestResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, mapToResponse(r))
	}
	return out, nil
}

func (s *service) GetByID(ctx context.Context, id string) (SupplyRequestResponse, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SupplyRequestResponse{}, supplychainerrors.ErrRequestNotFound
		}
		return SupplyRequestResponse{}, err
	}
	return mapToResponse(*request), nil
}

// Act resolves the account-manager stage. Approval routes by requesting
// department: the store's own requests forward straight to purchasing,
// everything else waits for store fulfillment.
func (s *service) Act(ctx context.Context, actor domain.Actor, id string, req ActSupplyRequest) (SupplyRequestResponse, error) {
	if req.Action == ActionReject && req.Reason == "" {
		return SupplyRequestResponse{}, supplychainerrors.ErrRejectionReasonRequired
	}

	return s.transition(ctx, actor, id, func(request *SupplyRequest) (string, *string, bool, error) {
		if req.Action == ActionReject {
			if !pendingStates[request.Status] {
				return "", nil, false, supplychainerrors.ErrInvalidStatusTransition
			}
			reason := req.Reason
			return StatusRejected, &reason, false, nil
		}

		if request.Status != StatusPendingAccountManager {
			return "", nil, false, supplychainerrors.ErrInvalidStatusTransition
		}
		if request.Department == DepartmentStore {
			return StatusForwardedToPurchase, nil, true, nil
		}
		return StatusPendingStore, nil, true, nil
	})
}

// ForwardToPurchase escalates a request the store cannot fulfill locally.
func (s *service) ForwardToPurchase(ctx context.Context, actor domain.Actor, id string) (SupplyRequestResponse, error) {
	return s.transition(ctx, actor, id, func(request *SupplyRequest) (string, *string, bool, error) {
		if !pendingStates[request.Status] || request.Status == StatusForwardedToPurchase {
			return "", nil, false, supplychainerrors.ErrInvalidStatusTransition
		}
		return StatusForwardedToPurchase, nil, false, nil
	})
}

// transition is the shared conditional-write path for non-issuing moves.
func (s *service) transition(
	ctx context.Context,
	actor domain.Actor,
	id string,
	decide func(*SupplyRequest) (toStatus string, rejectionReason *string, stampApproval bool, err error),
) (SupplyRequestResponse, error) {
	if _, err := uuid.Parse(actor.ID); err != nil {
		return SupplyRequestResponse{}, supplychainerrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return SupplyRequestResponse{}, supplychainerrors.ErrInvalidRequestID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SupplyRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	request, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SupplyRequestResponse{}, supplychainerrors.ErrRequestNotFound
		}
		return SupplyRequestResponse{}, err
	}

	toStatus, rejectionReason, stampApproval, err := decide(request)
	if err != nil {
		s.logger.Warn("invalid supply request transition",
			zap.String("request_id", id),
			zap.String("current_status", request.Status),
			zap.Error(err),
		)
		return SupplyRequestResponse{}, err
	}

	var approvedAt *time.Time
	if stampApproval {
		now := s.now()
		approvedAt = &now
	}

	applied, err := qtx.TransitionStatus(ctx, id, request.Status, toStatus, rejectionReason, approvedAt, nil)
	if err != nil {
		s.logger.Error("supply request transition failed", zap.Error(err))
		return SupplyRequestResponse{}, err
	}
	if !applied {
		return SupplyRequestResponse{}, supplychainerrors.ErrConcurrentUpdate
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("supply request transition commit failed", zap.Error(err))
		return SupplyRequestResponse{}, err
	}

	s.logger.Info("supply request transitioned",
		zap.String("request_id", id),
		zap.String("from", request.Status),
		zap.String("to", toStatus),
		zap.String("actor_id", actor.ID),
	)

	request.Status = toStatus
	request.RejectionReason = rejectionReason
	if approvedAt != nil {
		request.ApprovedAt = approvedAt
	}
	return mapToResponse(*request), nil
}

// Issue finalizes fulfillment: the status write and every stock decrement
// commit as one unit. Lines without an inventory reference are skipped,
// and stock is allowed to go negative rather than blocking issuance.
func (s *service) Issue(ctx context.Context, actor domain.Actor, id string) (SupplyRequestResponse, error) {
	if _, err := uuid.Parse(actor.ID); err != nil {
		return SupplyRequestResponse{}, supplychainerrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return SupplyRequestResponse{}, supplychainerrors.ErrInvalidRequestID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SupplyRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	request, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SupplyRequestResponse{}, supplychainerrors.ErrRequestNotFound
		}
		return SupplyRequestResponse{}, err
	}

	if !issuableStates[request.Status] {
		s.logger.Warn("issue attempted from non-issuable status",
			zap.String("request_id", id),
			zap.String("current_status", request.Status),
		)
		return SupplyRequestResponse{}, supplychainerrors.ErrInvalidStatusTransition
	}

	issuedAt := s.now()
	applied, err := qtx.TransitionStatus(ctx, id, request.Status, StatusIssued, nil, nil, &issuedAt)
	if err != nil {
		s.logger.Error("issue status transition failed", zap.Error(err))
		return SupplyRequestResponse{}, err
	}
	if !applied {
		return SupplyRequestResponse{}, supplychainerrors.ErrConcurrentUpdate
	}

	for _, line := range request.Items {
		if line.InventoryItemID == nil {
			continue // ad-hoc line, nothing in stock to debit
		}

		remaining, err := qtx.DecrementStock(ctx, line.InventoryItemID.String(), line.Quantity)
		if err != nil {
			s.logger.Error("stock decrement failed",
				zap.String("request_id", id),
				zap.String("inventory_item_id", line.InventoryItemID.String()),
				zap.Error(err),
			)
			return SupplyRequestResponse{}, err
		}

		if err := s.enqueueStockEvent(ctx, tx, line.InventoryItemID.String(), -line.Quantity, remaining); err != nil {
			s.logger.Error("enqueue stock_adjusted event failed", zap.Error(err))
			return SupplyRequestResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("issue commit failed", zap.Error(err))
		return SupplyRequestResponse{}, err
	}

	s.logger.Info("supply request issued",
		zap.String("request_id", id),
		zap.String("request_number", request.RequestNumber),
		zap.String("actor_id", actor.ID),
	)

	request.Status = StatusIssued
	request.IssuedAt = &issuedAt
	return mapToResponse(*request), nil
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
		Source:     "SUPPLY_ISSUE",
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

func mapToResponse(r SupplyRequest) SupplyRequestResponse {
	resp := SupplyRequestResponse{
		ID:              r.ID.String(),
		RequestNumber:   r.RequestNumber,
		Department:      r.Department,
		Status:          r.Status,
		RejectionReason: r.RejectionReason,
		CreatedBy:       r.CreatedBy.String(),
		Items:           make([]SupplyLineResponse, 0, len(r.Items)),
	}
	if r.ApprovedAt != nil {
		approvedAt := r.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &approvedAt
	}
	if r.IssuedAt != nil {
		issuedAt := r.IssuedAt.Format(time.RFC3339)
		resp.IssuedAt = &issuedAt
	}
	for _, line := range r.Items {
		lineResp := SupplyLineResponse{
			ID:          line.ID.String(),
			Description: line.Description,
			Quantity:    line.Quantity,
		}
		if line.InventoryItemID != nil {
			invID := line.InventoryItemID.String()
			lineResp.InventoryItemID = &invID
		}
		resp.Items = append(resp.Items, lineResp)
	}
	return resp
}
