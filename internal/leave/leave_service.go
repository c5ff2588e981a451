package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go-bizops/internal/balance"
	"go-bizops/internal/domain"
	"go-bizops/internal/events"
	leaveerrors "go-bizops/internal/leave/errors"
	"go-bizops/internal/messaging/kafka"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, actor domain.Actor, req CreateLeaveRequest) (LeaveResponse, error)
	GetAll(ctx context.Context) ([]LeaveResponse, error)
	GetByID(ctx context.Context, id string) (LeaveResponse, error)
	GetByEmployee(ctx context.Context, employeeID string) ([]LeaveResponse, error)
	Act(ctx context.Context, actor domain.Actor, id string, req ActLeaveRequest) (LeaveResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	now    func() time.Time
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, outbox kafka.OutboxRepository, logger ...*zap.Logger) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{db: db, repo: repo, outbox: outbox, now: time.Now, logger: l}
}

func (s *service) Submit(ctx context.Context, actor domain.Actor, req CreateLeaveRequest) (LeaveResponse, error) {
	s.logger.Debug("submit leave requested",
		zap.String("actor_id", actor.ID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("leave_type", req.LeaveType),
	)

	actorUUID, err := uuid.Parse(actor.ID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidDateFormat
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidDateFormat
	}
	if startDate.After(endDate) {
		return LeaveResponse{}, leaveerrors.ErrInvalidDateRange
	}

	l := &LeaveRequest{
		ID:         uuid.New(),
		EmployeeID: employeeUUID,
		LeaveType:  req.LeaveType,
		StartDate:  startDate,
		EndDate:    endDate,
		TotalDays:  balance.DateRange{Start: startDate, End: endDate}.InclusiveDays(),
		Reason:     req.Reason,
		Status:     StatusPendingHOD,
		CreatedBy:  actorUUID,
	}

	if err := s.repo.Create(ctx, l); err != nil {
		s.logger.Error("submit leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("leave request submitted",
		zap.String("leave_id", l.ID.String()),
		zap.String("employee_id", req.EmployeeID),
		zap.Int("total_days", l.TotalDays),
	)

	return mapToResponse(*l), nil
}

func (s *service) GetAll(ctx context.Context) ([]LeaveResponse, error) {
	leaves, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) GetByID(ctx context.Context, id string) (LeaveResponse, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	return mapToResponse(*l), nil
}

func (s *service) GetByEmployee(ctx context.Context, employeeID string) ([]LeaveResponse, error) {
	leaves, err := s.repo.FindByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

// Act advances a leave request one stage. HOD approval only moves the
// request forward; HR approval is terminal and debits the employee's
// balance in the same transaction as the status write, so the two can
// never diverge.
func (s *service) Act(ctx context.Context, actor domain.Actor, id string, req ActLeaveRequest) (LeaveResponse, error) {
	s.logger.Debug("act on leave requested",
		zap.String("leave_id", id),
		zap.String("actor_id", actor.ID),
		zap.String("actor_role", actor.Role),
		zap.String("action", req.Action),
	)

	if _, err := uuid.Parse(actor.ID); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}
	if req.Action == ActionReject && req.Reason == "" {
		return LeaveResponse{}, leaveerrors.ErrRejectionReasonRequired
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("act on leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}

	toStatus, ok := nextStatus(l.Status, req.Action)
	if !ok {
		s.logger.Warn("invalid leave transition",
			zap.String("leave_id", id),
			zap.String("current_status", l.Status),
			zap.String("action", req.Action),
		)
		return LeaveResponse{}, leaveerrors.ErrInvalidStatusTransition
	}

	var rejectionReason *string
	if toStatus == StatusRejected {
		rejectionReason = &req.Reason
	}
	var approvedAt *time.Time
	if toStatus == StatusApproved {
		now := s.now()
		approvedAt = &now
	}

	applied, err := qtx.TransitionStatus(ctx, id, l.Status, toStatus, actor.ID, rejectionReason, approvedAt)
	if err != nil {
		s.logger.Error("leave status transition failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if !applied {
		return LeaveResponse{}, leaveerrors.ErrConcurrentUpdate
	}

	debitedDays := 0
	if toStatus == StatusApproved {
		// Terminal approval debits the balance. A missing balance row
		// (unknown leave type) skips the debit but keeps the approval.
		debited, err := qtx.IncrementUsed(ctx, l.EmployeeID.String(), l.LeaveType, l.TotalDays)
		if err != nil {
			s.logger.Error("leave balance debit failed", zap.Error(err))
			return LeaveResponse{}, err
		}
		if debited {
			debitedDays = l.TotalDays
		} else {
			s.logger.Warn("no balance row for leave type, debit skipped",
				zap.String("leave_id", id),
				zap.String("leave_type", l.LeaveType),
			)
		}
	}

	if toStatus == StatusApproved || toStatus == StatusRejected {
		if err := s.enqueueDecidedEvent(ctx, tx, l, toStatus, debitedDays); err != nil {
			s.logger.Error("enqueue leave_decided event failed", zap.Error(err))
			return LeaveResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("act on leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("leave request transitioned",
		zap.String("leave_id", id),
		zap.String("from", l.Status),
		zap.String("to", toStatus),
		zap.Int("debited_days", debitedDays),
	)

	l.Status = toStatus
	l.RejectionReason = rejectionReason
	l.ApprovedAt = approvedAt
	actedBy := uuid.MustParse(actor.ID)
	l.ActedBy = &actedBy
	return mapToResponse(*l), nil
}

func (s *service) enqueueDecidedEvent(ctx context.Context, tx *sql.Tx, l *LeaveRequest, status string, debitedDays int) error {
	if s.outbox == nil {
		return nil
	}

	payload, err := json.Marshal(events.LeaveDecidedEvent{
		EventType:  "leave_decided",
		LeaveID:    l.ID.String(),
		EmployeeID: l.EmployeeID.String(),
		Status:     status,
		DaysDebit:  debitedDays,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		AggregateType: "leave_request",
		AggregateID:   l.ID.String(),
		EventType:     "leave_decided",
		Topic:         events.LeaveDecidedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func mapToResponse(l LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		ID:              l.ID.String(),
		EmployeeID:      l.EmployeeID.String(),
		LeaveType:       l.LeaveType,
		StartDate:       l.StartDate.Format("2006-01-02"),
		EndDate:         l.EndDate.Format("2006-01-02"),
		TotalDays:       l.TotalDays,
		Reason:          l.Reason,
		Status:          l.Status,
		CreatedBy:       l.CreatedBy.String(),
		RejectionReason: l.RejectionReason,
	}
	if l.ActedBy != nil {
		actedBy := l.ActedBy.String()
		resp.ActedBy = &actedBy
	}
	if l.ApprovedAt != nil {
		approvedAt := l.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &approvedAt
	}
	return resp
}

func mapToListResponse(leaves []LeaveRequest) []LeaveResponse {
	out := make([]LeaveResponse, 0, len(leaves))
	for _, l := range leaves {
		out = append(out, mapToResponse(l))
	}
	return out
}
