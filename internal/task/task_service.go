package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go-bizops/internal/domain"
	taskerrors "go-bizops/internal/task/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=task_service.go -destination=mock/task_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, actor domain.Actor, req CreateTaskRequest) (TaskResponse, error)
	GetAll(ctx context.Context, status, assignee string) ([]TaskResponse, error)
	GetByID(ctx context.Context, id string) (TaskResponse, error)
	Act(ctx context.Context, actor domain.Actor, id string, req ActTaskRequest) (TaskResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	now    func() time.Time
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("task.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("task.service")
	}
	return &service{db: db, repo: repo, now: time.Now, logger: l}
}

// Create inserts a task and its first audit entry in one transaction so
// a task never exists without history.
func (s *service) Create(ctx context.Context, actor domain.Actor, req CreateTaskRequest) (TaskResponse, error) {
	actorUUID, err := uuid.Parse(actor.ID)
	if err != nil {
		return TaskResponse{}, taskerrors.ErrInvalidActorID
	}
	assigneeUUID, err := uuid.Parse(req.Assignee)
	if err != nil {
		return TaskResponse{}, taskerrors.ErrInvalidTaskID
	}

	t := &Task{
		ID:        uuid.New(),
		Title:     req.Title,
		Assignee:  assigneeUUID,
		Status:    StatusOpen,
		CreatedBy: actorUUID,
	}
	if req.Description != "" {
		desc := req.Description
		t.Description = &desc
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TaskResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if err := qtx.Insert(ctx, t); err != nil {
		s.logger.Error("create task persist failed", zap.Error(err))
		return TaskResponse{}, err
	}

	details := fmt.Sprintf("Task created with status %s", StatusOpen)
	entry := &TaskHistory{
		ID:      uuid.New(),
		TaskID:  t.ID,
		Seq:     1,
		Action:  "Created",
		Actor:   actorUUID,
		Details: &details,
	}
	if err := qtx.AppendHistory(ctx, entry); err != nil {
		s.logger.Error("create task history failed", zap.Error(err))
		return TaskResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create task commit failed", zap.Error(err))
		return TaskResponse{}, err
	}

	s.logger.Info("task created",
		zap.String("task_id", t.ID.String()),
		zap.String("assignee", req.Assignee),
	)

	t.History = []TaskHistory{*entry}
	return mapToResponse(*t), nil
}

func (s *service) GetAll(ctx context.Context, status, assignee string) ([]TaskResponse, error) {
	tasks, err := s.repo.FindAll(ctx, status, assignee)
	if err != nil {
		return nil, err
	}

	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, mapToResponse(t))
	}
	return out, nil
}

func (s *service) GetByID(ctx context.Context, id string) (TaskResponse, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TaskResponse{}, taskerrors.ErrTaskNotFound
		}
		return TaskResponse{}, err
	}
	return mapToResponse(*t), nil
}

// Act applies one status change plus exactly one new audit entry; the
// two writes commit together. Existing entries are never touched.
func (s *service) Act(ctx context.Context, actor domain.Actor, id string, req ActTaskRequest) (TaskResponse, error) {
	actorUUID, err := uuid.Parse(actor.ID)
	if err != nil {
		return TaskResponse{}, taskerrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return TaskResponse{}, taskerrors.ErrInvalidTaskID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TaskResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	t, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TaskResponse{}, taskerrors.ErrTaskNotFound
		}
		return TaskResponse{}, err
	}

	if !canTransition(t.Status, req.NewStatus) {
		s.logger.Warn("invalid task transition",
			zap.String("task_id", id),
			zap.String("current_status", t.Status),
			zap.String("new_status", req.NewStatus),
		)
		return TaskResponse{}, taskerrors.ErrInvalidStatusTransition
	}

	var completionRemarks, rejectionRemarks *string
	var completedDate *time.Time
	switch req.NewStatus {
	case StatusPendingReview:
		if req.Remarks != "" {
			remarks := req.Remarks
			completionRemarks = &remarks
		}
		now := s.now()
		completedDate = &now
	case StatusReopened:
		if req.Remarks != "" {
			remarks := req.Remarks
			rejectionRemarks = &remarks
		}
	case StatusClosed:
		if t.CompletedDate == nil {
			now := s.now()
			completedDate = &now
		}
	}

	applied, err := qtx.TransitionStatus(ctx, id, t.Status, req.NewStatus, completionRemarks, rejectionRemarks, completedDate)
	if err != nil {
		s.logger.Error("task transition failed", zap.Error(err))
		return TaskResponse{}, err
	}
	if !applied {
		return TaskResponse{}, taskerrors.ErrConcurrentUpdate
	}

	seq, err := qtx.NextHistorySeq(ctx, id)
	if err != nil {
		s.logger.Error("draw history sequence failed", zap.Error(err))
		return TaskResponse{}, err
	}

	details := fmt.Sprintf("Status changed from %s to %s", t.Status, req.NewStatus)
	if req.Remarks != "" {
		details = fmt.Sprintf("%s: %s", details, req.Remarks)
	}
	entry := &TaskHistory{
		ID:      uuid.New(),
		TaskID:  t.ID,
		Seq:     seq,
		Action:  req.ActionLabel,
		Actor:   actorUUID,
		Details: &details,
	}
	if err := qtx.AppendHistory(ctx, entry); err != nil {
		s.logger.Error("append task history failed", zap.Error(err))
		return TaskResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("task act commit failed", zap.Error(err))
		return TaskResponse{}, err
	}

	s.logger.Info("task transitioned",
		zap.String("task_id", id),
		zap.String("from", t.Status),
		zap.String("to", req.NewStatus),
		zap.String("actor_id", actor.ID),
	)

	t.Status = req.NewStatus
	if completionRemarks != nil {
		t.CompletionRemarks = completionRemarks
	}
	if rejectionRemarks != nil {
		t.RejectionRemarks = rejectionRemarks
	}
	if completedDate != nil {
		t.CompletedDate = completedDate
	}
	t.History = append(t.History, *entry)
	return mapToResponse(*t), nil
}

func mapToResponse(t Task) TaskResponse {
	resp := TaskResponse{
		ID:                t.ID.String(),
		Title:             t.Title,
		Description:       t.Description,
		Assignee:          t.Assignee.String(),
		Status:            t.Status,
		CompletionRemarks: t.CompletionRemarks,
		RejectionRemarks:  t.RejectionRemarks,
		CreatedBy:         t.CreatedBy.String(),
		History:           make([]TaskHistoryResponse, 0, len(t.History)),
	}
	if t.CompletedDate != nil {
		completed := t.CompletedDate.Format(time.RFC3339)
		resp.CompletedDate = &completed
	}
	for _, h := range t.History {
		resp.History = append(resp.History, TaskHistoryResponse{
			Seq:       h.Seq,
			Action:    h.Action,
			Actor:     h.Actor.String(),
			Details:   h.Details,
			CreatedAt: h.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}
