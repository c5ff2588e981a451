package employee

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go-bizops/internal/balance"
	employeeerrors "go-bizops/internal/employee/errors"
	"go-bizops/internal/events"
	"go-bizops/internal/messaging/kafka"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

//go:generate mockgen -source=employee_service.go -destination=mock/employee_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, actorID string, req CreateEmployeeRequest) (EmployeeResponse, error)
	GetAll(ctx context.Context) ([]EmployeeResponse, error)
	GetByID(ctx context.Context, id string) (EmployeeResponse, error)
	Update(ctx context.Context, actorID, id string, req UpdateEmployeeRequest) (EmployeeResponse, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	sf     *singleflight.Group
	now    func() time.Time
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, outbox kafka.OutboxRepository, logger ...*zap.Logger) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{db: db, repo: repo, outbox: outbox, sf: &singleflight.Group{}, now: time.Now, logger: l}
}

func (s *service) Create(ctx context.Context, actorID string, req CreateEmployeeRequest) (EmployeeResponse, error) {
	s.logger.Debug("create employee requested",
		zap.String("actor_id", actorID),
		zap.String("department", req.Department),
	)

	joinDate, err := time.Parse("2006-01-02", req.JoinDate)
	if err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidJoinDate
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create employee begin tx failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	e := &Employee{
		ID:          uuid.New(),
		FullName:    req.FullName,
		Department:  req.Department,
		Designation: req.Designation,
		Category:    req.Category,
		JoinDate:    joinDate,
		BaseSalary:  decimal.NewFromFloat(req.BaseSalary),
	}

	if err := qtx.Create(ctx, e); err != nil {
		s.logger.Error("create employee persist failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	// Seed the leave allocation from the join date in the same tx, so an
	// employee never exists without balance rows.
	e.Balances = allocationRows(e.ID, balance.ProRataLeave(joinDate, s.now()))
	if err := qtx.ReplaceBalances(ctx, e.ID.String(), e.Balances); err != nil {
		s.logger.Error("seed leave balances failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	if err := s.enqueueCreatedEvent(ctx, tx, e); err != nil {
		s.logger.Error("enqueue employee_created event failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create employee commit failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.logger.Info("employee created",
		zap.String("employee_id", e.ID.String()),
		zap.String("department", e.Department),
	)

	return mapToResponse(*e), nil
}

func (s *service) GetAll(ctx context.Context) ([]EmployeeResponse, error) {
	// The roster backs every approval form; collapse concurrent listings
	// into a single query.
	v, err, _ := s.sf.Do("employees:list", func() (interface{}, error) {
		employees, err := s.repo.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		return mapToListResponse(employees), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]EmployeeResponse), nil
}

func (s *service) GetByID(ctx context.Context, id string) (EmployeeResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
	}

	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
		}
		return EmployeeResponse{}, err
	}
	return mapToResponse(*e), nil
}

func (s *service) Update(ctx context.Context, actorID, id string, req UpdateEmployeeRequest) (EmployeeResponse, error) {
	s.logger.Debug("update employee requested",
		zap.String("employee_id", id),
		zap.String("actor_id", actorID),
	)

	if _, err := uuid.Parse(id); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update employee begin tx failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	e, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
		}
		return EmployeeResponse{}, err
	}

	categoryChanged := e.Category != req.Category

	e.FullName = req.FullName
	e.Department = req.Department
	e.Designation = req.Designation
	e.Category = req.Category
	e.BaseSalary = decimal.NewFromFloat(req.BaseSalary)

	if err := qtx.Update(ctx, e); err != nil {
		s.logger.Error("update employee persist failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	if categoryChanged {
		// Category change recomputes quota totals from the join date;
		// used counts carry over untouched.
		e.Balances = mergeAllocation(e.ID, e.Balances, balance.ProRataLeave(e.JoinDate, s.now()))
		if err := qtx.ReplaceBalances(ctx, id, e.Balances); err != nil {
			s.logger.Error("recompute leave balances failed", zap.Error(err))
			return EmployeeResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update employee commit failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.logger.Info("employee updated",
		zap.String("employee_id", id),
		zap.Bool("allocation_recomputed", categoryChanged),
	)

	return mapToResponse(*e), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return employeeerrors.ErrInvalidEmployeeID
	}
	return s.repo.Delete(ctx, id)
}

func (s *service) enqueueCreatedEvent(ctx context.Context, tx *sql.Tx, e *Employee) error {
	if s.outbox == nil {
		return nil
	}

	payload, err := json.Marshal(events.EmployeeCreatedEvent{
		EventType:  "employee_created",
		EmployeeID: e.ID.String(),
		Department: e.Department,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		AggregateType: "employee",
		AggregateID:   e.ID.String(),
		EventType:     "employee_created",
		Topic:         events.EmployeeCreatedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func allocationRows(employeeID uuid.UUID, alloc balance.Allocation) []LeaveBalance {
	rows := make([]LeaveBalance, 0, len(alloc))
	for leaveType, quota := range alloc {
		rows = append(rows, LeaveBalance{
			ID:         uuid.New(),
			EmployeeID: employeeID,
			LeaveType:  leaveType,
			Total:      quota.Total,
			Used:       quota.Used,
		})
	}
	return rows
}

func mergeAllocation(employeeID uuid.UUID, existing []LeaveBalance, alloc balance.Allocation) []LeaveBalance {
	used := make(map[string]int, len(existing))
	ids := make(map[string]uuid.UUID, len(existing))
	for _, b := range existing {
		used[b.LeaveType] = b.Used
		ids[b.LeaveType] = b.ID
	}

	rows := make([]LeaveBalance, 0, len(alloc))
	for leaveType, quota := range alloc {
		id, ok := ids[leaveType]
		if !ok {
			id = uuid.New()
		}
		rows = append(rows, LeaveBalance{
			ID:         id,
			EmployeeID: employeeID,
			LeaveType:  leaveType,
			Total:      quota.Total,
			Used:       used[leaveType],
		})
	}
	return rows
}

func mapToResponse(e Employee) EmployeeResponse {
	balances := make([]LeaveBalanceResponse, 0, len(e.Balances))
	for _, b := range e.Balances {
		balances = append(balances, LeaveBalanceResponse{
			LeaveType: b.LeaveType,
			Total:     b.Total,
			Used:      b.Used,
		})
	}

	return EmployeeResponse{
		ID:          e.ID.String(),
		FullName:    e.FullName,
		Department:  e.Department,
		Designation: e.Designation,
		Category:    e.Category,
		JoinDate:    e.JoinDate.Format("2006-01-02"),
		BaseSalary:  e.BaseSalary.StringFixed(2),
		Balances:    balances,
	}
}

func mapToListResponse(employees []Employee) []EmployeeResponse {
	out := make([]EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		out = append(out, mapToResponse(e))
	}
	return out
}
