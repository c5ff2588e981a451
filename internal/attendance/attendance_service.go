package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	attendanceerrors "go-bizops/internal/attendance/errors"
	"go-bizops/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Clock-ins after this time of day are marked LATE.
const (
	lateHour   = 9
	lateMinute = 15
)

//go:generate mockgen -source=attendance_service.go -destination=mock/attendance_service_mock.go -package=mock
type Service interface {
	ClockIn(ctx context.Context, actor domain.Actor, req ClockInRequest) (AttendanceResponse, error)
	ClockOut(ctx context.Context, actor domain.Actor, req ClockOutRequest) (AttendanceResponse, error)
	GetAll(ctx context.Context, employeeID string) ([]AttendanceResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	now    func() time.Time
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("attendance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("attendance.service")
	}
	return &service{db: db, repo: repo, now: time.Now, logger: l}
}

func (s *service) ClockIn(ctx context.Context, actor domain.Actor, req ClockInRequest) (AttendanceResponse, error) {
	employeeUUID, err := uuid.Parse(actor.ID)
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidEmployeeID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return AttendanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	now := s.now().UTC()
	today := now.Truncate(24 * time.Hour)

	existing, err := qtx.FindByEmployeeAndDate(ctx, actor.ID, today)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return AttendanceResponse{}, err
	}
	if err == nil && existing != nil {
		return AttendanceResponse{}, attendanceerrors.ErrAlreadyClockedIn
	}

	status := StatusPresent
	if now.Hour() > lateHour || (now.Hour() == lateHour && now.Minute() > lateMinute) {
		status = StatusLate
	}

	row := &Attendance{
		ID:             uuid.New(),
		EmployeeID:     employeeUUID,
		AttendanceDate: today,
		ClockIn:        now,
		Status:         status,
		Notes:          req.Notes,
	}

	if err := qtx.Create(ctx, row); err != nil {
		s.logger.Error("clock in persist failed", zap.Error(err))
		return AttendanceResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return AttendanceResponse{}, err
	}

	s.logger.Info("clocked in",
		zap.String("employee_id", actor.ID),
		zap.String("status", status),
	)

	return mapToResponse(*row), nil
}

func (s *service) ClockOut(ctx context.Context, actor domain.Actor, req ClockOutRequest) (AttendanceResponse, error) {
	if _, err := uuid.Parse(actor.ID); err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidEmployeeID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return AttendanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	now := s.now().UTC()
	today := now.Truncate(24 * time.Hour)

	row, err := qtx.FindByEmployeeAndDate(ctx, actor.ID, today)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AttendanceResponse{}, attendanceerrors.ErrNotClockedIn
		}
		return AttendanceResponse{}, err
	}
	if row.ClockOut != nil {
		return AttendanceResponse{}, attendanceerrors.ErrAlreadyClockedOut
	}

	row.ClockOut = &now
	if req.Notes != nil {
		row.Notes = req.Notes
	}

	if err := qtx.Update(ctx, row); err != nil {
		s.logger.Error("clock out persist failed", zap.Error(err))
		return AttendanceResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return AttendanceResponse{}, err
	}

	return mapToResponse(*row), nil
}

func (s *service) GetAll(ctx context.Context, employeeID string) ([]AttendanceResponse, error) {
	rows, err := s.repo.FindAll(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	res := make([]AttendanceResponse, len(rows))
	for i, r := range rows {
		res[i] = mapToResponse(r)
	}
	return res, nil
}

func mapToResponse(a Attendance) AttendanceResponse {
	resp := AttendanceResponse{
		ID:             a.ID.String(),
		EmployeeID:     a.EmployeeID.String(),
		AttendanceDate: a.AttendanceDate.Format("2006-01-02"),
		ClockIn:        a.ClockIn.Format(time.RFC3339),
		Status:         a.Status,
		Notes:          a.Notes,
	}
	if a.ClockOut != nil {
		v := a.ClockOut.Format(time.RFC3339)
		resp.ClockOut = &v
	}
	return resp
}
