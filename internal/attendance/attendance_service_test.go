package attendance_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"go-bizops/internal/attendance"
	attendanceerrors "go-bizops/internal/attendance/errors"
	"go-bizops/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeAttendanceRepository struct {
	withTxFn                func(tx *sql.Tx) attendance.Repository
	createFn                func(ctx context.Context, a *attendance.Attendance) error
	updateFn                func(ctx context.Context, a *attendance.Attendance) error
	findByEmployeeAndDateFn func(ctx context.Context, employeeID string, date time.Time) (*attendance.Attendance, error)
	findAllFn               func(ctx context.Context, employeeID string) ([]attendance.Attendance, error)
	findByMonthFn           func(ctx context.Context, year int, month time.Month) ([]attendance.Attendance, error)
}

func (f *fakeAttendanceRepository) WithTx(tx *sql.Tx) attendance.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeAttendanceRepository) Create(ctx context.Context, a *attendance.Attendance) error {
	if f.createFn != nil {
		return f.createFn(ctx, a)
	}
	return nil
}

func (f *fakeAttendanceRepository) Update(ctx context.Context, a *attendance.Attendance) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, a)
	}
	return nil
}

func (f *fakeAttendanceRepository) FindByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Attendance, error) {
	if f.findByEmployeeAndDateFn != nil {
		return f.findByEmployeeAndDateFn(ctx, employeeID, date)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAttendanceRepository) FindAll(ctx context.Context, employeeID string) ([]attendance.Attendance, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx, employeeID)
	}
	return nil, nil
}

func (f *fakeAttendanceRepository) FindByMonth(ctx context.Context, year int, month time.Month) ([]attendance.Attendance, error) {
	if f.findByMonthFn != nil {
		return f.findByMonthFn(ctx, year, month)
	}
	return nil, nil
}

type attendanceServiceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	service attendance.Service
	repo    *fakeAttendanceRepository
}

func setupAttendanceServiceTest(t *testing.T) *attendanceServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeAttendanceRepository{}
	svc := attendance.NewService(db, repo)

	return &attendanceServiceDeps{
		db:      db,
		sqlMock: sqlMock,
		service: svc,
		repo:    repo,
	}
}

func TestAttendanceService_ClockIn(t *testing.T) {
	deps := setupAttendanceServiceTest(t)
	defer deps.db.Close()

	var created *attendance.Attendance
	deps.repo.createFn = func(ctx context.Context, a *attendance.Attendance) error {
		created = a
		return nil
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()

	resp, err := deps.service.ClockIn(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "EMPLOYEE"}, attendance.ClockInRequest{})

	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.Equal(t, created.Status, resp.Status)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestAttendanceService_ClockIn_Twice(t *testing.T) {
	deps := setupAttendanceServiceTest(t)
	defer deps.db.Close()

	deps.repo.findByEmployeeAndDateFn = func(ctx context.Context, employeeID string, date time.Time) (*attendance.Attendance, error) {
		return &attendance.Attendance{ID: uuid.New()}, nil
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectRollback()

	_, err := deps.service.ClockIn(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "EMPLOYEE"}, attendance.ClockInRequest{})

	assert.ErrorIs(t, err, attendanceerrors.ErrAlreadyClockedIn)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestAttendanceService_ClockOut_WithoutClockIn(t *testing.T) {
	deps := setupAttendanceServiceTest(t)
	defer deps.db.Close()

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectRollback()

	_, err := deps.service.ClockOut(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "EMPLOYEE"}, attendance.ClockOutRequest{})

	assert.ErrorIs(t, err, attendanceerrors.ErrNotClockedIn)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestAttendanceService_ClockOut(t *testing.T) {
	deps := setupAttendanceServiceTest(t)
	defer deps.db.Close()

	clockIn := time.Now().UTC().Add(-4 * time.Hour)
	row := &attendance.Attendance{
		ID:             uuid.New(),
		EmployeeID:     uuid.New(),
		AttendanceDate: clockIn.Truncate(24 * time.Hour),
		ClockIn:        clockIn,
		Status:         attendance.StatusPresent,
	}
	deps.repo.findByEmployeeAndDateFn = func(ctx context.Context, employeeID string, date time.Time) (*attendance.Attendance, error) {
		return row, nil
	}

	var updated *attendance.Attendance
	deps.repo.updateFn = func(ctx context.Context, a *attendance.Attendance) error {
		updated = a
		return nil
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()

	resp, err := deps.service.ClockOut(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "EMPLOYEE"}, attendance.ClockOutRequest{})

	assert.NoError(t, err)
	assert.NotNil(t, updated)
	assert.NotNil(t, updated.ClockOut)
	assert.NotNil(t, resp.ClockOut)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestAttendanceService_ClockOut_Twice(t *testing.T) {
	deps := setupAttendanceServiceTest(t)
	defer deps.db.Close()

	out := time.Now().UTC()
	deps.repo.findByEmployeeAndDateFn = func(ctx context.Context, employeeID string, date time.Time) (*attendance.Attendance, error) {
		return &attendance.Attendance{ID: uuid.New(), ClockOut: &out}, nil
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectRollback()

	_, err := deps.service.ClockOut(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "EMPLOYEE"}, attendance.ClockOutRequest{})

	assert.ErrorIs(t, err, attendanceerrors.ErrAlreadyClockedOut)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}
