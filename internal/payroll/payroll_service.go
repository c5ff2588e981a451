package payroll

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go-bizops/internal/attendance"
	"go-bizops/internal/balance"
	"go-bizops/internal/domain"
	payrollerrors "go-bizops/internal/payroll/errors"
	"go-bizops/internal/shared/counter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=payroll_service.go -destination=mock/payroll_service_mock.go -package=mock
type Service interface {
	RunPayroll(ctx context.Context, actor domain.Actor, req RunPayrollRequest) (PayrollRunResponse, error)
	GetAll(ctx context.Context) ([]PayrollRunResponse, error)
	GetByID(ctx context.Context, id string) (PayrollRunResponse, error)
}

type service struct {
	db             *sql.DB
	repo           Repository
	attendanceRepo attendance.Repository
	counter        counter.Repository
	now            func() time.Time
	logger         *zap.Logger
}

func NewService(db *sql.DB, repo Repository, attendanceRepo attendance.Repository, counterRepo counter.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("payroll.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payroll.service")
	}
	return &service{
		db:             db,
		repo:           repo,
		attendanceRepo: attendanceRepo,
		counter:        counterRepo,
		now:            time.Now,
		logger:         l,
	}
}

// RunPayroll snapshots one month of pay for every employee. The run and
// all of its lines commit together, and an existing run for the month
// is never overwritten.
func (s *service) RunPayroll(ctx context.Context, actor domain.Actor, req RunPayrollRequest) (PayrollRunResponse, error) {
	actorUUID, err := uuid.Parse(actor.ID)
	if err != nil {
		return PayrollRunResponse{}, payrollerrors.ErrInvalidActorID
	}

	monthStart, err := time.Parse("2006-01", req.Month)
	if err != nil {
		return PayrollRunResponse{}, payrollerrors.ErrInvalidMonth
	}
	year, month := monthStart.Year(), monthStart.Month()
	monthEnd := monthStart.AddDate(0, 1, -1)

	if _, err := s.repo.FindRunByMonthLabel(ctx, req.Month); err == nil {
		return PayrollRunResponse{}, payrollerrors.ErrRunAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return PayrollRunResponse{}, err
	}

	seq, err := s.counter.GetNextValue(ctx, counter.TypePayrollRun)
	if err != nil {
		s.logger.Error("draw payroll run number failed", zap.Error(err))
		return PayrollRunResponse{}, err
	}

	employees, err := s.repo.ListEmployees(ctx)
	if err != nil {
		return PayrollRunResponse{}, err
	}

	attendances, err := s.attendanceRepo.FindByMonth(ctx, year, month)
	if err != nil {
		return PayrollRunResponse{}, err
	}
	attendanceDates := make(map[uuid.UUID][]time.Time)
	for _, a := range attendances {
		attendanceDates[a.EmployeeID] = append(attendanceDates[a.EmployeeID], a.AttendanceDate)
	}
	// Data absence for the whole month means nobody gets docked.
	hasAttendanceData := len(attendances) > 0

	leaves, err := s.repo.ListApprovedLeaves(ctx, monthStart, monthEnd)
	if err != nil {
		return PayrollRunResponse{}, err
	}
	leaveRanges := make(map[uuid.UUID][]balance.DateRange)
	for _, l := range leaves {
		leaveRanges[l.EmployeeID] = append(leaveRanges[l.EmployeeID], balance.DateRange{Start: l.StartDate, End: l.EndDate})
	}

	run := &PayrollRun{
		ID:             uuid.New(),
		RunNumber:      fmt.Sprintf("PR-%06d", seq),
		RunDate:        s.now().UTC(),
		MonthLabel:     req.Month,
		TotalGross:     decimal.Zero,
		TotalDeduction: decimal.Zero,
		TotalNet:       decimal.Zero,
		CreatedBy:      actorUUID,
	}

	for _, emp := range employees {
		paidDays := balance.ComputePaidDays(year, month, attendanceDates[emp.ID], leaveRanges[emp.ID])
		pay := balance.ComputeNetPay(emp.BaseSalary, paidDays.Total, hasAttendanceData)

		run.Lines = append(run.Lines, PayrollLine{
			ID:            uuid.New(),
			RunID:         run.ID,
			EmployeeID:    emp.ID,
			BaseSalary:    emp.BaseSalary,
			PresentDays:   paidDays.Present,
			PaidLeaveDays: paidDays.PaidLeave,
			Deduction:     pay.Deduction,
			NetPay:        pay.NetPay,
		})
		run.TotalGross = run.TotalGross.Add(emp.BaseSalary)
		run.TotalDeduction = run.TotalDeduction.Add(pay.Deduction)
		run.TotalNet = run.TotalNet.Add(pay.NetPay)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PayrollRunResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if err := qtx.InsertRun(ctx, run); err != nil {
		s.logger.Error("insert payroll run failed", zap.Error(err))
		return PayrollRunResponse{}, err
	}
	for i := range run.Lines {
		if err := qtx.InsertLine(ctx, &run.Lines[i]); err != nil {
			s.logger.Error("insert payroll line failed", zap.Error(err))
			return PayrollRunResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("payroll run commit failed", zap.Error(err))
		return PayrollRunResponse{}, err
	}

	s.logger.Info("payroll run created",
		zap.String("run_id", run.ID.String()),
		zap.String("run_number", run.RunNumber),
		zap.String("month", req.Month),
		zap.Int("lines", len(run.Lines)),
	)

	return mapToResponse(*run), nil
}

func (s *service) GetAll(ctx context.Context) ([]PayrollRunResponse, error) {
	runs, err := s.repo.FindAllRuns(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]PayrollRunResponse, 0, len(runs))
	for _, r := range runs {
		out = append(out, mapToResponse(r))
	}
	return out, nil
}

func (s *service) GetByID(ctx context.Context, id string) (PayrollRunResponse, error) {
	run, err := s.repo.FindRunByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PayrollRunResponse{}, payrollerrors.ErrRunNotFound
		}
		return PayrollRunResponse{}, err
	}
	return mapToResponse(*run), nil
}

func mapToResponse(run PayrollRun) PayrollRunResponse {
	resp := PayrollRunResponse{
		ID:             run.ID.String(),
		RunNumber:      run.RunNumber,
		RunDate:        run.RunDate.Format("2006-01-02"),
		MonthLabel:     run.MonthLabel,
		TotalGross:     run.TotalGross.StringFixed(2),
		TotalDeduction: run.TotalDeduction.StringFixed(2),
		TotalNet:       run.TotalNet.StringFixed(2),
		CreatedBy:      run.CreatedBy.String(),
		Lines:          make([]PayrollLineResponse, 0, len(run.Lines)),
	}
	for _, line := range run.Lines {
		resp.Lines = append(resp.Lines, PayrollLineResponse{
			EmployeeID:    line.EmployeeID.String(),
			BaseSalary:    line.BaseSalary.StringFixed(2),
			PresentDays:   line.PresentDays,
			PaidLeaveDays: line.PaidLeaveDays,
			Deduction:     line.Deduction.StringFixed(2),
			NetPay:        line.NetPay.StringFixed(2),
		})
	}
	return resp
}
