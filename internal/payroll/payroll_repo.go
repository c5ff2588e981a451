package payroll

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=payroll_repo.go -destination=mock/payroll_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	InsertRun(ctx context.Context, run *PayrollRun) error
	InsertLine(ctx context.Context, line *PayrollLine) error
	FindAllRuns(ctx context.Context) ([]PayrollRun, error)
	FindRunByID(ctx context.Context, id string) (*PayrollRun, error)
	FindRunByMonthLabel(ctx context.Context, monthLabel string) (*PayrollRun, error)
	ListEmployees(ctx context.Context) ([]EmployeeRef, error)
	// ListApprovedLeaves returns approved leave ranges overlapping the
	// given window, across all employees.
	ListApprovedLeaves(ctx context.Context, start, end time.Time) ([]LeaveWindow, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) InsertRun(ctx context.Context, run *PayrollRun) error {
	if r.tx == nil {
		return sql.ErrTxDone
	}

	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO payroll_runs (id, run_number, run_date, month_label, total_gross, total_deduction, total_net, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, run.ID, run.RunNumber, run.RunDate.Format("2006-01-02"), run.MonthLabel,
		run.TotalGross, run.TotalDeduction, run.TotalNet, run.CreatedBy)
	return err
}

func (r *repository) InsertLine(ctx context.Context, line *PayrollLine) error {
	if r.tx == nil {
		return sql.ErrTxDone
	}

	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO payroll_lines (id, run_id, employee_id, base_salary, present_days, paid_leave_days, deduction, net_pay)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, line.ID, line.RunID, line.EmployeeID, line.BaseSalary,
		line.PresentDays, line.PaidLeaveDays, line.Deduction, line.NetPay)
	return err
}

func (r *repository) FindAllRuns(ctx context.Context) ([]PayrollRun, error) {
	var runs []PayrollRun
	err := r.db.WithContext(ctx).Order("run_date DESC").Find(&runs).Error
	return runs, err
}

func (r *repository) FindRunByID(ctx context.Context, id string) (*PayrollRun, error) {
	var run PayrollRun
	err := r.db.WithContext(ctx).Preload("Lines").First(&run, "id = ?", id).Error
	return &run, err
}

func (r *repository) FindRunByMonthLabel(ctx context.Context, monthLabel string) (*PayrollRun, error) {
	var run PayrollRun
	err := r.db.WithContext(ctx).First(&run, "month_label = ?", monthLabel).Error
	return &run, err
}

func (r *repository) ListEmployees(ctx context.Context) ([]EmployeeRef, error) {
	var rows []EmployeeRef
	err := r.db.WithContext(ctx).
		Table("employees").
		Select("id", "full_name", "base_salary").
		Where("deleted_at IS NULL").
		Order("full_name").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) ListApprovedLeaves(ctx context.Context, start, end time.Time) ([]LeaveWindow, error) {
	var rows []LeaveWindow
	err := r.db.WithContext(ctx).
		Table("leave_requests").
		Select("employee_id", "start_date", "end_date").
		Where("status = ?", "APPROVED").
		Where("start_date <= ? AND end_date >= ?", end.Format("2006-01-02"), start.Format("2006-01-02")).
		Scan(&rows).Error
	return rows, err
}
