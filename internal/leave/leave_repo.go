package leave

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *LeaveRequest) error
	FindAll(ctx context.Context) ([]LeaveRequest, error)
	FindByID(ctx context.Context, id string) (*LeaveRequest, error)
	FindByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error)
	// TransitionStatus performs a conditional status update: the write
	// applies only if the row is still in fromStatus. Returns false when
	// another caller won the race.
	TransitionStatus(ctx context.Context, id, fromStatus, toStatus, actedBy string, rejectionReason *string, approvedAt *time.Time) (bool, error)
	// IncrementUsed debits the employee's balance for one leave type.
	// Returns false when no balance row exists for that type.
	IncrementUsed(ctx context.Context, employeeID, leaveType string, days int) (bool, error)
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

func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	if r.tx != nil {
		_, err := r.tx.ExecContext(ctx, `
			INSERT INTO leave_requests (id, employee_id, leave_type, start_date, end_date, total_days, reason, status, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, l.ID, l.EmployeeID, l.LeaveType, l.StartDate, l.EndDate, l.TotalDays, l.Reason, l.Status, l.CreatedBy)
		return err
	}
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *repository) FindAll(ctx context.Context) ([]LeaveRequest, error) {
	var leaves []LeaveRequest
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error
	return &l, err
}

func (r *repository) FindByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error) {
	var leaves []LeaveRequest
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("start_date DESC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) TransitionStatus(
	ctx context.Context,
	id, fromStatus, toStatus, actedBy string,
	rejectionReason *string,
	approvedAt *time.Time,
) (bool, error) {
	if r.tx == nil {
		return false, sql.ErrTxDone
	}

	res, err := r.tx.ExecContext(ctx, `
		UPDATE leave_requests
		SET status = $3, acted_by = $4, rejection_reason = COALESCE($5, rejection_reason),
		    approved_at = COALESCE($6, approved_at), updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, fromStatus, toStatus, actedBy, rejectionReason, approvedAt)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *repository) IncrementUsed(ctx context.Context, employeeID, leaveType string, days int) (bool, error) {
	if r.tx == nil {
		return false, sql.ErrTxDone
	}

	res, err := r.tx.ExecContext(ctx, `
		UPDATE leave_balances
		SET used = used + $3, updated_at = now()
		WHERE employee_id = $1 AND leave_type = $2
	`, employeeID, leaveType, days)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
