package employee

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, e *Employee) error
	FindAll(ctx context.Context) ([]Employee, error)
	FindByID(ctx context.Context, id string) (*Employee, error)
	Update(ctx context.Context, e *Employee) error
	Delete(ctx context.Context, id string) error
	ReplaceBalances(ctx context.Context, employeeID string, balances []LeaveBalance) error
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

func (r *repository) Create(ctx context.Context, e *Employee) error {
	if r.tx != nil {
		_, err := r.tx.ExecContext(ctx, `
			INSERT INTO employees (id, full_name, department, designation, category, join_date, base_salary)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, e.ID, e.FullName, e.Department, e.Designation, e.Category, e.JoinDate, e.BaseSalary)
		return err
	}
	return r.db.WithContext(ctx).Omit("Balances").Create(e).Error
}

func (r *repository) FindAll(ctx context.Context) ([]Employee, error) {
	var employees []Employee
	err := r.db.WithContext(ctx).
		Preload("Balances").
		Order("full_name").
		Find(&employees).Error
	return employees, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*Employee, error) {
	var e Employee
	err := r.db.WithContext(ctx).
		Preload("Balances").
		First(&e, "id = ?", id).Error
	return &e, err
}

func (r *repository) Update(ctx context.Context, e *Employee) error {
	if r.tx != nil {
		_, err := r.tx.ExecContext(ctx, `
			UPDATE employees
			SET full_name = $2, department = $3, designation = $4,
			    category = $5, base_salary = $6, updated_at = now()
			WHERE id = $1 AND deleted_at IS NULL
		`, e.ID, e.FullName, e.Department, e.Designation, e.Category, e.BaseSalary)
		return err
	}
	return r.db.WithContext(ctx).Omit("Balances").Save(e).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&Employee{}, "id = ?", id).Error
}

// ReplaceBalances rewrites the allocation rows for an employee, keeping
// each leave type's used count. Must run inside the caller's transaction
// together with the employee update it belongs to.
func (r *repository) ReplaceBalances(ctx context.Context, employeeID string, balances []LeaveBalance) error {
	if r.tx == nil {
		return sql.ErrTxDone
	}

	for _, b := range balances {
		_, err := r.tx.ExecContext(ctx, `
			INSERT INTO leave_balances (id, employee_id, leave_type, total, used, updated_at)
			VALUES ($1, $2, $3, $4, $5, now())
			ON CONFLICT (employee_id, leave_type) DO UPDATE
			SET total = EXCLUDED.total, updated_at = now()
		`, b.ID, employeeID, b.LeaveType, b.Total, b.Used)
		if err != nil {
			return err
		}
	}

	return nil
}
