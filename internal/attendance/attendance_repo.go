package attendance

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=attendance_repo.go -destination=mock/attendance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, a *Attendance) error
	Update(ctx context.Context, a *Attendance) error
	FindByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Attendance, error)
	FindAll(ctx context.Context, employeeID string) ([]Attendance, error)
	// FindByMonth returns every attendance row with a date inside the
	// given month, across all employees. Payroll reads through this.
	FindByMonth(ctx context.Context, year int, month time.Month) ([]Attendance, error)
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

func (r *repository) Create(ctx context.Context, a *Attendance) error {
	if r.tx != nil {
		_, err := r.tx.ExecContext(ctx, `
			INSERT INTO attendances (id, employee_id, attendance_date, clock_in, status, notes)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, a.ID, a.EmployeeID, a.AttendanceDate.Format("2006-01-02"), a.ClockIn, a.Status, a.Notes)
		return err
	}
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) Update(ctx context.Context, a *Attendance) error {
	if r.tx != nil {
		_, err := r.tx.ExecContext(ctx, `
			UPDATE attendances
			SET clock_out = $2, notes = $3, updated_at = now()
			WHERE id = $1
		`, a.ID, a.ClockOut, a.Notes)
		return err
	}
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *repository) FindByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Attendance, error) {
	var a Attendance
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("attendance_date = ?", date.Format("2006-01-02")).
		First(&a).Error
	return &a, err
}

func (r *repository) FindAll(ctx context.Context, employeeID string) ([]Attendance, error) {
	db := r.db.WithContext(ctx).Order("attendance_date DESC, clock_in DESC")
	if employeeID != "" {
		db = db.Where("employee_id = ?", employeeID)
	}

	var rows []Attendance
	err := db.Find(&rows).Error
	return rows, err
}

func (r *repository) FindByMonth(ctx context.Context, year int, month time.Month) ([]Attendance, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var rows []Attendance
	err := r.db.WithContext(ctx).
		Where("attendance_date >= ? AND attendance_date < ?", start.Format("2006-01-02"), end.Format("2006-01-02")).
		Order("employee_id, attendance_date").
		Find(&rows).Error
	return rows, err
}
