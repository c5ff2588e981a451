package task

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=task_repo.go -destination=mock/task_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Insert(ctx context.Context, t *Task) error
	FindAll(ctx context.Context, status, assignee string) ([]Task, error)
	FindByID(ctx context.Context, id string) (*Task, error)
	// TransitionStatus is a conditional write guarded by fromStatus;
	// returns false when the row was concurrently moved.
	TransitionStatus(ctx context.Context, id, fromStatus, toStatus string, completionRemarks, rejectionRemarks *string, completedDate *time.Time) (bool, error)
	// AppendHistory writes the next audit entry. The unique (task_id,
	// seq) constraint makes concurrent appends collide instead of
	// silently interleaving.
	AppendHistory(ctx context.Context, entry *TaskHistory) error
	NextHistorySeq(ctx context.Context, taskID string) (int, error)
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

func (r *repository) Insert(ctx context.Context, t *Task) error {
	if r.tx == nil {
		return sql.ErrTxDone
	}

	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, assignee, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.ID, t.Title, t.Description, t.Assignee, t.Status, t.CreatedBy)
	return err
}

func (r *repository) FindAll(ctx context.Context, status, assignee string) ([]Task, error) {
	db := r.db.WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Order("created_at DESC")
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if assignee != "" {
		db = db.Where("assignee = ?", assignee)
	}

	var tasks []Task
	err := db.Find(&tasks).Error
	return tasks, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*Task, error) {
	var t Task
	err := r.db.WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		First(&t, "id = ?", id).Error
	return &t, err
}

func (r *repository) TransitionStatus(
	ctx context.Context,
	id, fromStatus, toStatus string,
	completionRemarks, rejectionRemarks *string,
	completedDate *time.Time,
) (bool, error) {
	if r.tx == nil {
		return false, sql.ErrTxDone
	}

	res, err := r.tx.ExecContext(ctx, `
		UPDATE tasks
		SET status = $3,
		    completion_remarks = COALESCE($4, completion_remarks),
		    rejection_remarks = COALESCE($5, rejection_remarks),
		    completed_date = COALESCE($6, completed_date),
		    updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, fromStatus, toStatus, completionRemarks, rejectionRemarks, completedDate)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *repository) AppendHistory(ctx context.Context, entry *TaskHistory) error {
	if r.tx == nil {
		return sql.ErrTxDone
	}

	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO task_histories (id, task_id, seq, action, actor, details)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.TaskID, entry.Seq, entry.Action, entry.Actor, entry.Details)
	return err
}

func (r *repository) NextHistorySeq(ctx context.Context, taskID string) (int, error) {
	if r.tx == nil {
		return 0, sql.ErrTxDone
	}

	var next int
	err := r.tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM task_histories WHERE task_id = $1
	`, taskID).Scan(&next)
	return next, err
}
