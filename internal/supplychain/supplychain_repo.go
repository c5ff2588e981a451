package supplychain

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=supplychain_repo.go -destination=mock/supplychain_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, req *SupplyRequest) error
	FindAll(ctx context.Context, status string) ([]SupplyRequest, error)
	FindByID(ctx context.Context, id string) (*SupplyRequest, error)
	// TransitionStatus is a conditional write guarded by fromStatus;
	// returns false when the row was concurrently moved.
	TransitionStatus(ctx context.Context, id, fromStatus, toStatus string, rejectionReason *string, approvedAt, issuedAt *time.Time) (bool, error)
	// DecrementStock debits an inventory item inside the issue tx and
	// returns the resulting quantity, which may be negative.
	DecrementStock(ctx context.Context, inventoryItemID string, quantity int) (int, error)
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

func (r *repository) Create(ctx context.Context, req *SupplyRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *repository) FindAll(ctx context.Context, status string) ([]SupplyRequest, error) {
	db := r.db.WithContext(ctx).Preload("Items").Order("created_at DESC")
	if status != "" {
		db = db.Where("status = ?", status)
	}

	var requests []SupplyRequest
	err := db.Find(&requests).Error
	return requests, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*SupplyRequest, error) {
	var req SupplyRequest
	err := r.db.WithContext(ctx).Preload("Items").First(&req, "id = ?", id).Error
	return &req, err
}

func (r *repository) TransitionStatus(
	ctx context.Context,
	id, fromStatus, toStatus string,
	rejectionReason *string,
	approvedAt, issuedAt *time.Time,
) (bool, error) {
	if r.tx == nil {
		return false, sql.ErrTxDone
	}

	res, err := r.tx.ExecContext(ctx, `
		UPDATE supply_requests
		SET status = $3,
		    rejection_reason = COALESCE($4, rejection_reason),
		    approved_at = COALESCE($5, approved_at),
		    issued_at = COALESCE($6, issued_at),
		    updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, fromStatus, toStatus, rejectionReason, approvedAt, issuedAt)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *repository) DecrementStock(ctx context.Context, inventoryItemID string, quantity int) (int, error) {
	if r.tx == nil {
		return 0, sql.ErrTxDone
	}

	var remaining int
	err := r.tx.QueryRowContext(ctx, `
		UPDATE inventory_items
		SET quantity = quantity - $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING quantity
	`, inventoryItemID, quantity).Scan(&remaining)
	if err == sql.ErrNoRows {
		return 0, gorm.ErrRecordNotFound
	}
	return remaining, err
}
