package procurement

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=procurement_repo.go -destination=mock/procurement_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, order *PurchaseOrder) error
	FindAll(ctx context.Context, status string) ([]PurchaseOrder, error)
	FindByID(ctx context.Context, id string) (*PurchaseOrder, error)
	// TransitionStatus is a conditional write guarded by fromStatus;
	// returns false when the row was concurrently moved.
	TransitionStatus(ctx context.Context, id, fromStatus, toStatus string, rejectionReason, receiptNumber, receiptRemarks *string, approvedAt, receivedAt *time.Time) (bool, error)
	// IncrementStock credits an inventory item inside the receipt tx
	// and returns the resulting quantity.
	IncrementStock(ctx context.Context, inventoryItemID string, quantity int) (int, error)
	// ReturnSupplyRequestToStore moves a forwarded requisition back to
	// the store queue once its goods arrive. Returns false when the
	// request is no longer in the forwarded state.
	ReturnSupplyRequestToStore(ctx context.Context, supplyRequestID string) (bool, error)
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

func (r *repository) Create(ctx context.Context, order *PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindAll(ctx context.Context, status string) ([]PurchaseOrder, error) {
	db := r.db.WithContext(ctx).Preload("Items").Order("created_at DESC")
	if status != "" {
		db = db.Where("status = ?", status)
	}

	var orders []PurchaseOrder
	err := db.Find(&orders).Error
	return orders, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*PurchaseOrder, error) {
	var order PurchaseOrder
	err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error
	return &order, err
}

func (r *repository) TransitionStatus(
	ctx context.Context,
	id, fromStatus, toStatus string,
	rejectionReason, receiptNumber, receiptRemarks *string,
	approvedAt, receivedAt *time.Time,
) (bool, error) {
	if r.tx == nil {
		return false, sql.ErrTxDone
	}

	res, err := r.tx.ExecContext(ctx, `
		UPDATE purchase_orders
		SET status = $3,
		    rejection_reason = COALESCE($4, rejection_reason),
		    receipt_number = COALESCE($5, receipt_number),
		    receipt_remarks = COALESCE($6, receipt_remarks),
		    approved_at = COALESCE($7, approved_at),
		    received_at = COALESCE($8, received_at),
		    updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, fromStatus, toStatus, rejectionReason, receiptNumber, receiptRemarks, approvedAt, receivedAt)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *repository) IncrementStock(ctx context.Context, inventoryItemID string, quantity int) (int, error) {
	if r.tx == nil {
		return 0, sql.ErrTxDone
	}

	var remaining int
	err := r.tx.QueryRowContext(ctx, `
		UPDATE inventory_items
		SET quantity = quantity + $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING quantity
	`, inventoryItemID, quantity).Scan(&remaining)
	if err == sql.ErrNoRows {
		return 0, gorm.ErrRecordNotFound
	}
	return remaining, err
}

func (r *repository) ReturnSupplyRequestToStore(ctx context.Context, supplyRequestID string) (bool, error) {
	if r.tx == nil {
		return false, sql.ErrTxDone
	}

	res, err := r.tx.ExecContext(ctx, `
		UPDATE supply_requests
		SET status = 'PENDING_STORE', updated_at = now()
		WHERE id = $1 AND status = 'FORWARDED_TO_PURCHASE'
	`, supplyRequestID)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
