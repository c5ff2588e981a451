package counter

import (
	"context"

	"gorm.io/gorm"
)

// Counter types used for human-readable document numbers.
const (
	TypeSupplyRequest = "SUPPLY_REQUEST"
	TypePurchaseOrder = "PURCHASE_ORDER"
	TypeGoodsReceipt  = "GOODS_RECEIPT"
	TypePayrollRun    = "PAYROLL_RUN"
)

//go:generate mockgen -destination=mock/counter_repo_mock.go -package=mock . Repository
type Repository interface {
	GetNextValue(ctx context.Context, counterType string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetNextValue(ctx context.Context, counterType string) (int64, error) {
	var nextValue int64

	// Atomic upsert-and-increment so concurrent callers never draw the
	// same number for a counter type.
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO document_counters (counter_type, last_value, updated_at)
		VALUES (?, 1, now())
		ON CONFLICT (counter_type) DO UPDATE
		SET last_value = document_counters.last_value + 1, updated_at = now()
		RETURNING last_value
	`, counterType).Scan(&nextValue).Error

	if err != nil {
		return 0, err
	}

	return nextValue, nil
}
