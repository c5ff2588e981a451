package inventory

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=inventory_repo.go -destination=mock/inventory_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, item *Item) error
	FindAll(ctx context.Context, itemType string) ([]Item, error)
	FindByID(ctx context.Context, id string) (*Item, error)
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id string) error
	// AdjustQuantity applies a signed delta and returns the resulting
	// quantity. Negative results are allowed. Must run inside a tx.
	AdjustQuantity(ctx context.Context, id string, delta int) (int, error)
	// SetQuantity overwrites the absolute quantity (stock-take path).
	// Must run inside a tx.
	SetQuantity(ctx context.Context, id string, quantity int) error
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

func (r *repository) Create(ctx context.Context, item *Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindAll(ctx context.Context, itemType string) ([]Item, error) {
	db := r.db.WithContext(ctx).Order("item_code")
	if itemType != "" {
		db = db.Where("item_type = ?", itemType)
	}

	var items []Item
	err := db.Find(&items).Error
	return items, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*Item, error) {
	var item Item
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	return &item, err
}

func (r *repository) Update(ctx context.Context, item *Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&Item{}, "id = ?", id).Error
}

func (r *repository) AdjustQuantity(ctx context.Context, id string, delta int) (int, error) {
	if r.tx == nil {
		return 0, sql.ErrTxDone
	}

	var quantity int
	err := r.tx.QueryRowContext(ctx, `
		UPDATE inventory_items
		SET quantity = quantity + $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING quantity
	`, id, delta).Scan(&quantity)
	if err == sql.ErrNoRows {
		return 0, gorm.ErrRecordNotFound
	}
	return quantity, err
}

func (r *repository) SetQuantity(ctx context.Context, id string, quantity int) error {
	if r.tx == nil {
		return sql.ErrTxDone
	}

	res, err := r.tx.ExecContext(ctx, `
		UPDATE inventory_items
		SET quantity = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id, quantity)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
