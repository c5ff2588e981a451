package procurement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase order states. RECEIVED and REJECTED are terminal.
const (
	StatusPendingAccountManager = "PENDING_ACCOUNT_MANAGER"
	StatusApproved              = "APPROVED"
	StatusReceived              = "RECEIVED"
	StatusRejected              = "REJECTED"
)

const (
	ActionApprove = "APPROVE"
	ActionReject  = "REJECT"
)

type PurchaseOrder struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderNumber string    `gorm:"type:varchar(30);not null;uniqueIndex"`
	Vendor      string    `gorm:"type:varchar(150);not null"`

	Status string `gorm:"type:varchar(40);not null;default:'PENDING_ACCOUNT_MANAGER';index:idx_purchase_orders_status"`

	// SupplyRequestID links the order back to the store requisition it
	// was raised for; nil for standalone purchases.
	SupplyRequestID *uuid.UUID `gorm:"type:uuid"`
	RejectionReason *string    `gorm:"type:text"`

	ReceiptNumber  *string `gorm:"type:varchar(50)"`
	ReceiptRemarks *string `gorm:"type:text"`

	CreatedBy  uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ApprovedAt *time.Time
	ReceivedAt *time.Time

	Items []PurchaseOrderItem `gorm:"foreignKey:OrderID"`
}

func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// PurchaseOrderItem is one ordered line. InventoryItemID is nil for
// lines that are not stocked; those never touch the ledger on receipt.
type PurchaseOrderItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_purchase_order_items_order"`
	InventoryItemID *uuid.UUID      `gorm:"type:uuid"`
	Description     string          `gorm:"type:varchar(200);not null"`
	Quantity        int             `gorm:"not null"`
	UnitCost        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	CreatedAt       time.Time
}

func (PurchaseOrderItem) TableName() string {
	return "purchase_order_items"
}
