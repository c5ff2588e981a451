package supplychain

import (
	"time"

	"github.com/google/uuid"
)

// Supply request states. ISSUED and REJECTED are terminal.
const (
	StatusPendingAccountManager = "PENDING_ACCOUNT_MANAGER"
	StatusPendingStore          = "PENDING_STORE"
	StatusForwardedToPurchase   = "FORWARDED_TO_PURCHASE"
	StatusIssued                = "ISSUED"
	StatusRejected              = "REJECTED"
)

const (
	ActionApprove = "APPROVE"
	ActionReject  = "REJECT"
)

// DepartmentStore requests skip the store-fulfillment stage: the store
// cannot requisition from itself, so approval forwards straight to
// purchasing.
const DepartmentStore = "Store"

type SupplyRequest struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RequestNumber string    `gorm:"type:varchar(30);not null;uniqueIndex"`
	Department    string    `gorm:"type:varchar(100);not null"`

	Status          string  `gorm:"type:varchar(40);not null;default:'PENDING_ACCOUNT_MANAGER';index:idx_supply_requests_status"`
	RejectionReason *string `gorm:"type:text"`

	CreatedBy  uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ApprovedAt *time.Time
	IssuedAt   *time.Time

	Items []SupplyRequestItem `gorm:"foreignKey:RequestID"`
}

func (SupplyRequest) TableName() string {
	return "supply_requests"
}

// SupplyRequestItem is one requested line. InventoryItemID is nil for
// ad-hoc, non-catalog requests; those lines never touch stock.
type SupplyRequestItem struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RequestID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_supply_request_items_request"`
	InventoryItemID *uuid.UUID `gorm:"type:uuid"`
	Description     string     `gorm:"type:varchar(200);not null"`
	Quantity        int        `gorm:"not null"`
	CreatedAt       time.Time
}

func (SupplyRequestItem) TableName() string {
	return "supply_request_items"
}

// pendingStates are the states a request can still be rejected or
// forwarded from.
var pendingStates = map[string]bool{
	StatusPendingAccountManager: true,
	StatusPendingStore:          true,
	StatusForwardedToPurchase:   true,
}

// issuableStates are the states fulfillment has been decided in.
var issuableStates = map[string]bool{
	StatusPendingStore:        true,
	StatusForwardedToPurchase: true,
}
