package inventory

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Item statuses are descriptive, not a workflow: stock movement is owned
// by the supply-chain and procurement state machines.
const (
	StatusAvailable   = "AVAILABLE"
	StatusAssigned    = "ASSIGNED"
	StatusMaintenance = "MAINTENANCE"
	StatusRetired     = "RETIRED"
)

type Item struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemCode    string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string    `gorm:"type:varchar(150);not null"`
	ItemType    string    `gorm:"type:varchar(50);not null;index:idx_inventory_items_type"`
	SubCategory string    `gorm:"type:varchar(50)"`

	// Quantity is the single source of truth for stock on hand. There is
	// no reserved quantity; it can go negative when issuance outruns
	// receipts.
	Quantity int    `gorm:"not null;default:0"`
	Unit     string `gorm:"type:varchar(20);not null;default:'pcs'"`

	Location   string `gorm:"type:varchar(100)"`
	Condition  string `gorm:"type:varchar(30)"`
	Status     string `gorm:"type:varchar(30);not null;default:'AVAILABLE'"`
	AssignedTo string `gorm:"type:varchar(150)"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index:idx_inventory_items_deleted_at"`
}

func (Item) TableName() string {
	return "inventory_items"
}
