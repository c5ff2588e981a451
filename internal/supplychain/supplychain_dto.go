package supplychain

type CreateSupplyRequest struct {
	Department string             `json:"department" binding:"required"`
	Items      []SupplyLineCreate `json:"items" binding:"required,min=1,dive"`
}

type SupplyLineCreate struct {
	InventoryItemID *string `json:"inventory_item_id" binding:"omitempty,uuid"`
	Description     string  `json:"description" binding:"required"`
	Quantity        int     `json:"quantity" binding:"required,gt=0"`
}

type ActSupplyRequest struct {
	Action string `json:"action" binding:"required,oneof=APPROVE REJECT"`
	Reason string `json:"reason"`
}

type SupplyLineResponse struct {
	ID              string  `json:"id"`
	InventoryItemID *string `json:"inventory_item_id,omitempty"`
	Description     string  `json:"description"`
	Quantity        int     `json:"quantity"`
}

type SupplyRequestResponse struct {
	ID              string               `json:"id"`
	RequestNumber   string               `json:"request_number"`
	Department      string               `json:"department"`
	Status          string               `json:"status"`
	RejectionReason *string              `json:"rejection_reason,omitempty"`
	CreatedBy       string               `json:"created_by"`
	ApprovedAt      *string              `json:"approved_at,omitempty"`
	IssuedAt        *string              `json:"issued_at,omitempty"`
	Items           []SupplyLineResponse `json:"items"`
}
