package procurement

type CreatePurchaseOrder struct {
	Vendor          string            `json:"vendor" binding:"required"`
	SupplyRequestID *string           `json:"supply_request_id" binding:"omitempty,uuid"`
	Items           []OrderLineCreate `json:"items" binding:"required,min=1,dive"`
}

type OrderLineCreate struct {
	InventoryItemID *string `json:"inventory_item_id" binding:"omitempty,uuid"`
	Description     string  `json:"description" binding:"required"`
	Quantity        int     `json:"quantity" binding:"required,gt=0"`
	UnitCost        string  `json:"unit_cost" binding:"omitempty"`
}

type ActPurchaseOrder struct {
	Action string `json:"action" binding:"required,oneof=APPROVE REJECT"`
	Reason string `json:"reason"`
}

type ReceiveGoodsRequest struct {
	ReceiptNumber string `json:"receipt_number"`
	Remarks       string `json:"remarks"`
}

type OrderLineResponse struct {
	ID              string  `json:"id"`
	InventoryItemID *string `json:"inventory_item_id,omitempty"`
	Description     string  `json:"description"`
	Quantity        int     `json:"quantity"`
	UnitCost        string  `json:"unit_cost"`
}

type PurchaseOrderResponse struct {
	ID              string              `json:"id"`
	OrderNumber     string              `json:"order_number"`
	Vendor          string              `json:"vendor"`
	Status          string              `json:"status"`
	SupplyRequestID *string             `json:"supply_request_id,omitempty"`
	RejectionReason *string             `json:"rejection_reason,omitempty"`
	ReceiptNumber   *string             `json:"receipt_number,omitempty"`
	ReceiptRemarks  *string             `json:"receipt_remarks,omitempty"`
	CreatedBy       string              `json:"created_by"`
	ApprovedAt      *string             `json:"approved_at,omitempty"`
	ReceivedAt      *string             `json:"received_at,omitempty"`
	Items           []OrderLineResponse `json:"items"`
}
