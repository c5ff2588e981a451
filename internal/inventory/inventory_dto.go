package inventory

type CreateItemRequest struct {
	ItemCode    string `json:"item_code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	ItemType    string `json:"item_type" binding:"required"`
	SubCategory string `json:"sub_category"`
	Quantity    int    `json:"quantity"`
	Unit        string `json:"unit"`
	Location    string `json:"location"`
	Condition   string `json:"condition"`
	AssignedTo  string `json:"assigned_to"`
}

type UpdateItemRequest struct {
	Name        string `json:"name" binding:"required"`
	ItemType    string `json:"item_type" binding:"required"`
	SubCategory string `json:"sub_category"`
	Unit        string `json:"unit"`
	Location    string `json:"location"`
	Condition   string `json:"condition"`
	Status      string `json:"status" binding:"required,oneof=AVAILABLE ASSIGNED MAINTENANCE RETIRED"`
	AssignedTo  string `json:"assigned_to"`
}

type AdjustItemRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason"`
}

// BulkSetQuantityRequest replaces absolute quantities for many items at
// once (periodic stock-take of consumables).
type BulkSetQuantityRequest struct {
	Items []BulkQuantityLine `json:"items" binding:"required,min=1,dive"`
}

type BulkQuantityLine struct {
	ItemID   string `json:"item_id" binding:"required,uuid"`
	Quantity int    `json:"quantity" binding:"gte=0"`
}

type ItemResponse struct {
	ID          string `json:"id"`
	ItemCode    string `json:"item_code"`
	Name        string `json:"name"`
	ItemType    string `json:"item_type"`
	SubCategory string `json:"sub_category,omitempty"`
	Quantity    int    `json:"quantity"`
	Unit        string `json:"unit"`
	Location    string `json:"location,omitempty"`
	Condition   string `json:"condition,omitempty"`
	Status      string `json:"status"`
	AssignedTo  string `json:"assigned_to,omitempty"`
}
