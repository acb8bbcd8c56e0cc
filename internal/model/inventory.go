package model

import "time"

// InventoryItem is one product line inside a cashier allotment.
type InventoryItem struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

// Inventory is the stock delegated to one cashier, keyed by the cashier's
// phone. Item quantities must never go negative; callers check before they
// decrement and fail the operation instead.
type Inventory struct {
	Cashier   string          `json:"cashier"`
	Items     []InventoryItem `json:"items"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Item returns a pointer to the line for productID, or nil.
func (inv *Inventory) Item(productID string) *InventoryItem {
	for i := range inv.Items {
		if inv.Items[i].ProductID == productID {
			return &inv.Items[i]
		}
	}
	return nil
}

// Add credits qty units of productID, creating the line if needed.
func (inv *Inventory) Add(productID string, qty int) {
	if item := inv.Item(productID); item != nil {
		item.Qty += qty
		return
	}
	inv.Items = append(inv.Items, InventoryItem{ProductID: productID, Qty: qty})
}
