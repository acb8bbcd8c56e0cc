package model

import "github.com/shopspring/decimal"

// Product is a catalog entry. ID is the merge key; Stock is the shop-level
// quantity not yet delegated to any cashier allotment.
type Product struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Stock   int             `json:"stock"`
	Barcode string          `json:"barcode,omitempty"`
}

// Clamp forces price and stock non-negative. Applied on every write path so
// a malformed record can never persist a negative value.
func (p *Product) Clamp() {
	if p.Price.IsNegative() {
		p.Price = decimal.Zero
	}
	if p.Stock < 0 {
		p.Stock = 0
	}
}
