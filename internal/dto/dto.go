// Package dto defines the request and response shapes of the local HTTP
// API. Validation tags are enforced by the shared bindAndValidate helper.
package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Phone string `json:"phone" validate:"required,min=1"`
	PIN   string `json:"pin"   validate:"required,min=4"`
}

type ApproveRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

type RevokeRequest struct {
	Phone  string `json:"phone"  validate:"required,min=1"`
	Device string `json:"device" validate:"required,min=1"` // fingerprint or "all"
}

type SaveCredentialRequest struct {
	Phone string `json:"phone" validate:"required,min=1"`
	PIN   string `json:"pin"   validate:"required,min=4"`
	Role  string `json:"role"  validate:"required,oneof=admin cashier"`
}

type UpsertProductRequest struct {
	Name    *string          `json:"name"    validate:"omitempty,max=200"`
	Price   *decimal.Decimal `json:"price"   validate:"omitempty,min=0"`
	Stock   *int             `json:"stock"   validate:"omitempty,min=0"`
	Barcode *string          `json:"barcode" validate:"omitempty,max=64"`
}

type AssignStockRequest struct {
	Cashier   string `json:"cashier"   validate:"required,min=1"`
	ProductID string `json:"productId" validate:"required,min=1"`
	Qty       int    `json:"qty"       validate:"required,gt=0"`
}

type SaleRequest struct {
	ProductID string `json:"productId" validate:"required,min=1"`
	Qty       int    `json:"qty"       validate:"required,gt=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// LoginResponse mirrors the trust outcome: OK with a role, or a pending
// approval whose code must reach an admin out-of-band.
type LoginResponse struct {
	OK          bool   `json:"ok"`
	Role        string `json:"role,omitempty"`
	Pending     bool   `json:"pending,omitempty"`
	PendingCode string `json:"pendingCode,omitempty"`
}

type SessionResponse struct {
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Approved bool   `json:"approved"`
}

type ProductResponse struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Stock   int             `json:"stock"`
	Barcode string          `json:"barcode,omitempty"`
}

type InventoryItemResponse struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

type InventoryResponse struct {
	Cashier   string                  `json:"cashier"`
	Items     []InventoryItemResponse `json:"items"`
	UpdatedAt time.Time               `json:"updatedAt"`
}

type PendingResponse struct {
	Phone  string `json:"phone"`
	Device string `json:"device"`
	Code   string `json:"code"`
}

type DeviceLogResponse struct {
	Phone  string    `json:"phone"`
	Device string    `json:"device"`
	At     time.Time `json:"at"`
}

type SaleResponse struct {
	OK bool `json:"ok"`
}

type SyncResponse struct {
	OK      bool  `json:"ok"`
	Version int64 `json:"version"`
}
