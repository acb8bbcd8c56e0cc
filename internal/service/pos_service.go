// Package service implements the catalog and stock operations on top of the
// Local Store. Every operation is a whole-document read-modify-write; two
// operations in one process never interleave because the store serializes
// writes, and cross-device conflicts are the merge layer's problem.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shoyaib4265a/st-shop-poss/internal/dto"
	"github.com/shoyaib4265a/st-shop-poss/internal/model"
	"github.com/shoyaib4265a/st-shop-poss/internal/store"
)

var (
	ErrUnknownProduct = errors.New("product not found")
	// ErrInsufficientStock is a business-rule violation: the store is left
	// unchanged and the caller surfaces the failure directly.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// POSService defines the business operations exposed to UI glue.
type POSService interface {
	UpsertProduct(ctx context.Context, id string, req dto.UpsertProductRequest) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)

	// AssignStock moves qty units from the product's shop-level stock into
	// the cashier's allotment.
	AssignStock(ctx context.Context, cashier, productID string, qty int) error
	// RecordSale decrements the cashier's allotment. Returns false — with
	// no mutation — when the allotment cannot cover qty.
	RecordSale(ctx context.Context, cashier, productID string, qty int) (bool, error)
	ListInventories(ctx context.Context) ([]model.Inventory, error)

	ListPending(ctx context.Context) ([]model.PendingApproval, error)
	ListDeviceLogs(ctx context.Context) ([]model.DeviceLogEntry, error)
}

type posService struct {
	store store.Store
	now   func() time.Time
}

func NewPOSService(st store.Store) POSService {
	return &posService{store: st, now: time.Now}
}

func (s *posService) UpsertProduct(ctx context.Context, id string, req dto.UpsertProductRequest) (*model.Product, error) {
	ds, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	p := ds.FindProduct(id)
	if p == nil {
		ds.Products = append(ds.Products, model.Product{ID: id})
		p = &ds.Products[len(ds.Products)-1]
	}
	// Unspecified fields keep their current value.
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.Barcode != nil {
		p.Barcode = *req.Barcode
	}
	p.Clamp()

	if err := s.store.Save(ctx, ds); err != nil {
		return nil, err
	}
	out := *p
	log.Info().Str("product", id).Msg("service: product upserted")
	return &out, nil
}

func (s *posService) ListProducts(ctx context.Context) ([]model.Product, error) {
	ds, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return ds.Products, nil
}

func (s *posService) AssignStock(ctx context.Context, cashier, productID string, qty int) error {
	ds, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	p := ds.FindProduct(productID)
	if p == nil {
		return ErrUnknownProduct
	}
	if p.Stock < qty {
		return ErrInsufficientStock
	}

	inv := ds.FindInventory(cashier)
	if inv == nil {
		ds.Inventories = append(ds.Inventories, model.Inventory{Cashier: cashier})
		inv = &ds.Inventories[len(ds.Inventories)-1]
	}
	p.Stock -= qty
	inv.Add(productID, qty)
	inv.UpdatedAt = s.now().UTC()

	if err := s.store.Save(ctx, ds); err != nil {
		return err
	}
	log.Info().Str("cashier", cashier).Str("product", productID).Int("qty", qty).
		Msg("service: stock assigned")
	return nil
}

func (s *posService) RecordSale(ctx context.Context, cashier, productID string, qty int) (bool, error) {
	ds, err := s.store.Load(ctx)
	if err != nil {
		return false, err
	}
	inv := ds.FindInventory(cashier)
	if inv == nil {
		return false, nil
	}
	item := inv.Item(productID)
	if item == nil || item.Qty < qty {
		// Refuse rather than let the allotment go negative. Nothing was
		// mutated, so there is nothing to roll back.
		return false, nil
	}

	item.Qty -= qty
	inv.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, ds); err != nil {
		return false, err
	}
	log.Info().Str("cashier", cashier).Str("product", productID).Int("qty", qty).
		Msg("service: sale recorded")
	return true, nil
}

func (s *posService) ListInventories(ctx context.Context) ([]model.Inventory, error) {
	ds, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return ds.Inventories, nil
}

func (s *posService) ListPending(ctx context.Context) ([]model.PendingApproval, error) {
	ds, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return ds.Pending, nil
}

func (s *posService) ListDeviceLogs(ctx context.Context) ([]model.DeviceLogEntry, error) {
	ds, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return ds.DeviceLogs, nil
}
