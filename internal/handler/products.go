package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shoyaib4265a/st-shop-poss/internal/apierror"
	"github.com/shoyaib4265a/st-shop-poss/internal/dto"
	"github.com/shoyaib4265a/st-shop-poss/internal/middleware"
	"github.com/shoyaib4265a/st-shop-poss/internal/service"
)

type ProductsHandler struct{ svc service.POSService }

func NewProductsHandler(svc service.POSService) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

func (h *ProductsHandler) Upsert(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, apierror.New("product id required"))
		return
	}
	var req dto.UpsertProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	p, err := h.svc.UpsertProduct(c.Request.Context(), id, req)
	if err != nil {
		c.Error(err) //nolint:errcheck
		return
	}
	c.JSON(http.StatusOK, dto.ProductResponse{
		ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock, Barcode: p.Barcode,
	})
}

func (h *ProductsHandler) List(c *gin.Context) {
	products, err := h.svc.ListProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list products"))
		return
	}
	resp := make([]dto.ProductResponse, len(products))
	for i, p := range products {
		resp[i] = dto.ProductResponse{
			ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock, Barcode: p.Barcode,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// ── Inventory / sales ────────────────────────────────────────────────────────

type InventoryHandler struct{ svc service.POSService }

func NewInventoryHandler(svc service.POSService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

func (h *InventoryHandler) Assign(c *gin.Context) {
	var req dto.AssignStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	err := h.svc.AssignStock(c.Request.Context(), req.Cashier, req.ProductID, req.Qty)
	switch {
	case errors.Is(err, service.ErrUnknownProduct):
		c.JSON(http.StatusNotFound, apierror.New("product not found"))
	case errors.Is(err, service.ErrInsufficientStock):
		c.JSON(http.StatusConflict, apierror.New("insufficient stock"))
	case err != nil:
		c.Error(err) //nolint:errcheck
	default:
		c.Status(http.StatusNoContent)
	}
}

func (h *InventoryHandler) List(c *gin.Context) {
	inventories, err := h.svc.ListInventories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list inventories"))
		return
	}
	resp := make([]dto.InventoryResponse, len(inventories))
	for i, inv := range inventories {
		items := make([]dto.InventoryItemResponse, len(inv.Items))
		for j, item := range inv.Items {
			items[j] = dto.InventoryItemResponse{ProductID: item.ProductID, Qty: item.Qty}
		}
		resp[i] = dto.InventoryResponse{Cashier: inv.Cashier, Items: items, UpdatedAt: inv.UpdatedAt}
	}
	c.JSON(http.StatusOK, resp)
}

// RecordSale sells from the logged-in cashier's own allotment.
func (h *InventoryHandler) RecordSale(c *gin.Context) {
	var req dto.SaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sess := middleware.GetSession(c)
	ok, err := h.svc.RecordSale(c.Request.Context(), sess.Phone, req.ProductID, req.Qty)
	if err != nil {
		c.Error(err) //nolint:errcheck
		return
	}
	if !ok {
		// Business-rule refusal, not a transport error: nothing was mutated.
		c.JSON(http.StatusConflict, dto.SaleResponse{OK: false})
		return
	}
	c.JSON(http.StatusOK, dto.SaleResponse{OK: true})
}
