package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

// addItemRequest names a catalog product, or carries the snapshot fields
// directly when productId is empty.
type addItemRequest struct {
	ProductID  string `json:"productId"`
	Title      string `json:"title"`
	Image      string `json:"image"`
	Category   string `json:"category"`
	PriceCents *int64 `json:"priceCents"`
	Quantity   *int   `json:"quantity"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *handlers) getCart(c *gin.Context) {
	h.respondCart(c, http.StatusOK)
}

func (h *handlers) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	var item domain.CartItem
	if req.ProductID != "" {
		product, err := h.products.Get(ctx, req.ProductID)
		if err != nil {
			h.writeError(c, err)
			return
		}
		item = product.CartItem()
	} else {
		if req.PriceCents == nil {
			h.writeError(c, domain.NewValidationError("priceCents", "is required"))
			return
		}
		item = domain.CartItem{Title: req.Title, ImageRef: req.Image, Category: req.Category, UnitPriceCents: *req.PriceCents}
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	owner := ownerFrom(c)
	line, err := h.session.AddItemQuantity(ctx, owner, item, quantity)
	if err != nil {
		h.writeError(c, err)
		return
	}
	view, err := h.session.ViewFor(ctx, owner)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lineResponse{Line: line, Cart: view})
}

func (h *handlers) updateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if req.Quantity == nil {
		h.badRequest(c, errors.New("quantity is required"))
		return
	}
	if err := h.session.UpdateQuantity(c.Request.Context(), ownerFrom(c), c.Param("lineId"), *req.Quantity); err != nil {
		h.writeError(c, err)
		return
	}
	h.respondCart(c, http.StatusOK)
}

func (h *handlers) removeItem(c *gin.Context) {
	if err := h.session.RemoveLine(c.Request.Context(), ownerFrom(c), c.Param("lineId")); err != nil {
		h.writeError(c, err)
		return
	}
	h.respondCart(c, http.StatusOK)
}

func (h *handlers) clearCart(c *gin.Context) {
	if err := h.session.Clear(c.Request.Context(), ownerFrom(c)); err != nil {
		h.writeError(c, err)
		return
	}
	h.respondCart(c, http.StatusOK)
}

func (h *handlers) checkout(c *gin.Context) {
	receipt, err := h.session.Checkout(c.Request.Context(), ownerFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

func (h *handlers) respondCart(c *gin.Context, status int) {
	view, err := h.session.ViewFor(c.Request.Context(), ownerFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(status, view)
}
