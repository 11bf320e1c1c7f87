package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tooswasher/storefront/internal/domain/cart"
)

type cartItemView struct {
	ID        int64 `json:"id"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func toCartItemView(item *cart.Item) cartItemView {
	return cartItemView{ID: item.ID, ProductID: item.ProductID, Quantity: item.Quantity}
}

func (h *Handler) listCart(c *gin.Context) {
	id := currentIdentity(c)
	items, err := h.carts.List(c.Request.Context(), id.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]cartItemView, len(items))
	for i := range items {
		views[i] = toCartItemView(&items[i])
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req struct {
		ProductID int64 `json:"product_id" binding:"required"`
		Quantity  int   `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	id := currentIdentity(c)
	item, err := h.carts.Add(c.Request.Context(), id.UserID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCartItemView(item))
}

func (h *Handler) setCartItemQuantity(c *gin.Context) {
	productID, ok := paramID(c, "productID")
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	id := currentIdentity(c)
	item, err := h.carts.SetQuantity(c.Request.Context(), id.UserID, productID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartItemView(item))
}

func (h *Handler) removeCartItem(c *gin.Context) {
	productID, ok := paramID(c, "productID")
	if !ok {
		return
	}
	id := currentIdentity(c)
	if err := h.carts.Remove(c.Request.Context(), id.UserID, productID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) clearCart(c *gin.Context) {
	id := currentIdentity(c)
	if err := h.carts.Clear(c.Request.Context(), id.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) checkoutCart(c *gin.Context) {
	id := currentIdentity(c)
	o, err := h.carts.Checkout(c.Request.Context(), id.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderView(o))
}
