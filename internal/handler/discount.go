package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tooswasher/storefront/internal/domain/discount"
)

type discountView struct {
	ID          int64           `json:"id"`
	Code        string          `json:"code,omitempty"`
	Percent     decimal.Decimal `json:"percent"`
	MaxDiscount decimal.Decimal `json:"max_discount"`
	ProductID   *int64          `json:"product_id,omitempty"`
	CustomerID  *int64          `json:"customer_id,omitempty"`
	Status      string          `json:"status"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

func toDiscountView(d *discount.Discount) discountView {
	return discountView{
		ID:          d.ID,
		Code:        d.Code,
		Percent:     d.Percent,
		MaxDiscount: d.MaxDiscount,
		ProductID:   d.ProductID,
		CustomerID:  d.CustomerID,
		Status:      string(d.Status),
		SubmittedAt: d.SubmittedAt,
	}
}

type discountRequest struct {
	Code        string          `json:"code"`
	Percent     decimal.Decimal `json:"percent" binding:"required"`
	MaxDiscount decimal.Decimal `json:"max_discount"`
	ProductID   *int64          `json:"product_id"`
	CustomerID  *int64          `json:"customer_id"`
	Status      string          `json:"status"`
}

func (h *Handler) createDiscount(c *gin.Context) {
	var req discountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	id := currentIdentity(c)
	d := &discount.Discount{
		Code:              req.Code,
		Percent:           req.Percent,
		MaxDiscount:       req.MaxDiscount,
		ProductID:         req.ProductID,
		CustomerID:        req.CustomerID,
		Status:            discount.Status(req.Status),
		SubmittedByUserID: &id.UserID,
	}
	d, err := h.discounts.Create(c.Request.Context(), d)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDiscountView(d))
}

func (h *Handler) listDiscounts(c *gin.Context) {
	f := discount.Filter{
		Status:      discount.Status(c.Query("status")),
		ProductID:   int64(intQuery(c, "product_id")),
		CustomerID:  int64(intQuery(c, "customer_id")),
		SubmittedBy: int64(intQuery(c, "submitted_by")),
		Limit:       intQuery(c, "limit"),
		Offset:      intQuery(c, "offset"),
	}
	discounts, err := h.discounts.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]discountView, len(discounts))
	for i := range discounts {
		views[i] = toDiscountView(&discounts[i])
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) getDiscount(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	d, err := h.discounts.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDiscountView(d))
}

func (h *Handler) updateDiscount(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req discountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	d := &discount.Discount{
		ID:          id,
		Code:        req.Code,
		Percent:     req.Percent,
		MaxDiscount: req.MaxDiscount,
		ProductID:   req.ProductID,
		CustomerID:  req.CustomerID,
		Status:      discount.Status(req.Status),
	}
	d, err := h.discounts.Update(c.Request.Context(), d)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDiscountView(d))
}

func (h *Handler) deleteDiscount(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.discounts.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
