package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tooswasher/storefront/internal/domain/product"
)

type productView struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	Price           decimal.Decimal  `json:"price"`
	Stock           int              `json:"stock"`
	Image           string           `json:"image,omitempty"`
	MinimumOrder    int              `json:"minimum_order"`
	Rate            float64          `json:"rate,omitempty"`
	CategoryID      *int64           `json:"category_id,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
}

func toProductView(p *product.Product) productView {
	return productView{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		Stock:        p.Stock,
		Image:        p.Image,
		MinimumOrder: p.MinimumOrder,
		Rate:         p.Rate,
		CategoryID:   p.CategoryID,
	}
}

func toProductViews(products []product.Product) []productView {
	views := make([]productView, len(products))
	for i := range products {
		views[i] = toProductView(&products[i])
	}
	return views
}

// attachDiscounts annotates each view with the discount percent the caller
// would get automatically. Anonymous callers still see product-wide and
// store-wide discounts.
func (h *Handler) attachDiscounts(c *gin.Context, views []productView) {
	customerID := currentIdentity(c).UserID
	for i := range views {
		d, err := h.discounts.ResolveFor(c.Request.Context(), views[i].ID, customerID)
		if err != nil || d == nil {
			continue
		}
		percent := d.Percent
		views[i].DiscountPercent = &percent
	}
}

func (h *Handler) listProducts(c *gin.Context) {
	limit, offset := pageParams(c)
	products, err := h.products.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	views := toProductViews(products)
	h.attachDiscounts(c, views)
	c.JSON(http.StatusOK, views)
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	views := []productView{toProductView(p)}
	h.attachDiscounts(c, views)
	c.JSON(http.StatusOK, views[0])
}

type productRequest struct {
	Name         string          `json:"name" binding:"required"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price" binding:"required"`
	Stock        int             `json:"stock" binding:"min=0"`
	Image        string          `json:"image"`
	MinimumOrder int             `json:"minimum_order"`
	Rate         float64         `json:"rate" binding:"min=0"`
	CategoryID   *int64          `json:"category_id"`
}

func (h *Handler) createProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.MinimumOrder <= 0 {
		req.MinimumOrder = 1
	}

	id := currentIdentity(c)
	p := &product.Product{
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Stock:        req.Stock,
		Image:        req.Image,
		MinimumOrder: req.MinimumOrder,
		Rate:         req.Rate,
		CategoryID:   req.CategoryID,
		OwnerID:      &id.UserID,
	}
	if err := h.products.Create(c.Request.Context(), p); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProductView(p))
}

func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	p, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	p.Name = req.Name
	p.Description = req.Description
	p.Price = req.Price
	p.Stock = req.Stock
	p.Image = req.Image
	if req.MinimumOrder > 0 {
		p.MinimumOrder = req.MinimumOrder
	}
	p.Rate = req.Rate
	p.CategoryID = req.CategoryID

	if err := h.products.Update(c.Request.Context(), p); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductView(p))
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// pageParams returns sane list pagination bounds.
func pageParams(c *gin.Context) (limit, offset int) {
	limit = intQuery(c, "limit")
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	offset = intQuery(c, "offset")
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
