package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tooswasher/storefront/internal/domain/category"
)

type categoryView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ParentID    *int64 `json:"parent_id,omitempty"`
}

func toCategoryView(c *category.Category) categoryView {
	return categoryView{ID: c.ID, Name: c.Name, Description: c.Description, ParentID: c.ParentID}
}

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]categoryView, len(categories))
	for i := range categories {
		views[i] = toCategoryView(&categories[i])
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) getCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	cat, err := h.categories.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCategoryView(cat))
}

func (h *Handler) listCategoryProducts(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, err := h.categories.GetByID(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	limit, offset := pageParams(c)
	products, err := h.products.ListByCategory(c.Request.Context(), id, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	views := toProductViews(products)
	h.attachDiscounts(c, views)
	c.JSON(http.StatusOK, views)
}

type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ParentID    *int64 `json:"parent_id"`
}

func (h *Handler) createCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	cat := &category.Category{Name: req.Name, Description: req.Description, ParentID: req.ParentID}
	if err := h.categories.Create(c.Request.Context(), cat); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCategoryView(cat))
}

func (h *Handler) updateCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	cat := &category.Category{ID: id, Name: req.Name, Description: req.Description, ParentID: req.ParentID}
	if err := h.categories.Update(c.Request.Context(), cat); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCategoryView(cat))
}

func (h *Handler) deleteCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.categories.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
