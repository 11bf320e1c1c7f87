package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tooswasher/storefront/internal/domain/page"
)

type pageView struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Body     string `json:"body"`
	IsInMenu bool   `json:"is_in_menu"`
}

func toPageView(p *page.Page) pageView {
	return pageView{ID: p.ID, Name: p.Name, Body: p.Body, IsInMenu: p.IsInMenu}
}

func (h *Handler) listPages(c *gin.Context) {
	menuOnly := c.Query("menu") == "true"
	pages, err := h.pages.List(c.Request.Context(), menuOnly)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]pageView, len(pages))
	for i := range pages {
		views[i] = toPageView(&pages[i])
	}
	c.JSON(http.StatusOK, views)
}

// getPage resolves a numeric parameter as an ID and anything else as the
// page's unique name, so menus can link pages by slug.
func (h *Handler) getPage(c *gin.Context) {
	param := c.Param("id")

	var (
		p   *page.Page
		err error
	)
	if id, parseErr := strconv.ParseInt(param, 10, 64); parseErr == nil {
		p, err = h.pages.GetByID(c.Request.Context(), id)
	} else {
		p, err = h.pages.GetByName(c.Request.Context(), param)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPageView(p))
}

type pageRequest struct {
	Name     string `json:"name" binding:"required"`
	Body     string `json:"body"`
	IsInMenu bool   `json:"is_in_menu"`
}

func (h *Handler) createPage(c *gin.Context) {
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	p := &page.Page{Name: req.Name, Body: req.Body, IsInMenu: req.IsInMenu}
	if err := h.pages.Create(c.Request.Context(), p); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPageView(p))
}

func (h *Handler) updatePage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	p := &page.Page{ID: id, Name: req.Name, Body: req.Body, IsInMenu: req.IsInMenu}
	if err := h.pages.Update(c.Request.Context(), p); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPageView(p))
}

func (h *Handler) deletePage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.pages.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
