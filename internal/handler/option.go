package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tooswasher/storefront/internal/domain/option"
)

type optionView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (h *Handler) listOptions(c *gin.Context) {
	options, err := h.options.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]optionView, len(options))
	for i, o := range options {
		views[i] = optionView{Name: o.Name, Value: o.Value}
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) getOption(c *gin.Context) {
	o, err := h.options.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, optionView{Name: o.Name, Value: o.Value})
}

func (h *Handler) setOption(c *gin.Context) {
	var req struct {
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	o := &option.Option{Name: c.Param("name"), Value: req.Value}
	if err := h.options.Set(c.Request.Context(), o); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, optionView{Name: o.Name, Value: o.Value})
}

func (h *Handler) deleteOption(c *gin.Context) {
	if err := h.options.Delete(c.Request.Context(), c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
