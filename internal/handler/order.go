package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tooswasher/storefront/internal/domain/order"
)

type orderItemView struct {
	ProductID       int64            `json:"product_id"`
	Quantity        int              `json:"quantity"`
	DiscountID      *int64           `json:"discount_id,omitempty"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price,omitempty"`
}

type orderView struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	Items       []orderItemView `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	State       string          `json:"state,omitempty"`
	City        string          `json:"city,omitempty"`
	Address     string          `json:"address,omitempty"`
	PhoneNumber string          `json:"phone_number,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toOrderView(o *order.Order) orderView {
	items := make([]orderItemView, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemView{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			DiscountID: item.DiscountID,
		}
		if item.DiscountedPrice.Valid {
			price := item.DiscountedPrice.Decimal
			items[i].DiscountedPrice = &price
		}
	}
	return orderView{
		ID:          o.ID,
		UserID:      o.UserID,
		Items:       items,
		TotalAmount: o.TotalAmount,
		Status:      string(o.Status),
		State:       o.State,
		City:        o.City,
		Address:     o.Address,
		PhoneNumber: o.PhoneNumber,
		CreatedAt:   o.CreatedAt,
	}
}

type orderItemRequest struct {
	ProductID    int64  `json:"product_id" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required"`
	DiscountCode string `json:"discount_code"`
}

type createOrderRequest struct {
	Items       []orderItemRequest `json:"items" binding:"required"`
	State       string             `json:"state"`
	City        string             `json:"city"`
	Address     string             `json:"address"`
	PhoneNumber string             `json:"phone_number"`
}

func (h *Handler) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	items := make([]order.ItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = order.ItemRequest{
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			DiscountCode: item.DiscountCode,
		}
	}

	id := currentIdentity(c)
	o, err := h.orders.Create(c.Request.Context(), order.CreateRequest{
		UserID:      id.UserID,
		Items:       items,
		State:       req.State,
		City:        req.City,
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderView(o))
}

func (h *Handler) listOrders(c *gin.Context) {
	id := currentIdentity(c)
	f := order.Filter{
		Status: order.Status(c.Query("status")),
		From:   timeQuery(c, "from"),
		To:     timeQuery(c, "to"),
		Limit:  intQuery(c, "limit"),
		Offset: intQuery(c, "offset"),
	}
	if id.privileged() {
		f.UserID = int64(intQuery(c, "user_id"))
	}

	orders, err := h.orders.List(c.Request.Context(), f, id.UserID, id.privileged())
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]orderView, len(orders))
	for i := range orders {
		views[i] = toOrderView(&orders[i])
	}
	c.JSON(http.StatusOK, views)
}

// timeQuery parses an RFC 3339 query parameter, returning the zero time when
// absent or malformed.
func timeQuery(c *gin.Context, name string) time.Time {
	t, _ := time.Parse(time.RFC3339, c.Query(name))
	return t
}

func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	id := currentIdentity(c)
	o, err := h.orders.Get(c.Request.Context(), orderID, id.UserID, id.privileged())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderView(o))
}

type updateOrderRequest struct {
	Status      *string            `json:"status"`
	Items       []orderItemRequest `json:"items"`
	State       *string            `json:"state"`
	City        *string            `json:"city"`
	Address     *string            `json:"address"`
	PhoneNumber *string            `json:"phone_number"`
}

func (h *Handler) updateOrder(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	upd := order.UpdateRequest{
		State:       req.State,
		City:        req.City,
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
	}
	if req.Status != nil {
		status := order.Status(*req.Status)
		upd.Status = &status
	}
	if req.Items != nil {
		upd.Items = make([]order.ItemRequest, len(req.Items))
		for i, item := range req.Items {
			upd.Items[i] = order.ItemRequest{
				ProductID:    item.ProductID,
				Quantity:     item.Quantity,
				DiscountCode: item.DiscountCode,
			}
		}
	}

	id := currentIdentity(c)
	o, err := h.orders.Update(c.Request.Context(), orderID, id.UserID, id.privileged(), upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderView(o))
}

func (h *Handler) deleteOrder(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	id := currentIdentity(c)
	if err := h.orders.Delete(c.Request.Context(), orderID, id.UserID, id.privileged()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
