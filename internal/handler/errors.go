package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/tooswasher/storefront/internal/auth"
	"github.com/tooswasher/storefront/internal/domain/cart"
	"github.com/tooswasher/storefront/internal/domain/category"
	"github.com/tooswasher/storefront/internal/domain/discount"
	"github.com/tooswasher/storefront/internal/domain/file"
	"github.com/tooswasher/storefront/internal/domain/option"
	"github.com/tooswasher/storefront/internal/domain/order"
	"github.com/tooswasher/storefront/internal/domain/page"
	"github.com/tooswasher/storefront/internal/domain/product"
	"github.com/tooswasher/storefront/internal/domain/user"
	"github.com/tooswasher/storefront/internal/domain/workflow"
)

// apiError is the JSON error envelope returned by every endpoint.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondError(c *gin.Context, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		// Never leak internals.
		msg = "internal error"
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, apiError{Code: code, Message: msg})
}

// classify maps domain errors to HTTP status codes and stable error codes.
func classify(err error) (int, string) {
	var (
		notFoundErr *order.ProductNotFoundError
		quantityErr *order.InvalidQuantityError
		stockErr    *order.InsufficientStockError
		dupDiscount *order.DuplicateDiscountError
		statusErr   *order.InvalidStatusError
	)

	switch {
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, "product_not_found"
	case errors.As(err, &quantityErr):
		return http.StatusBadRequest, "invalid_quantity"
	case errors.As(err, &stockErr):
		return http.StatusConflict, "insufficient_stock"
	case errors.As(err, &dupDiscount):
		return http.StatusConflict, "duplicate_discount"
	case errors.As(err, &statusErr):
		return http.StatusBadRequest, "invalid_status"
	}

	switch {
	case errors.Is(err, user.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, category.ErrNotFound),
		errors.Is(err, discount.ErrNotFound),
		errors.Is(err, discount.ErrCodeNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, page.ErrNotFound),
		errors.Is(err, option.ErrNotFound),
		errors.Is(err, file.ErrNotFound),
		errors.Is(err, workflow.ErrNotFound),
		errors.Is(err, workflow.ErrStepNotFound),
		errors.Is(err, workflow.ErrTemplateStepNotFound):
		return http.StatusNotFound, "not_found"

	case errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "unauthorized"

	case errors.Is(err, user.ErrInactive),
		errors.Is(err, file.ErrForbidden),
		errors.Is(err, order.ErrForbidden):
		return http.StatusForbidden, "forbidden"

	case errors.Is(err, user.ErrUsernameTaken),
		errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, category.ErrNameTaken),
		errors.Is(err, page.ErrNameTaken),
		errors.Is(err, discount.ErrCodeTaken):
		return http.StatusConflict, "conflict"

	case errors.Is(err, cart.ErrInsufficientStock):
		return http.StatusConflict, "insufficient_stock"

	case errors.Is(err, file.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"

	case errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrDuplicateItems),
		errors.Is(err, cart.ErrEmpty),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, discount.ErrInvalidPercent),
		errors.Is(err, discount.ErrInvalidStatus),
		errors.Is(err, user.ErrInvalidRole),
		errors.Is(err, user.ErrSamePassword),
		errors.Is(err, user.ErrWrongPassword),
		errors.Is(err, user.ErrInvalidResetToken),
		errors.Is(err, workflow.ErrInvalidStatus),
		errors.Is(err, workflow.ErrSkipMandatory),
		errors.Is(err, workflow.ErrNotTemplate),
		errors.Is(err, workflow.ErrIsTemplate):
		return http.StatusBadRequest, "invalid_request"
	}

	return http.StatusInternalServerError, "internal"
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Code: "invalid_request", Message: msg})
}
