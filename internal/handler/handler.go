// Package handler exposes the storefront API over HTTP using gin.
package handler

import (
	"github.com/gin-gonic/gin"

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

// Handler holds every dependency the HTTP layer needs.
type Handler struct {
	tokens     *auth.Tokens
	users      *user.Service
	products   product.Repository
	categories category.Repository
	discounts  *discount.Service
	carts      *cart.Service
	orders     *order.Service
	pages      page.Repository
	options    option.Repository
	files      *file.Service
	workflows  *workflow.Service
}

// New creates a Handler wired to the given services and repositories.
func New(
	tokens *auth.Tokens,
	users *user.Service,
	products product.Repository,
	categories category.Repository,
	discounts *discount.Service,
	carts *cart.Service,
	orders *order.Service,
	pages page.Repository,
	options option.Repository,
	files *file.Service,
	workflows *workflow.Service,
) *Handler {
	return &Handler{
		tokens:     tokens,
		users:      users,
		products:   products,
		categories: categories,
		discounts:  discounts,
		carts:      carts,
		orders:     orders,
		pages:      pages,
		options:    options,
		files:      files,
		workflows:  workflows,
	}
}

// Router builds the API route tree. The caller mounts it under the server's
// outer middleware stack.
func (h *Handler) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.register)
			authGroup.POST("/login", h.login)
			authGroup.POST("/password-reset", h.requestPasswordReset)
			authGroup.POST("/password-reset/confirm", h.confirmPasswordReset)
		}

		api.GET("/products", h.optionalAuth(), h.listProducts)
		api.GET("/products/:id", h.optionalAuth(), h.getProduct)
		api.GET("/categories", h.listCategories)
		api.GET("/categories/:id", h.getCategory)
		api.GET("/categories/:id/products", h.optionalAuth(), h.listCategoryProducts)
		api.GET("/pages", h.listPages)
		api.GET("/pages/:id", h.getPage)
		api.GET("/options/:name", h.getOption)
		api.GET("/files/:id/content", h.optionalAuth(), h.downloadFile)

		authed := api.Group("", h.requireAuth())
		{
			authed.GET("/me", h.getProfile)
			authed.PUT("/me", h.updateProfile)
			authed.POST("/me/password", h.changePassword)

			authed.GET("/cart", h.listCart)
			authed.POST("/cart/items", h.addCartItem)
			authed.PUT("/cart/items/:productID", h.setCartItemQuantity)
			authed.DELETE("/cart/items/:productID", h.removeCartItem)
			authed.DELETE("/cart", h.clearCart)
			authed.POST("/cart/checkout", h.checkoutCart)

			authed.POST("/orders", h.createOrder)
			authed.GET("/orders", h.listOrders)
			authed.GET("/orders/:id", h.getOrder)
			authed.PATCH("/orders/:id", h.updateOrder)
			authed.DELETE("/orders/:id", h.deleteOrder)

			authed.POST("/files", h.uploadFile)
			authed.GET("/files", h.listFiles)
			authed.PATCH("/files/:id", h.updateFile)
			authed.DELETE("/files/:id", h.deleteFile)

			authed.POST("/workflows", h.createWorkflow)
			authed.POST("/workflows/from-template", h.createWorkflowFromTemplate)
			authed.GET("/workflows", h.listWorkflows)
			authed.GET("/workflows/:id", h.getWorkflow)
			authed.PATCH("/workflows/:id", h.updateWorkflow)
			authed.DELETE("/workflows/:id", h.deleteWorkflow)
			authed.GET("/workflows/:id/steps", h.listWorkflowSteps)
			authed.POST("/workflows/:id/steps", h.addWorkflowStep)
			authed.PATCH("/workflow-steps/:id", h.updateWorkflowStep)
			authed.DELETE("/workflow-steps/:id", h.deleteWorkflowStep)
			authed.GET("/workflows/:id/template-steps", h.listTemplateSteps)
			authed.POST("/workflows/:id/template-steps", h.addTemplateStep)
			authed.PATCH("/template-steps/:id", h.updateTemplateStep)
			authed.DELETE("/template-steps/:id", h.deleteTemplateStep)
		}

		staff := api.Group("", h.requireAuth(), h.requireRole(user.RoleStaff, user.RoleAdmin))
		{
			staff.POST("/products", h.createProduct)
			staff.PUT("/products/:id", h.updateProduct)
			staff.DELETE("/products/:id", h.deleteProduct)
			staff.POST("/categories", h.createCategory)
			staff.PUT("/categories/:id", h.updateCategory)
			staff.DELETE("/categories/:id", h.deleteCategory)
			staff.POST("/discounts", h.createDiscount)
			staff.GET("/discounts", h.listDiscounts)
			staff.GET("/discounts/:id", h.getDiscount)
			staff.PUT("/discounts/:id", h.updateDiscount)
			staff.DELETE("/discounts/:id", h.deleteDiscount)
			staff.POST("/pages", h.createPage)
			staff.PUT("/pages/:id", h.updatePage)
			staff.DELETE("/pages/:id", h.deletePage)
		}

		admin := api.Group("", h.requireAuth(), h.requireRole(user.RoleAdmin))
		{
			admin.GET("/users", h.listUsers)
			admin.GET("/users/:id", h.getUser)
			admin.PUT("/users/:id/role", h.setUserRole)
			admin.DELETE("/users/:id", h.deleteUser)
			admin.GET("/options", h.listOptions)
			admin.PUT("/options/:name", h.setOption)
			admin.DELETE("/options/:name", h.deleteOption)
		}
	}

	return r
}
