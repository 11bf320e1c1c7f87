package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tooswasher/storefront/internal/domain/user"
)

const identityKey = "identity"

// identity is the authenticated caller, extracted from the bearer token.
type identity struct {
	UserID   int64
	Username string
	Role     user.Role
}

// privileged reports whether the caller may act across ownership boundaries.
func (id identity) privileged() bool {
	return id.Role == user.RoleStaff || id.Role == user.RoleAdmin
}

// requireAuth rejects requests without a valid bearer token and stores the
// caller's identity in the request context.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.bearerIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code: "unauthorized", Message: "missing or invalid bearer token",
			})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// optionalAuth stores the caller's identity when a valid token is present but
// lets anonymous requests through.
func (h *Handler) optionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := h.bearerIdentity(c); ok {
			c.Set(identityKey, id)
		}
		c.Next()
	}
}

// requireRole rejects callers whose role is not in the allowed set. Must run
// after requireAuth.
func (h *Handler) requireRole(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := currentIdentity(c)
		for _, role := range roles {
			if id.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, apiError{
			Code: "forbidden", Message: "insufficient role",
		})
	}
}

func (h *Handler) bearerIdentity(c *gin.Context) (identity, bool) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return identity{}, false
	}
	claims, err := h.tokens.Parse(token)
	if err != nil {
		return identity{}, false
	}
	return identity{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     user.Role(claims.Role),
	}, true
}

// currentIdentity returns the caller stored by requireAuth or optionalAuth.
// The zero identity means anonymous.
func currentIdentity(c *gin.Context) identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return identity{}
	}
	id, _ := v.(identity)
	return id
}
