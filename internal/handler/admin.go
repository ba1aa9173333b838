package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/partier/partier/internal/config"
	"github.com/partier/partier/internal/repository"
)

// AdminHandler serves the super-admin user management panel.
type AdminHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAdminHandler(cfg config.Config, users *repository.UserRepo) *AdminHandler {
	return &AdminHandler{Cfg: cfg, Users: users}
}

// ListUsers handles GET /api/users.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch users"})
	}
	out := make([]userResp, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResp(u))
	}
	return c.JSON(http.StatusOK, out)
}

type createOrganizerReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// CreateOrganizer handles POST /api/organizers: a super admin provisioning
// an organizer account directly.  No session is opened for the new account.
func (h *AdminHandler) CreateOrganizer(c echo.Context) error {
	var req createOrganizerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Username == "" || req.Password == "" || req.Email == "" || req.FullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password/email/fullName required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u := repository.User{
		Username:    req.Username,
		Email:       req.Email,
		FullName:    req.FullName,
		IsOrganizer: true,
	}
	if err := h.Users.Create(ctx, &u, req.Password, h.Cfg.BcryptCost); err != nil {
		switch err {
		case repository.ErrUsernameExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		case repository.ErrEmailExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.JSON(http.StatusCreated, toUserResp(u))
}

// UpdateUser handles PATCH /api/users/:id.  Absent fields are left
// untouched.
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var upd repository.UserUpdate
	if err := c.Bind(&upd); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.Update(ctx, id, upd)
	if err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case repository.ErrEmailExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

type organizerStatusReq struct {
	IsOrganizer *bool `json:"isOrganizer"`
}

// SetOrganizerStatus handles PUT /api/users/:id/organizer-status, toggling
// the organizer flag on an existing account.
func (h *AdminHandler) SetOrganizerStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req organizerStatusReq
	if err := c.Bind(&req); err != nil || req.IsOrganizer == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "isOrganizer required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.Update(ctx, id, repository.UserUpdate{IsOrganizer: req.IsOrganizer})
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}
