package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/partier/partier/internal/config"
	"github.com/partier/partier/internal/middleware"
	"github.com/partier/partier/internal/monitoring"
	"github.com/partier/partier/internal/repository"
	"github.com/partier/partier/internal/session"
	"github.com/partier/partier/internal/utils"
)

// AuthHandler bundles dependencies for the session endpoints.  Passwords
// are bcrypt-hashed on registration and verified with a constant-time
// comparison on login; the plaintext never touches storage.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Sessions *session.Store
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, s *session.Store) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Sessions: s}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResp struct {
	ID           uint64 `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	FullName     string `json:"fullName"`
	IsOrganizer  bool   `json:"isOrganizer"`
	IsSuperAdmin bool   `json:"isSuperAdmin"`
}

func toUserResp(u repository.User) userResp {
	return userResp{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FullName:     u.FullName,
		IsOrganizer:  u.IsOrganizer,
		IsSuperAdmin: u.IsSuperAdmin,
	}
}

// startSession stores a principal for the user and sets the cookie.
func (h *AuthHandler) startSession(c echo.Context, ctx context.Context, u repository.User) error {
	id, err := h.Sessions.Create(ctx, session.Principal{
		UserID:       u.ID,
		Username:     u.Username,
		IsOrganizer:  u.IsOrganizer,
		IsSuperAdmin: u.IsSuperAdmin,
	})
	if err != nil {
		return err
	}
	c.SetCookie(session.Cookie(id, h.Sessions.TTL(), h.Cfg.CookieSecure))
	return nil
}

// Register creates the user and logs them in immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Password == "" || req.Email == "" || req.FullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password/email/fullName required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u := repository.User{Username: req.Username, Email: req.Email, FullName: req.FullName}
	if err := h.Users.Create(ctx, &u, req.Password, h.Cfg.BcryptCost); err != nil {
		switch err {
		case repository.ErrUsernameExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		case repository.ErrEmailExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	if err := h.startSession(c, ctx, u); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "start session failed"})
	}
	return c.JSON(http.StatusCreated, toUserResp(u))
}

// Login verifies credentials and opens a session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if err == repository.ErrNotFound {
			monitoring.TrackLogin("rejected")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid username or password"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		monitoring.TrackLogin("rejected")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid username or password"})
	}
	if err := h.startSession(c, ctx, u); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "start session failed"})
	}
	monitoring.TrackLogin("ok")
	return c.JSON(http.StatusOK, toUserResp(u))
}

// Logout revokes the current session and clears the cookie.  Logging out
// without a session is a no-op success.
func (h *AuthHandler) Logout(c echo.Context) error {
	cookie, err := c.Cookie(session.CookieName)
	if err == nil && cookie.Value != "" {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		_ = h.Sessions.Destroy(ctx, cookie.Value)
	}
	c.SetCookie(session.Cookie("", 0, h.Cfg.CookieSecure))
	return c.NoContent(http.StatusOK)
}

// Me returns the current user, freshly loaded so role changes show up
// without re-login on this endpoint.
func (h *AuthHandler) Me(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	u, err := h.Users.GetByID(ctx, p.UserID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}
