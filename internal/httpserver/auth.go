package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/plantshop/internal/logging"
	authmw "github.com/Skotchmaster/plantshop/internal/middleware/auth"
	"github.com/Skotchmaster/plantshop/internal/models"
	"github.com/Skotchmaster/plantshop/internal/service"
	"github.com/Skotchmaster/plantshop/internal/tokens"
	"github.com/Skotchmaster/plantshop/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func userResponse(u *models.User) transport.UserResponse {
	return transport.UserResponse{ID: u.ID, Username: u.Username, Role: u.Role}
}

func setSessionCookies(c echo.Context, res *service.LoginResult) {
	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, res.AccessToken, "/", res.AccessExp))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, res.RefreshToken, "/", res.RefreshExp))
}

func clearSessionCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/"))
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "validation", "error", err)
		return err
	}

	user, err := h.Svc.Register(ctx, req.Username, req.Password, req.Role)
	if err != nil {
		return httpError(l, "register_error", err)
	}

	l.Info("register_successful", "user_id", user.ID, "role", user.Role)
	return c.JSON(http.StatusCreated, userResponse(user))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return httpError(l, "login_failed", err)
	}

	setSessionCookies(c, res)
	l.Info("login_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, userResponse(res.User))
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	rc, err := c.Cookie(tokens.RefreshCookie)
	if err != nil || rc.Value == "" {
		l.Warn("refresh_error", "status", 401, "reason", "missing refresh token")
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	res, err := h.Svc.Refresh(ctx, rc.Value)
	if err != nil {
		clearSessionCookies(c)
		return httpError(l, "refresh_error", err)
	}

	setSessionCookies(c, res)
	return c.JSON(http.StatusOK, userResponse(res.User))
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	if rc, err := c.Cookie(tokens.RefreshCookie); err == nil && rc.Value != "" {
		if err := h.Svc.LogOut(ctx, rc.Value); err != nil {
			clearSessionCookies(c)
			l.Error("logout_failed", "status", 500, "reason", "cannot revoke refresh token", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	clearSessionCookies(c)
	l.Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_me")

	actor, ok := authmw.ActorFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	user, err := h.Svc.Me(ctx, actor.ID)
	if err != nil {
		return httpError(l, "me_error", err)
	}
	return c.JSON(http.StatusOK, userResponse(user))
}
