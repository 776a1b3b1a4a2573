package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/plantshop/internal/logging"
	"github.com/Skotchmaster/plantshop/internal/models"
	"github.com/Skotchmaster/plantshop/internal/service"
	"github.com/Skotchmaster/plantshop/internal/tokens"
)

const (
	actorKey = "actor"
	tokenKey = "user"
)

// Refresher rotates a refresh token into a fresh pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*service.LoginResult, error)
}

type Middleware struct {
	JWTSecret []byte
	Refresher Refresher

	verify echo.MiddlewareFunc
}

func New(secret []byte, refresher Refresher) *Middleware {
	m := &Middleware{JWTSecret: secret, Refresher: refresher}
	m.verify = echojwt.WithConfig(echojwt.Config{
		SigningKey:    secret,
		SigningMethod: echojwt.AlgorithmHS256,
		ContextKey:    tokenKey,
		TokenLookup:   "header:Authorization:Bearer ,cookie:" + tokens.AccessCookie,
		NewClaimsFunc: func(echo.Context) jwt.Claims { return new(tokens.AccessClaims) },
		// errors are resolved by bindActor, which knows whether the route needs a user
		ContinueOnIgnoredError: true,
		ErrorHandler:           m.onTokenError,
	})
	return m
}

// RequireAuth rejects anonymous requests with 401.
func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.verify(m.bindActor(next, true))
}

// OptionalAuth attaches the actor when there is one and lets anonymous requests through.
func (m *Middleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.verify(m.bindActor(next, false))
}

// RequireRole answers 403 to anonymous callers as well as to other roles. Put it
// after OptionalAuth so a valid session is bound first.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
			}
			for _, r := range roles {
				if actor.Role == r {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
		}
	}
}

func ActorFrom(c echo.Context) (models.Actor, bool) {
	a, ok := c.Get(actorKey).(models.Actor)
	return a, ok && a.ID != 0
}

func SetActor(c echo.Context, a models.Actor) {
	c.Set(actorKey, a)
}

func (m *Middleware) bindActor(next echo.HandlerFunc, required bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := ActorFrom(c); ok {
			return next(c)
		}
		if tok, ok := c.Get(tokenKey).(*jwt.Token); ok && tok.Valid {
			if claims, ok := tok.Claims.(*tokens.AccessClaims); ok {
				if err := setActorFromClaims(c, claims, tok.Raw); err == nil {
					return next(c)
				}
			}
		}
		if required {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		return next(c)
	}
}

// onTokenError runs when the access token is missing, expired or invalid. An
// expired or missing access token is renewed from the refresh cookie.
func (m *Middleware) onTokenError(c echo.Context, err error) error {
	l := logging.FromContext(c.Request().Context()).With("middleware", "auth")

	presented := hasAccessToken(c)
	if presented && !errors.Is(err, jwt.ErrTokenExpired) {
		l.Warn("access_token_rejected", "error", err)
		clearAuthCookies(c)
		return nil
	}

	if m.Refresher == nil {
		return nil
	}
	rc, cerr := c.Cookie(tokens.RefreshCookie)
	if cerr != nil || rc.Value == "" {
		return nil
	}

	res, rerr := m.Refresher.Refresh(c.Request().Context(), rc.Value)
	if rerr != nil {
		l.Warn("refresh_failed", "error", rerr)
		clearAuthCookies(c)
		return nil
	}

	claims, perr := tokens.AccessClaimsFromToken(res.AccessToken, m.JWTSecret)
	if perr != nil {
		l.Error("refresh_failed", "reason", "new access token invalid", "error", perr)
		clearAuthCookies(c)
		return nil
	}

	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, res.AccessToken, "/", res.AccessExp))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, res.RefreshToken, "/", res.RefreshExp))
	if err := setActorFromClaims(c, claims, res.AccessToken); err != nil {
		return nil
	}
	l.Info("tokens_refreshed", "user_id", claims.Subject)
	return nil
}

func setActorFromClaims(c echo.Context, claims *tokens.AccessClaims, raw string) error {
	id, err := claims.UserID()
	if err != nil {
		return err
	}
	SetActor(c, models.Actor{ID: id, Role: claims.Role, AccessToken: raw})
	return nil
}

func hasAccessToken(c echo.Context) bool {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ") {
		return true
	}
	ck, err := c.Cookie(tokens.AccessCookie)
	return err == nil && ck.Value != ""
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/"))
}
