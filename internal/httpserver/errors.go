package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/plantshop/internal/cart"
	"github.com/Skotchmaster/plantshop/internal/checkout"
	"github.com/Skotchmaster/plantshop/internal/service"
)

func statusFor(err error) int {
	var cerr *checkout.Error
	switch {
	case errors.As(err, &cerr):
		return cerr.Status
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden), errors.Is(err, checkout.ErrUnauthenticated):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, service.ErrPayment):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// messageFor hides internal errors from clients.
func messageFor(code int, err error) string {
	if code == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

func httpError(l *slog.Logger, event string, err error) error {
	code := statusFor(err)
	if code >= 500 {
		l.Error(event, "status", code, "error", err)
	} else {
		l.Warn(event, "status", code, "error", err)
	}
	return echo.NewHTTPError(code, messageFor(code, err))
}

// textError answers checkout calls, whose errors are plain text bodies.
func textError(c echo.Context, l *slog.Logger, event string, err error) error {
	code := statusFor(err)
	if code >= 500 {
		l.Error(event, "status", code, "error", err)
	} else {
		l.Warn(event, "status", code, "error", err)
	}
	return c.String(code, messageFor(code, err))
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}
