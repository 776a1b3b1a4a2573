package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/plantshop/internal/logging"
	authmw "github.com/Skotchmaster/plantshop/internal/middleware/auth"
	"github.com/Skotchmaster/plantshop/internal/service"
	"github.com/Skotchmaster/plantshop/internal/transport"
)

type CheckoutHTTP struct {
	Svc *service.CheckoutService
}

// Checkout answers errors as plain text; callers show the body to the shopper.
func (h *CheckoutHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout")

	actor, ok := authmw.ActorFrom(c)
	if !ok {
		l.Warn("checkout_error", "status", 403, "reason", "no session")
		return c.String(http.StatusForbidden, "sign in to check out")
	}

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_error", "status", 400, "reason", "invalid body", "error", err)
		return c.String(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Checkout(ctx, actor, req)
	if err != nil {
		return textError(c, l, "checkout_error", err)
	}

	l.Info("checkout_created", "checkout_id", res.CheckoutID, "customer_id", actor.ID, "orders", len(res.Orders))
	return c.JSON(http.StatusOK, transport.CheckoutResponse{URL: res.URL})
}
