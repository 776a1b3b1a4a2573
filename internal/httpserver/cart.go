package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/plantshop/internal/cart"
	"github.com/Skotchmaster/plantshop/internal/checkout"
	"github.com/Skotchmaster/plantshop/internal/logging"
	authmw "github.com/Skotchmaster/plantshop/internal/middleware/auth"
	"github.com/Skotchmaster/plantshop/internal/models"
	"github.com/Skotchmaster/plantshop/internal/service"
	"github.com/Skotchmaster/plantshop/internal/tokens"
	"github.com/Skotchmaster/plantshop/internal/transport"
)

// CartSessionCookie identifies the browser session that owns a cart.
const CartSessionCookie = "cart_session"

type CartHTTP struct {
	Store        cart.Store
	Catalog      *service.CatalogService
	Orchestrator *checkout.Orchestrator
	Orders       *service.OrderService
	TTL          time.Duration
	LoginURL     string
}

func (h *CartHTTP) sessionID(c echo.Context) string {
	if ck, err := c.Cookie(CartSessionCookie); err == nil && ck.Value != "" {
		if _, err := uuid.Parse(ck.Value); err == nil {
			return ck.Value
		}
	}
	sid := uuid.NewString()
	ttl := h.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	c.SetCookie(tokens.CreateCookie(CartSessionCookie, sid, "/", time.Now().Add(ttl)))
	return sid
}

func (h *CartHTTP) load(c echo.Context) (string, *cart.Cart, error) {
	sid := h.sessionID(c)
	crt, err := h.Store.Load(c.Request().Context(), sid)
	return sid, crt, err
}

func plantIDParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("plantId"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid plantId")
	}
	return uint(id), nil
}

func snapshot(p *models.Plant) cart.Plant {
	return cart.Plant{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		NurseryID: p.NurseryID,
		ImageURL:  p.ImageURL,
	}
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "cart_get")

	_, crt, err := h.load(c)
	if err != nil {
		return httpError(l, "cart_load_error", err)
	}
	if tok, ok := c.Get(CSRFContextKey).(string); ok {
		c.Response().Header().Set(CSRFHeader, tok)
	}
	return c.JSON(http.StatusOK, crt.Summary())
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart_add")

	var req transport.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("cart_add_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.Catalog.GetPlant(ctx, req.PlantID)
	if err != nil {
		return httpError(l, "cart_add_error", err)
	}

	sid, crt, err := h.load(c)
	if err != nil {
		return httpError(l, "cart_load_error", err)
	}
	if err := crt.AddItem(snapshot(p), req.Qty(), req.RequiresPlanting); err != nil {
		return httpError(l, "cart_add_error", err)
	}
	if err := h.Store.Save(ctx, sid, crt); err != nil {
		return httpError(l, "cart_save_error", err)
	}
	return c.JSON(http.StatusOK, crt.Summary())
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart_update")

	plantID, err := plantIDParam(c)
	if err != nil {
		return err
	}
	var req transport.UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("cart_update_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	sid, crt, err := h.load(c)
	if err != nil {
		return httpError(l, "cart_load_error", err)
	}
	if req.Quantity != nil {
		if err := crt.UpdateQuantity(plantID, *req.Quantity); err != nil {
			return httpError(l, "cart_update_error", err)
		}
	}
	if req.RequiresPlanting != nil {
		crt.UpdatePlantingService(plantID, *req.RequiresPlanting)
	}
	if err := h.Store.Save(ctx, sid, crt); err != nil {
		return httpError(l, "cart_save_error", err)
	}
	return c.JSON(http.StatusOK, crt.Summary())
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart_remove")

	plantID, err := plantIDParam(c)
	if err != nil {
		return err
	}
	sid, crt, err := h.load(c)
	if err != nil {
		return httpError(l, "cart_load_error", err)
	}
	crt.RemoveItem(plantID)
	if err := h.Store.Save(ctx, sid, crt); err != nil {
		return httpError(l, "cart_save_error", err)
	}
	return c.JSON(http.StatusOK, crt.Summary())
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart_clear")

	if err := h.Store.Delete(ctx, h.sessionID(c)); err != nil {
		return httpError(l, "cart_clear_error", err)
	}
	return c.JSON(http.StatusOK, cart.New().Summary())
}

// Checkout hands the session cart to the checkout endpoint. The cart is saved
// untouched on every path; only the success page clears it.
func (h *CartHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart_checkout")

	var req transport.CartCheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("cart_checkout_error", "status", 400, "reason", "invalid body", "error", err)
		return c.String(http.StatusBadRequest, "invalid body")
	}

	_, crt, err := h.load(c)
	if err != nil {
		return textError(c, l, "cart_load_error", err)
	}

	var actor *models.Actor
	if a, ok := authmw.ActorFrom(c); ok {
		actor = &a
	}

	url, err := h.Orchestrator.Checkout(ctx, actor, crt, req.ShippingAddress)
	if err != nil {
		if errors.Is(err, checkout.ErrUnauthenticated) {
			l.Warn("cart_checkout_error", "status", 403, "reason", "sign in required")
			return c.JSON(http.StatusForbidden, echo.Map{"message": err.Error(), "redirect": h.loginURL()})
		}
		return textError(c, l, "cart_checkout_error", err)
	}

	l.Info("cart_checkout_redirect", "lines", len(crt.Items))
	return c.JSON(http.StatusOK, transport.CheckoutResponse{URL: url})
}

func (h *CartHTTP) loginURL() string {
	if h.LoginURL != "" {
		return h.LoginURL
	}
	return "/login"
}

// CheckoutSuccess is where the payment provider sends the shopper back.
func (h *CartHTTP) CheckoutSuccess(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout_success")

	sid, crt, err := h.load(c)
	if err != nil {
		return httpError(l, "cart_load_error", err)
	}
	h.Orchestrator.Confirm(crt)
	if err := h.Store.Save(ctx, sid, crt); err != nil {
		return httpError(l, "cart_save_error", err)
	}

	checkoutID := c.QueryParam("checkout_id")
	resp := echo.Map{"message": "order placed", "checkoutId": checkoutID}
	if actor, ok := authmw.ActorFrom(c); ok && checkoutID != "" && h.Orders != nil {
		orders, err := h.Orders.CheckoutOrders(ctx, actor, checkoutID)
		if err != nil {
			return httpError(l, "checkout_orders_error", err)
		}
		resp["orders"] = orders
	}

	l.Info("checkout_confirmed", "checkout_id", checkoutID)
	return c.JSON(http.StatusOK, resp)
}

// CheckoutCancel leaves the cart as it was so the shopper can retry.
func (h *CartHTTP) CheckoutCancel(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "checkout_cancel")

	_, crt, err := h.load(c)
	if err != nil {
		return httpError(l, "cart_load_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "checkout cancelled", "cart": crt.Summary()})
}
