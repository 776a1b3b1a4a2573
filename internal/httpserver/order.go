package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/plantshop/internal/logging"
	authmw "github.com/Skotchmaster/plantshop/internal/middleware/auth"
	"github.com/Skotchmaster/plantshop/internal/service"
	"github.com/Skotchmaster/plantshop/internal/transport"
	"github.com/Skotchmaster/plantshop/internal/util"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order_create")

	actor, ok := authmw.ActorFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	orders, err := h.Svc.CreateOrder(ctx, actor, req)
	if err != nil {
		return httpError(l, "create_order_error", err)
	}

	l.Info("orders_created", "customer_id", actor.ID, "orders", len(orders))
	return c.JSON(http.StatusCreated, orders)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order_list")

	actor, ok := authmw.ActorFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	orders, err := h.Svc.ListOrders(ctx, actor, page, size)
	if err != nil {
		return httpError(l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order_get")

	actor, ok := authmw.ActorFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	o, err := h.Svc.GetOrder(ctx, actor, id)
	if err != nil {
		return httpError(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) NurseryOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "nursery_orders")

	actor, ok := authmw.ActorFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
	}
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	orders, err := h.Svc.NurseryOrders(ctx, actor, page, size)
	if err != nil {
		return httpError(l, "nursery_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}
