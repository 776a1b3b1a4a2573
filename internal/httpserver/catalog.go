package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/plantshop/internal/logging"
	authmw "github.com/Skotchmaster/plantshop/internal/middleware/auth"
	"github.com/Skotchmaster/plantshop/internal/models"
	"github.com/Skotchmaster/plantshop/internal/service"
	"github.com/Skotchmaster/plantshop/internal/transport"
	"github.com/Skotchmaster/plantshop/internal/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) ListPlants(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog_list")

	q := service.PlantQuery{
		Search:    c.QueryParam("search"),
		Category:  c.QueryParam("category"),
		NurseryID: util.ParseUintDefault(c.QueryParam("nurseryId"), 0),
		Page:      util.ParseIntDefault(c.QueryParam("page"), 0),
		Size:      util.ParseIntDefault(c.QueryParam("size"), 0),
	}
	plants, total, err := h.Svc.ListPlants(ctx, q)
	if err != nil {
		return httpError(l, "list_plants_error", err)
	}
	return c.JSON(http.StatusOK, transport.PlantListResponse{Items: plants, Total: total, Page: q.Page, Size: q.Size})
}

func (h *CatalogHTTP) Categories(c echo.Context) error {
	return c.JSON(http.StatusOK, models.Categories)
}

func (h *CatalogHTTP) GetPlant(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog_get")

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.Svc.GetPlant(ctx, id)
	if err != nil {
		return httpError(l, "get_plant_error", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) SearchPlants(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog_search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	plants, total, err := h.Svc.SearchPlants(ctx, c.QueryParam("q"), page, size)
	if err != nil {
		return httpError(l, "search_error", err)
	}
	return c.JSON(http.StatusOK, transport.PlantListResponse{Items: plants, Total: total, Page: page, Size: size})
}

// CreatePlant accepts JSON or a form post.
func (h *CatalogHTTP) CreatePlant(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog_create")

	actor, ok := authmw.ActorFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
	}

	var req transport.CreatePlantRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_plant_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("create_plant_error", "status", 400, "reason", "validation", "error", err)
		return err
	}

	p, err := h.Svc.CreatePlant(ctx, actor, req)
	if err != nil {
		return httpError(l, "create_plant_error", err)
	}

	l.Info("plant_created", "plant_id", p.ID, "nursery_id", p.NurseryID)
	return c.JSON(http.StatusCreated, p)
}

func (h *CatalogHTTP) PatchPlant(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog_patch")

	actor, ok := authmw.ActorFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req transport.PatchPlantRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("patch_plant_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.Svc.PatchPlant(ctx, actor, id, req)
	if err != nil {
		return httpError(l, "patch_plant_error", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) DeletePlant(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog_delete")

	actor, ok := authmw.ActorFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.Svc.DeletePlant(ctx, actor, id); err != nil {
		return httpError(l, "delete_plant_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
