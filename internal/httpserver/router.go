package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	authmw "github.com/Skotchmaster/plantshop/internal/middleware/auth"
	"github.com/Skotchmaster/plantshop/internal/models"
)

const (
	CSRFHeader     = "X-CSRF-Token"
	CSRFCookie     = "_csrf"
	CSRFContextKey = "csrf"
)

type Deps struct {
	Auth     *AuthHTTP
	Catalog  *CatalogHTTP
	Orders   *OrderHTTP
	Checkout *CheckoutHTTP
	Cart     *CartHTTP

	JWTSecret   []byte
	CSRFEnabled bool
	// Ready reports whether dependencies can serve traffic; nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.Validator = NewValidator()

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := authmw.New(d.JWTSecret, d.Auth.Svc)

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/logout", d.Auth.LogOut)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.GET("/me", d.Auth.Me, authMW.RequireAuth)

	plants := api.Group("/plants")
	plants.GET("", d.Catalog.ListPlants)
	plants.GET("/categories", d.Catalog.Categories)
	plants.GET("/search", d.Catalog.SearchPlants)
	plants.GET("/:id", d.Catalog.GetPlant)

	// nursery-only and checkout actions answer 403 to anonymous callers
	nursery := authmw.RequireRole(models.RoleNursery)
	plants.POST("", d.Catalog.CreatePlant, authMW.OptionalAuth, nursery)
	plants.PATCH("/:id", d.Catalog.PatchPlant, authMW.OptionalAuth, nursery)
	plants.DELETE("/:id", d.Catalog.DeletePlant, authMW.OptionalAuth, nursery)

	api.POST("/checkout", d.Checkout.Checkout, authMW.OptionalAuth)

	orders := api.Group("/orders", authMW.RequireAuth)
	orders.POST("", d.Orders.CreateOrder)
	orders.GET("", d.Orders.ListOrders)
	orders.GET("/:id", d.Orders.GetOrder)

	api.GET("/nursery/orders", d.Orders.NurseryOrders, authMW.OptionalAuth, nursery)

	cart := api.Group("/cart")
	if d.CSRFEnabled {
		cart.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
			TokenLookup:    "header:" + CSRFHeader,
			CookieName:     CSRFCookie,
			CookiePath:     "/",
			CookieHTTPOnly: true,
			CookieSameSite: http.SameSiteLaxMode,
			ContextKey:     CSRFContextKey,
		}))
	}
	cart.GET("", d.Cart.GetCart)
	cart.DELETE("", d.Cart.Clear)
	cart.POST("/items", d.Cart.AddItem)
	cart.PATCH("/items/:plantId", d.Cart.UpdateItem)
	cart.DELETE("/items/:plantId", d.Cart.RemoveItem)
	cart.POST("/checkout", d.Cart.Checkout, authMW.OptionalAuth)

	e.GET("/checkout/success", d.Cart.CheckoutSuccess, authMW.OptionalAuth)
	e.GET("/checkout/cancel", d.Cart.CheckoutCancel)
}
