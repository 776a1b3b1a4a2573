package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/plantshop/internal/models"
	"github.com/Skotchmaster/plantshop/internal/transport"
)

func TestCart_AddUpdateRemove(t *testing.T) {
	srv := newTestServer(t, false)
	p := srv.seedPlant(t, "Pothos", "10.00", 20, 1)
	c := srv.client(t)

	rec := c.json(http.MethodPost, "/api/cart/items", map[string]any{"plantId": p.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, c.cookies, CartSessionCookie)

	rec = c.json(http.MethodPost, "/api/cart/items", map[string]any{"plantId": p.ID, "quantity": 1, "requiresPlanting": true})
	s := decodeSummary(t, rec)
	require.Len(t, s.Items, 1)
	assert.Equal(t, 3, s.Items[0].Quantity)
	assert.False(t, s.Items[0].RequiresPlanting, "adding to an existing line keeps its planting flag")

	path := fmt.Sprintf("/api/cart/items/%d", p.ID)
	rec = c.json(http.MethodPatch, path, map[string]any{"requiresPlanting": true})
	s = decodeSummary(t, rec)
	assert.Equal(t, 3, s.TotalItems)
	assert.True(t, s.Subtotal.Equal(decimal.RequireFromString("30")))
	assert.True(t, s.PlantingServiceFee.Equal(decimal.RequireFromString("149.97")))
	assert.True(t, s.Total.Equal(decimal.RequireFromString("179.97")))

	rec = c.json(http.MethodDelete, path, nil)
	s = decodeSummary(t, rec)
	assert.Empty(t, s.Items)
	assert.True(t, s.Total.IsZero())
}

func TestCart_InvalidQuantityLeavesCart(t *testing.T) {
	srv := newTestServer(t, false)
	p := srv.seedPlant(t, "Calathea", "18.00", 5, 1)
	c := srv.client(t)

	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/api/cart/items", map[string]any{"plantId": p.ID, "quantity": 2}).Code)

	path := fmt.Sprintf("/api/cart/items/%d", p.ID)
	assert.Equal(t, http.StatusBadRequest, c.json(http.MethodPatch, path, map[string]any{"quantity": 0}).Code)
	assert.Equal(t, http.StatusBadRequest, c.json(http.MethodPost, "/api/cart/items", map[string]any{"plantId": p.ID, "quantity": -1}).Code)
	assert.Equal(t, http.StatusBadRequest, c.json(http.MethodPost, "/api/cart/items", map[string]any{"plantId": p.ID, "quantity": 0}).Code)

	s := decodeSummary(t, c.json(http.MethodGet, "/api/cart", nil))
	require.Len(t, s.Items, 1)
	assert.Equal(t, 2, s.Items[0].Quantity)
}

func TestCart_UnknownPlant(t *testing.T) {
	srv := newTestServer(t, false)
	rec := srv.client(t).json(http.MethodPost, "/api/cart/items", map[string]any{"plantId": 999, "quantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCart_SessionsAreIsolated(t *testing.T) {
	srv := newTestServer(t, false)
	p := srv.seedPlant(t, "Ivy", "6.00", 5, 1)

	a := srv.client(t)
	require.Equal(t, http.StatusOK, a.json(http.MethodPost, "/api/cart/items", map[string]any{"plantId": p.ID}).Code)

	b := srv.client(t)
	s := decodeSummary(t, b.json(http.MethodGet, "/api/cart", nil))
	assert.Empty(t, s.Items)

	s = decodeSummary(t, a.json(http.MethodGet, "/api/cart", nil))
	require.Len(t, s.Items, 1)
	assert.Equal(t, 1, s.Items[0].Quantity, "a missing quantity adds one")

	s = decodeSummary(t, a.json(http.MethodDelete, "/api/cart", nil))
	assert.Empty(t, s.Items)
	s = decodeSummary(t, a.json(http.MethodGet, "/api/cart", nil))
	assert.Empty(t, s.Items)
}

func TestCartCheckout_RequiresSignIn(t *testing.T) {
	srv := newTestServer(t, false)
	p := srv.seedPlant(t, "Cactus", "4.00", 5, 1)
	c := srv.client(t)
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/api/cart/items", map[string]any{"plantId": p.ID}).Code)

	rec := c.json(http.MethodPost, "/api/cart/checkout", map[string]any{})
	require.Equal(t, http.StatusForbidden, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/login", body["redirect"])
	assert.Zero(t, srv.orderCount(t))
}

func TestCartCheckout_EmptyCart(t *testing.T) {
	srv := newTestServer(t, false)
	c := srv.client(t)
	c.signUp("buyer", models.RoleCustomer)

	rec := c.json(http.MethodPost, "/api/cart/checkout", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "cart is empty", rec.Body.String())
}

func TestCartCheckout_FailureKeepsCart(t *testing.T) {
	srv := newTestServer(t, false)
	p := srv.seedPlant(t, "Orchid", "30.00", 1, 1)
	c := srv.client(t)
	c.signUp("buyer", models.RoleCustomer)

	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/api/cart/items", map[string]any{"plantId": p.ID, "quantity": 2}).Code)

	rec := c.json(http.MethodPost, "/api/cart/checkout", map[string]any{})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, rec.Body.String(), "insufficient stock")

	s := decodeSummary(t, c.json(http.MethodGet, "/api/cart", nil))
	require.Len(t, s.Items, 1)
	assert.Equal(t, 2, s.Items[0].Quantity)
	assert.Zero(t, srv.orderCount(t))
}

func TestCartCheckout_PaymentFailureKeepsCart(t *testing.T) {
	srv := newTestServer(t, false)
	p := srv.seedPlant(t, "Bonsai", "60.00", 3, 1)
	c := srv.client(t)
	c.signUp("buyer", models.RoleCustomer)
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/api/cart/items", map[string]any{"plantId": p.ID}).Code)

	srv.payments.err = errors.New("provider down at https://psp.internal/sessions")
	for i := 0; i < 3; i++ {
		rec := c.json(http.MethodPost, "/api/cart/checkout", map[string]any{})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "payment failed: payment provider unavailable", rec.Body.String())
	}
	assert.Zero(t, srv.orderCount(t), "a failed payment session leaves no orders")

	s := decodeSummary(t, c.json(http.MethodGet, "/api/cart", nil))
	assert.Len(t, s.Items, 1)

	srv.payments.err = nil
	rec := c.json(http.MethodPost, "/api/cart/checkout", map[string]any{})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, srv.orderCount(t))
}

func TestCartCheckout_SuccessThenConfirm(t *testing.T) {
	srv := newTestServer(t, false)
	a := srv.seedPlant(t, "Lavender", "8.00", 10, 1)
	b := srv.seedPlant(t, "Maple", "120.00", 2, 2)
	c := srv.client(t)
	c.signUp("buyer", models.RoleCustomer)

	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/api/cart/items", map[string]any{"plantId": a.ID, "quantity": 3}).Code)
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/api/cart/items", map[string]any{"plantId": b.ID, "quantity": 1, "requiresPlanting": true}).Code)

	rec := c.json(http.MethodPost, "/api/cart/checkout", map[string]any{"shippingAddress": "1 Garden Way"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp transport.CheckoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, strings.HasPrefix(resp.URL, "http://shop.test/checkout/success?checkout_id="), resp.URL)
	assert.EqualValues(t, 2, srv.orderCount(t))

	s := decodeSummary(t, c.json(http.MethodGet, "/api/cart", nil))
	assert.Len(t, s.Items, 2, "cart survives until the success page")

	successPath := strings.TrimPrefix(resp.URL, "http://shop.test")
	rec = c.json(http.MethodGet, successPath, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var confirm struct {
		CheckoutID string         `json:"checkoutId"`
		Orders     []models.Order `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &confirm))
	assert.NotEmpty(t, confirm.CheckoutID)
	assert.Len(t, confirm.Orders, 2)

	s = decodeSummary(t, c.json(http.MethodGet, "/api/cart", nil))
	assert.Empty(t, s.Items)
}

func TestCheckoutCancel_KeepsCart(t *testing.T) {
	srv := newTestServer(t, false)
	p := srv.seedPlant(t, "Basil", "3.00", 10, 1)
	c := srv.client(t)
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/api/cart/items", map[string]any{"plantId": p.ID}).Code)

	rec := c.json(http.MethodGet, "/checkout/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	s := decodeSummary(t, c.json(http.MethodGet, "/api/cart", nil))
	assert.Len(t, s.Items, 1)
}

func TestCart_CSRF(t *testing.T) {
	srv := newTestServer(t, true)
	p := srv.seedPlant(t, "Thyme", "3.00", 10, 1)
	c := srv.client(t)

	rec := c.json(http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get(CSRFHeader)
	require.NotEmpty(t, token)
	require.Contains(t, c.cookies, CSRFCookie)

	rec = c.json(http.MethodPost, "/api/cart/items", map[string]any{"plantId": p.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c.headers[CSRFHeader] = "forged"
	rec = c.json(http.MethodPost, "/api/cart/items", map[string]any{"plantId": p.ID})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	c.headers[CSRFHeader] = token
	rec = c.json(http.MethodPost, "/api/cart/items", map[string]any{"plantId": p.ID})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
