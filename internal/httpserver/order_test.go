package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/plantshop/internal/models"
)

func TestCreateOrder_IgnoresClientPrice(t *testing.T) {
	srv := newTestServer(t, false)
	p := srv.seedPlant(t, "Olive Tree", "75.00", 4, 1)
	c := srv.client(t)
	c.signUp("buyer", models.RoleCustomer)

	rec := c.json(http.MethodPost, "/api/orders", map[string]any{
		"items":           []map[string]any{{"plantId": p.ID, "quantity": 2, "price": "0.01"}},
		"totalAmount":     "0.02",
		"shippingAddress": "2 Orchard Rd",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var orders []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	assert.True(t, orders[0].TotalAmount.Equal(decimal.RequireFromString("150")))
	assert.True(t, orders[0].Items[0].PriceAtTime.Equal(decimal.RequireFromString("75")))

	rec = c.json(http.MethodGet, "/api/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	assert.Len(t, orders, 1)
}

func TestCreateOrder_Anonymous(t *testing.T) {
	srv := newTestServer(t, false)
	rec := srv.client(t).json(http.MethodPost, "/api/orders", map[string]any{"items": []any{}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetOrder_Visibility(t *testing.T) {
	srv := newTestServer(t, false)
	nursery := srv.client(t)
	nursery.signUp("green-acres", models.RoleNursery)
	p := srv.seedPlant(t, "Peony", "14.00", 4, nursery.userID())

	buyer := srv.client(t)
	buyer.signUp("buyer", models.RoleCustomer)
	stranger := srv.client(t)
	stranger.signUp("stranger", models.RoleCustomer)

	rec := buyer.json(http.MethodPost, "/api/orders", map[string]any{
		"items": []map[string]any{{"plantId": p.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var orders []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	path := fmt.Sprintf("/api/orders/%d", orders[0].ID)

	assert.Equal(t, http.StatusOK, buyer.json(http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusOK, nursery.json(http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusForbidden, stranger.json(http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, buyer.json(http.MethodGet, "/api/orders/4040", nil).Code)

	rec = nursery.json(http.MethodGet, "/api/nursery/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	assert.Len(t, orders, 1)

	assert.Equal(t, http.StatusForbidden, buyer.json(http.MethodGet, "/api/nursery/orders", nil).Code)
}

func TestCheckoutEndpoint_PlainTextErrors(t *testing.T) {
	srv := newTestServer(t, false)
	c := srv.client(t)

	rec := c.json(http.MethodPost, "/api/checkout", map[string]any{"items": []any{}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "sign in to check out", rec.Body.String())

	c.signUp("buyer", models.RoleCustomer)
	rec = c.json(http.MethodPost, "/api/checkout", map[string]any{
		"items": []map[string]any{{"plantId": 77, "quantity": 1}},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))

	p := srv.seedPlant(t, "Hosta", "11.00", 3, 1)
	rec = c.json(http.MethodPost, "/api/checkout", map[string]any{
		"items": []map[string]any{{"plantId": p.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"url":"http://shop.test/checkout/success?checkout_id=`)
}
