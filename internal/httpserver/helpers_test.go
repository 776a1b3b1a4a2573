package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/plantshop/internal/cart"
	"github.com/Skotchmaster/plantshop/internal/checkout"
	"github.com/Skotchmaster/plantshop/internal/db/dbtest"
	"github.com/Skotchmaster/plantshop/internal/events"
	"github.com/Skotchmaster/plantshop/internal/models"
	"github.com/Skotchmaster/plantshop/internal/payment"
	"github.com/Skotchmaster/plantshop/internal/repo"
	"github.com/Skotchmaster/plantshop/internal/service"
)

type stubProvider struct {
	err error
}

func (p *stubProvider) CreateSession(_ context.Context, s payment.Session) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return s.SuccessURL, nil
}

type testServer struct {
	e        *echo.Echo
	repo     *repo.GormRepo
	store    *cart.MemoryStore
	payments *stubProvider
}

func newTestServer(t *testing.T, csrf bool) *testServer {
	t.Helper()

	r := &repo.GormRepo{DB: dbtest.Open(t)}
	producer := &events.Producer{}
	payments := &stubProvider{}
	store := cart.NewMemoryStore()

	authSvc := &service.AuthService{
		Repo:          r,
		Events:        producer,
		JWTSecret:     []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
	catalogSvc := &service.CatalogService{Repo: r, Events: producer}
	orderSvc := &service.OrderService{Repo: r, Events: producer}
	checkoutSvc := &service.CheckoutService{
		Repo:       r,
		Payments:   payments,
		Events:     producer,
		Currency:   "usd",
		SuccessURL: "http://shop.test/checkout/success",
		CancelURL:  "http://shop.test/checkout/cancel",
	}

	e := echo.New()
	Register(e, &Deps{
		Auth:     &AuthHTTP{Svc: authSvc},
		Catalog:  &CatalogHTTP{Svc: catalogSvc},
		Orders:   &OrderHTTP{Svc: orderSvc},
		Checkout: &CheckoutHTTP{Svc: checkoutSvc},
		Cart: &CartHTTP{
			Store:        store,
			Catalog:      catalogSvc,
			Orchestrator: &checkout.Orchestrator{Backend: checkout.Local{Svc: checkoutSvc}},
			Orders:       orderSvc,
			TTL:          time.Hour,
		},
		JWTSecret:   authSvc.JWTSecret,
		CSRFEnabled: csrf,
	})

	return &testServer{e: e, repo: r, store: store, payments: payments}
}

// client carries cookies between requests the way a browser would.
type client struct {
	t       *testing.T
	srv     *testServer
	cookies map[string]*http.Cookie
	headers map[string]string
}

func (s *testServer) client(t *testing.T) *client {
	return &client{t: t, srv: s, cookies: map[string]*http.Cookie{}, headers: map[string]string{}}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c.srv.e.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = &http.Cookie{Name: ck.Name, Value: ck.Value}
	}
	return rec
}

func (c *client) json(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var rd *strings.Reader
	if body == nil {
		rd = strings.NewReader("")
	} else {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = strings.NewReader(string(b))
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return c.do(req)
}

func (c *client) form(path string, values url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return c.do(req)
}

// signUp registers and logs in a user, leaving the session cookies on the client.
func (c *client) signUp(username, role string) {
	c.t.Helper()
	rec := c.json(http.MethodPost, "/api/auth/register", map[string]string{
		"username": username, "password": "secret-pass", "role": role,
	})
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = c.json(http.MethodPost, "/api/auth/login", map[string]string{
		"username": username, "password": "secret-pass",
	})
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())
}

func (c *client) userID() uint {
	c.t.Helper()
	rec := c.json(http.MethodGet, "/api/auth/me", nil)
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())
	var u struct {
		ID uint `json:"id"`
	}
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &u))
	return u.ID
}

func (s *testServer) seedPlant(t *testing.T, name, price string, stock int, nursery uint) models.Plant {
	t.Helper()
	p := models.Plant{
		Name:      name,
		Category:  models.CategoryIndoor,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		NurseryID: nursery,
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.repo.CreatePlant(context.Background(), &p))
	return p
}

func decodeSummary(t *testing.T, rec *httptest.ResponseRecorder) cart.Summary {
	t.Helper()
	var s cart.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s), rec.Body.String())
	return s
}

func (s *testServer) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.repo.DB.Model(&models.Order{}).Count(&n).Error)
	return n
}
