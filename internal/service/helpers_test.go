package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/plantshop/internal/db/dbtest"
	"github.com/Skotchmaster/plantshop/internal/events"
	"github.com/Skotchmaster/plantshop/internal/models"
	"github.com/Skotchmaster/plantshop/internal/payment"
	"github.com/Skotchmaster/plantshop/internal/repo"
)

var (
	customer = models.Actor{ID: 100, Role: models.RoleCustomer}
	nurseryA = models.Actor{ID: 1, Role: models.RoleNursery}
	nurseryB = models.Actor{ID: 2, Role: models.RoleNursery}
)

func newTestRepo(t *testing.T) *repo.GormRepo {
	return &repo.GormRepo{DB: dbtest.Open(t)}
}

func seedPlant(t *testing.T, r *repo.GormRepo, name, price string, stock int, nursery uint) models.Plant {
	t.Helper()
	p := models.Plant{
		Name:      name,
		Category:  models.CategoryIndoor,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		NurseryID: nursery,
		CreatedAt: time.Now(),
	}
	require.NoError(t, r.CreatePlant(context.Background(), &p))
	return p
}

func countOrders(t *testing.T, r *repo.GormRepo) (orders, items int64) {
	t.Helper()
	require.NoError(t, r.DB.Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, r.DB.Model(&models.OrderItem{}).Count(&items).Error)
	return orders, items
}

type fakeProvider struct {
	sessions []payment.Session
	err      error
}

func (f *fakeProvider) CreateSession(_ context.Context, s payment.Session) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sessions = append(f.sessions, s)
	return "https://pay.example/session/" + s.Reference, nil
}

type fakeIndex struct {
	indexed []uint
	deleted []uint
	hits    []models.Plant
	err     error
}

func (f *fakeIndex) IndexPlant(_ context.Context, p *models.Plant) error {
	f.indexed = append(f.indexed, p.ID)
	return nil
}

func (f *fakeIndex) DeletePlant(_ context.Context, id uint) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ string, _, _ int) (int64, []models.Plant, error) {
	if f.err != nil {
		return 0, nil, f.err
	}
	return int64(len(f.hits)), f.hits, nil
}

var errBoom = errors.New("boom")

func noEvents() *events.Producer { return &events.Producer{} }

func customerWithoutID() models.Actor { return models.Actor{Role: models.RoleCustomer} }
