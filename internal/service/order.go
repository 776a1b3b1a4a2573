package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/plantshop/internal/events"
	"github.com/Skotchmaster/plantshop/internal/models"
	"github.com/Skotchmaster/plantshop/internal/repo"
	"github.com/Skotchmaster/plantshop/internal/transport"
	"github.com/Skotchmaster/plantshop/internal/util"
)

type OrderService struct {
	Repo   *repo.GormRepo
	Events *events.Producer
}

// CreateOrder places orders without a payment session. Any price or total the
// client sent is ignored; prices come from the catalog.
func (s *OrderService) CreateOrder(ctx context.Context, actor models.Actor, req transport.CreateOrderRequest) ([]models.Order, error) {
	if actor.ID == 0 {
		return nil, fmt.Errorf("%w: sign in to order", ErrUnauthorized)
	}
	_, orders, err := placeOrders(ctx, s.Repo, actor.ID, req.Items, req.ShippingAddress, nil)
	if err != nil {
		return nil, err
	}
	publishOrders(ctx, s.Events, orders)
	return orders, nil
}

func (s *OrderService) ListOrders(ctx context.Context, actor models.Actor, page, size int) ([]models.Order, error) {
	offset, limit := util.Calculate(page, size)
	return s.Repo.ListCustomerOrders(ctx, actor.ID, limit, offset)
}

func (s *OrderService) NurseryOrders(ctx context.Context, actor models.Actor, page, size int) ([]models.Order, error) {
	if !actor.IsNursery() {
		return nil, fmt.Errorf("%w: nursery dashboard", ErrForbidden)
	}
	offset, limit := util.Calculate(page, size)
	return s.Repo.ListNurseryOrders(ctx, actor.ID, limit, offset)
}

func (s *OrderService) GetOrder(ctx context.Context, actor models.Actor, id uint) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		return nil, err
	}
	if o.CustomerID == actor.ID || (actor.IsNursery() && o.NurseryID == actor.ID) {
		return o, nil
	}
	return nil, fmt.Errorf("%w: order %d", ErrForbidden, id)
}

// CheckoutOrders lists the caller's orders created by one checkout.
func (s *OrderService) CheckoutOrders(ctx context.Context, actor models.Actor, checkoutID string) ([]models.Order, error) {
	all, err := s.Repo.ListOrdersByCheckout(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Order, 0, len(all))
	for _, o := range all {
		if o.CustomerID == actor.ID {
			out = append(out, o)
		}
	}
	return out, nil
}
