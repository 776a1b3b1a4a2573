package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/plantshop/internal/cart"
	"github.com/Skotchmaster/plantshop/internal/events"
	"github.com/Skotchmaster/plantshop/internal/logging"
	"github.com/Skotchmaster/plantshop/internal/models"
	"github.com/Skotchmaster/plantshop/internal/payment"
	"github.com/Skotchmaster/plantshop/internal/repo"
	"github.com/Skotchmaster/plantshop/internal/transport"
)

type CheckoutService struct {
	Repo       *repo.GormRepo
	Payments   payment.Provider
	Events     *events.Producer
	Currency   string
	SuccessURL string
	CancelURL  string
}

type CheckoutResult struct {
	URL        string
	CheckoutID string
	Orders     []models.Order
}

// Checkout turns the submitted items into pending orders and opens a payment
// session for their combined total. The session is created before the orders
// commit, so a provider failure leaves no rows behind.
func (s *CheckoutService) Checkout(ctx context.Context, actor models.Actor, req transport.CheckoutRequest) (*CheckoutResult, error) {
	l := logging.FromContext(ctx).With("svc", "checkout", "customer_id", actor.ID)

	if actor.ID == 0 {
		return nil, fmt.Errorf("%w: sign in to check out", ErrUnauthorized)
	}

	var (
		redirect string
		amount   decimal.Decimal
	)
	checkoutID, orders, err := placeOrders(ctx, s.Repo, actor.ID, req.Items, req.ShippingAddress,
		func(tx *repo.GormRepo, checkoutID string, orders []models.Order) error {
			session := s.session(ctx, tx, checkoutID, orders)
			amount = session.Amount

			u, err := s.Payments.CreateSession(ctx, session)
			if err != nil {
				l.Error("payment_session_failed", "checkout_id", checkoutID, "error", err)
				return fmt.Errorf("%w: payment provider unavailable", ErrPayment)
			}
			redirect = u
			return nil
		})
	if err != nil {
		return nil, err
	}

	publishOrders(ctx, s.Events, orders)
	l.Info("checkout_created", "checkout_id", checkoutID, "orders", len(orders), "amount", amount.StringFixed(2))

	return &CheckoutResult{URL: redirect, CheckoutID: checkoutID, Orders: orders}, nil
}

func (s *CheckoutService) session(ctx context.Context, r *repo.GormRepo, checkoutID string, orders []models.Order) payment.Session {
	names := plantNames(ctx, r, orders)
	session := payment.Session{
		Reference:  checkoutID,
		Currency:   s.Currency,
		Amount:     decimal.Zero,
		SuccessURL: withQuery(s.SuccessURL, "checkout_id", checkoutID),
		CancelURL:  withQuery(s.CancelURL, "checkout_id", checkoutID),
	}
	plantingUnits := 0
	for _, o := range orders {
		session.Amount = session.Amount.Add(o.TotalAmount)
		for _, it := range o.Items {
			session.Lines = append(session.Lines, payment.LineItem{
				Name:     names[it.PlantID],
				Quantity: it.Quantity,
				Amount:   it.PriceAtTime,
			})
			if it.RequiresPlanting {
				plantingUnits += it.Quantity
			}
		}
	}
	if plantingUnits > 0 {
		session.Lines = append(session.Lines, payment.LineItem{
			Name:     "Planting service",
			Quantity: plantingUnits,
			Amount:   cart.PlantingFee,
		})
	}
	return session
}

func plantNames(ctx context.Context, r *repo.GormRepo, orders []models.Order) map[uint]string {
	var ids []uint
	for _, o := range orders {
		for _, it := range o.Items {
			ids = append(ids, it.PlantID)
		}
	}
	out := make(map[uint]string, len(ids))
	plants, err := r.PlantsByIDs(ctx, ids)
	if err != nil {
		return out
	}
	for id, p := range plants {
		out[id] = p.Name
	}
	return out
}

func withQuery(raw, key, value string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
