package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/plantshop/internal/cart"
	"github.com/Skotchmaster/plantshop/internal/events"
	"github.com/Skotchmaster/plantshop/internal/logging"
	"github.com/Skotchmaster/plantshop/internal/models"
	"github.com/Skotchmaster/plantshop/internal/repo"
	"github.com/Skotchmaster/plantshop/internal/transport"
)

// mergeItems folds repeated plant ids into one line and rejects bad quantities.
func mergeItems(items []transport.CheckoutItem) ([]transport.CheckoutItem, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrValidation)
	}

	merged := make([]transport.CheckoutItem, 0, len(items))
	index := make(map[uint]int, len(items))
	for _, it := range items {
		if it.PlantID == 0 {
			return nil, fmt.Errorf("%w: plantId required", ErrValidation)
		}
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity for plant %d must be at least 1", ErrValidation, it.PlantID)
		}
		if i, ok := index[it.PlantID]; ok {
			merged[i].Quantity += it.Quantity
			merged[i].RequiresPlanting = merged[i].RequiresPlanting || it.RequiresPlanting
			continue
		}
		index[it.PlantID] = len(merged)
		merged = append(merged, it)
	}
	return merged, nil
}

func lineTotal(price decimal.Decimal, qty int, planting bool) decimal.Decimal {
	unit := price
	if planting {
		unit = unit.Add(cart.PlantingFee)
	}
	return unit.Mul(decimal.NewFromInt(int64(qty)))
}

// placeOrders prices the items from the catalog and writes one pending order per
// nursery. Everything happens in a single transaction; commit, when non-nil, runs
// inside it after the rows are written and an error from it rolls them back.
func placeOrders(ctx context.Context, r *repo.GormRepo, customerID uint, items []transport.CheckoutItem, address string,
	commit func(tx *repo.GormRepo, checkoutID string, orders []models.Order) error,
) (string, []models.Order, error) {
	merged, err := mergeItems(items)
	if err != nil {
		return "", nil, err
	}

	checkoutID := uuid.NewString()
	var orders []models.Order

	err = r.InTx(ctx, func(tx *repo.GormRepo) error {
		ids := make([]uint, 0, len(merged))
		for _, it := range merged {
			ids = append(ids, it.PlantID)
		}
		plants, err := tx.PlantsByIDs(ctx, ids)
		if err != nil {
			return err
		}

		byNursery := make(map[uint]int)
		orders = orders[:0]
		for _, it := range merged {
			p, ok := plants[it.PlantID]
			if !ok {
				return fmt.Errorf("%w: plant %d", ErrNotFound, it.PlantID)
			}
			if it.Quantity > p.Stock {
				return fmt.Errorf("%w: only %d of %q left", ErrInsufficientStock, p.Stock, p.Name)
			}

			i, ok := byNursery[p.NurseryID]
			if !ok {
				i = len(orders)
				byNursery[p.NurseryID] = i
				orders = append(orders, models.Order{
					CheckoutID:      checkoutID,
					CustomerID:      customerID,
					NurseryID:       p.NurseryID,
					Status:          models.OrderStatusPending,
					TotalAmount:     decimal.Zero,
					ShippingAddress: strings.TrimSpace(address),
				})
			}

			orders[i].Items = append(orders[i].Items, models.OrderItem{
				PlantID:          p.ID,
				Quantity:         it.Quantity,
				PriceAtTime:      p.Price,
				RequiresPlanting: it.RequiresPlanting,
			})
			orders[i].TotalAmount = orders[i].TotalAmount.Add(lineTotal(p.Price, it.Quantity, it.RequiresPlanting))
		}

		if err := tx.InsertOrders(ctx, orders); err != nil {
			return err
		}
		if commit != nil {
			return commit(tx, checkoutID, orders)
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return checkoutID, orders, nil
}

func publishOrders(ctx context.Context, p *events.Producer, orders []models.Order) {
	l := logging.FromContext(ctx)
	for _, o := range orders {
		if err := p.PublishEvent(ctx, events.TopicOrders, fmt.Sprint(o.ID), events.OrderCreated{
			Type:        events.TypeOrderCreated,
			OrderID:     o.ID,
			CheckoutID:  o.CheckoutID,
			CustomerID:  o.CustomerID,
			NurseryID:   o.NurseryID,
			TotalAmount: o.TotalAmount,
			Items:       len(o.Items),
			At:          time.Now().UTC(),
		}); err != nil {
			l.Warn("publish_failed", "topic", events.TopicOrders, "order_id", o.ID, "error", err)
		}
	}
}
