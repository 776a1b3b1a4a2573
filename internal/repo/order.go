package repo

import (
	"context"

	"github.com/Skotchmaster/plantshop/internal/models"
)

// InsertOrders writes each order header and then its items. Call it on the repo
// handed to InTx so a failure on a later order leaves nothing behind.
func (r *GormRepo) InsertOrders(ctx context.Context, orders []models.Order) error {
	db := r.DB.WithContext(ctx)
	for i := range orders {
		items := orders[i].Items
		orders[i].Items = nil

		if err := db.Create(&orders[i]).Error; err != nil {
			return err
		}

		for j := range items {
			items[j].OrderID = orders[i].ID
		}
		if len(items) > 0 {
			if err := db.Create(&items).Error; err != nil {
				return err
			}
		}
		orders[i].Items = items
	}
	return nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListCustomerOrders(ctx context.Context, customerID uint, limit, offset int) ([]models.Order, error) {
	return r.listOrders(ctx, "customer_id = ?", customerID, limit, offset)
}

func (r *GormRepo) ListNurseryOrders(ctx context.Context, nurseryID uint, limit, offset int) ([]models.Order, error) {
	return r.listOrders(ctx, "nursery_id = ?", nurseryID, limit, offset)
}

func (r *GormRepo) ListOrdersByCheckout(ctx context.Context, checkoutID string) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	err := r.DB.WithContext(ctx).Preload("Items").
		Where("checkout_id = ?", checkoutID).
		Order("id ASC").
		Find(&orders).Error
	return orders, err
}

func (r *GormRepo) listOrders(ctx context.Context, where string, id uint, limit, offset int) ([]models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Preload("Items").
		Where(where, id).
		Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	orders := make([]models.Order, 0)
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
