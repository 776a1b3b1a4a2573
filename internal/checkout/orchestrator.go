// Package checkout turns a session cart into a payment redirect.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Skotchmaster/plantshop/internal/cart"
	"github.com/Skotchmaster/plantshop/internal/models"
	"github.com/Skotchmaster/plantshop/internal/transport"
)

var (
	ErrUnauthenticated = errors.New("sign in to check out")
	ErrEmptyCart       = errors.New("cart is empty")
)

// Error is a failure reported by the checkout endpoint. Message is its body text.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("checkout failed: %s", http.StatusText(e.Status))
	}
	return e.Message
}

// Checkouter is the checkout endpoint, in process or remote.
type Checkouter interface {
	Checkout(ctx context.Context, actor models.Actor, req transport.CheckoutRequest) (string, error)
}

type Orchestrator struct {
	Backend Checkouter
}

// Serialize drops prices: the server resolves them from the catalog.
func Serialize(c *cart.Cart) []transport.CheckoutItem {
	items := make([]transport.CheckoutItem, 0, len(c.Items))
	for _, l := range c.Items {
		items = append(items, transport.CheckoutItem{
			PlantID:          l.Plant.ID,
			Quantity:         l.Quantity,
			RequiresPlanting: l.RequiresPlanting,
		})
	}
	return items
}

// Checkout never mutates c. On failure the cart is intact and the call can be retried.
func (o *Orchestrator) Checkout(ctx context.Context, actor *models.Actor, c *cart.Cart, shippingAddress string) (string, error) {
	if actor == nil || actor.ID == 0 {
		return "", ErrUnauthenticated
	}
	if c.IsEmpty() {
		return "", ErrEmptyCart
	}

	url, err := o.Backend.Checkout(ctx, *actor, transport.CheckoutRequest{
		Items:           Serialize(c),
		ShippingAddress: shippingAddress,
	})
	if err != nil {
		return "", err
	}
	if url == "" {
		return "", &Error{Status: http.StatusBadGateway, Message: "checkout returned no redirect url"}
	}
	return url, nil
}

// Confirm clears the cart once the shopper lands on the success page.
func (o *Orchestrator) Confirm(c *cart.Cart) {
	c.Clear()
}
