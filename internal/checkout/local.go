package checkout

import (
	"context"

	"github.com/Skotchmaster/plantshop/internal/models"
	"github.com/Skotchmaster/plantshop/internal/service"
	"github.com/Skotchmaster/plantshop/internal/transport"
)

// Local calls the checkout service in the same process.
type Local struct {
	Svc *service.CheckoutService
}

func (l Local) Checkout(ctx context.Context, actor models.Actor, req transport.CheckoutRequest) (string, error) {
	res, err := l.Svc.Checkout(ctx, actor, req)
	if err != nil {
		return "", err
	}
	return res.URL, nil
}
