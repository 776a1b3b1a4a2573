package transport

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/plantshop/internal/models"
)

// Amount is a money value accepted both as a JSON number or string and as a form field.
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	*a = Amount(strings.Trim(string(bytes.TrimSpace(b)), `"`))
	return nil
}

func (a Amount) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(string(a)))
}

type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" form:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" form:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role"     form:"role"     validate:"omitempty,oneof=customer nursery"`
}

type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type CreatePlantRequest struct {
	Name           string `json:"name"           form:"name"           validate:"required,max=200"`
	ScientificName string `json:"scientificName" form:"scientificName" validate:"max=200"`
	Category       string `json:"category"       form:"category"       validate:"required"`
	Description    string `json:"description"    form:"description"`
	Price          Amount `json:"price"          form:"price"          validate:"required"`
	Stock          int    `json:"stock"          form:"stock"          validate:"gte=0"`
	Light          string `json:"light"          form:"light"`
	Water          string `json:"water"          form:"water"`
	Temperature    string `json:"temperature"    form:"temperature"`
	ImageURL       string `json:"imageUrl"       form:"imageUrl"       validate:"omitempty,url"`
}

type PatchPlantRequest struct {
	Name           *string `json:"name,omitempty"`
	ScientificName *string `json:"scientificName,omitempty"`
	Category       *string `json:"category,omitempty"`
	Description    *string `json:"description,omitempty"`
	Price          *Amount `json:"price,omitempty"`
	Stock          *int    `json:"stock,omitempty"`
	Light          *string `json:"light,omitempty"`
	Water          *string `json:"water,omitempty"`
	Temperature    *string `json:"temperature,omitempty"`
	ImageURL       *string `json:"imageUrl,omitempty"`
}

// CheckoutItem never carries a price; the server resolves it.
type CheckoutItem struct {
	PlantID          uint `json:"plantId"`
	Quantity         int  `json:"quantity"`
	RequiresPlanting bool `json:"requiresPlanting"`
}

type CheckoutRequest struct {
	Items           []CheckoutItem `json:"items"`
	ShippingAddress string         `json:"shippingAddress,omitempty"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

// CreateOrderRequest may still carry legacy price/total fields; they are ignored.
type CreateOrderRequest struct {
	Items           []CheckoutItem `json:"items"`
	ShippingAddress string         `json:"shippingAddress"`
}

type PlantListResponse struct {
	Items []models.Plant `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page,omitempty"`
	Size  int            `json:"size,omitempty"`
}

type AddCartItemRequest struct {
	PlantID          uint `json:"plantId"          form:"plantId"`
	Quantity         *int `json:"quantity"         form:"quantity"`
	RequiresPlanting bool `json:"requiresPlanting" form:"requiresPlanting"`
}

// Qty is the requested quantity, 1 when the field was left out. An explicit
// value is returned as sent so that 0 or less can be rejected.
func (r AddCartItemRequest) Qty() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

type UpdateCartItemRequest struct {
	Quantity         *int  `json:"quantity,omitempty"`
	RequiresPlanting *bool `json:"requiresPlanting,omitempty"`
}

type CartCheckoutRequest struct {
	ShippingAddress string `json:"shippingAddress" form:"shippingAddress"`
}
