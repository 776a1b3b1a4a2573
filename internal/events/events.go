package events

import (
	"time"

	"github.com/shopspring/decimal"
)

type UserRegistered struct {
	Type     string    `json:"type"`
	UserID   uint      `json:"userId"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	At       time.Time `json:"at"`
}

type PlantChanged struct {
	Type      string          `json:"type"`
	PlantID   uint            `json:"plantId"`
	NurseryID uint            `json:"nurseryId"`
	Name      string          `json:"name,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	At        time.Time       `json:"at"`
}

type OrderCreated struct {
	Type        string          `json:"type"`
	OrderID     uint            `json:"orderId"`
	CheckoutID  string          `json:"checkoutId"`
	CustomerID  uint            `json:"customerId"`
	NurseryID   uint            `json:"nurseryId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Items       int             `json:"items"`
	At          time.Time       `json:"at"`
}

const (
	TypeUserRegistered = "user_registered"
	TypePlantCreated   = "plant_created"
	TypePlantUpdated   = "plant_updated"
	TypePlantDeleted   = "plant_deleted"
	TypeOrderCreated   = "order_created"
)
