package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RoleCustomer = "customer"
	RoleNursery  = "nursery"
)

const (
	OrderStatusPending = "pending"
)

var ErrInvalidOrderItem = errors.New("order item needs a positive quantity and price")

type Category string

const (
	CategoryIndoor     Category = "indoor"
	CategoryOutdoor    Category = "outdoor"
	CategoryTrees      Category = "trees"
	CategoryShrubs     Category = "shrubs"
	CategoryFlowers    Category = "flowers"
	CategorySucculents Category = "succulents"
	CategoryHerbs      Category = "herbs"
)

var Categories = []Category{
	CategoryIndoor, CategoryOutdoor, CategoryTrees, CategoryShrubs,
	CategoryFlowers, CategorySucculents, CategoryHerbs,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type User struct {
	ID           uint      `gorm:"primaryKey"                json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"      json:"username"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	Role         string    `gorm:"type:varchar(16);not null" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"`
	Token     string `gorm:"uniqueIndex;not null"`
	JTI       string `gorm:"uniqueIndex;not null"`
	UserID    uint   `gorm:"index;not null"`
	ExpiresAt int64  `gorm:"not null"`
	Revoked   bool   `gorm:"not null;default:false"`
}

type Plant struct {
	ID             uint            `gorm:"primaryKey"                             json:"id"`
	Name           string          `gorm:"not null;index"                         json:"name"`
	ScientificName string          `json:"scientificName,omitempty"`
	Category       Category        `gorm:"type:varchar(32);not null;index"        json:"category"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `gorm:"type:numeric(10,2);not null"            json:"price"`
	Stock          int             `gorm:"not null;default:0;check:stock >= 0"    json:"stock"`
	Light          string          `json:"light,omitempty"`
	Water          string          `json:"water,omitempty"`
	Temperature    string          `json:"temperature,omitempty"`
	ImageURL       string          `json:"imageUrl,omitempty"`
	NurseryID      uint            `gorm:"index;not null"                         json:"nurseryId"`
	CreatedAt      time.Time       `gorm:"index"                                  json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type Order struct {
	ID              uint            `gorm:"primaryKey"                  json:"id"`
	CheckoutID      string          `gorm:"type:varchar(36);index;not null" json:"checkoutId"`
	CustomerID      uint            `gorm:"index;not null"              json:"customerId"`
	NurseryID       uint            `gorm:"index;not null"              json:"nurseryId"`
	Status          string          `gorm:"type:varchar(16);not null"   json:"status"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalAmount"`
	ShippingAddress string          `json:"shippingAddress,omitempty"`
	CreatedAt       time.Time       `gorm:"index"                       json:"createdAt"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID"          json:"items,omitempty"`
}

type OrderItem struct {
	ID               uint            `gorm:"primaryKey"                  json:"id"`
	OrderID          uint            `gorm:"index;not null"              json:"orderId"`
	PlantID          uint            `gorm:"index;not null"              json:"plantId"`
	Quantity         int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	PriceAtTime      decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"priceAtTime"`
	RequiresPlanting bool            `gorm:"not null;default:false"      json:"requiresPlanting"`
}

// BeforeCreate keeps a broken line from landing even when the caller skipped validation.
func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.Quantity < 1 || !i.PriceAtTime.IsPositive() {
		return ErrInvalidOrderItem
	}
	return nil
}

// Actor is the authenticated caller of a request.
type Actor struct {
	ID          uint
	Role        string
	AccessToken string
}

func (a Actor) IsNursery() bool { return a.Role == RoleNursery }

// All lists every table for AutoMigrate.
func All() []any {
	return []any{&User{}, &RefreshToken{}, &Plant{}, &Order{}, &OrderItem{}}
}
