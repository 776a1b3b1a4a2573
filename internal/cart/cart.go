// Package cart holds the per-session shopping cart and its pricing rules.
package cart

import (
	"errors"

	"github.com/shopspring/decimal"
)

// StorageName is the persistence key prefix of a session cart.
const StorageName = "plant-cart"

// PlantingFee is charged once per unit of every line that asks for planting.
var PlantingFee = decimal.RequireFromString("49.99")

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Plant is the catalog snapshot a line carries.
type Plant struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	NurseryID uint            `json:"nurseryId"`
	ImageURL  string          `json:"imageUrl,omitempty"`
}

type Line struct {
	Plant            Plant `json:"plant"`
	Quantity         int   `json:"quantity"`
	RequiresPlanting bool  `json:"requiresPlanting"`
}

// Cart keeps at most one line per plant id, in insertion order.
type Cart struct {
	Items []Line `json:"items"`
}

func New() *Cart {
	return &Cart{Items: make([]Line, 0)}
}

func (c *Cart) find(plantID uint) int {
	for i := range c.Items {
		if c.Items[i].Plant.ID == plantID {
			return i
		}
	}
	return -1
}

// AddItem merges into an existing line (keeping its planting flag) or appends a new one.
func (c *Cart) AddItem(p Plant, quantity int, requiresPlanting bool) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if i := c.find(p.ID); i >= 0 {
		c.Items[i].Quantity += quantity
		return nil
	}
	c.Items = append(c.Items, Line{Plant: p, Quantity: quantity, RequiresPlanting: requiresPlanting})
	return nil
}

func (c *Cart) RemoveItem(plantID uint) {
	i := c.find(plantID)
	if i < 0 {
		return
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

// UpdateQuantity replaces the quantity of an existing line. Absent lines are left alone.
func (c *Cart) UpdateQuantity(plantID uint, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if i := c.find(plantID); i >= 0 {
		c.Items[i].Quantity = quantity
	}
	return nil
}

func (c *Cart) UpdatePlantingService(plantID uint, requiresPlanting bool) {
	if i := c.find(plantID); i >= 0 {
		c.Items[i].RequiresPlanting = requiresPlanting
	}
}

func (c *Cart) Clear() {
	c.Items = make([]Line, 0)
}

func (c *Cart) Line(plantID uint) (Line, bool) {
	if i := c.find(plantID); i >= 0 {
		return c.Items[i], true
	}
	return Line{}, false
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

func (c *Cart) TotalItems() int {
	n := 0
	for _, l := range c.Items {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Items {
		sum = sum.Add(l.Plant.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

func (c *Cart) PlantingServiceFee() decimal.Decimal {
	units := 0
	for _, l := range c.Items {
		if l.RequiresPlanting {
			units += l.Quantity
		}
	}
	return PlantingFee.Mul(decimal.NewFromInt(int64(units)))
}

func (c *Cart) Total() decimal.Decimal {
	return c.Subtotal().Add(c.PlantingServiceFee())
}

// Summary is the read model returned to clients.
type Summary struct {
	Items              []Line          `json:"items"`
	TotalItems         int             `json:"totalItems"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	PlantingServiceFee decimal.Decimal `json:"plantingServiceFee"`
	Total              decimal.Decimal `json:"total"`
}

func (c *Cart) Summary() Summary {
	items := c.Items
	if items == nil {
		items = make([]Line, 0)
	}
	return Summary{
		Items:              items,
		TotalItems:         c.TotalItems(),
		Subtotal:           c.Subtotal(),
		PlantingServiceFee: c.PlantingServiceFee(),
		Total:              c.Total(),
	}
}
