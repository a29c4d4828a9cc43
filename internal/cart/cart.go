// Package cart holds the session shopping cart and its persistence.
package cart

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductNotFound   = errors.New("product not found")
	ErrItemNotInCart     = errors.New("item is not in the cart")
)

type Cart struct {
	Items []domain.CartItem `json:"items"`
}

func (c *Cart) find(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// Add merges qty into the line for p, or appends a new line. The requested
// quantity is checked against the product stock before anything changes.
func (c *Cart) Add(p *domain.Product, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	if qty > p.StockAvailable {
		return fmt.Errorf("%w: only %d of %s available", ErrInsufficientStock, p.StockAvailable, p.ProductName)
	}

	if i := c.find(p.RowKey); i >= 0 {
		c.Items[i].Quantity += qty
		return nil
	}
	c.Items = append(c.Items, domain.CartItem{
		ProductID:   p.RowKey,
		ProductName: p.ProductName,
		UnitPrice:   p.Price,
		Quantity:    qty,
	})
	return nil
}

// SetQuantity replaces the quantity of an existing line. Zero or less
// removes it.
func (c *Cart) SetQuantity(p *domain.Product, qty int) error {
	i := c.find(p.RowKey)
	if i < 0 {
		return ErrItemNotInCart
	}
	if qty <= 0 {
		c.Remove(p.RowKey)
		return nil
	}
	if qty > p.StockAvailable {
		return fmt.Errorf("%w: only %d of %s available", ErrInsufficientStock, p.StockAvailable, p.ProductName)
	}
	c.Items[i].Quantity = qty
	return nil
}

func (c *Cart) Remove(productID string) {
	if i := c.find(productID); i >= 0 {
		c.Items = append(c.Items[:i:i], c.Items[i+1:]...)
	}
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.TotalPrice())
	}
	return total
}
