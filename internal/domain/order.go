package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusSubmitted  OrderStatus = "Submitted"
	StatusProcessing OrderStatus = "Processing"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

var (
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("order status transition not allowed")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
)

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case StatusSubmitted, StatusProcessing, StatusDelivered, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

var transitions = map[OrderStatus][]OrderStatus{
	StatusSubmitted:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusDelivered, StatusCancelled},
}

// CanTransition reports whether the status machine allows from -> to.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanCancel reports whether a customer may cancel an order in this status.
func (s OrderStatus) CanCancel() bool {
	return s == StatusSubmitted || s == StatusProcessing
}

type OrderItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

func (i OrderItem) TotalPrice() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	Entity
	CustomerID      string          `json:"customerId"`
	Username        string          `json:"username"`
	OrderDate       time.Time       `json:"orderDate"`
	Status          OrderStatus     `json:"status"`
	ShippingAddress string          `json:"shippingAddress"`
	CustomerEmail   string          `json:"customerEmail"`
	OrderItemsJSON  json.RawMessage `json:"orderItemsJson"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
}

// Items decodes the embedded order items payload.
func (o *Order) Items() ([]OrderItem, error) {
	if len(o.OrderItemsJSON) == 0 {
		return nil, nil
	}
	var items []OrderItem
	if err := json.Unmarshal(o.OrderItemsJSON, &items); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	return items, nil
}

// SetItems replaces the items payload and recomputes TotalAmount.
func (o *Order) SetItems(items []OrderItem) error {
	total := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: product %s", ErrInvalidQuantity, it.ProductID)
		}
		total = total.Add(it.TotalPrice())
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	o.OrderItemsJSON = raw
	o.TotalAmount = total
	return nil
}

// Summary is the single-product view of an order, always computed from the
// first item.
type Summary struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	ItemCount   int             `json:"itemCount"`
}

func (o *Order) Summary() Summary {
	items, err := o.Items()
	if err != nil || len(items) == 0 {
		return Summary{}
	}
	first := items[0]
	return Summary{
		ProductID:   first.ProductID,
		ProductName: first.ProductName,
		Quantity:    first.Quantity,
		UnitPrice:   first.UnitPrice,
		ItemCount:   len(items),
	}
}
