package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

type OrderEvent struct {
	OrderID      string          `json:"orderId"`
	CustomerID   string          `json:"customerId"`
	CustomerName string          `json:"customerName"`
	ProductName  string          `json:"productName"`
	Quantity     int             `json:"quantity"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	OrderDate    time.Time       `json:"orderDate"`
	Status       OrderStatus     `json:"status"`
}

func NewOrderEvent(o *Order, customerName string) OrderEvent {
	s := o.Summary()
	return OrderEvent{
		OrderID:      o.RowKey,
		CustomerID:   o.CustomerID,
		CustomerName: customerName,
		ProductName:  s.ProductName,
		Quantity:     s.Quantity,
		TotalPrice:   o.TotalAmount,
		OrderDate:    o.OrderDate,
		Status:       o.Status,
	}
}
