// Package apiclient gives the storefront access to the entity gateway, a
// local file-backed stand-in, and a wrapper that switches between them.
package apiclient

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/api"
	"storefront/internal/domain"
)

type Kind int

const (
	KindTransport Kind = iota
	KindNotFound
	KindConflict
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "version conflict"
	case KindValidation:
		return "validation failed"
	default:
		return "transport failure"
	}
}

// Error is the failure half of every client call.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func Is(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

// IsTransport reports whether err means the backend could not be reached
// or answered with something unusable.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	k, ok := KindOf(err)
	return !ok || k == KindTransport
}

// API is the entity surface the storefront consumes. Single-entity getters
// return nil, nil when the entity does not exist.
type API interface {
	ListCustomers(ctx context.Context) ([]*domain.Customer, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	GetCustomerByUsername(ctx context.Context, username string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, c *domain.Customer) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, c *domain.Customer) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error

	ListProducts(ctx context.Context) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	ListOrders(ctx context.Context) ([]*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error)
	CreateOrder(ctx context.Context, o *domain.Order) (*domain.Order, error)
	UpdateOrder(ctx context.Context, o *domain.Order) (*domain.Order, error)
	// UpdateOrderStatus fails with KindConflict when expectedVersion is
	// positive and the order has moved past it.
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, expectedVersion int64) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id string) error

	Upload(ctx context.Context, req api.UploadRequest) (string, error)
	UploadProofOfPayment(ctx context.Context, req api.UploadRequest) (string, error)
}
