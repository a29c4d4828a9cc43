package apiclient

import (
	"context"
	"log"

	"storefront/internal/api"
	"storefront/internal/domain"
)

// Resilient sends every call to the primary and repeats it against the
// fallback when the primary cannot be reached. Other failures are returned
// unchanged.
type Resilient struct {
	primary  API
	fallback API
}

func NewResilient(primary, fallback API) *Resilient {
	return &Resilient{primary: primary, fallback: fallback}
}

func try[T any](r *Resilient, op string, fn func(API) (T, error)) (T, error) {
	v, err := fn(r.primary)
	if err == nil || !IsTransport(err) || r.fallback == nil {
		return v, err
	}
	log.Printf("gateway unavailable for %s, using local store: %v", op, err)
	return fn(r.fallback)
}

func tryErr(r *Resilient, op string, fn func(API) error) error {
	_, err := try(r, op, func(a API) (struct{}, error) { return struct{}{}, fn(a) })
	return err
}

func (r *Resilient) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	return try(r, "ListCustomers", func(a API) ([]*domain.Customer, error) { return a.ListCustomers(ctx) })
}

func (r *Resilient) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return try(r, "GetCustomer", func(a API) (*domain.Customer, error) { return a.GetCustomer(ctx, id) })
}

func (r *Resilient) GetCustomerByUsername(ctx context.Context, username string) (*domain.Customer, error) {
	return try(r, "GetCustomerByUsername", func(a API) (*domain.Customer, error) { return a.GetCustomerByUsername(ctx, username) })
}

func (r *Resilient) CreateCustomer(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	return try(r, "CreateCustomer", func(a API) (*domain.Customer, error) { return a.CreateCustomer(ctx, c) })
}

func (r *Resilient) UpdateCustomer(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	return try(r, "UpdateCustomer", func(a API) (*domain.Customer, error) { return a.UpdateCustomer(ctx, c) })
}

func (r *Resilient) DeleteCustomer(ctx context.Context, id string) error {
	return tryErr(r, "DeleteCustomer", func(a API) error { return a.DeleteCustomer(ctx, id) })
}

func (r *Resilient) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return try(r, "ListProducts", func(a API) ([]*domain.Product, error) { return a.ListProducts(ctx) })
}

func (r *Resilient) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return try(r, "GetProduct", func(a API) (*domain.Product, error) { return a.GetProduct(ctx, id) })
}

func (r *Resilient) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	return try(r, "CreateProduct", func(a API) (*domain.Product, error) { return a.CreateProduct(ctx, p) })
}

func (r *Resilient) UpdateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	return try(r, "UpdateProduct", func(a API) (*domain.Product, error) { return a.UpdateProduct(ctx, p) })
}

func (r *Resilient) DeleteProduct(ctx context.Context, id string) error {
	return tryErr(r, "DeleteProduct", func(a API) error { return a.DeleteProduct(ctx, id) })
}

func (r *Resilient) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return try(r, "ListOrders", func(a API) ([]*domain.Order, error) { return a.ListOrders(ctx) })
}

func (r *Resilient) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return try(r, "GetOrder", func(a API) (*domain.Order, error) { return a.GetOrder(ctx, id) })
}

func (r *Resilient) ListOrdersByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	return try(r, "ListOrdersByCustomer", func(a API) ([]*domain.Order, error) { return a.ListOrdersByCustomer(ctx, customerID) })
}

func (r *Resilient) CreateOrder(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	return try(r, "CreateOrder", func(a API) (*domain.Order, error) { return a.CreateOrder(ctx, o) })
}

func (r *Resilient) UpdateOrder(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	return try(r, "UpdateOrder", func(a API) (*domain.Order, error) { return a.UpdateOrder(ctx, o) })
}

func (r *Resilient) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, expectedVersion int64) (*domain.Order, error) {
	return try(r, "UpdateOrderStatus", func(a API) (*domain.Order, error) {
		return a.UpdateOrderStatus(ctx, id, status, expectedVersion)
	})
}

func (r *Resilient) DeleteOrder(ctx context.Context, id string) error {
	return tryErr(r, "DeleteOrder", func(a API) error { return a.DeleteOrder(ctx, id) })
}

func (r *Resilient) Upload(ctx context.Context, req api.UploadRequest) (string, error) {
	return try(r, "Upload", func(a API) (string, error) { return a.Upload(ctx, req) })
}

func (r *Resilient) UploadProofOfPayment(ctx context.Context, req api.UploadRequest) (string, error) {
	return try(r, "UploadProofOfPayment", func(a API) (string, error) { return a.UploadProofOfPayment(ctx, req) })
}

var _ API = (*Resilient)(nil)
