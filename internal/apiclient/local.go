package apiclient

import (
	"context"
	"encoding/base64"
	"errors"
	"log"

	"github.com/shopspring/decimal"

	"storefront/internal/api"
	"storefront/internal/blob"
	"storefront/internal/domain"
	"storefront/internal/services"
	"storefront/internal/store"
	"storefront/internal/store/filestore"
)

// Local serves the API from the in-process services, normally over a
// file store under the application data directory.
type Local struct {
	customers *services.CustomerService
	products  *services.ProductService
	orders    *services.OrderService
	blobs     blob.Store
}

func NewLocal(s store.EntityStore, b blob.Store) *Local {
	return &Local{
		customers: services.NewCustomerService(s),
		products:  services.NewProductService(s),
		orders:    services.NewOrderService(s),
		blobs:     b,
	}
}

// OpenLocal opens the file store in dataDir and seeds it when empty.
func OpenLocal(ctx context.Context, dataDir string, b blob.Store) (*Local, error) {
	fs, err := filestore.Open(dataDir)
	if err != nil {
		return nil, err
	}
	l := NewLocal(fs, b)
	if err := l.Seed(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// Seed adds sample products and a sample customer to empty partitions.
func (l *Local) Seed(ctx context.Context) error {
	products, err := l.products.List(ctx)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		for _, p := range sampleProducts() {
			if err := l.products.Create(ctx, p); err != nil {
				return err
			}
		}
		log.Printf("local store: seeded %d products", len(sampleProducts()))
	}

	customers, err := l.customers.List(ctx)
	if err != nil {
		return err
	}
	if len(customers) == 0 {
		c := &domain.Customer{
			Name:            "John",
			Surname:         "Doe",
			Username:        "johndoe",
			Email:           "john@example.com",
			ShippingAddress: "123 Main Street, Johannesburg",
		}
		if err := l.customers.Create(ctx, c); err != nil {
			return err
		}
		log.Printf("local store: seeded sample customer %s", c.Username)
	}
	return nil
}

func sampleProducts() []*domain.Product {
	return []*domain.Product{
		{
			ProductName:    "Wireless Headphones",
			Description:    "Over-ear headphones with noise cancellation",
			Price:          decimal.RequireFromString("1299.99"),
			StockAvailable: 25,
		},
		{
			ProductName:    "Smart Watch",
			Description:    "Fitness tracking and notifications",
			Price:          decimal.RequireFromString("2499.00"),
			StockAvailable: 10,
		},
	}
}

// localErr converts service and store errors into client errors.
func localErr(err error) error {
	switch {
	case err == nil:
		return nil
	case services.IsNotFound(err), errors.Is(err, store.ErrNotFound):
		return &Error{Kind: KindNotFound, Message: err.Error(), Err: err}
	case errors.Is(err, store.ErrVersionConflict):
		return &Error{Kind: KindConflict, Message: api.MsgConflict, Err: err}
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, store.ErrAlreadyExists), errors.Is(err, store.ErrInvalidKey), errors.Is(err, store.ErrKeyCharacters),
		errors.Is(err, blob.ErrEmptyContent), errors.Is(err, blob.ErrInvalidName),
		errors.Is(err, blob.ErrInvalidContainer):
		return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
	default:
		return &Error{Kind: KindTransport, Err: err}
	}
}

func missingAsNil[T any](v *T, err error) (*T, error) {
	if services.IsNotFound(err) {
		return nil, nil
	}
	return v, localErr(err)
}

func (l *Local) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	out, err := l.customers.List(ctx)
	return out, localErr(err)
}

func (l *Local) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return missingAsNil(l.customers.Get(ctx, "", id))
}

func (l *Local) GetCustomerByUsername(ctx context.Context, username string) (*domain.Customer, error) {
	return missingAsNil(l.customers.GetByUsername(ctx, username))
}

func (l *Local) CreateCustomer(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	if err := l.customers.Create(ctx, c); err != nil {
		return nil, localErr(err)
	}
	return c, nil
}

func (l *Local) UpdateCustomer(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	if err := l.customers.Update(ctx, c.RowKey, c); err != nil {
		return nil, localErr(err)
	}
	return c, nil
}

func (l *Local) DeleteCustomer(ctx context.Context, id string) error {
	return localErr(l.customers.Delete(ctx, "", id))
}

func (l *Local) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	out, err := l.products.List(ctx)
	return out, localErr(err)
}

func (l *Local) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return missingAsNil(l.products.Get(ctx, "", id))
}

func (l *Local) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if err := l.products.Create(ctx, p); err != nil {
		return nil, localErr(err)
	}
	return p, nil
}

func (l *Local) UpdateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if err := l.products.Update(ctx, p.RowKey, p); err != nil {
		return nil, localErr(err)
	}
	return p, nil
}

func (l *Local) DeleteProduct(ctx context.Context, id string) error {
	return localErr(l.products.Delete(ctx, "", id))
}

func (l *Local) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	out, err := l.orders.List(ctx)
	return out, localErr(err)
}

func (l *Local) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return missingAsNil(l.orders.Get(ctx, "", id))
}

func (l *Local) ListOrdersByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	out, err := l.orders.ListByCustomer(ctx, customerID)
	return out, localErr(err)
}

func (l *Local) CreateOrder(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	if err := l.orders.Create(ctx, o); err != nil {
		return nil, localErr(err)
	}
	return o, nil
}

func (l *Local) UpdateOrder(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	if err := l.orders.Update(ctx, o.RowKey, o); err != nil {
		return nil, localErr(err)
	}
	return o, nil
}

func (l *Local) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, expectedVersion int64) (*domain.Order, error) {
	o, err := l.orders.UpdateStatus(ctx, "", id, status, expectedVersion)
	if err != nil {
		return nil, localErr(err)
	}
	return o, nil
}

func (l *Local) DeleteOrder(ctx context.Context, id string) error {
	return localErr(l.orders.Delete(ctx, "", id))
}

func (l *Local) Upload(ctx context.Context, req api.UploadRequest) (string, error) {
	container := req.ContainerName
	if container == "" {
		container = blob.ProductImages
	}
	return l.upload(ctx, container, req)
}

func (l *Local) UploadProofOfPayment(ctx context.Context, req api.UploadRequest) (string, error) {
	return l.upload(ctx, blob.ProofOfPayments, req)
}

func (l *Local) upload(ctx context.Context, container string, req api.UploadRequest) (string, error) {
	if l.blobs == nil {
		return "", &Error{Kind: KindTransport, Message: "file storage is not available"}
	}
	data, err := base64.StdEncoding.DecodeString(req.FileData)
	if err != nil {
		return "", &Error{Kind: KindValidation, Message: "file data must be base64 encoded", Err: err}
	}
	name, err := blob.ObjectName(req.FileName)
	if err != nil {
		return "", localErr(err)
	}
	url, err := l.blobs.Upload(ctx, container, name, req.ContentType, data)
	return url, localErr(err)
}

var _ API = (*Local)(nil)
