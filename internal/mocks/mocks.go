package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"storefront/internal/api"
	"storefront/internal/domain"
	"storefront/internal/store"
)

type MockEntityStore struct {
	mock.Mock
}

type MockPublisher struct {
	mock.Mock
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockEntityStore) Put(ctx context.Context, rec *store.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockEntityStore) Get(ctx context.Context, kind, partition, row string) (*store.Record, error) {
	args := m.Called(ctx, kind, partition, row)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Record), args.Error(1)
}

func (m *MockEntityStore) List(ctx context.Context, kind string) ([]store.Record, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Record), args.Error(1)
}

func (m *MockEntityStore) Update(ctx context.Context, rec *store.Record, expectedVersion int64) error {
	args := m.Called(ctx, rec, expectedVersion)
	return args.Error(0)
}

func (m *MockEntityStore) Delete(ctx context.Context, kind, partition, row string) error {
	args := m.Called(ctx, kind, partition, row)
	return args.Error(0)
}

func (m *MockPublisher) Publish(ctx context.Context, event string, data any) error {
	args := m.Called(ctx, event, data)
	return args.Error(0)
}

func (m *MockUserRepository) Save(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdatePasswordHash(ctx context.Context, id uint64, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockAPI mocks the storefront's view of the entity gateway.
type MockAPI struct {
	mock.Mock
}

func ret[T any](args mock.Arguments) (T, error) {
	var zero T
	if args.Get(0) == nil {
		return zero, args.Error(1)
	}
	return args.Get(0).(T), args.Error(1)
}

func (m *MockAPI) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	return ret[[]*domain.Customer](m.Called(ctx))
}

func (m *MockAPI) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return ret[*domain.Customer](m.Called(ctx, id))
}

func (m *MockAPI) GetCustomerByUsername(ctx context.Context, username string) (*domain.Customer, error) {
	return ret[*domain.Customer](m.Called(ctx, username))
}

func (m *MockAPI) CreateCustomer(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	return ret[*domain.Customer](m.Called(ctx, c))
}

func (m *MockAPI) UpdateCustomer(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	return ret[*domain.Customer](m.Called(ctx, c))
}

func (m *MockAPI) DeleteCustomer(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAPI) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return ret[[]*domain.Product](m.Called(ctx))
}

func (m *MockAPI) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return ret[*domain.Product](m.Called(ctx, id))
}

func (m *MockAPI) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	return ret[*domain.Product](m.Called(ctx, p))
}

func (m *MockAPI) UpdateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	return ret[*domain.Product](m.Called(ctx, p))
}

func (m *MockAPI) DeleteProduct(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAPI) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return ret[[]*domain.Order](m.Called(ctx))
}

func (m *MockAPI) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return ret[*domain.Order](m.Called(ctx, id))
}

func (m *MockAPI) ListOrdersByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	return ret[[]*domain.Order](m.Called(ctx, customerID))
}

func (m *MockAPI) CreateOrder(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	return ret[*domain.Order](m.Called(ctx, o))
}

func (m *MockAPI) UpdateOrder(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	return ret[*domain.Order](m.Called(ctx, o))
}

func (m *MockAPI) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, expectedVersion int64) (*domain.Order, error) {
	return ret[*domain.Order](m.Called(ctx, id, status, expectedVersion))
}

func (m *MockAPI) DeleteOrder(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAPI) Upload(ctx context.Context, req api.UploadRequest) (string, error) {
	return ret[string](m.Called(ctx, req))
}

func (m *MockAPI) UploadProofOfPayment(ctx context.Context, req api.UploadRequest) (string, error) {
	return ret[string](m.Called(ctx, req))
}
