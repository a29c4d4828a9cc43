package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront/internal/apiclient"
	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/mocks"
	"storefront/internal/store/filestore"
)

func productA() *domain.Product {
	return &domain.Product{
		Entity:          domain.Entity{PartitionKey: domain.ProductPartition, RowKey: "A"},
		ProductName:     "Product A",
		Price:           decimal.NewFromInt(10),
		StockAvailable:  10,
		ProductImageURL: "http://img/a.png",
	}
}

func customer(id, username string) *domain.Customer {
	return &domain.Customer{
		Entity:          domain.Entity{PartitionKey: domain.CustomerPartition, RowKey: id},
		Name:            "Ann",
		Surname:         "Lee",
		Username:        username,
		Email:           username + "@example.com",
		ShippingAddress: "1 Long Street",
	}
}

func fillCart(t *testing.T, carts *cart.Manager, api *mocks.MockAPI) {
	t.Helper()
	api.On("GetProduct", mock.Anything, "A").Return(productA(), nil)
	_, err := carts.AddItem(context.Background(), "s1", "A", 2)
	require.NoError(t, err)
	_, err = carts.AddItem(context.Background(), "s1", "A", 3)
	require.NoError(t, err)
}

func TestService_CreateFromCart(t *testing.T) {
	tests := []struct {
		name          string
		who           Identity
		fill          bool
		setupMocks    func(*mocks.MockAPI, *mocks.MockPublisher)
		expectedError error
	}{
		{
			name: "customer found by id",
			who:  Identity{Username: "ann", CustomerID: "c1"},
			fill: true,
			setupMocks: func(api *mocks.MockAPI, pub *mocks.MockPublisher) {
				api.On("GetCustomer", mock.Anything, "c1").Return(customer("c1", "ann"), nil)
				pub.On("Publish", mock.Anything, domain.EventOrderCreated, mock.Anything).Return(nil)
			},
		},
		{
			name: "falls back to username lookup",
			who:  Identity{Username: "ann", CustomerID: "stale"},
			fill: true,
			setupMocks: func(api *mocks.MockAPI, pub *mocks.MockPublisher) {
				api.On("GetCustomer", mock.Anything, "stale").Return(nil, nil)
				api.On("GetCustomerByUsername", mock.Anything, "ann").Return(customer("c1", "ann"), nil)
				pub.On("Publish", mock.Anything, domain.EventOrderCreated, mock.Anything).Return(nil)
			},
		},
		{
			name: "synthesizes a placeholder customer",
			who:  Identity{Username: "newbie"},
			fill: true,
			setupMocks: func(api *mocks.MockAPI, pub *mocks.MockPublisher) {
				api.On("GetCustomerByUsername", mock.Anything, "newbie").Return(nil, &apiclient.Error{Kind: apiclient.KindTransport})
				api.On("CreateCustomer", mock.Anything, mock.MatchedBy(func(c *domain.Customer) bool {
					return c.Username == "newbie" && c.Email == "newbie@abcretailers.com" && c.ShippingAddress == "Address not provided"
				})).Return(customer("c9", "newbie"), nil)
				pub.On("Publish", mock.Anything, domain.EventOrderCreated, mock.Anything).Return(errors.New("broker down"))
			},
		},
		{
			name:          "empty cart creates no order",
			who:           Identity{Username: "ann", CustomerID: "c1"},
			setupMocks:    func(api *mocks.MockAPI, pub *mocks.MockPublisher) {},
			expectedError: ErrEmptyCart,
		},
		{
			name: "identity cannot be resolved",
			who:  Identity{Username: "ghost"},
			fill: true,
			setupMocks: func(api *mocks.MockAPI, pub *mocks.MockPublisher) {
				api.On("GetCustomerByUsername", mock.Anything, "ghost").Return(nil, nil)
				api.On("CreateCustomer", mock.Anything, mock.Anything).Return(nil, &apiclient.Error{Kind: apiclient.KindTransport})
			},
			expectedError: ErrIdentityUnresolved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			api := new(mocks.MockAPI)
			pub := new(mocks.MockPublisher)
			carts := cart.NewManager(cart.NewMemoryStore(), api)
			if tt.fill {
				fillCart(t, carts, api)
			}
			tt.setupMocks(api, pub)

			var saved *domain.Order
			stored := &domain.Order{}
			api.On("CreateOrder", mock.Anything, mock.AnythingOfType("*domain.Order")).Run(func(args mock.Arguments) {
				*stored = *args.Get(1).(*domain.Order)
				stored.RowKey = "o1"
				saved = stored
			}).Return(stored, nil).Maybe()

			svc := NewService(api, carts, pub)
			order, err := svc.CreateFromCart(ctx, "s1", tt.who)
			svc.Wait()

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, order)
				api.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
				pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, saved)
			assert.Equal(t, domain.StatusSubmitted, saved.Status)
			assert.Equal(t, tt.who.Username, saved.Username)
			assert.True(t, saved.TotalAmount.Equal(decimal.NewFromInt(50)))

			items, err := saved.Items()
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, "A", items[0].ProductID)
			assert.Equal(t, 5, items[0].Quantity)
			assert.Equal(t, "http://img/a.png", items[0].ImageURL)

			left, err := carts.Get(ctx, "s1")
			require.NoError(t, err)
			assert.True(t, left.IsEmpty())
			pub.AssertExpectations(t)
		})
	}
}

func orderFor(id, username string, status domain.OrderStatus, at time.Time) *domain.Order {
	o := &domain.Order{
		Entity:    domain.Entity{PartitionKey: domain.OrderPartition, RowKey: id, Version: 1},
		Username:  username,
		Status:    status,
		OrderDate: at,
	}
	_ = o.SetItems([]domain.OrderItem{{ProductID: "A", ProductName: "Product A", Quantity: 1, UnitPrice: decimal.NewFromInt(10)}})
	return o
}

func TestService_Cancel(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name          string
		order         *domain.Order
		who           Identity
		expectUpdate  bool
		expectedError error
	}{
		{name: "owner cancels submitted", order: orderFor("o1", "ann", domain.StatusSubmitted, now), who: Identity{Username: "ann"}, expectUpdate: true},
		{name: "owner cancels processing", order: orderFor("o1", "ann", domain.StatusProcessing, now), who: Identity{Username: "ann"}, expectUpdate: true},
		{name: "owner matched ignoring case", order: orderFor("o1", "Ann", domain.StatusSubmitted, now), who: Identity{Username: "ann"}, expectUpdate: true},
		{name: "delivered cannot be cancelled", order: orderFor("o1", "ann", domain.StatusDelivered, now), who: Identity{Username: "ann"}, expectedError: ErrCannotCancel},
		{name: "other user", order: orderFor("o1", "ann", domain.StatusSubmitted, now), who: Identity{Username: "bob"}, expectedError: ErrForbidden},
		{name: "admin identity is not an owner", order: orderFor("o1", "ann", domain.StatusSubmitted, now), who: Identity{Username: "admin", IsAdmin: true}, expectedError: ErrForbidden},
		{name: "missing order", who: Identity{Username: "ann"}, expectedError: ErrOrderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(mocks.MockAPI)
			pub := new(mocks.MockPublisher)
			api.On("GetOrder", mock.Anything, "o1").Return(tt.order, nil)
			if tt.expectUpdate {
				cancelled := *tt.order
				cancelled.Status = domain.StatusCancelled
				api.On("UpdateOrderStatus", mock.Anything, "o1", domain.StatusCancelled, int64(1)).Return(&cancelled, nil)
				pub.On("Publish", mock.Anything, domain.EventOrderStatusChanged, mock.Anything).Return(nil)
			}

			svc := NewService(api, cart.NewManager(cart.NewMemoryStore(), api), pub)
			got, err := svc.Cancel(context.Background(), "o1", tt.who)
			svc.Wait()

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				api.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.StatusCancelled, got.Status)
			assert.JSONEq(t, string(tt.order.OrderItemsJSON), string(got.OrderItemsJSON))
			api.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestService_AdminUpdateStatus(t *testing.T) {
	api := new(mocks.MockAPI)
	pub := new(mocks.MockPublisher)
	delivered := orderFor("o1", "ann", domain.StatusDelivered, time.Now())
	api.On("GetOrder", mock.Anything, "o1").Return(delivered, nil)
	reopened := *delivered
	reopened.Status = domain.StatusProcessing
	api.On("UpdateOrderStatus", mock.Anything, "o1", domain.StatusProcessing, int64(1)).Return(&reopened, nil)
	pub.On("Publish", mock.Anything, domain.EventOrderStatusChanged, mock.Anything).Return(nil)

	svc := NewService(api, nil, pub)

	got, err := svc.UpdateStatus(context.Background(), "o1", domain.StatusProcessing)
	svc.Wait()
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, got.Status)

	_, err = svc.UpdateStatus(context.Background(), "o1", "Lost")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestService_MyOrders(t *testing.T) {
	now := time.Now()
	api := new(mocks.MockAPI)
	api.On("ListOrders", mock.Anything).Return([]*domain.Order{
		orderFor("old", "ann", domain.StatusDelivered, now.Add(-48*time.Hour)),
		orderFor("other", "bob", domain.StatusSubmitted, now),
		orderFor("new", "ann", domain.StatusSubmitted, now),
		orderFor("mid", "ANN", domain.StatusProcessing, now.Add(-time.Hour)),
	}, nil)

	svc := NewService(api, nil, nil)
	orders, err := svc.MyOrders(context.Background(), "ann")

	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "new", orders[0].RowKey)
	assert.Equal(t, "mid", orders[1].RowKey)
	assert.Equal(t, "old", orders[2].RowKey)
}

// deliverFirst delivers the order through the admin path right before the
// wrapped status write runs.
type deliverFirst struct {
	apiclient.API
}

func (d deliverFirst) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, expectedVersion int64) (*domain.Order, error) {
	if _, err := d.API.UpdateOrderStatus(ctx, id, domain.StatusDelivered, 0); err != nil {
		return nil, err
	}
	return d.API.UpdateOrderStatus(ctx, id, status, expectedVersion)
}

func TestService_CancelLosesToConcurrentDelivery(t *testing.T) {
	ctx := context.Background()
	fs, err := filestore.Open(t.TempDir())
	require.NoError(t, err)
	local := apiclient.NewLocal(fs, nil)

	created, err := local.CreateOrder(ctx, orderFor("", "ann", domain.StatusSubmitted, time.Now()))
	require.NoError(t, err)

	pub := new(mocks.MockPublisher)
	svc := NewService(deliverFirst{API: local}, nil, pub)

	_, err = svc.Cancel(ctx, created.RowKey, Identity{Username: "ann"})
	svc.Wait()

	assert.True(t, apiclient.Is(err, apiclient.KindConflict), "got %v", err)
	stored, err := local.GetOrder(ctx, created.RowKey)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, stored.Status)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}
