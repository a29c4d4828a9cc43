package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/mocks"
)

func product(id string, price int64, stock int) *domain.Product {
	return &domain.Product{
		Entity:         domain.Entity{PartitionKey: domain.ProductPartition, RowKey: id},
		ProductName:    "Product " + id,
		Price:          decimal.NewFromInt(price),
		StockAvailable: stock,
	}
}

func TestCart_AddMergesSameProduct(t *testing.T) {
	c := &Cart{}
	a := product("A", 10, 5)

	require.NoError(t, c.Add(a, 2))
	require.NoError(t, c.Add(a, 3))

	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.True(t, c.Total().Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 5, c.Count())
}

func TestCart_AddRejectsOverStockWithoutMutation(t *testing.T) {
	tests := []struct {
		name  string
		start []domain.CartItem
		qty   int
		err   error
	}{
		{name: "new line over stock", qty: 4, err: ErrInsufficientStock},
		{
			name:  "merge path over stock",
			start: []domain.CartItem{{ProductID: "A", ProductName: "Product A", UnitPrice: decimal.NewFromInt(10), Quantity: 1}},
			qty:   4,
			err:   ErrInsufficientStock,
		},
		{name: "zero quantity", qty: 0, err: domain.ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Cart{Items: append([]domain.CartItem(nil), tt.start...)}

			err := c.Add(product("A", 10, 3), tt.qty)

			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.start, c.Items)
		})
	}
}

func TestCart_SetQuantityAndRemove(t *testing.T) {
	c := &Cart{}
	a, b := product("A", 10, 5), product("B", 4, 2)
	require.NoError(t, c.Add(a, 1))
	require.NoError(t, c.Add(b, 1))

	require.NoError(t, c.SetQuantity(a, 4))
	assert.Equal(t, 4, c.Items[0].Quantity)

	err := c.SetQuantity(b, 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 1, c.Items[1].Quantity)

	require.NoError(t, c.SetQuantity(b, 0))
	assert.Len(t, c.Items, 1)

	assert.ErrorIs(t, c.SetQuantity(b, 1), ErrItemNotInCart)

	c.Remove("A")
	assert.True(t, c.IsEmpty())
	assert.True(t, c.Total().IsZero())
}

func TestManager_AddItem(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		qty           int
		setupMocks    func(*mocks.MockAPI)
		expectedError error
		expectedQty   int
	}{
		{
			name: "adds product",
			qty:  2,
			setupMocks: func(m *mocks.MockAPI) {
				m.On("GetProduct", mock.Anything, "A").Return(product("A", 10, 5), nil)
			},
			expectedQty: 2,
		},
		{
			name: "unknown product",
			qty:  1,
			setupMocks: func(m *mocks.MockAPI) {
				m.On("GetProduct", mock.Anything, "A").Return(nil, nil)
			},
			expectedError: ErrProductNotFound,
		},
		{
			name: "over stock",
			qty:  9,
			setupMocks: func(m *mocks.MockAPI) {
				m.On("GetProduct", mock.Anything, "A").Return(product("A", 10, 5), nil)
			},
			expectedError: ErrInsufficientStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(mocks.MockAPI)
			tt.setupMocks(api)
			sessions := NewMemoryStore()
			m := NewManager(sessions, api)

			_, err := m.AddItem(ctx, "s1", "A", tt.qty)

			stored, loadErr := sessions.Load(ctx, "s1")
			require.NoError(t, loadErr)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.True(t, stored.IsEmpty())
				return
			}
			assert.NoError(t, err)
			require.Len(t, stored.Items, 1)
			assert.Equal(t, tt.expectedQty, stored.Items[0].Quantity)
			api.AssertExpectations(t)
		})
	}
}

func TestManager_UpdateRemoveClear(t *testing.T) {
	ctx := context.Background()
	api := new(mocks.MockAPI)
	api.On("GetProduct", mock.Anything, "A").Return(product("A", 10, 5), nil)
	api.On("GetProduct", mock.Anything, "B").Return(product("B", 3, 5), nil)
	m := NewManager(NewMemoryStore(), api)

	_, err := m.AddItem(ctx, "s1", "A", 1)
	require.NoError(t, err)
	_, err = m.AddItem(ctx, "s1", "B", 1)
	require.NoError(t, err)

	c, err := m.UpdateQuantity(ctx, "s1", "A", 3)
	require.NoError(t, err)
	assert.True(t, c.Total().Equal(decimal.NewFromInt(33)))

	c, err = m.UpdateQuantity(ctx, "s1", "B", 0)
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)

	c, err = m.RemoveItem(ctx, "s1", "A")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	_, err = m.AddItem(ctx, "s1", "A", 1)
	require.NoError(t, err)
	require.NoError(t, m.Clear(ctx, "s1"))
	c, err = m.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.StringCmd)
}

func (m *MockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return args.Get(0).(*redis.StatusCmd)
}

func (m *MockRedisClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	return args.Get(0).(*redis.IntCmd)
}

func (m *MockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	args := m.Called(ctx, key, expiration)
	return args.Get(0).(*redis.BoolCmd)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	ttl := 30 * time.Minute

	t.Run("missing cart loads empty", func(t *testing.T) {
		rdb := new(MockRedisClient)
		rdb.On("Get", mock.Anything, "cart:s1").Return(redis.NewStringResult("", redis.Nil))

		c, err := NewRedisStore(rdb, ttl).Load(ctx, "s1")

		assert.NoError(t, err)
		assert.True(t, c.IsEmpty())
	})

	t.Run("load refreshes ttl", func(t *testing.T) {
		rdb := new(MockRedisClient)
		rdb.On("Get", mock.Anything, "cart:s1").Return(redis.NewStringResult(`{"items":[{"productId":"A","quantity":2,"unitPrice":"10"}]}`, nil))
		rdb.On("Expire", mock.Anything, "cart:s1", ttl).Return(redis.NewBoolResult(true, nil))

		c, err := NewRedisStore(rdb, ttl).Load(ctx, "s1")

		require.NoError(t, err)
		require.Len(t, c.Items, 1)
		assert.Equal(t, 2, c.Items[0].Quantity)
		rdb.AssertExpectations(t)
	})

	t.Run("save writes json with ttl", func(t *testing.T) {
		rdb := new(MockRedisClient)
		rdb.On("Set", mock.Anything, "cart:s1", mock.AnythingOfType("[]uint8"), ttl).Return(redis.NewStatusResult("OK", nil))

		c := &Cart{}
		require.NoError(t, c.Add(product("A", 10, 5), 1))
		assert.NoError(t, NewRedisStore(rdb, ttl).Save(ctx, "s1", c))
		rdb.AssertExpectations(t)
	})

	t.Run("saving an empty cart deletes the key", func(t *testing.T) {
		rdb := new(MockRedisClient)
		rdb.On("Del", mock.Anything, []string{"cart:s1"}).Return(redis.NewIntResult(1, nil))

		assert.NoError(t, NewRedisStore(rdb, ttl).Save(ctx, "s1", &Cart{}))
		rdb.AssertExpectations(t)
	})

	t.Run("backend error", func(t *testing.T) {
		rdb := new(MockRedisClient)
		rdb.On("Get", mock.Anything, "cart:s1").Return(redis.NewStringResult("", errors.New("connection refused")))

		_, err := NewRedisStore(rdb, ttl).Load(ctx, "s1")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}
