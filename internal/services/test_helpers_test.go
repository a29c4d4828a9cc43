package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/store/filestore"
)

func CreateMockOrder(t *testing.T, username string, qty int, price int64) *domain.Order {
	t.Helper()
	o := &domain.Order{
		CustomerID:      "cust-1",
		Username:        username,
		ShippingAddress: "1 Long Street",
		CustomerEmail:   username + "@example.com",
	}
	require.NoError(t, o.SetItems([]domain.OrderItem{{
		ProductID:   TestProductID,
		ProductName: TestProductName,
		Quantity:    qty,
		UnitPrice:   decimal.NewFromInt(price),
	}}))
	return o
}

func CreateMockProduct(name string, price int64, stock int) *domain.Product {
	return &domain.Product{
		ProductName:    name,
		Description:    "test product",
		Price:          decimal.NewFromInt(price),
		StockAvailable: stock,
	}
}

func openFileStore(t *testing.T) *filestore.Store {
	t.Helper()
	fs, err := filestore.Open(t.TempDir())
	require.NoError(t, err)
	return fs
}

const (
	TestProductID   = "prod-1"
	TestProductName = "Test Product"
)
