package apiclient

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/api"
	"storefront/internal/blob"
	gateway "storefront/internal/controllers/http"
	"storefront/internal/domain"
	"storefront/internal/services"
	"storefront/internal/store/filestore"
)

func newGateway(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := filestore.Open(t.TempDir())
	require.NoError(t, err)
	h := gateway.NewHandler(
		services.NewCustomerService(s),
		services.NewProductService(s),
		services.NewOrderService(s),
		blob.NewLocalStore(t.TempDir(), "http://blobs.test"),
	)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClient_RoundTrip(t *testing.T) {
	ctx := context.Background()
	srv := newGateway(t)
	c := NewHTTPClient(srv.URL+"/api/", 2*time.Second)

	p, err := c.CreateProduct(ctx, &domain.Product{ProductName: "Mug", Price: decimal.NewFromInt(10), StockAvailable: 3})
	require.NoError(t, err)
	require.NotEmpty(t, p.RowKey)

	got, err := c.GetProduct(ctx, p.RowKey)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Mug", got.ProductName)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(10)))

	missing, err := c.GetProduct(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	got.StockAvailable = 2
	_, err = c.UpdateProduct(ctx, got)
	require.NoError(t, err)

	stale := *got
	stale.Version = 1
	_, err = c.UpdateProduct(ctx, &stale)
	assert.True(t, Is(err, KindConflict), "got %v", err)

	_, err = c.CreateCustomer(ctx, &domain.Customer{Username: "ann"})
	assert.True(t, Is(err, KindValidation), "got %v", err)

	_, err = c.UpdateOrderStatus(ctx, "nope", domain.StatusProcessing, 0)
	assert.True(t, Is(err, KindNotFound), "got %v", err)

	order := &domain.Order{Username: "ann"}
	require.NoError(t, order.SetItems([]domain.OrderItem{{ProductID: p.RowKey, ProductName: "Mug", Quantity: 1, UnitPrice: decimal.NewFromInt(10)}}))
	order, err = c.CreateOrder(ctx, order)
	require.NoError(t, err)

	processing, err := c.UpdateOrderStatus(ctx, order.RowKey, domain.StatusProcessing, order.Version)
	require.NoError(t, err)
	assert.Equal(t, order.Version+1, processing.Version)

	_, err = c.UpdateOrderStatus(ctx, order.RowKey, domain.StatusCancelled, order.Version)
	assert.True(t, Is(err, KindConflict), "got %v", err)
	current, err := c.GetOrder(ctx, order.RowKey)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, current.Status)

	url, err := c.Upload(ctx, api.UploadRequest{FileName: "a.png", FileData: base64.StdEncoding.EncodeToString([]byte("x"))})
	require.NoError(t, err)
	assert.Contains(t, url, "/product-images/")
}

func TestHTTPClient_TransportFailures(t *testing.T) {
	ctx := context.Background()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer broken.Close()

	_, err := NewHTTPClient(broken.URL, time.Second).ListProducts(ctx)
	assert.True(t, IsTransport(err))

	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	_, err = NewHTTPClient(closed.URL, time.Second).ListCustomers(ctx)
	assert.True(t, IsTransport(err))
}

func TestLocal_Seeds(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	l, err := OpenLocal(ctx, dir, nil)
	require.NoError(t, err)

	products, err := l.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2)

	c, err := l.GetCustomerByUsername(ctx, "johndoe")
	require.NoError(t, err)
	require.NotNil(t, c)

	// reopening must not seed twice
	l, err = OpenLocal(ctx, dir, nil)
	require.NoError(t, err)
	products, err = l.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestResilient_FallsBackOnTransportOnly(t *testing.T) {
	ctx := context.Background()

	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()

	local, err := OpenLocal(ctx, t.TempDir(), nil)
	require.NoError(t, err)

	r := NewResilient(NewHTTPClient(down.URL, time.Second), local)

	products, err := r.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2)

	created, err := r.CreateCustomer(ctx, &domain.Customer{Username: "bob", Email: "bob@example.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.CustomerPartition, created.PartitionKey)

	// a live gateway answering with a validation error is not retried locally
	live := NewResilient(NewHTTPClient(newGateway(t).URL+"/api", time.Second), local)
	_, err = live.CreateCustomer(ctx, &domain.Customer{Username: "carl"})
	assert.True(t, Is(err, KindValidation))

	c, err := local.GetCustomerByUsername(ctx, "carl")
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestErrorKinds(t *testing.T) {
	assert.True(t, IsTransport(assert.AnError))
	assert.False(t, IsTransport(nil))
	assert.False(t, IsTransport(&Error{Kind: KindNotFound}))
	assert.Equal(t, "version conflict: stale", (&Error{Kind: KindConflict, Message: "stale"}).Error())
	assert.True(t, Is(localErr(services.ErrProductNotFound), KindNotFound))
}
