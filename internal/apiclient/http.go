package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/api"
	"storefront/internal/domain"
)

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// call performs one gateway request and unwraps the envelope. A 404 yields
// the zero value and no error when allowMissing is set.
func call[T any](ctx context.Context, c *HTTPClient, method, path string, body any, allowMissing bool) (T, error) {
	var zero T

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return zero, &Error{Kind: KindValidation, Message: "could not encode request", Err: err}
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return zero, &Error{Kind: KindTransport, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, &Error{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && allowMissing {
		return zero, nil
	}

	var env api.Response[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return zero, &Error{Kind: KindTransport, Message: fmt.Sprintf("gateway returned status %d", resp.StatusCode), Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return zero, &Error{Kind: KindNotFound, Message: env.Message}
	case resp.StatusCode == http.StatusConflict:
		return zero, &Error{Kind: KindConflict, Message: env.Message}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return zero, &Error{Kind: KindValidation, Message: env.Message}
	case resp.StatusCode >= 300 || !env.Success:
		return zero, &Error{Kind: KindTransport, Message: fmt.Sprintf("gateway returned status %d", resp.StatusCode)}
	}
	return env.Data, nil
}

func esc(s string) string {
	return url.PathEscape(s)
}

func (c *HTTPClient) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	return call[[]*domain.Customer](ctx, c, http.MethodGet, "/customers", nil, false)
}

func (c *HTTPClient) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return call[*domain.Customer](ctx, c, http.MethodGet, "/customers/"+esc(id), nil, true)
}

func (c *HTTPClient) GetCustomerByUsername(ctx context.Context, username string) (*domain.Customer, error) {
	return call[*domain.Customer](ctx, c, http.MethodGet, "/customers/by-username/"+esc(username), nil, true)
}

func (c *HTTPClient) CreateCustomer(ctx context.Context, cu *domain.Customer) (*domain.Customer, error) {
	return call[*domain.Customer](ctx, c, http.MethodPost, "/customers", cu, false)
}

func (c *HTTPClient) UpdateCustomer(ctx context.Context, cu *domain.Customer) (*domain.Customer, error) {
	return call[*domain.Customer](ctx, c, http.MethodPut, "/customers/"+esc(cu.RowKey), cu, false)
}

func (c *HTTPClient) DeleteCustomer(ctx context.Context, id string) error {
	_, err := call[any](ctx, c, http.MethodDelete, "/customers/"+esc(id), nil, true)
	return err
}

func (c *HTTPClient) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return call[[]*domain.Product](ctx, c, http.MethodGet, "/products", nil, false)
}

func (c *HTTPClient) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return call[*domain.Product](ctx, c, http.MethodGet, "/products/"+esc(id), nil, true)
}

func (c *HTTPClient) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	return call[*domain.Product](ctx, c, http.MethodPost, "/products", p, false)
}

func (c *HTTPClient) UpdateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	return call[*domain.Product](ctx, c, http.MethodPut, "/products/"+esc(p.RowKey), p, false)
}

func (c *HTTPClient) DeleteProduct(ctx context.Context, id string) error {
	_, err := call[any](ctx, c, http.MethodDelete, "/products/"+esc(id), nil, true)
	return err
}

func (c *HTTPClient) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return call[[]*domain.Order](ctx, c, http.MethodGet, "/orders", nil, false)
}

func (c *HTTPClient) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return call[*domain.Order](ctx, c, http.MethodGet, "/orders/"+esc(id), nil, true)
}

func (c *HTTPClient) ListOrdersByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	return call[[]*domain.Order](ctx, c, http.MethodGet, "/orders/by-customer/"+esc(customerID), nil, false)
}

func (c *HTTPClient) CreateOrder(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	return call[*domain.Order](ctx, c, http.MethodPost, "/orders", o, false)
}

func (c *HTTPClient) UpdateOrder(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	return call[*domain.Order](ctx, c, http.MethodPut, "/orders/"+esc(o.RowKey), o, false)
}

func (c *HTTPClient) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, expectedVersion int64) (*domain.Order, error) {
	req := api.StatusUpdateRequest{Status: status, Version: expectedVersion}
	return call[*domain.Order](ctx, c, http.MethodPatch, "/orders/"+esc(id)+"/status", req, false)
}

func (c *HTTPClient) DeleteOrder(ctx context.Context, id string) error {
	_, err := call[any](ctx, c, http.MethodDelete, "/orders/"+esc(id), nil, true)
	return err
}

func (c *HTTPClient) Upload(ctx context.Context, req api.UploadRequest) (string, error) {
	return call[string](ctx, c, http.MethodPost, "/upload", req, false)
}

func (c *HTTPClient) UploadProofOfPayment(ctx context.Context, req api.UploadRequest) (string, error) {
	return call[string](ctx, c, http.MethodPost, "/upload/proof-of-payment", req, false)
}

var _ API = (*HTTPClient)(nil)
