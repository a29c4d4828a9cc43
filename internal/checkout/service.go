// Package checkout turns session carts into orders and runs the order
// status workflow for customers and admins.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"storefront/internal/apiclient"
	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/infra"
)

var (
	ErrEmptyCart          = errors.New("your cart is empty")
	ErrIdentityUnresolved = errors.New("could not resolve customer for this user")
	ErrOrderNotFound      = errors.New("order not found")
	ErrForbidden          = errors.New("order belongs to another user")
	ErrCannotCancel       = errors.New("order can no longer be cancelled")
)

// Identity is the signed-in user placing or managing orders.
type Identity struct {
	Username   string
	CustomerID string
	IsAdmin    bool
}

type Service struct {
	api         apiclient.API
	carts       *cart.Manager
	publisher   infra.EventPublisher
	redisClient cart.RedisClient
	wg          sync.WaitGroup
}

func NewService(api apiclient.API, carts *cart.Manager, pub infra.EventPublisher) *Service {
	if pub == nil {
		pub = infra.NopPublisher{}
	}
	return &Service{api: api, carts: carts, publisher: pub}
}

func (s *Service) SetRedisClient(client cart.RedisClient) {
	s.redisClient = client
}

// Wait blocks until in-flight event publishing has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// CreateFromCart converts the session cart into a Submitted order and
// clears the cart. The order write and the cart clear are separate steps.
func (s *Service) CreateFromCart(ctx context.Context, sessionID string, who Identity) (*domain.Order, error) {
	c, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	customer, err := s.resolveCustomer(ctx, who)
	if err != nil {
		return nil, err
	}

	items, err := s.orderItems(ctx, c)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		CustomerID:      customer.RowKey,
		Username:        who.Username,
		OrderDate:       time.Now().UTC(),
		Status:          domain.StatusSubmitted,
		ShippingAddress: customer.ShippingAddress,
		CustomerEmail:   customer.Email,
	}
	if err := order.SetItems(items); err != nil {
		return nil, err
	}

	created, err := s.api.CreateOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.carts.Clear(ctx, sessionID); err != nil {
		log.Printf("order %s created but cart for session %s was not cleared: %v", created.RowKey, sessionID, err)
	}

	s.publishAsync(domain.EventOrderCreated, domain.NewOrderEvent(created, customer.FullName()))
	return created, nil
}

// resolveCustomer looks the customer up by id, then by username, and as a
// last resort creates a placeholder profile for the username.
func (s *Service) resolveCustomer(ctx context.Context, who Identity) (*domain.Customer, error) {
	if who.CustomerID != "" {
		c, err := s.api.GetCustomer(ctx, who.CustomerID)
		if err != nil {
			log.Printf("customer lookup by id %s failed: %v", who.CustomerID, err)
		} else if c != nil {
			return c, nil
		}
	}

	if who.Username == "" {
		return nil, ErrIdentityUnresolved
	}

	c, err := s.api.GetCustomerByUsername(ctx, who.Username)
	if err != nil {
		log.Printf("customer lookup by username %s failed: %v", who.Username, err)
	} else if c != nil {
		return c, nil
	}

	created, err := s.api.CreateCustomer(ctx, domain.PlaceholderCustomer(who.Username))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityUnresolved, err)
	}
	log.Printf("created placeholder customer %s for %s", created.RowKey, who.Username)
	return created, nil
}

// orderItems copies each cart line into an order item. Product images are
// looked up concurrently; a failed lookup leaves the image empty.
func (s *Service) orderItems(ctx context.Context, c *cart.Cart) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, len(c.Items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, line := range c.Items {
		i, line := i, line
		items[i] = domain.OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		}
		g.Go(func() error {
			p, err := s.getProductWithCache(gctx, line.ProductID)
			if err != nil {
				log.Printf("image lookup for product %s failed: %v", line.ProductID, err)
				return nil
			}
			if p != nil {
				items[i].ImageURL = p.ProductImageURL
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) getProductWithCache(ctx context.Context, productID string) (*domain.Product, error) {
	cacheKey := fmt.Sprintf("product:%s", productID)

	if s.redisClient != nil {
		cached, err := s.redisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			var p domain.Product
			if err := json.Unmarshal([]byte(cached), &p); err == nil {
				return &p, nil
			}
		}
	}

	p, err := s.api.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if s.redisClient != nil && p != nil {
		if data, err := json.Marshal(p); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, time.Minute)
		}
	}
	return p, nil
}

func sameUser(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}

func (s *Service) publishAsync(event string, data domain.OrderEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.publisher.Publish(context.Background(), event, data); err != nil {
			log.Printf("Failed to publish %s for order %s: %v", event, data.OrderID, err)
		}
	}()
}

// MyOrders lists the user's orders, newest first. Usernames match
// case-insensitively, as they do for customer lookups.
func (s *Service) MyOrders(ctx context.Context, username string) ([]*domain.Order, error) {
	all, err := s.api.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Order, 0, len(all))
	for _, o := range all {
		if sameUser(o.Username, username) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderDate.After(out[j].OrderDate) })
	return out, nil
}

// Order returns the order when who owns it or is an admin.
func (s *Service) Order(ctx context.Context, id string, who Identity) (*domain.Order, error) {
	o, err := s.api.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	if !who.IsAdmin && !sameUser(o.Username, who.Username) {
		return nil, ErrForbidden
	}
	return o, nil
}

// Cancel lets the owner cancel an order that is still Submitted or
// Processing. The write is conditional on the version that was checked, so
// a concurrent status change makes Cancel fail with a conflict.
func (s *Service) Cancel(ctx context.Context, id string, who Identity) (*domain.Order, error) {
	o, err := s.Order(ctx, id, Identity{Username: who.Username})
	if err != nil {
		return nil, err
	}
	if !o.Status.CanCancel() {
		return nil, fmt.Errorf("%w: status is %s", ErrCannotCancel, o.Status)
	}
	return s.setStatus(ctx, o, domain.StatusCancelled)
}

// UpdateStatus is the admin path and accepts any known status. Like Cancel
// it writes against the version it read.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if _, err := domain.ParseOrderStatus(string(status)); err != nil {
		return nil, err
	}
	o, err := s.api.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	if o.Status != status && !domain.CanTransition(o.Status, status) {
		log.Printf("admin override: order %s %s -> %s", id, o.Status, status)
	}
	return s.setStatus(ctx, o, status)
}

func (s *Service) setStatus(ctx context.Context, o *domain.Order, status domain.OrderStatus) (*domain.Order, error) {
	updated, err := s.api.UpdateOrderStatus(ctx, o.RowKey, status, o.Version)
	if err != nil {
		return nil, err
	}
	s.publishAsync(domain.EventOrderStatusChanged, domain.NewOrderEvent(updated, ""))
	return updated, nil
}
