package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/store"
)

type OrderService struct {
	repo *repository.EntityRepository[domain.Order, *domain.Order]
}

func NewOrderService(s store.EntityStore) *OrderService {
	return &OrderService{
		repo: repository.NewEntityRepository[domain.Order](s, domain.OrderKind, domain.OrderPartition),
	}
}

func (s *OrderService) List(ctx context.Context) ([]*domain.Order, error) {
	return s.repo.List(ctx)
}

func (s *OrderService) Get(ctx context.Context, partition, id string) (*domain.Order, error) {
	o, err := s.repo.Get(ctx, partition, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// ListByCustomer returns the customer's orders, newest first.
func (s *OrderService) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	return s.filter(ctx, func(o *domain.Order) bool { return o.CustomerID == customerID })
}

// ListByUsername returns the user's orders, newest first. Usernames match
// case-insensitively.
func (s *OrderService) ListByUsername(ctx context.Context, username string) ([]*domain.Order, error) {
	return s.filter(ctx, func(o *domain.Order) bool { return strings.EqualFold(o.Username, username) })
}

func (s *OrderService) filter(ctx context.Context, keep func(*domain.Order) bool) ([]*domain.Order, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Order, 0, len(all))
	for _, o := range all {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderDate.After(out[j].OrderDate) })
	return out, nil
}

func validateOrder(o *domain.Order) error {
	items, err := o.Items()
	if err != nil {
		return validationError("%v", err)
	}
	if len(items) == 0 {
		return validationError("order must contain at least one item")
	}
	if err := o.SetItems(items); err != nil {
		return validationError("%v", err)
	}
	if o.Status == "" {
		o.Status = domain.StatusSubmitted
	}
	if _, err := domain.ParseOrderStatus(string(o.Status)); err != nil {
		return validationError("%v", err)
	}
	return nil
}

// Create stores a new order. Missing status and date default to Submitted
// and now; the total is recomputed from the items.
func (s *OrderService) Create(ctx context.Context, o *domain.Order) error {
	if err := validateOrder(o); err != nil {
		return err
	}
	if o.OrderDate.IsZero() {
		o.OrderDate = time.Now().UTC()
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return err
	}
	log.Printf("order created: %s for customer %s (total %s)", o.RowKey, o.CustomerID, o.TotalAmount.StringFixed(2))
	return nil
}

func (s *OrderService) Update(ctx context.Context, id string, o *domain.Order) error {
	if err := validateOrder(o); err != nil {
		return err
	}
	o.RowKey = id
	if err := s.repo.Update(ctx, o, o.Version); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	return nil
}

// UpdateStatus changes only the status of the stored order. The rest of
// the record, including the items payload, is written back as read. A
// positive expectedVersion must match the stored version, otherwise the
// update fails with store.ErrVersionConflict.
func (s *OrderService) UpdateStatus(ctx context.Context, partition, id string, status domain.OrderStatus, expectedVersion int64) (*domain.Order, error) {
	if _, err := domain.ParseOrderStatus(string(status)); err != nil {
		return nil, validationError("%v", err)
	}
	o, err := s.Get(ctx, partition, id)
	if err != nil {
		return nil, err
	}
	version := o.Version
	if expectedVersion > 0 {
		if expectedVersion != version {
			return nil, fmt.Errorf("%w: order %s is at version %d", store.ErrVersionConflict, id, version)
		}
		version = expectedVersion
	}
	prev := o.Status
	o.Status = status
	if err := s.repo.Update(ctx, o, version); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	log.Printf("order %s status %s -> %s", id, prev, status)
	return o, nil
}

func (s *OrderService) Delete(ctx context.Context, partition, id string) error {
	return s.repo.Delete(ctx, partition, id)
}
