package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/store"
)

type CustomerService struct {
	repo *repository.EntityRepository[domain.Customer, *domain.Customer]
}

func NewCustomerService(s store.EntityStore) *CustomerService {
	return &CustomerService{
		repo: repository.NewEntityRepository[domain.Customer](s, domain.CustomerKind, domain.CustomerPartition),
	}
}

func (s *CustomerService) List(ctx context.Context) ([]*domain.Customer, error) {
	return s.repo.List(ctx)
}

func (s *CustomerService) Get(ctx context.Context, partition, id string) (*domain.Customer, error) {
	c, err := s.repo.Get(ctx, partition, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCustomerNotFound
	}
	return c, nil
}

// GetByUsername matches usernames case-insensitively across every
// partition.
func (s *CustomerService) GetByUsername(ctx context.Context, username string) (*domain.Customer, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range all {
		if strings.EqualFold(c.Username, username) {
			return c, nil
		}
	}
	return nil, ErrCustomerNotFound
}

func (s *CustomerService) Create(ctx context.Context, c *domain.Customer) error {
	if err := c.Validate(); err != nil {
		return validationError("%v", err)
	}
	if err := s.checkUsername(ctx, c); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return err
	}
	log.Printf("customer created: %s/%s (%s)", c.PartitionKey, c.RowKey, c.Username)
	return nil
}

// Update replaces the customer identified by id. c.Version must be the
// version the caller last read.
func (s *CustomerService) Update(ctx context.Context, id string, c *domain.Customer) error {
	if err := c.Validate(); err != nil {
		return validationError("%v", err)
	}
	c.RowKey = id
	if err := s.checkUsername(ctx, c); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, c, c.Version); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCustomerNotFound
		}
		return err
	}
	return nil
}

// checkUsername fails when another customer already holds c's username.
func (s *CustomerService) checkUsername(ctx context.Context, c *domain.Customer) error {
	existing, err := s.GetByUsername(ctx, c.Username)
	if errors.Is(err, ErrCustomerNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.RowKey == c.RowKey && (c.PartitionKey == "" || existing.PartitionKey == c.PartitionKey) {
		return nil
	}
	return ErrUsernameTaken
}

func (s *CustomerService) Delete(ctx context.Context, partition, id string) error {
	return s.repo.Delete(ctx, partition, id)
}

func (s *CustomerService) Count(ctx context.Context) (int, error) {
	all, err := s.repo.List(ctx)
	return len(all), err
}
