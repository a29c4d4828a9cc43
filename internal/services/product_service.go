package services

import (
	"context"
	"errors"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/store"
)

type ProductService struct {
	repo *repository.EntityRepository[domain.Product, *domain.Product]
}

func NewProductService(s store.EntityStore) *ProductService {
	return &ProductService{
		repo: repository.NewEntityRepository[domain.Product](s, domain.ProductKind, domain.ProductPartition),
	}
}

func (s *ProductService) List(ctx context.Context) ([]*domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *ProductService) Get(ctx context.Context, partition, id string) (*domain.Product, error) {
	p, err := s.repo.Get(ctx, partition, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *ProductService) Create(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return validationError("%v", err)
	}
	return s.repo.Create(ctx, p)
}

func (s *ProductService) Update(ctx context.Context, id string, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return validationError("%v", err)
	}
	p.RowKey = id
	if err := s.repo.Update(ctx, p, p.Version); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	return nil
}

func (s *ProductService) Delete(ctx context.Context, partition, id string) error {
	return s.repo.Delete(ctx, partition, id)
}
