package cart

import (
	"context"

	"storefront/internal/domain"
)

type ProductLookup interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

// Manager applies cart operations for a session and persists the result.
// A rejected operation leaves the stored cart untouched.
type Manager struct {
	sessions SessionStore
	products ProductLookup
}

func NewManager(sessions SessionStore, products ProductLookup) *Manager {
	return &Manager{sessions: sessions, products: products}
}

func (m *Manager) Get(ctx context.Context, sessionID string) (*Cart, error) {
	return m.sessions.Load(ctx, sessionID)
}

func (m *Manager) product(ctx context.Context, id string) (*domain.Product, error) {
	p, err := m.products.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (m *Manager) AddItem(ctx context.Context, sessionID, productID string, qty int) (*Cart, error) {
	p, err := m.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	c, err := m.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := c.Add(p, qty); err != nil {
		return nil, err
	}
	return c, m.sessions.Save(ctx, sessionID, c)
}

func (m *Manager) UpdateQuantity(ctx context.Context, sessionID, productID string, qty int) (*Cart, error) {
	c, err := m.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if qty <= 0 {
		c.Remove(productID)
		return c, m.sessions.Save(ctx, sessionID, c)
	}
	p, err := m.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := c.SetQuantity(p, qty); err != nil {
		return nil, err
	}
	return c, m.sessions.Save(ctx, sessionID, c)
}

func (m *Manager) RemoveItem(ctx context.Context, sessionID, productID string) (*Cart, error) {
	c, err := m.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.Remove(productID)
	return c, m.sessions.Save(ctx, sessionID, c)
}

func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	return m.sessions.Delete(ctx, sessionID)
}
