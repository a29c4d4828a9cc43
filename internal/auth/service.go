// Package auth handles storefront sign-in, registration and bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/apiclient"
	"storefront/internal/domain"
	"storefront/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrMissingFields      = errors.New("username and password are required")
)

type Service struct {
	users           repository.UserRepository
	api             apiclient.API
	tokens          *TokenIssuer
	legacyMigration bool
}

func NewService(users repository.UserRepository, api apiclient.API, tokens *TokenIssuer, legacyMigration bool) *Service {
	return &Service{
		users:           users,
		api:             api,
		tokens:          tokens,
		legacyMigration: legacyMigration,
	}
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	ShippingAddress string `json:"shippingAddress"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is what a successful login hands back to the caller.
type Session struct {
	Token      string      `json:"token"`
	ExpiresAt  time.Time   `json:"expiresAt"`
	Username   string      `json:"username"`
	Role       domain.Role `json:"role"`
	CustomerID string      `json:"customerId"`
}

// Verify checks the password against the stored bcrypt hash. With legacy
// migration enabled a stored plain-text value is also accepted once and
// replaced with a bcrypt hash.
func (s *Service) Verify(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil {
		return u, nil
	}

	if !s.legacyMigration || u.PasswordHash != password {
		return nil, ErrInvalidCredentials
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
		return nil, fmt.Errorf("upgrade password hash: %w", err)
	}
	u.PasswordHash = hash
	log.Printf("upgraded password to hashed for user: %s", u.Username)
	return u, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, ErrMissingFields
	}
	u, err := s.Verify(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	customerID := u.Username
	c, err := s.api.GetCustomerByUsername(ctx, u.Username)
	if err != nil {
		log.Printf("customer lookup for %s unavailable, using username as customer id: %v", u.Username, err)
	} else if c != nil {
		customerID = c.RowKey
	}

	claims := Claims{
		Username:   u.Username,
		Role:       u.Role,
		CustomerID: customerID,
		SessionID:  uuid.NewString(),
	}
	token, expires, err := s.tokens.Issue(claims)
	if err != nil {
		return nil, err
	}

	return &Session{
		Token:      token,
		ExpiresAt:  expires,
		Username:   u.Username,
		Role:       u.Role,
		CustomerID: customerID,
	}, nil
}

// Register creates the login record and then the customer profile. The
// profile is best effort; a gateway failure does not undo the user.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	existing, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	role := domain.RoleCustomer
	if n, err := s.users.Count(ctx); err == nil && n == 0 {
		role = domain.RoleAdmin
	}

	u := &domain.User{Username: req.Username, PasswordHash: hash, Role: role}
	if err := s.users.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	customer := &domain.Customer{
		Entity:          domain.Entity{PartitionKey: domain.CustomerPartition},
		Name:            req.FirstName,
		Surname:         req.LastName,
		Username:        req.Username,
		Email:           req.Email,
		ShippingAddress: req.ShippingAddress,
	}
	if _, err := s.api.CreateCustomer(ctx, customer); err != nil {
		log.Printf("gateway unavailable during registration for %s: %v", req.Username, err)
	}
	return u, nil
}

func hashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}
