package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the customer does not exist.
	ErrNotFound = errors.New("customers: not found")
	// ErrProtected indicates a vehicle of the customer still has work
	// orders, so the cascading delete was rejected.
	ErrProtected = errors.New("customers: work orders still reference this customer's vehicles")
	// ErrInvalidInput indicates a field-level validation failure.
	ErrInvalidInput = errors.New("customers: invalid input")
)

// RepositoryPort defines data access for customers.
type RepositoryPort interface {
	Create(ctx context.Context, in CustomerInput) (*Customer, error)
	Get(ctx context.Context, id int64) (*Customer, error)
	List(ctx context.Context, req ListRequest) ([]Customer, int, error)
	Update(ctx context.Context, id int64, in CustomerInput) (*Customer, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles customer business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func validate(in CustomerInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Phone) == "" {
		return fmt.Errorf("%w: phone required", ErrInvalidInput)
	}
	return nil
}

// Create persists a new customer.
func (s *Service) Create(ctx context.Context, in CustomerInput) (*Customer, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, in)
}

// Get returns a customer by id.
func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

// List returns matching customers and the total match count.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Customer, int, error) {
	return s.repo.List(ctx, req)
}

// Update rewrites a customer.
func (s *Service) Update(ctx context.Context, id int64, in CustomerInput) (*Customer, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, in)
}

// Delete removes a customer and cascades to their vehicles.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
