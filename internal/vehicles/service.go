package vehicles

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the vehicle does not exist.
	ErrNotFound = errors.New("vehicle not found")
	// ErrProtected indicates the vehicle still has work orders.
	ErrProtected = errors.New("vehicle has work orders and cannot be deleted")
	// ErrInvalidInput indicates a validation failure.
	ErrInvalidInput = errors.New("invalid vehicle input")
)

// RepositoryPort is the persistence contract the service depends on.
type RepositoryPort interface {
	Create(ctx context.Context, in VehicleInput) (*Vehicle, error)
	Get(ctx context.Context, id int64) (*Vehicle, error)
	List(ctx context.Context, req ListRequest) ([]Vehicle, int, error)
	Update(ctx context.Context, id int64, in VehicleInput) (*Vehicle, error)
	Delete(ctx context.Context, id int64) error
}

// Service implements vehicle use cases.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) validate(in *VehicleInput) error {
	in.Model = strings.TrimSpace(in.Model)
	in.PlateNo = strings.TrimSpace(in.PlateNo)
	in.VIN = strings.TrimSpace(in.VIN)
	if in.CustomerID <= 0 {
		return fmt.Errorf("%w: customer_id is required", ErrInvalidInput)
	}
	if in.Model == "" {
		return fmt.Errorf("%w: model is required", ErrInvalidInput)
	}
	if in.DriveType == "" {
		in.DriveType = DriveChain
	}
	if !in.DriveType.Valid() {
		return fmt.Errorf("%w: unknown drive type %q", ErrInvalidInput, in.DriveType)
	}
	return nil
}

// Create registers a vehicle for a customer.
func (s *Service) Create(ctx context.Context, in VehicleInput) (*Vehicle, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, in)
}

// Get returns a vehicle by id.
func (s *Service) Get(ctx context.Context, id int64) (*Vehicle, error) {
	return s.repo.Get(ctx, id)
}

// List returns vehicles matching the request.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Vehicle, int, error) {
	return s.repo.List(ctx, req)
}

// Update replaces the vehicle fields.
func (s *Service) Update(ctx context.Context, id int64, in VehicleInput) (*Vehicle, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, in)
}

// Delete removes a vehicle unless work orders reference it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
