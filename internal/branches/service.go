package branches

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the branch does not exist.
	ErrNotFound = errors.New("branches: not found")
	// ErrProtected indicates the branch still owns work orders.
	ErrProtected = errors.New("branches: work orders still reference this branch")
	// ErrInvalidInput indicates a field-level validation failure.
	ErrInvalidInput = errors.New("branches: invalid input")
)

// RepositoryPort defines data access for branches.
type RepositoryPort interface {
	Create(ctx context.Context, in BranchInput) (*Branch, error)
	Get(ctx context.Context, id int64) (*Branch, error)
	List(ctx context.Context) ([]Branch, error)
	Update(ctx context.Context, id int64, in BranchInput) (*Branch, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles branch business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create persists a new branch.
func (s *Service) Create(ctx context.Context, in BranchInput) (*Branch, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	return s.repo.Create(ctx, in)
}

// Get returns a branch by id.
func (s *Service) Get(ctx context.Context, id int64) (*Branch, error) {
	return s.repo.Get(ctx, id)
}

// List returns all branches.
func (s *Service) List(ctx context.Context) ([]Branch, error) {
	return s.repo.List(ctx)
}

// Update rewrites a branch.
func (s *Service) Update(ctx context.Context, id int64, in BranchInput) (*Branch, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	return s.repo.Update(ctx, id, in)
}

// Delete removes a branch unless work orders still reference it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
