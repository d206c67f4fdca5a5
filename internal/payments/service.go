package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates the payment does not exist on the order.
	ErrNotFound = errors.New("payment not found")
	// ErrOrderNotFound indicates the work order does not exist.
	ErrOrderNotFound = errors.New("work order not found")
	// ErrInvalidInput indicates a validation failure.
	ErrInvalidInput = errors.New("invalid payment input")
)

// RepositoryPort is the persistence contract the service depends on.
type RepositoryPort interface {
	Create(ctx context.Context, p *Payment) error
	ListByOrder(ctx context.Context, orderID int64) ([]Payment, error)
	Get(ctx context.Context, orderID, paymentID int64) (*Payment, error)
	Delete(ctx context.Context, orderID, paymentID int64) error
}

// Service records and lists payments. Totals never change here; the
// balance due is a presentation concern computed from the order detail.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService constructs a service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create records a payment against a work order and stamps it with a
// fresh receipt reference.
func (s *Service) Create(ctx context.Context, orderID int64, in CreateInput) (*Payment, error) {
	if orderID <= 0 {
		return nil, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}
	if in.Method == "" {
		in.Method = MethodOther
	}
	if !in.Method.Valid() {
		return nil, fmt.Errorf("%w: unknown method %q", ErrInvalidInput, in.Method)
	}
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	paidAt := s.now()
	if in.PaidAt != nil {
		paidAt = *in.PaidAt
	}
	p := &Payment{
		WorkOrderID: orderID,
		Method:      in.Method,
		Amount:      in.Amount,
		PaidAt:      paidAt,
		Note:        in.Note,
		Reference:   uuid.NewString(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListByOrder returns the payments for a work order.
func (s *Service) ListByOrder(ctx context.Context, orderID int64) ([]Payment, error) {
	return s.repo.ListByOrder(ctx, orderID)
}

// Get returns a payment scoped to its work order.
func (s *Service) Get(ctx context.Context, orderID, paymentID int64) (*Payment, error) {
	return s.repo.Get(ctx, orderID, paymentID)
}

// Delete removes a payment from the order's ledger.
func (s *Service) Delete(ctx context.Context, orderID, paymentID int64) error {
	return s.repo.Delete(ctx, orderID, paymentID)
}
