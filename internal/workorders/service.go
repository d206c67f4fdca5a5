package workorders

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound indicates the order or line item does not exist.
	ErrNotFound = errors.New("workorders: not found")
	// ErrOrderNoConflict indicates an order-number allocation race that
	// was not resolved within the retry budget. Callers may retry.
	ErrOrderNoConflict = errors.New("workorders: order number conflict")
	// ErrInvalidStatus indicates an unknown status value.
	ErrInvalidStatus = errors.New("workorders: invalid status")
	// ErrInvalidInput indicates a field-level validation failure.
	ErrInvalidInput = errors.New("workorders: invalid input")
)

// allocRetries bounds how often order creation retries after losing an
// allocation race to a non-transactional writer.
const allocRetries = 3

// RepositoryPort defines data access for work orders.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepositoryPort) error) error
	GetOrder(ctx context.Context, id int64) (*WorkOrder, error)
	GetDetail(ctx context.Context, id int64) (*Detail, error)
	List(ctx context.Context, req ListRequest) ([]WorkOrder, int, error)
}

// TxRepositoryPort defines the operations available inside a transaction.
// LastOrderNoForPrefix must hold an exclusive lock on the day's counter
// until the transaction ends, so two concurrent allocations for the same
// day serialize on it.
type TxRepositoryPort interface {
	LastOrderNoForPrefix(ctx context.Context, prefix string) (string, error)
	InsertOrder(ctx context.Context, order *WorkOrder) error
	GetOrderForUpdate(ctx context.Context, id int64) (*WorkOrder, error)
	UpdateOrder(ctx context.Context, id int64, in UpdateInput) error
	SetStatus(ctx context.Context, id int64, status Status) error
	DeleteOrder(ctx context.Context, id int64) error

	InsertPart(ctx context.Context, part *WorkPart) error
	UpdatePart(ctx context.Context, part *WorkPart) error
	DeletePart(ctx context.Context, orderID, partID int64) (*WorkPart, error)
	GetPart(ctx context.Context, orderID, partID int64) (*WorkPart, error)
	InsertLabor(ctx context.Context, labor *WorkLabor) error
	UpdateLabor(ctx context.Context, labor *WorkLabor) error
	DeleteLabor(ctx context.Context, orderID, laborID int64) (*WorkLabor, error)
	GetLabor(ctx context.Context, orderID, laborID int64) (*WorkLabor, error)

	SumParts(ctx context.Context, orderID int64) (int64, error)
	SumLabor(ctx context.Context, orderID int64) (int64, error)
	SaveTotals(ctx context.Context, orderID int64, t Totals) error
}

// Service implements work order business logic. Line-item mutations and
// the totals recompute they trigger always run in one transaction; there
// is no hook dispatch, every recompute is an explicit call below.
type Service struct {
	repo    RepositoryPort
	taxRate float64
	loc     *time.Location
	now     func() time.Time
}

// NewService builds a Service. loc determines which calendar day an order
// number belongs to; nil falls back to the local zone.
func NewService(repo RepositoryPort, taxRate float64, loc *time.Location) *Service {
	if taxRate == 0 {
		taxRate = DefaultTaxRate
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{repo: repo, taxRate: taxRate, loc: loc, now: time.Now}
}

// Create persists a new work order with a freshly allocated order number.
// The allocation and insert share one transaction; when the uniqueness
// backstop fires regardless, the whole allocation is retried.
func (s *Service) Create(ctx context.Context, in CreateInput) (*WorkOrder, error) {
	if in.BranchID == 0 {
		return nil, fmt.Errorf("%w: branch required", ErrInvalidInput)
	}
	if in.VehicleID == 0 {
		return nil, fmt.Errorf("%w: vehicle required", ErrInvalidInput)
	}
	if in.DiscountAmount < 0 {
		return nil, fmt.Errorf("%w: discount must not be negative", ErrInvalidInput)
	}
	status := in.Status
	if status == "" {
		status = StatusReceived
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}

	now := s.now().In(s.loc)
	inAt := now
	if in.InDatetime != nil {
		inAt = *in.InDatetime
	}

	var created *WorkOrder
	for attempt := 0; attempt < allocRetries; attempt++ {
		err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepositoryPort) error {
			prefix := DayPrefix(s.now().In(s.loc))
			last, err := tx.LastOrderNoForPrefix(ctx, prefix)
			if err != nil {
				return err
			}
			order := &WorkOrder{
				OrderNo:           NextOrderNo(prefix, last),
				BranchID:          in.BranchID,
				VehicleID:         in.VehicleID,
				Status:            status,
				InDatetime:        inAt,
				AssignedTo:        in.AssignedTo,
				OdometerIn:        in.OdometerIn,
				CustomerComplaint: in.CustomerComplaint,
				Diagnosis:         in.Diagnosis,
				DiscountAmount:    in.DiscountAmount,
			}
			if err := tx.InsertOrder(ctx, order); err != nil {
				return err
			}
			created = order
			return nil
		})
		if errors.Is(err, ErrOrderNoConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return created, nil
	}
	return nil, ErrOrderNoConflict
}

// Get returns a work order by id.
func (s *Service) Get(ctx context.Context, id int64) (*WorkOrder, error) {
	return s.repo.GetOrder(ctx, id)
}

// GetDetail returns a work order with line items and payments.
func (s *Service) GetDetail(ctx context.Context, id int64) (*Detail, error) {
	return s.repo.GetDetail(ctx, id)
}

// List returns matching work orders and the total match count.
func (s *Service) List(ctx context.Context, req ListRequest) ([]WorkOrder, int, error) {
	if req.Status != "" && !req.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
	}
	return s.repo.List(ctx, req)
}

// Update changes caller-settable order fields. The order number and the
// four aggregates are not among them. A discount change triggers a
// recompute in the same transaction.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*WorkOrder, error) {
	if in.DiscountAmount != nil && *in.DiscountAmount < 0 {
		return nil, fmt.Errorf("%w: discount must not be negative", ErrInvalidInput)
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepositoryPort) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.UpdateOrder(ctx, id, in); err != nil {
			return err
		}
		if in.DiscountAmount != nil && *in.DiscountAmount != order.DiscountAmount {
			return s.recompute(ctx, tx, id, *in.DiscountAmount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetOrder(ctx, id)
}

// SetStatus moves the order to the given status. No transition graph is
// enforced.
func (s *Service) SetStatus(ctx context.Context, id int64, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepositoryPort) error {
		return tx.SetStatus(ctx, id, status)
	})
}

// Delete removes the order and, via cascade, its line items and payments.
// The issued order number is never reused.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepositoryPort) error {
		return tx.DeleteOrder(ctx, id)
	})
}

// AddPart appends a parts line item and recomputes the parent aggregates.
func (s *Service) AddPart(ctx context.Context, orderID int64, in PartInput) (*WorkPart, error) {
	if err := validatePart(&in); err != nil {
		return nil, err
	}
	part := &WorkPart{
		WorkOrderID: orderID,
		PartName:    in.PartName,
		Qty:         in.Qty,
		UnitPrice:   in.UnitPrice,
		LineTotal:   PartLineTotal(in.Qty, in.UnitPrice),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepositoryPort) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := tx.InsertPart(ctx, part); err != nil {
			return err
		}
		return s.recompute(ctx, tx, orderID, order.DiscountAmount)
	})
	if err != nil {
		return nil, err
	}
	return part, nil
}

// UpdatePart rewrites a parts line item, rederiving its line total, and
// recomputes the parent aggregates.
func (s *Service) UpdatePart(ctx context.Context, orderID, partID int64, in PartInput) (*WorkPart, error) {
	if err := validatePart(&in); err != nil {
		return nil, err
	}
	var part *WorkPart
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepositoryPort) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		part, err = tx.GetPart(ctx, orderID, partID)
		if err != nil {
			return err
		}
		part.PartName = in.PartName
		part.Qty = in.Qty
		part.UnitPrice = in.UnitPrice
		part.LineTotal = PartLineTotal(in.Qty, in.UnitPrice)
		if err := tx.UpdatePart(ctx, part); err != nil {
			return err
		}
		return s.recompute(ctx, tx, orderID, order.DiscountAmount)
	})
	if err != nil {
		return nil, err
	}
	return part, nil
}

// DeletePart removes a parts line item and recomputes the parent
// aggregates.
func (s *Service) DeletePart(ctx context.Context, orderID, partID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepositoryPort) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if _, err := tx.DeletePart(ctx, orderID, partID); err != nil {
			return err
		}
		return s.recompute(ctx, tx, orderID, order.DiscountAmount)
	})
}

// AddLabor appends a labor line item and recomputes the parent
// aggregates.
func (s *Service) AddLabor(ctx context.Context, orderID int64, in LaborInput) (*WorkLabor, error) {
	if err := validateLabor(in); err != nil {
		return nil, err
	}
	labor := &WorkLabor{
		WorkOrderID: orderID,
		LaborName:   in.LaborName,
		Minutes:     in.Minutes,
		Price:       in.Price,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepositoryPort) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := tx.InsertLabor(ctx, labor); err != nil {
			return err
		}
		return s.recompute(ctx, tx, orderID, order.DiscountAmount)
	})
	if err != nil {
		return nil, err
	}
	return labor, nil
}

// UpdateLabor rewrites a labor line item and recomputes the parent
// aggregates.
func (s *Service) UpdateLabor(ctx context.Context, orderID, laborID int64, in LaborInput) (*WorkLabor, error) {
	if err := validateLabor(in); err != nil {
		return nil, err
	}
	var labor *WorkLabor
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepositoryPort) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		labor, err = tx.GetLabor(ctx, orderID, laborID)
		if err != nil {
			return err
		}
		labor.LaborName = in.LaborName
		labor.Minutes = in.Minutes
		labor.Price = in.Price
		if err := tx.UpdateLabor(ctx, labor); err != nil {
			return err
		}
		return s.recompute(ctx, tx, orderID, order.DiscountAmount)
	})
	if err != nil {
		return nil, err
	}
	return labor, nil
}

// DeleteLabor removes a labor line item and recomputes the parent
// aggregates.
func (s *Service) DeleteLabor(ctx context.Context, orderID, laborID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepositoryPort) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if _, err := tx.DeleteLabor(ctx, orderID, laborID); err != nil {
			return err
		}
		return s.recompute(ctx, tx, orderID, order.DiscountAmount)
	})
}

// Recompute re-derives and persists the aggregates from the current line
// items. Backs the recompute endpoint for repairing drifted orders;
// normal mutations trigger it implicitly via the paths above.
func (s *Service) Recompute(ctx context.Context, orderID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepositoryPort) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		return s.recompute(ctx, tx, orderID, order.DiscountAmount)
	})
}

// recompute reads the committed line items within tx and overwrites the
// four aggregate fields. It touches nothing else.
func (s *Service) recompute(ctx context.Context, tx TxRepositoryPort, orderID int64, discount int64) error {
	partsTotal, err := tx.SumParts(ctx, orderID)
	if err != nil {
		return err
	}
	laborTotal, err := tx.SumLabor(ctx, orderID)
	if err != nil {
		return err
	}
	return tx.SaveTotals(ctx, orderID, ComputeTotals(partsTotal, laborTotal, discount, s.taxRate))
}

func validatePart(in *PartInput) error {
	if in.PartName == "" {
		return fmt.Errorf("%w: part name required", ErrInvalidInput)
	}
	if in.Qty == 0 {
		in.Qty = 1
	}
	if in.Qty < 0 {
		return fmt.Errorf("%w: qty must be positive", ErrInvalidInput)
	}
	if in.UnitPrice < 0 {
		return fmt.Errorf("%w: unit price must not be negative", ErrInvalidInput)
	}
	return nil
}

func validateLabor(in LaborInput) error {
	if in.LaborName == "" {
		return fmt.Errorf("%w: labor name required", ErrInvalidInput)
	}
	if in.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	if in.Minutes != nil && *in.Minutes < 0 {
		return fmt.Errorf("%w: minutes must not be negative", ErrInvalidInput)
	}
	return nil
}
