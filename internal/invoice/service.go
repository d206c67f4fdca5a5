package invoice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sunbike-erp/sunbike-erp/internal/branches"
	"github.com/sunbike-erp/sunbike-erp/internal/customers"
	"github.com/sunbike-erp/sunbike-erp/internal/vehicles"
	"github.com/sunbike-erp/sunbike-erp/internal/workorders"
)

// ErrNotFound indicates the work order behind the invoice is missing.
var ErrNotFound = errors.New("invoice: work order not found")

// OrderReader loads the full work order detail.
type OrderReader interface {
	GetDetail(ctx context.Context, id int64) (*workorders.Detail, error)
}

// BranchReader loads a branch.
type BranchReader interface {
	Get(ctx context.Context, id int64) (*branches.Branch, error)
}

// CustomerReader loads a customer.
type CustomerReader interface {
	Get(ctx context.Context, id int64) (*customers.Customer, error)
}

// VehicleReader loads a vehicle.
type VehicleReader interface {
	Get(ctx context.Context, id int64) (*vehicles.Vehicle, error)
}

// Renderer turns invoice HTML into PDF bytes.
type Renderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Service assembles and renders invoice PDFs. Concurrent requests for
// the same order collapse into one render via singleflight; finished
// documents are served from the redis cache when one is configured.
type Service struct {
	orders   OrderReader
	branches BranchReader
	custs    CustomerReader
	vehicles VehicleReader
	builder  *Builder
	renderer Renderer
	cache    *Cache
	group    singleflight.Group
	loc      *time.Location
	now      func() time.Time
}

// NewService constructs a service. The cache may be nil when redis is
// unavailable; rendering then always goes to Gotenberg.
func NewService(orders OrderReader, brs BranchReader, custs CustomerReader, vehs VehicleReader,
	renderer Renderer, cache *Cache, loc *time.Location) *Service {
	return &Service{
		orders:   orders,
		branches: brs,
		custs:    custs,
		vehicles: vehs,
		builder:  NewBuilder(),
		renderer: renderer,
		cache:    cache,
		loc:      loc,
		now:      time.Now,
	}
}

// Render returns the invoice PDF and the order number for the given
// work order.
func (s *Service) Render(ctx context.Context, orderID int64) ([]byte, string, error) {
	detail, err := s.orders.GetDetail(ctx, orderID)
	if err != nil {
		if errors.Is(err, workorders.ErrNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}

	if s.cache != nil {
		if pdf, err := s.cache.Get(ctx, orderID, detail.UpdatedAt); err == nil && pdf != nil {
			return pdf, detail.OrderNo, nil
		}
	}

	key := strconv.FormatInt(orderID, 10) + ":" + strconv.FormatInt(detail.UpdatedAt.UnixNano(), 10)
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.render(ctx, detail)
	})
	if err != nil {
		return nil, "", err
	}
	return v.([]byte), detail.OrderNo, nil
}

func (s *Service) render(ctx context.Context, detail *workorders.Detail) ([]byte, error) {
	branch, err := s.branches.Get(ctx, detail.BranchID)
	if err != nil {
		return nil, fmt.Errorf("load branch: %w", err)
	}
	vehicle, err := s.vehicles.Get(ctx, detail.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("load vehicle: %w", err)
	}
	customer, err := s.custs.Get(ctx, vehicle.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}

	html, err := s.builder.Build(Data{
		Order:    detail,
		Branch:   branch,
		Customer: customer,
		Vehicle:  vehicle,
		IssuedAt: s.now().In(s.loc),
	})
	if err != nil {
		return nil, fmt.Errorf("build invoice html: %w", err)
	}
	pdf, err := s.renderer.RenderHTML(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	if s.cache != nil {
		// Best effort; a cache write failure never fails the request.
		_ = s.cache.Set(ctx, detail.ID, detail.UpdatedAt, pdf)
	}
	return pdf, nil
}
