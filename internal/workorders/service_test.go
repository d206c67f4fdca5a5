package workorders

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory stand-in for the postgres repository. Its
// mutex is held for the whole WithTx closure, which mirrors how the real
// allocator serializes on the locked day counter.
type memRepo struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]*WorkOrder
	parts  map[int64]*WorkPart
	labor  map[int64]*WorkLabor
	seqs   map[string]int
}

func newMemRepo() *memRepo {
	return &memRepo{
		orders: make(map[int64]*WorkOrder),
		parts:  make(map[int64]*WorkPart),
		labor:  make(map[int64]*WorkLabor),
		seqs:   make(map[string]int),
	}
}

func (r *memRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *memRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepositoryPort) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx, &memTx{r: r})
}

func (r *memRepo) GetOrder(ctx context.Context, id int64) (*WorkOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memRepo) GetDetail(ctx context.Context, id int64) (*Detail, error) {
	o, err := r.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &Detail{WorkOrder: *o}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.parts {
		if p.WorkOrderID == id {
			d.Parts = append(d.Parts, *p)
		}
	}
	for _, l := range r.labor {
		if l.WorkOrderID == id {
			d.Labor = append(d.Labor, *l)
		}
	}
	return d, nil
}

func (r *memRepo) List(ctx context.Context, req ListRequest) ([]WorkOrder, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []WorkOrder
	for _, o := range r.orders {
		if req.Status != "" && o.Status != req.Status {
			continue
		}
		if req.Query != "" && !strings.Contains(o.OrderNo, req.Query) {
			continue
		}
		out = append(out, *o)
	}
	return out, len(out), nil
}

type memTx struct {
	r *memRepo
}

func (t *memTx) LastOrderNoForPrefix(ctx context.Context, prefix string) (string, error) {
	n := t.r.seqs[prefix]
	for _, o := range t.r.orders {
		if strings.HasPrefix(o.OrderNo, prefix+"-") {
			if s := parseSuffix(o.OrderNo); s > n {
				n = s
			}
		}
	}
	if n == 0 {
		return "", nil
	}
	return fmt.Sprintf("%s-%03d", prefix, n), nil
}

func (t *memTx) InsertOrder(ctx context.Context, o *WorkOrder) error {
	for _, existing := range t.r.orders {
		if existing.OrderNo == o.OrderNo {
			return ErrOrderNoConflict
		}
	}
	o.ID = t.r.id()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	cp := *o
	t.r.orders[o.ID] = &cp
	if idx := strings.LastIndex(o.OrderNo, "-"); idx > 0 {
		prefix := o.OrderNo[:idx]
		var seq int
		fmt.Sscanf(o.OrderNo[idx+1:], "%d", &seq)
		if seq > t.r.seqs[prefix] {
			t.r.seqs[prefix] = seq
		}
	}
	return nil
}

func (t *memTx) GetOrderForUpdate(ctx context.Context, id int64) (*WorkOrder, error) {
	o, ok := t.r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (t *memTx) UpdateOrder(ctx context.Context, id int64, in UpdateInput) error {
	o, ok := t.r.orders[id]
	if !ok {
		return ErrNotFound
	}
	if in.AssignedTo != nil {
		o.AssignedTo = *in.AssignedTo
	}
	if in.InDatetime != nil {
		o.InDatetime = *in.InDatetime
	}
	if in.OutDatetime != nil {
		o.OutDatetime = in.OutDatetime
	}
	if in.OdometerIn != nil {
		o.OdometerIn = in.OdometerIn
	}
	if in.OdometerOut != nil {
		o.OdometerOut = in.OdometerOut
	}
	if in.CustomerComplaint != nil {
		o.CustomerComplaint = *in.CustomerComplaint
	}
	if in.Diagnosis != nil {
		o.Diagnosis = *in.Diagnosis
	}
	if in.WorkDetail != nil {
		o.WorkDetail = *in.WorkDetail
	}
	if in.Recommendations != nil {
		o.Recommendations = *in.Recommendations
	}
	if in.WarrantyUntil != nil {
		o.WarrantyUntil = in.WarrantyUntil
	}
	if in.DiscountAmount != nil {
		o.DiscountAmount = *in.DiscountAmount
	}
	o.UpdatedAt = time.Now()
	return nil
}

func (t *memTx) SetStatus(ctx context.Context, id int64, status Status) error {
	o, ok := t.r.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	return nil
}

func (t *memTx) DeleteOrder(ctx context.Context, id int64) error {
	if _, ok := t.r.orders[id]; !ok {
		return ErrNotFound
	}
	delete(t.r.orders, id)
	for pid, p := range t.r.parts {
		if p.WorkOrderID == id {
			delete(t.r.parts, pid)
		}
	}
	for lid, l := range t.r.labor {
		if l.WorkOrderID == id {
			delete(t.r.labor, lid)
		}
	}
	return nil
}

func (t *memTx) InsertPart(ctx context.Context, p *WorkPart) error {
	p.ID = t.r.id()
	cp := *p
	t.r.parts[p.ID] = &cp
	return nil
}

func (t *memTx) UpdatePart(ctx context.Context, p *WorkPart) error {
	if _, ok := t.r.parts[p.ID]; !ok {
		return ErrNotFound
	}
	cp := *p
	t.r.parts[p.ID] = &cp
	return nil
}

func (t *memTx) DeletePart(ctx context.Context, orderID, partID int64) (*WorkPart, error) {
	p, ok := t.r.parts[partID]
	if !ok || p.WorkOrderID != orderID {
		return nil, ErrNotFound
	}
	delete(t.r.parts, partID)
	return p, nil
}

func (t *memTx) GetPart(ctx context.Context, orderID, partID int64) (*WorkPart, error) {
	p, ok := t.r.parts[partID]
	if !ok || p.WorkOrderID != orderID {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (t *memTx) InsertLabor(ctx context.Context, l *WorkLabor) error {
	l.ID = t.r.id()
	cp := *l
	t.r.labor[l.ID] = &cp
	return nil
}

func (t *memTx) UpdateLabor(ctx context.Context, l *WorkLabor) error {
	if _, ok := t.r.labor[l.ID]; !ok {
		return ErrNotFound
	}
	cp := *l
	t.r.labor[l.ID] = &cp
	return nil
}

func (t *memTx) DeleteLabor(ctx context.Context, orderID, laborID int64) (*WorkLabor, error) {
	l, ok := t.r.labor[laborID]
	if !ok || l.WorkOrderID != orderID {
		return nil, ErrNotFound
	}
	delete(t.r.labor, laborID)
	return l, nil
}

func (t *memTx) GetLabor(ctx context.Context, orderID, laborID int64) (*WorkLabor, error) {
	l, ok := t.r.labor[laborID]
	if !ok || l.WorkOrderID != orderID {
		return nil, ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (t *memTx) SumParts(ctx context.Context, orderID int64) (int64, error) {
	var sum int64
	for _, p := range t.r.parts {
		if p.WorkOrderID == orderID {
			sum += p.LineTotal
		}
	}
	return sum, nil
}

func (t *memTx) SumLabor(ctx context.Context, orderID int64) (int64, error) {
	var sum int64
	for _, l := range t.r.labor {
		if l.WorkOrderID == orderID {
			sum += l.Price
		}
	}
	return sum, nil
}

func (t *memTx) SaveTotals(ctx context.Context, orderID int64, totals Totals) error {
	o, ok := t.r.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.SubtotalParts = totals.SubtotalParts
	o.SubtotalLabor = totals.SubtotalLabor
	o.TaxAmount = totals.TaxAmount
	o.TotalAmount = totals.TotalAmount
	o.UpdatedAt = time.Now()
	return nil
}

func newTestService(repo RepositoryPort) *Service {
	s := NewService(repo, 0.1, time.UTC)
	s.now = func() time.Time {
		return time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)
	}
	return s
}

func createOrder(t *testing.T, s *Service) *WorkOrder {
	t.Helper()
	order, err := s.Create(context.Background(), CreateInput{BranchID: 1, VehicleID: 1})
	require.NoError(t, err)
	return order
}

func TestCreateAssignsSequentialOrderNos(t *testing.T) {
	s := newTestService(newMemRepo())

	first := createOrder(t, s)
	second := createOrder(t, s)
	third := createOrder(t, s)

	require.Equal(t, "20250307-001", first.OrderNo)
	require.Equal(t, "20250307-002", second.OrderNo)
	require.Equal(t, "20250307-003", third.OrderNo)
	require.Equal(t, StatusReceived, first.Status)
}

func TestCreateValidation(t *testing.T) {
	s := newTestService(newMemRepo())
	ctx := context.Background()

	_, err := s.Create(ctx, CreateInput{VehicleID: 1})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Create(ctx, CreateInput{BranchID: 1})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Create(ctx, CreateInput{BranchID: 1, VehicleID: 1, Status: "FIXED"})
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = s.Create(ctx, CreateInput{BranchID: 1, VehicleID: 1, DiscountAmount: -1})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeletedOrderNumberNotReused(t *testing.T) {
	s := newTestService(newMemRepo())
	ctx := context.Background()

	createOrder(t, s)
	second := createOrder(t, s)

	require.NoError(t, s.Delete(ctx, second.ID))

	third := createOrder(t, s)
	require.Equal(t, "20250307-003", third.OrderNo)
}

func TestCreateSkipsManuallyInsertedNumber(t *testing.T) {
	repo := newMemRepo()
	s := newTestService(repo)

	// A writer that inserts an order number without the allocator
	// leaves the counter behind. The next Create must still find a
	// free number instead of burning its retries on the same one.
	repo.orders[99] = &WorkOrder{ID: 99, BranchID: 1, VehicleID: 1, OrderNo: "20250307-001", Status: StatusReceived}

	order := createOrder(t, s)
	require.Equal(t, "20250307-002", order.OrderNo)
}

func TestConcurrentCreatesGetDistinctNos(t *testing.T) {
	s := newTestService(newMemRepo())

	const n = 25
	results := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := s.Create(context.Background(), CreateInput{BranchID: 1, VehicleID: 1})
			if err != nil {
				results <- "error: " + err.Error()
				return
			}
			results <- order.OrderNo
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for no := range results {
		require.NotContains(t, no, "error")
		require.False(t, seen[no], "order number %s issued twice", no)
		seen[no] = true
	}
	require.Len(t, seen, n)
}

// flakyRepo drops the first insert attempts with a uniqueness conflict,
// the way a racing writer outside the transaction would.
type flakyRepo struct {
	*memRepo
	failures int
}

func (r *flakyRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepositoryPort) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx, &flakyTx{memTx: &memTx{r: r.memRepo}, repo: r})
}

type flakyTx struct {
	*memTx
	repo *flakyRepo
}

func (t *flakyTx) InsertOrder(ctx context.Context, o *WorkOrder) error {
	if t.repo.failures > 0 {
		t.repo.failures--
		return ErrOrderNoConflict
	}
	return t.memTx.InsertOrder(ctx, o)
}

func TestCreateRetriesAfterAllocationConflict(t *testing.T) {
	repo := &flakyRepo{memRepo: newMemRepo(), failures: 2}
	s := newTestService(repo)

	order := createOrder(t, s)
	require.Equal(t, "20250307-001", order.OrderNo)
}

func TestCreateGivesUpAfterRetryBudget(t *testing.T) {
	repo := &flakyRepo{memRepo: newMemRepo(), failures: allocRetries}
	s := newTestService(repo)

	_, err := s.Create(context.Background(), CreateInput{BranchID: 1, VehicleID: 1})
	require.ErrorIs(t, err, ErrOrderNoConflict)
}

func TestAddPartAndLaborRecomputeTotals(t *testing.T) {
	s := newTestService(newMemRepo())
	ctx := context.Background()

	order, err := s.Create(ctx, CreateInput{BranchID: 1, VehicleID: 1, DiscountAmount: 5000})
	require.NoError(t, err)

	_, err = s.AddPart(ctx, order.ID, PartInput{PartName: "brake pads", Qty: 2, UnitPrice: 15000})
	require.NoError(t, err)
	_, err = s.AddLabor(ctx, order.ID, LaborInput{LaborName: "brake service", Price: 20000})
	require.NoError(t, err)

	got, err := s.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, int64(30000), got.SubtotalParts)
	require.Equal(t, int64(20000), got.SubtotalLabor)
	require.Equal(t, int64(4500), got.TaxAmount)
	require.Equal(t, int64(49500), got.TotalAmount)
}

func TestRecomputeRepairsDriftedAggregates(t *testing.T) {
	repo := newMemRepo()
	s := newTestService(repo)
	ctx := context.Background()

	order := createOrder(t, s)
	_, err := s.AddPart(ctx, order.ID, PartInput{PartName: "brake pads", Qty: 2, UnitPrice: 15000})
	require.NoError(t, err)

	// Drift the stored aggregates behind the service's back.
	repo.orders[order.ID].SubtotalParts = 1
	repo.orders[order.ID].TaxAmount = 1
	repo.orders[order.ID].TotalAmount = 1

	require.NoError(t, s.Recompute(ctx, order.ID))

	got, err := s.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, int64(30000), got.SubtotalParts)
	require.Equal(t, int64(3000), got.TaxAmount)
	require.Equal(t, int64(33000), got.TotalAmount)
}

func TestRecomputeUnknownOrder(t *testing.T) {
	s := newTestService(newMemRepo())

	err := s.Recompute(context.Background(), 404)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePartRederivesLineTotal(t *testing.T) {
	s := newTestService(newMemRepo())
	ctx := context.Background()

	order := createOrder(t, s)
	part, err := s.AddPart(ctx, order.ID, PartInput{PartName: "chain", Qty: 1, UnitPrice: 40000})
	require.NoError(t, err)
	require.Equal(t, int64(40000), part.LineTotal)

	updated, err := s.UpdatePart(ctx, order.ID, part.ID, PartInput{PartName: "chain", Qty: 1.5, UnitPrice: 40000})
	require.NoError(t, err)
	require.Equal(t, int64(60000), updated.LineTotal)

	got, err := s.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, int64(60000), got.SubtotalParts)
	require.Equal(t, int64(66000), got.TotalAmount)
}

func TestDeleteLastLineItemZeroesTotals(t *testing.T) {
	s := newTestService(newMemRepo())
	ctx := context.Background()

	order := createOrder(t, s)
	part, err := s.AddPart(ctx, order.ID, PartInput{PartName: "spark plug", Qty: 4, UnitPrice: 8000})
	require.NoError(t, err)

	require.NoError(t, s.DeletePart(ctx, order.ID, part.ID))

	got, err := s.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Zero(t, got.SubtotalParts)
	require.Zero(t, got.TaxAmount)
	require.Zero(t, got.TotalAmount)
}

func TestUpdateDiscountTriggersRecompute(t *testing.T) {
	s := newTestService(newMemRepo())
	ctx := context.Background()

	order := createOrder(t, s)
	_, err := s.AddLabor(ctx, order.ID, LaborInput{LaborName: "diagnostics", Price: 30000})
	require.NoError(t, err)

	discount := int64(10000)
	updated, err := s.Update(ctx, order.ID, UpdateInput{DiscountAmount: &discount})
	require.NoError(t, err)
	require.Equal(t, int64(2000), updated.TaxAmount)
	require.Equal(t, int64(22000), updated.TotalAmount)
}

func TestUpdateLeavesOrderNoIntact(t *testing.T) {
	s := newTestService(newMemRepo())
	ctx := context.Background()

	order := createOrder(t, s)
	assignee := "mechanic kim"
	updated, err := s.Update(ctx, order.ID, UpdateInput{AssignedTo: &assignee})
	require.NoError(t, err)
	require.Equal(t, order.OrderNo, updated.OrderNo)
	require.Equal(t, assignee, updated.AssignedTo)
}

func TestSetStatus(t *testing.T) {
	s := newTestService(newMemRepo())
	ctx := context.Background()

	order := createOrder(t, s)

	require.ErrorIs(t, s.SetStatus(ctx, order.ID, "BROKEN"), ErrInvalidStatus)

	// No transition graph: released orders can go straight back to
	// received.
	require.NoError(t, s.SetStatus(ctx, order.ID, StatusReleased))
	require.NoError(t, s.SetStatus(ctx, order.ID, StatusReceived))
}

func TestLineItemValidation(t *testing.T) {
	s := newTestService(newMemRepo())
	ctx := context.Background()
	order := createOrder(t, s)

	_, err := s.AddPart(ctx, order.ID, PartInput{Qty: 1, UnitPrice: 100})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.AddPart(ctx, order.ID, PartInput{PartName: "bolt", Qty: -1, UnitPrice: 100})
	require.ErrorIs(t, err, ErrInvalidInput)

	// Omitted qty defaults to one.
	part, err := s.AddPart(ctx, order.ID, PartInput{PartName: "bolt", UnitPrice: 100})
	require.NoError(t, err)
	require.Equal(t, float64(1), part.Qty)
	require.Equal(t, int64(100), part.LineTotal)

	_, err = s.AddLabor(ctx, order.ID, LaborInput{Price: 100})
	require.ErrorIs(t, err, ErrInvalidInput)

	minutes := -5
	_, err = s.AddLabor(ctx, order.ID, LaborInput{LaborName: "wash", Minutes: &minutes, Price: 100})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestLineItemsScopedToOrder(t *testing.T) {
	s := newTestService(newMemRepo())
	ctx := context.Background()

	first := createOrder(t, s)
	second := createOrder(t, s)

	part, err := s.AddPart(ctx, first.ID, PartInput{PartName: "lever", Qty: 1, UnitPrice: 12000})
	require.NoError(t, err)

	err = s.DeletePart(ctx, second.ID, part.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListRejectsUnknownStatusFilter(t *testing.T) {
	s := newTestService(newMemRepo())
	_, _, err := s.List(context.Background(), ListRequest{Status: "WHATEVER"})
	require.ErrorIs(t, err, ErrInvalidStatus)
}
