package outbound

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpile/internal/core/apperror"
	"stockpile/internal/core/id"
	"stockpile/internal/core/types"
	"stockpile/internal/domain"
	"stockpile/internal/domain/ledger"
)

// fakeRepo is an in-memory Repository.
type fakeRepo struct {
	orders map[id.ID]*CustomerOrder
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: make(map[id.ID]*CustomerOrder)}
}

func (r *fakeRepo) clone(co *CustomerOrder) *CustomerOrder {
	cp := *co
	cp.Lines = append([]Line(nil), co.Lines...)
	return &cp
}

func (r *fakeRepo) Create(_ context.Context, co *CustomerOrder) error {
	r.orders[co.ID] = r.clone(co)
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, orderID id.ID) (*CustomerOrder, error) {
	co, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("customer order", orderID.String())
	}
	return r.clone(co), nil
}

func (r *fakeRepo) GetByIDForUpdate(ctx context.Context, orderID id.ID) (*CustomerOrder, error) {
	return r.GetByID(ctx, orderID)
}

// Update enforces the optimistic lock the way the real repository does:
// the caller's version must match the stored row, and the stored row's
// version is bumped on success.
func (r *fakeRepo) Update(_ context.Context, co *CustomerOrder) error {
	stored, ok := r.orders[co.ID]
	if !ok {
		return apperror.NewNotFound("customer order", co.ID.String())
	}
	if stored.Version != co.Version {
		return apperror.NewConcurrentModification("doc_customer_orders", co.ID.String())
	}
	cp := r.clone(co)
	cp.Version = stored.Version + 1
	r.orders[co.ID] = cp
	return nil
}

func (r *fakeRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*CustomerOrder], error) {
	panic("not used in tests")
}

// fakeStock applies delta batches atomically like the real ledger.
type fakeStock struct {
	onHand  map[id.ID]int64
	reasons []ledger.Reason
	batches int
}

func newFakeStock() *fakeStock {
	return &fakeStock{onHand: make(map[id.ID]int64)}
}

func (s *fakeStock) ApplyDeltas(_ context.Context, deltas []ledger.Delta, ref ledger.Ref) error {
	next := make(map[id.ID]int64, len(deltas))
	for _, d := range deltas {
		cur, ok := next[d.ProductID]
		if !ok {
			cur = s.onHand[d.ProductID]
		}
		cur += d.Quantity
		if cur < 0 {
			return apperror.NewInsufficientStock(d.ProductID.String(), -d.Quantity, s.onHand[d.ProductID])
		}
		next[d.ProductID] = cur
	}
	for k, v := range next {
		s.onHand[k] = v
	}
	s.reasons = append(s.reasons, ref.Reason)
	s.batches++
	return nil
}

// fakeTxManager restores repo and stock state when the outermost call fails.
type fakeTxManager struct {
	repo  *fakeRepo
	stock *fakeStock
	depth int

	savedOrders  map[id.ID]*CustomerOrder
	savedStock   map[id.ID]int64
	savedBatches int
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.depth == 0 {
		m.savedOrders = make(map[id.ID]*CustomerOrder, len(m.repo.orders))
		for k, v := range m.repo.orders {
			m.savedOrders[k] = m.repo.clone(v)
		}
		m.savedStock = make(map[id.ID]int64, len(m.stock.onHand))
		for k, v := range m.stock.onHand {
			m.savedStock[k] = v
		}
		m.savedBatches = m.stock.batches
	}
	m.depth++
	err := fn(ctx)
	m.depth--
	if err != nil && m.depth == 0 {
		m.repo.orders = m.savedOrders
		m.stock.onHand = m.savedStock
		m.stock.batches = m.savedBatches
		m.stock.reasons = m.stock.reasons[:m.savedBatches]
	}
	return err
}

func newTestService() (*Service, *fakeRepo, *fakeStock) {
	repo := newFakeRepo()
	stock := newFakeStock()
	svc := NewService(repo, stock, nil, &fakeTxManager{repo: repo, stock: stock})
	return svc, repo, stock
}

func seedOrder(t *testing.T, repo *fakeRepo, stock *fakeStock, quantity, onHand int64) *CustomerOrder {
	t.Helper()
	co := NewCustomerOrder("Blue Bottle Cafe")
	co.Number = "SO-2026-00001"
	co.AddLine(id.New(), quantity, types.MustMoney("9.90"))
	stock.onHand[co.Lines[0].ProductID] = onHand
	require.NoError(t, repo.Create(context.Background(), co))
	return co
}

func TestTransitionEffect_Table(t *testing.T) {
	tests := []struct {
		name     string
		reserved bool
		target   Status
		want     Effect
	}{
		{"unreserved to confirmed reserves", false, StatusConfirmed, EffectReserve},
		{"unreserved to processing reserves", false, StatusProcessing, EffectReserve},
		{"unreserved to delivered reserves", false, StatusDelivered, EffectReserve},
		{"reserved to processing is neutral", true, StatusProcessing, EffectNone},
		{"reserved to shipped is neutral", true, StatusShipped, EffectNone},
		{"reserved to cancelled releases", true, StatusCancelled, EffectRelease},
		{"reserved to rejected releases", true, StatusRejected, EffectRelease},
		{"unreserved to cancelled is neutral", false, StatusCancelled, EffectNone},
		{"unreserved to rejected is neutral", false, StatusRejected, EffectNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TransitionEffect(tt.reserved, tt.target))
		})
	}
}

func TestTransition_ReservationSymmetry(t *testing.T) {
	svc, repo, stock := newTestService()
	ctx := context.Background()
	co := seedOrder(t, repo, stock, 4, 30)
	productID := co.Lines[0].ProductID

	res, err := svc.Confirm(ctx, co.ID)
	require.NoError(t, err)
	assert.Equal(t, EffectReserve, res.Effect)
	assert.True(t, res.StockReserved)
	assert.Equal(t, int64(26), stock.onHand[productID])

	res, err = svc.Cancel(ctx, co.ID)
	require.NoError(t, err)
	assert.Equal(t, EffectRelease, res.Effect)
	assert.False(t, res.StockReserved)
	assert.Equal(t, int64(30), stock.onHand[productID])

	assert.Equal(t, []ledger.Reason{ledger.ReasonOrderReservation, ledger.ReasonOrderRelease}, stock.reasons)
}

func TestTransition_NoDoubleReservation(t *testing.T) {
	svc, repo, stock := newTestService()
	ctx := context.Background()
	co := seedOrder(t, repo, stock, 4, 30)
	productID := co.Lines[0].ProductID

	for _, target := range []Status{StatusConfirmed, StatusProcessing, StatusShipped} {
		_, err := svc.Transition(ctx, co.ID, target)
		require.NoError(t, err)
	}

	// Decremented exactly once across the whole march.
	assert.Equal(t, int64(26), stock.onHand[productID])
	assert.Equal(t, 1, stock.batches)
}

func TestTransition_DirectJumpStillReserves(t *testing.T) {
	svc, repo, stock := newTestService()
	ctx := context.Background()
	co := seedOrder(t, repo, stock, 4, 30)
	productID := co.Lines[0].ProductID

	res, err := svc.Transition(ctx, co.ID, StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, EffectReserve, res.Effect)
	assert.Equal(t, int64(26), stock.onHand[productID])
}

func TestTransition_PendingCancelHasNoEffect(t *testing.T) {
	svc, repo, stock := newTestService()
	ctx := context.Background()
	co := seedOrder(t, repo, stock, 4, 30)
	productID := co.Lines[0].ProductID

	res, err := svc.Cancel(ctx, co.ID)
	require.NoError(t, err)
	assert.Equal(t, EffectNone, res.Effect)
	assert.Equal(t, int64(30), stock.onHand[productID])
	assert.Zero(t, stock.batches)
}

func TestTransition_RepeatedTargetIsNoOp(t *testing.T) {
	svc, repo, stock := newTestService()
	ctx := context.Background()
	co := seedOrder(t, repo, stock, 4, 30)
	productID := co.Lines[0].ProductID

	_, err := svc.Confirm(ctx, co.ID)
	require.NoError(t, err)

	res, err := svc.Confirm(ctx, co.ID)
	require.NoError(t, err)
	assert.Equal(t, EffectNone, res.Effect)
	assert.True(t, res.StockReserved)
	assert.Equal(t, int64(26), stock.onHand[productID])
	assert.Equal(t, 1, stock.batches)
}

func TestTransition_SurvivesOptimisticLock(t *testing.T) {
	svc, repo, stock := newTestService()
	ctx := context.Background()
	co := seedOrder(t, repo, stock, 4, 30)

	// Each transition rewrites the row under the version check; none of
	// them may trip the lock against its own freshly-read version.
	for _, target := range []Status{StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered} {
		_, err := svc.Transition(ctx, co.ID, target)
		require.NoError(t, err)
	}

	stored, err := repo.GetByID(ctx, co.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, stored.Status)
	assert.Equal(t, 5, stored.Version)
}

func TestTransition_TerminalStateRejectsFurtherChanges(t *testing.T) {
	svc, repo, stock := newTestService()
	ctx := context.Background()
	co := seedOrder(t, repo, stock, 4, 30)

	_, err := svc.Transition(ctx, co.ID, StatusDelivered)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, co.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
}

func TestTransition_ShippedCannotCancel(t *testing.T) {
	svc, repo, stock := newTestService()
	ctx := context.Background()
	co := seedOrder(t, repo, stock, 4, 30)

	_, err := svc.Transition(ctx, co.ID, StatusShipped)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, co.ID)
	require.Error(t, err)
	assert.Equal(t, int64(26), stock.onHand[co.Lines[0].ProductID])
}

func TestTransition_InsufficientStockLeavesOrderPending(t *testing.T) {
	svc, repo, stock := newTestService()
	ctx := context.Background()
	co := seedOrder(t, repo, stock, 40, 10)
	productID := co.Lines[0].ProductID

	_, err := svc.Confirm(ctx, co.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	stored, err := repo.GetByID(ctx, co.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.False(t, stored.StockReserved)
	assert.Equal(t, int64(10), stock.onHand[productID])
}

func TestTransition_MultiLineReserveIsAtomic(t *testing.T) {
	svc, repo, stock := newTestService()
	ctx := context.Background()

	co := NewCustomerOrder("Blue Bottle Cafe")
	co.Number = "SO-2026-00002"
	co.AddLine(id.New(), 10, types.MustMoney("5.00"))
	co.AddLine(id.New(), 5, types.MustMoney("5.00"))
	stock.onHand[co.Lines[0].ProductID] = 100
	stock.onHand[co.Lines[1].ProductID] = 1
	require.NoError(t, repo.Create(ctx, co))

	_, err := svc.Confirm(ctx, co.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// Neither line's decrement survives.
	assert.Equal(t, int64(100), stock.onHand[co.Lines[0].ProductID])
	assert.Equal(t, int64(1), stock.onHand[co.Lines[1].ProductID])
}

func TestCreate_PendingOnly(t *testing.T) {
	svc, _, _ := newTestService()

	co := NewCustomerOrder("Blue Bottle Cafe")
	co.Status = StatusConfirmed
	co.AddLine(id.New(), 1, types.MustMoney("1.00"))

	err := svc.Create(context.Background(), co)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}
