package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpile/internal/core/apperror"
	"stockpile/internal/core/id"
)

// fakeRepo is an in-memory Repository.
type fakeRepo struct {
	onHand    map[id.ID]int64
	movements []Movement
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{onHand: make(map[id.ID]int64)}
}

func (r *fakeRepo) GetOnHand(_ context.Context, productID id.ID) (int64, error) {
	qty, ok := r.onHand[productID]
	if !ok {
		return 0, apperror.NewNotFound("product", productID.String())
	}
	return qty, nil
}

func (r *fakeRepo) GetOnHandForUpdate(ctx context.Context, productID id.ID) (int64, error) {
	return r.GetOnHand(ctx, productID)
}

func (r *fakeRepo) SetOnHand(_ context.Context, productID id.ID, quantity int64) error {
	r.onHand[productID] = quantity
	return nil
}

func (r *fakeRepo) InsertMovement(_ context.Context, m Movement) error {
	r.movements = append(r.movements, m)
	return nil
}

func (r *fakeRepo) ListMovements(_ context.Context, _ MovementFilter) ([]Movement, error) {
	return r.movements, nil
}

func (r *fakeRepo) snapshot() map[id.ID]int64 {
	s := make(map[id.ID]int64, len(r.onHand))
	for k, v := range r.onHand {
		s[k] = v
	}
	return s
}

// fakeTxManager simulates transaction semantics against the fake repo:
// nested calls reuse the outer transaction, and an error from the
// outermost call restores the repo state taken at BEGIN.
type fakeTxManager struct {
	repo  *fakeRepo
	depth int
	saved map[id.ID]int64
	moves int
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.depth == 0 {
		m.saved = m.repo.snapshot()
		m.moves = len(m.repo.movements)
	}
	m.depth++
	err := fn(ctx)
	m.depth--
	if err != nil && m.depth == 0 {
		m.repo.onHand = m.saved
		m.repo.movements = m.repo.movements[:m.moves]
	}
	return err
}

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(repo, &fakeTxManager{repo: repo}), repo
}

func TestApplyDelta_IncrementAndDecrement(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	productID := id.New()
	repo.onHand[productID] = 10

	ref := Ref{RecorderID: id.New(), RecorderType: "PurchaseOrder", Reason: ReasonPurchaseReceipt}

	qty, err := svc.ApplyDelta(ctx, productID, 20, ref)
	require.NoError(t, err)
	assert.Equal(t, int64(30), qty)

	qty, err = svc.ApplyDelta(ctx, productID, -4, ref)
	require.NoError(t, err)
	assert.Equal(t, int64(26), qty)

	assert.Len(t, repo.movements, 2)
	assert.Equal(t, int64(20), repo.movements[0].Delta)
	assert.Equal(t, int64(30), repo.movements[0].Resulting)
}

func TestApplyDelta_InsufficientStock(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	productID := id.New()
	repo.onHand[productID] = 10

	_, err := svc.ApplyDelta(ctx, productID, -50, Ref{Reason: ReasonBillSale})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, int64(40), appErr.Details["shortfall"])
	assert.Equal(t, int64(10), appErr.Details["available"])

	// Quantity unchanged, no movement recorded.
	qty, err := svc.GetOnHand(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), qty)
	assert.Empty(t, repo.movements)
}

func TestApplyDelta_ZeroDeltaIsNoOp(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	productID := id.New()
	repo.onHand[productID] = 7

	qty, err := svc.ApplyDelta(ctx, productID, 0, Ref{Reason: ReasonPurchaseReceipt})
	require.NoError(t, err)
	assert.Equal(t, int64(7), qty)
	assert.Empty(t, repo.movements)
}

func TestApplyDelta_UnknownProduct(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ApplyDelta(context.Background(), id.New(), 5, Ref{Reason: ReasonPurchaseReceipt})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestApplyDeltas_AllOrNothing(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	a, b := id.New(), id.New()
	repo.onHand[a] = 100
	repo.onHand[b] = 1

	err := svc.ApplyDeltas(ctx, []Delta{
		{ProductID: a, Quantity: -10},
		{ProductID: b, Quantity: -5}, // fails
	}, Ref{Reason: ReasonOrderReservation})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// First delta rolled back with the second.
	assert.Equal(t, int64(100), repo.onHand[a])
	assert.Equal(t, int64(1), repo.onHand[b])
	assert.Empty(t, repo.movements)
}

func TestAdjust_ClampsToZero(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	productID := id.New()
	repo.onHand[productID] = 12

	qty, err := svc.Adjust(ctx, productID, -3, Ref{RecorderType: "Adjustment", Reason: ReasonAdjustment})
	require.NoError(t, err)
	assert.Equal(t, int64(0), qty)

	require.Len(t, repo.movements, 1)
	assert.Equal(t, int64(-12), repo.movements[0].Delta)
	assert.Equal(t, ReasonAdjustment, repo.movements[0].Reason)
}

func TestOnHandNeverObservedNegative(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	productID := id.New()
	repo.onHand[productID] = 5

	deltas := []int64{3, -6, -2, 4, -10, -4, 1}
	for _, d := range deltas {
		_, _ = svc.ApplyDelta(ctx, productID, d, Ref{Reason: ReasonAdjustment})
		qty, err := svc.GetOnHand(ctx, productID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, qty, int64(0))
	}
}
