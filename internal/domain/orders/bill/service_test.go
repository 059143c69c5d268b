package bill

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
	bills   map[id.ID]*Bill
	deleted map[id.ID]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{bills: make(map[id.ID]*Bill), deleted: make(map[id.ID]bool)}
}

func (r *fakeRepo) clone(b *Bill) *Bill {
	cp := *b
	cp.Items = append([]Item(nil), b.Items...)
	return &cp
}

func (r *fakeRepo) Create(_ context.Context, b *Bill) error {
	r.bills[b.ID] = r.clone(b)
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, billID id.ID) (*Bill, error) {
	b, ok := r.bills[billID]
	if !ok {
		return nil, apperror.NewNotFound("bill", billID.String())
	}
	return r.clone(b), nil
}

func (r *fakeRepo) GetByIDForUpdate(ctx context.Context, billID id.ID) (*Bill, error) {
	return r.GetByID(ctx, billID)
}

// Update enforces the optimistic lock the way the real repository does.
func (r *fakeRepo) Update(_ context.Context, b *Bill) error {
	stored, ok := r.bills[b.ID]
	if !ok {
		return apperror.NewNotFound("bill", b.ID.String())
	}
	if stored.Version != b.Version {
		return apperror.NewConcurrentModification("doc_bills", b.ID.String())
	}
	cp := r.clone(b)
	cp.Version = stored.Version + 1
	r.bills[b.ID] = cp
	return nil
}

func (r *fakeRepo) SetDeletionMark(_ context.Context, billID id.ID, marked bool) error {
	if _, ok := r.bills[billID]; !ok {
		return apperror.NewNotFound("bill", billID.String())
	}
	r.deleted[billID] = marked
	return nil
}

func (r *fakeRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*Bill], error) {
	panic("not used in tests")
}

// fakeStock tracks on-hand per product like the real ledger.
type fakeStock struct {
	onHand  map[id.ID]int64
	reasons []ledger.Reason
}

func newFakeStock() *fakeStock {
	return &fakeStock{onHand: make(map[id.ID]int64)}
}

func (s *fakeStock) ApplyDelta(_ context.Context, productID id.ID, delta int64, ref ledger.Ref) (int64, error) {
	next := s.onHand[productID] + delta
	if next < 0 {
		return 0, apperror.NewInsufficientStock(productID.String(), -delta, s.onHand[productID])
	}
	s.onHand[productID] = next
	s.reasons = append(s.reasons, ref.Reason)
	return next, nil
}

// fakeTxManager restores repo and stock state when the outermost call fails.
type fakeTxManager struct {
	repo  *fakeRepo
	stock *fakeStock
	depth int

	savedBills   map[id.ID]*Bill
	savedStock   map[id.ID]int64
	savedReasons int
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.depth == 0 {
		m.savedBills = make(map[id.ID]*Bill, len(m.repo.bills))
		for k, v := range m.repo.bills {
			m.savedBills[k] = m.repo.clone(v)
		}
		m.savedStock = make(map[id.ID]int64, len(m.stock.onHand))
		for k, v := range m.stock.onHand {
			m.savedStock[k] = v
		}
		m.savedReasons = len(m.stock.reasons)
	}
	m.depth++
	err := fn(ctx)
	m.depth--
	if err != nil && m.depth == 0 {
		m.repo.bills = m.savedBills
		m.stock.onHand = m.savedStock
		m.stock.reasons = m.stock.reasons[:m.savedReasons]
	}
	return err
}

func newTestService() (*Service, *fakeRepo, *fakeStock) {
	repo := newFakeRepo()
	stock := newFakeStock()
	svc := NewService(repo, stock, nil, &fakeTxManager{repo: repo, stock: stock})
	return svc, repo, stock
}

func newBill(productID id.ID, quantity int64) *Bill {
	b := NewBill("Walk-in")
	b.Number = "BILL-2026-00001"
	b.AddItem(productID, quantity, types.MustMoney("3.50"))
	return b
}

func TestCreate_DecrementsSynchronously(t *testing.T) {
	svc, repo, stock := newTestService()
	ctx := context.Background()
	productID := id.New()
	stock.onHand[productID] = 10

	b := newBill(productID, 3)
	require.NoError(t, svc.Create(ctx, b))

	assert.Equal(t, int64(7), stock.onHand[productID])
	assert.Equal(t, []ledger.Reason{ledger.ReasonBillSale}, stock.reasons)

	stored, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.True(t, stored.Total.Equal(types.MustMoney("10.50")))
}

func TestCreate_InsufficientStockNamesProduct(t *testing.T) {
	svc, repo, stock := newTestService()
	ctx := context.Background()
	ok, short := id.New(), id.New()
	stock.onHand[ok] = 10
	stock.onHand[short] = 1

	b := NewBill("Walk-in")
	b.Number = "BILL-2026-00002"
	b.AddItem(ok, 2, types.MustMoney("3.50"))
	b.AddItem(short, 5, types.MustMoney("3.50"))

	err := svc.Create(ctx, b)
	require.Error(t, err)

	appErr, aok := apperror.AsAppError(err)
	require.True(t, aok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, short.String(), appErr.Details["product_id"])

	// No partial sale: the first item's decrement rolled back and no
	// bill was stored.
	assert.Equal(t, int64(10), stock.onHand[ok])
	assert.Equal(t, int64(1), stock.onHand[short])
	_, err = repo.GetByID(ctx, b.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestMarkPaid_NoLedgerEffect(t *testing.T) {
	svc, repo, stock := newTestService()
	ctx := context.Background()
	productID := id.New()
	stock.onHand[productID] = 10

	b := newBill(productID, 3)
	require.NoError(t, svc.Create(ctx, b))
	require.NoError(t, svc.MarkPaid(ctx, b.ID))

	stored, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, stored.Status)
	assert.Equal(t, int64(7), stock.onHand[productID])
}

func TestMarkPaid_Twice(t *testing.T) {
	svc, _, stock := newTestService()
	ctx := context.Background()
	productID := id.New()
	stock.onHand[productID] = 10

	b := newBill(productID, 3)
	require.NoError(t, svc.Create(ctx, b))
	require.NoError(t, svc.MarkPaid(ctx, b.ID))

	err := svc.MarkPaid(ctx, b.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
}

func TestCancel_RestoresPendingStock(t *testing.T) {
	svc, repo, stock := newTestService()
	ctx := context.Background()
	productID := id.New()
	stock.onHand[productID] = 10

	b := newBill(productID, 3)
	require.NoError(t, svc.Create(ctx, b))
	require.NoError(t, svc.Cancel(ctx, b.ID))

	assert.Equal(t, int64(10), stock.onHand[productID])
	assert.Equal(t, []ledger.Reason{ledger.ReasonBillSale, ledger.ReasonBillReversal}, stock.reasons)

	stored, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)
}

func TestCancel_PaidBillRejected(t *testing.T) {
	svc, _, stock := newTestService()
	ctx := context.Background()
	productID := id.New()
	stock.onHand[productID] = 10

	b := newBill(productID, 3)
	require.NoError(t, svc.Create(ctx, b))
	require.NoError(t, svc.MarkPaid(ctx, b.ID))

	err := svc.Cancel(ctx, b.ID)
	require.Error(t, err)
	assert.Equal(t, int64(7), stock.onHand[productID])
}

func TestDelete_PendingRestoresStock(t *testing.T) {
	svc, repo, stock := newTestService()
	ctx := context.Background()
	productID := id.New()
	stock.onHand[productID] = 10

	b := newBill(productID, 3)
	require.NoError(t, svc.Create(ctx, b))
	require.NoError(t, svc.Delete(ctx, b.ID))

	assert.Equal(t, int64(10), stock.onHand[productID])
	assert.True(t, repo.deleted[b.ID])
}

func TestDelete_PaidKeepsLedgerEffect(t *testing.T) {
	svc, repo, stock := newTestService()
	ctx := context.Background()
	productID := id.New()
	stock.onHand[productID] = 10

	b := newBill(productID, 3)
	require.NoError(t, svc.Create(ctx, b))
	require.NoError(t, svc.MarkPaid(ctx, b.ID))
	require.NoError(t, svc.Delete(ctx, b.ID))

	assert.Equal(t, int64(7), stock.onHand[productID])
	assert.True(t, repo.deleted[b.ID])
}
