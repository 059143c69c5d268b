package inbound

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
	orders map[id.ID]*PurchaseOrder
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: make(map[id.ID]*PurchaseOrder)}
}

func (r *fakeRepo) Create(_ context.Context, po *PurchaseOrder) error {
	cp := *po
	r.orders[po.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, orderID id.ID) (*PurchaseOrder, error) {
	po, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("purchase order", orderID.String())
	}
	cp := *po
	cp.Lines = append([]Line(nil), po.Lines...)
	return &cp, nil
}

func (r *fakeRepo) GetByIDForUpdate(ctx context.Context, orderID id.ID) (*PurchaseOrder, error) {
	return r.GetByID(ctx, orderID)
}

// Update enforces the optimistic lock the way the real repository does.
func (r *fakeRepo) Update(_ context.Context, po *PurchaseOrder) error {
	stored, ok := r.orders[po.ID]
	if !ok {
		return apperror.NewNotFound("purchase order", po.ID.String())
	}
	if stored.Version != po.Version {
		return apperror.NewConcurrentModification("doc_purchase_orders", po.ID.String())
	}
	cp := *po
	cp.Lines = append([]Line(nil), po.Lines...)
	cp.Version = stored.Version + 1
	r.orders[po.ID] = &cp
	return nil
}

func (r *fakeRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*PurchaseOrder], error) {
	panic("not used in tests")
}

// fakeStock records posted deltas and tracks on-hand like the real ledger.
type fakeStock struct {
	onHand map[id.ID]int64
	refs   []ledger.Ref
	deltas []int64
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
	s.refs = append(s.refs, ref)
	s.deltas = append(s.deltas, delta)
	return next, nil
}

// fakeTxManager restores repo and stock state when the outermost call fails.
type fakeTxManager struct {
	repo  *fakeRepo
	stock *fakeStock
	depth int

	savedOrders map[id.ID]*PurchaseOrder
	savedStock  map[id.ID]int64
	savedDeltas int
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.depth == 0 {
		m.savedOrders = make(map[id.ID]*PurchaseOrder, len(m.repo.orders))
		for k, v := range m.repo.orders {
			cp := *v
			cp.Lines = append([]Line(nil), v.Lines...)
			m.savedOrders[k] = &cp
		}
		m.savedStock = make(map[id.ID]int64, len(m.stock.onHand))
		for k, v := range m.stock.onHand {
			m.savedStock[k] = v
		}
		m.savedDeltas = len(m.stock.deltas)
	}
	m.depth++
	err := fn(ctx)
	m.depth--
	if err != nil && m.depth == 0 {
		m.repo.orders = m.savedOrders
		m.stock.onHand = m.savedStock
		m.stock.deltas = m.stock.deltas[:m.savedDeltas]
		m.stock.refs = m.stock.refs[:m.savedDeltas]
	}
	return err
}

func newTestService() (*Service, *fakeRepo, *fakeStock) {
	repo := newFakeRepo()
	stock := newFakeStock()
	svc := NewService(repo, stock, nil, &fakeTxManager{repo: repo, stock: stock})
	return svc, repo, stock
}

func seedOrder(t *testing.T, repo *fakeRepo, status Status, quantities ...int64) *PurchaseOrder {
	t.Helper()
	po := NewPurchaseOrder("Acme Supplies")
	po.Number = "PO-2026-00001"
	for _, qty := range quantities {
		po.AddLine(id.New(), qty, types.MustMoney("2.50"))
	}
	po.Status = status
	require.NoError(t, repo.Create(context.Background(), po))
	return po
}

func TestCreate_ComputesTotal(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	po := NewPurchaseOrder("Acme Supplies")
	po.Number = "PO-2026-00042"
	po.AddLine(id.New(), 10, types.MustMoney("2.50"))
	po.AddLine(id.New(), 4, types.MustMoney("1.00"))

	require.NoError(t, svc.Create(ctx, po))

	stored, err := repo.GetByID(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, stored.Status)
	assert.True(t, stored.Total.Equal(types.MustMoney("29.00")))
}

func TestCreate_RejectsNonDraft(t *testing.T) {
	svc, _, _ := newTestService()

	po := NewPurchaseOrder("Acme Supplies")
	po.Status = StatusApproved
	po.AddLine(id.New(), 1, types.MustMoney("1.00"))

	err := svc.Create(context.Background(), po)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestLifecycle_ForwardOnly(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	po := seedOrder(t, repo, StatusDraft, 5)

	require.NoError(t, svc.Submit(ctx, po.ID))
	require.NoError(t, svc.Approve(ctx, po.ID))
	require.NoError(t, svc.MarkShipped(ctx, po.ID))

	stored, err := repo.GetByID(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, stored.Status)
}

func TestLifecycle_NoSkipping(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	po := seedOrder(t, repo, StatusDraft, 5)

	err := svc.Approve(ctx, po.ID) // draft -> approved skips pending
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
}

func TestReceiveItems_CumulativeAndIdempotent(t *testing.T) {
	svc, repo, stock := newTestService()
	ctx := context.Background()
	po := seedOrder(t, repo, StatusShipped, 10, 4)
	lineA, lineB := po.Lines[0], po.Lines[1]

	// Partial receipt: 6 of 10 on line A.
	res, err := svc.ReceiveItems(ctx, po.ID, []ReceiptLine{{LineID: lineA.LineID, ReceivedQty: 6}})
	require.NoError(t, err)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, int64(6), res.Applied[0].Delta)
	assert.Equal(t, StatusShipped, res.Status)
	assert.Equal(t, int64(6), stock.onHand[lineA.ProductID])

	// Resubmitting the same cumulative total posts nothing.
	res, err = svc.ReceiveItems(ctx, po.ID, []ReceiptLine{{LineID: lineA.LineID, ReceivedQty: 6}})
	require.NoError(t, err)
	assert.Empty(t, res.Applied)
	assert.Equal(t, int64(6), stock.onHand[lineA.ProductID])

	// A higher total posts only the difference.
	res, err = svc.ReceiveItems(ctx, po.ID, []ReceiptLine{{LineID: lineA.LineID, ReceivedQty: 10}})
	require.NoError(t, err)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, int64(4), res.Applied[0].Delta)
	assert.Equal(t, int64(10), stock.onHand[lineA.ProductID])

	// Completing the last line flips the order to received.
	res, err = svc.ReceiveItems(ctx, po.ID, []ReceiptLine{{LineID: lineB.LineID, ReceivedQty: 4}})
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, res.Status)

	for _, ref := range stock.refs {
		assert.Equal(t, ledger.ReasonPurchaseReceipt, ref.Reason)
		assert.Equal(t, po.ID, ref.RecorderID)
	}
}

func TestReceiveItems_OverReceiptCollectedPerLine(t *testing.T) {
	svc, repo, stock := newTestService()
	ctx := context.Background()
	po := seedOrder(t, repo, StatusShipped, 10, 4)
	lineA, lineB := po.Lines[0], po.Lines[1]

	res, err := svc.ReceiveItems(ctx, po.ID, []ReceiptLine{
		{LineID: lineA.LineID, ReceivedQty: 12}, // over 10 ordered
		{LineID: lineB.LineID, ReceivedQty: 4},
	})
	require.NoError(t, err)

	// The bad line is reported, the good line still lands.
	require.Len(t, res.Errors, 1)
	assert.Equal(t, lineA.LineID, res.Errors[0].LineID)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, int64(4), stock.onHand[lineB.ProductID])
	assert.Equal(t, int64(0), stock.onHand[lineA.ProductID])
}

func TestReceiveItems_UnknownLine(t *testing.T) {
	svc, repo, _ := newTestService()
	po := seedOrder(t, repo, StatusShipped, 10)

	res, err := svc.ReceiveItems(context.Background(), po.ID, []ReceiptLine{
		{LineID: id.New(), ReceivedQty: 1},
	})
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Empty(t, res.Applied)
}

func TestReceiveItems_RequiresShipped(t *testing.T) {
	svc, repo, _ := newTestService()
	po := seedOrder(t, repo, StatusPending, 10)

	_, err := svc.ReceiveItems(context.Background(), po.ID, []ReceiptLine{
		{LineID: po.Lines[0].LineID, ReceivedQty: 1},
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
}

func TestCancel_KeepsReceivedStock(t *testing.T) {
	svc, repo, stock := newTestService()
	ctx := context.Background()
	po := seedOrder(t, repo, StatusShipped, 10)
	line := po.Lines[0]

	_, err := svc.ReceiveItems(ctx, po.ID, []ReceiptLine{{LineID: line.LineID, ReceivedQty: 6}})
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, po.ID))

	stored, err := repo.GetByID(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)

	// Goods on the shelf stay on the shelf.
	assert.Equal(t, int64(6), stock.onHand[line.ProductID])
}

func TestCancel_ReceivedOrderRejected(t *testing.T) {
	svc, repo, stock := newTestService()
	ctx := context.Background()
	po := seedOrder(t, repo, StatusShipped, 10)
	line := po.Lines[0]

	// Full receipt auto-transitions the order to received.
	_, err := svc.ReceiveItems(ctx, po.ID, []ReceiptLine{{LineID: line.LineID, ReceivedQty: 10}})
	require.NoError(t, err)

	err = svc.Cancel(ctx, po.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)

	stored, err := repo.GetByID(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, stored.Status)
	assert.Equal(t, int64(10), stock.onHand[line.ProductID])
}

func TestCancel_TerminalStateRejected(t *testing.T) {
	svc, repo, _ := newTestService()
	po := seedOrder(t, repo, StatusCompleted, 10)

	err := svc.Cancel(context.Background(), po.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
}

func TestComplete_RequiresFullReceipt(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	po := seedOrder(t, repo, StatusShipped, 10)

	_, err := svc.ReceiveItems(ctx, po.ID, []ReceiptLine{{LineID: po.Lines[0].LineID, ReceivedQty: 10}})
	require.NoError(t, err)

	require.NoError(t, svc.Complete(ctx, po.ID))

	stored, err := repo.GetByID(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)
}

func TestComplete_PartialReceiptRejected(t *testing.T) {
	svc, repo, _ := newTestService()
	po := seedOrder(t, repo, StatusReceived, 10)
	po.Lines[0].ReceivedQty = 5
	require.NoError(t, repo.Update(context.Background(), po))

	err := svc.Complete(context.Background(), po.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}
