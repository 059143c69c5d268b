package production

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpile/internal/core/apperror"
	"stockpile/internal/core/id"
	"stockpile/internal/core/types"
	"stockpile/internal/domain"
	"stockpile/internal/domain/catalog/material"
	"stockpile/internal/domain/catalog/recipe"
	"stockpile/internal/domain/ledger"
)

// fakeRepo is an in-memory Repository.
type fakeRepo struct {
	batches map[id.ID]*Batch
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{batches: make(map[id.ID]*Batch)}
}

func (r *fakeRepo) clone(b *Batch) *Batch {
	cp := *b
	cp.Lines = append([]BatchLine(nil), b.Lines...)
	return &cp
}

func (r *fakeRepo) Create(_ context.Context, b *Batch) error {
	r.batches[b.ID] = r.clone(b)
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, batchID id.ID) (*Batch, error) {
	b, ok := r.batches[batchID]
	if !ok {
		return nil, apperror.NewNotFound("production batch", batchID.String())
	}
	return r.clone(b), nil
}

func (r *fakeRepo) GetByIDForUpdate(ctx context.Context, batchID id.ID) (*Batch, error) {
	return r.GetByID(ctx, batchID)
}

// Update enforces the optimistic lock the way the real repository does.
func (r *fakeRepo) Update(_ context.Context, b *Batch) error {
	stored, ok := r.batches[b.ID]
	if !ok {
		return apperror.NewNotFound("production batch", b.ID.String())
	}
	if stored.Version != b.Version {
		return apperror.NewConcurrentModification("doc_production_batches", b.ID.String())
	}
	cp := r.clone(b)
	cp.Version = stored.Version + 1
	r.batches[b.ID] = cp
	return nil
}

func (r *fakeRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*Batch], error) {
	panic("not used in tests")
}

// fakeRecipes resolves active recipes per product.
type fakeRecipes struct {
	byProduct map[id.ID]*recipe.Recipe
}

func (f *fakeRecipes) GetByID(_ context.Context, recipeID id.ID) (*recipe.Recipe, error) {
	for _, r := range f.byProduct {
		if r.ID == recipeID {
			return r, nil
		}
	}
	return nil, apperror.NewNotFound("recipe", recipeID.String())
}

func (f *fakeRecipes) GetActiveByProduct(_ context.Context, productID id.ID) (*recipe.Recipe, error) {
	r, ok := f.byProduct[productID]
	if !ok {
		return nil, apperror.NewNotFound("recipe", productID.String())
	}
	return r, nil
}

// fakeMaterials tracks material stock like the real material service.
type fakeMaterials struct {
	stock map[id.ID]types.Quantity
	cost  map[id.ID]types.Money
	moves []material.StockMovement
}

func newFakeMaterials() *fakeMaterials {
	return &fakeMaterials{
		stock: make(map[id.ID]types.Quantity),
		cost:  make(map[id.ID]types.Money),
	}
}

func (f *fakeMaterials) GetByIDs(_ context.Context, materialIDs []id.ID) ([]*material.RawMaterial, error) {
	out := make([]*material.RawMaterial, 0, len(materialIDs))
	for _, mid := range materialIDs {
		stock, ok := f.stock[mid]
		if !ok {
			continue
		}
		m := &material.RawMaterial{CurrentStock: stock, CostPerUnit: f.cost[mid]}
		m.ID = mid
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeMaterials) ApplyStockDelta(_ context.Context, materialID id.ID, delta types.Quantity, ref material.StockRef) (types.Quantity, error) {
	next := f.stock[materialID] + delta
	if next.IsNegative() {
		return 0, apperror.NewInsufficientMaterial(materialID.String(), delta.Neg().String(), f.stock[materialID].String())
	}
	f.stock[materialID] = next
	f.moves = append(f.moves, material.StockMovement{
		MaterialID: materialID,
		Delta:      delta,
		Resulting:  next,
		Reason:     ref.Reason,
	})
	return next, nil
}

// fakeStock is the product ledger side.
type fakeStock struct {
	onHand map[id.ID]int64
}

func (s *fakeStock) ApplyDelta(_ context.Context, productID id.ID, delta int64, _ ledger.Ref) (int64, error) {
	next := s.onHand[productID] + delta
	if next < 0 {
		return 0, apperror.NewInsufficientStock(productID.String(), -delta, s.onHand[productID])
	}
	s.onHand[productID] = next
	return next, nil
}

// fakeTxManager restores all fake state when the outermost call fails.
type fakeTxManager struct {
	repo      *fakeRepo
	materials *fakeMaterials
	stock     *fakeStock
	depth     int

	savedBatches map[id.ID]*Batch
	savedStock   map[id.ID]types.Quantity
	savedOnHand  map[id.ID]int64
	savedMoves   int
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.depth == 0 {
		m.savedBatches = make(map[id.ID]*Batch, len(m.repo.batches))
		for k, v := range m.repo.batches {
			m.savedBatches[k] = m.repo.clone(v)
		}
		m.savedStock = make(map[id.ID]types.Quantity, len(m.materials.stock))
		for k, v := range m.materials.stock {
			m.savedStock[k] = v
		}
		m.savedOnHand = make(map[id.ID]int64, len(m.stock.onHand))
		for k, v := range m.stock.onHand {
			m.savedOnHand[k] = v
		}
		m.savedMoves = len(m.materials.moves)
	}
	m.depth++
	err := fn(ctx)
	m.depth--
	if err != nil && m.depth == 0 {
		m.repo.batches = m.savedBatches
		m.materials.stock = m.savedStock
		m.stock.onHand = m.savedOnHand
		m.materials.moves = m.materials.moves[:m.savedMoves]
	}
	return err
}

type fixture struct {
	svc       *Service
	repo      *fakeRepo
	materials *fakeMaterials
	stock     *fakeStock

	productID  id.ID
	matA, matB id.ID
}

// newFixture wires a product whose recipe needs 2 of A (10% wastage)
// and 1 of B per unit.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:      newFakeRepo(),
		materials: newFakeMaterials(),
		stock:     &fakeStock{onHand: make(map[id.ID]int64)},
		productID: id.New(),
		matA:      id.New(),
		matB:      id.New(),
	}

	rec := recipe.NewRecipe(f.productID, "Espresso Blend")
	rec.AddLine(f.matA, qty(2), "kg", pct("10"))
	rec.AddLine(f.matB, qty(1), "kg", pct("0"))
	recipes := &fakeRecipes{byProduct: map[id.ID]*recipe.Recipe{f.productID: rec}}

	f.materials.stock[f.matA] = qty(100)
	f.materials.stock[f.matB] = qty(100)
	f.materials.cost[f.matA] = types.MustMoney("1.00")
	f.materials.cost[f.matB] = types.MustMoney("2.00")

	txm := &fakeTxManager{repo: f.repo, materials: f.materials, stock: f.stock}
	f.svc = NewService(f.repo, recipes, f.materials, f.stock, nil, txm)
	return f
}

// plan seeds a planned batch directly, skipping the numerator.
func (f *fixture) plan(t *testing.T, quantity int64) *Batch {
	t.Helper()
	rec, err := f.svc.recipes.GetActiveByProduct(context.Background(), f.productID)
	require.NoError(t, err)

	b := NewBatch(rec, quantity)
	b.Number = "PB-2026-00001"
	require.NoError(t, f.repo.Create(context.Background(), b))
	return b
}

func TestEvaluateProduct_DoesNotMutate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	eval, err := f.svc.EvaluateProduct(ctx, f.productID, 10)
	require.NoError(t, err)
	assert.True(t, eval.Feasible)

	assert.Equal(t, qty(100), f.materials.stock[f.matA])
	assert.Equal(t, qty(100), f.materials.stock[f.matB])
	assert.Empty(t, f.materials.moves)
}

func TestEvaluateProduct_NoActiveRecipe(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.EvaluateProduct(context.Background(), id.New(), 10)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestPlan_NoActiveRecipeRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Plan(context.Background(), id.New(), 10)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestStart_ConsumesMaterialsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.plan(t, 10)

	require.NoError(t, f.svc.Start(ctx, b.ID))

	// 10 units * 2.2 of A, 10 units * 1 of B.
	assert.Equal(t, qty(78), f.materials.stock[f.matA])
	assert.Equal(t, qty(90), f.materials.stock[f.matB])

	stored, err := f.repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, stored.Status)
	assert.True(t, stored.Consumed)

	// Starting again is rejected and consumes nothing more.
	err = f.svc.Start(ctx, b.ID)
	require.Error(t, err)
	assert.Equal(t, qty(78), f.materials.stock[f.matA])
}

func TestComplete_PostsOutput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.plan(t, 10)

	require.NoError(t, f.svc.Start(ctx, b.ID))
	require.NoError(t, f.svc.Complete(ctx, b.ID))

	// Materials consumed exactly once across start and complete.
	assert.Equal(t, qty(78), f.materials.stock[f.matA])
	assert.Equal(t, int64(10), f.stock.onHand[f.productID])

	stored, err := f.repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)
}

func TestComplete_DirectFromPlanned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.plan(t, 5)

	require.NoError(t, f.svc.Complete(ctx, b.ID))

	assert.Equal(t, qty(89), f.materials.stock[f.matA]) // 100 - 5*2.2
	assert.Equal(t, qty(95), f.materials.stock[f.matB])
	assert.Equal(t, int64(5), f.stock.onHand[f.productID])
}

func TestComplete_TerminalRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.plan(t, 5)

	require.NoError(t, f.svc.Complete(ctx, b.ID))

	err := f.svc.Complete(ctx, b.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)

	// Output posted once.
	assert.Equal(t, int64(5), f.stock.onHand[f.productID])
}

func TestStart_ShortfallIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Enough A for 10 units, but B runs out.
	f.materials.stock[f.matB] = qty(3)
	b := f.plan(t, 10)

	err := f.svc.Start(ctx, b.ID)
	require.Error(t, err)

	// A's decrement rolled back with B's failure, batch still planned.
	assert.Equal(t, qty(100), f.materials.stock[f.matA])
	assert.Equal(t, qty(3), f.materials.stock[f.matB])

	stored, err := f.repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPlanned, stored.Status)
	assert.False(t, stored.Consumed)
}

func TestCancel_RestoresConsumedMaterials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.plan(t, 10)

	require.NoError(t, f.svc.Start(ctx, b.ID))
	require.NoError(t, f.svc.Cancel(ctx, b.ID))

	assert.Equal(t, qty(100), f.materials.stock[f.matA])
	assert.Equal(t, qty(100), f.materials.stock[f.matB])

	stored, err := f.repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)
	assert.False(t, stored.Consumed)
}

func TestCancel_PlannedBatchTouchesNoStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.plan(t, 10)

	require.NoError(t, f.svc.Cancel(ctx, b.ID))

	assert.Equal(t, qty(100), f.materials.stock[f.matA])
	assert.Empty(t, f.materials.moves)
}

func TestCancel_CompletedRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.plan(t, 5)

	require.NoError(t, f.svc.Complete(ctx, b.ID))

	err := f.svc.Cancel(ctx, b.ID)
	require.Error(t, err)
	assert.Equal(t, int64(5), f.stock.onHand[f.productID])
}
