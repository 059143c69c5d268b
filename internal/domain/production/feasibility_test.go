package production

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpile/internal/core/id"
	"stockpile/internal/core/types"
	"stockpile/internal/domain/catalog/recipe"
)

func pct(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func qty(v float64) types.Quantity {
	return types.NewQuantityFromFloat64(v)
}

func TestEvaluate_WastageCeiling(t *testing.T) {
	// 2 units of A per output unit at 10% wastage, 1 unit of B.
	// A stock 18 caps output at floor(18 / 2.2) = 8.
	matA, matB := id.New(), id.New()

	rec := recipe.NewRecipe(id.New(), "Espresso Blend")
	rec.AddLine(matA, qty(2), "kg", pct("10"))
	rec.AddLine(matB, qty(1), "kg", pct("0"))

	stocks := map[id.ID]Availability{
		matA: {Stock: qty(18), CostPerUnit: types.MustMoney("1.00")},
		matB: {Stock: qty(100), CostPerUnit: types.MustMoney("1.00")},
	}

	eval, err := Evaluate(rec, stocks, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(8), eval.PossibleQuantity)
	assert.False(t, eval.Feasible)
	require.Len(t, eval.Bottlenecks, 1)
	assert.Equal(t, matA, eval.Bottlenecks[0])

	require.Len(t, eval.Breakdown, 2)
	a := eval.Breakdown[0]
	assert.True(t, a.EffectivePerUnit.Equal(decimal.RequireFromString("2.2")), "got %s", a.EffectivePerUnit)
	assert.True(t, a.RequiredAtRequested.Equal(decimal.RequireFromString("22")))
	assert.Equal(t, int64(8), a.Ceiling)
	assert.True(t, a.Bottleneck)
	assert.False(t, eval.Breakdown[1].Bottleneck)
}

func TestEvaluate_FeasibleRequest(t *testing.T) {
	matA := id.New()

	rec := recipe.NewRecipe(id.New(), "Syrup")
	rec.AddLine(matA, qty(0.5), "l", pct("0"))

	stocks := map[id.ID]Availability{
		matA: {Stock: qty(10), CostPerUnit: types.MustMoney("2.00")},
	}

	eval, err := Evaluate(rec, stocks, 10)
	require.NoError(t, err)

	assert.True(t, eval.Feasible)
	assert.Equal(t, int64(10), eval.PossibleQuantity)
	assert.Empty(t, eval.Bottlenecks)
	// 10 units * 0.5 l * 2.00 per l
	assert.True(t, eval.TotalCost.Equal(types.MustMoney("10.00")))
}

func TestEvaluate_CostUsesPossibleNotRequested(t *testing.T) {
	matA := id.New()

	rec := recipe.NewRecipe(id.New(), "Syrup")
	rec.AddLine(matA, qty(1), "l", pct("0"))

	stocks := map[id.ID]Availability{
		matA: {Stock: qty(3), CostPerUnit: types.MustMoney("5.00")},
	}

	eval, err := Evaluate(rec, stocks, 100)
	require.NoError(t, err)

	assert.Equal(t, int64(3), eval.PossibleQuantity)
	// Priced at 3 achievable units, not the 100 requested.
	assert.True(t, eval.TotalCost.Equal(types.MustMoney("15.00")), "got %s", eval.TotalCost)
}

func TestEvaluate_ZeroRequirementIsNonBinding(t *testing.T) {
	free, scarce := id.New(), id.New()

	rec := recipe.NewRecipe(id.New(), "Garnish")
	rec.AddLine(free, 0, "pcs", pct("50"))
	rec.AddLine(scarce, qty(1), "pcs", pct("0"))

	stocks := map[id.ID]Availability{
		free:   {Stock: 0, CostPerUnit: types.MustMoney("9.99")},
		scarce: {Stock: qty(5), CostPerUnit: types.MustMoney("1.00")},
	}

	eval, err := Evaluate(rec, stocks, 5)
	require.NoError(t, err)

	// The zero-requirement material neither caps output nor shows up
	// as a bottleneck.
	assert.True(t, eval.Feasible)
	assert.Equal(t, int64(5), eval.PossibleQuantity)
	assert.Empty(t, eval.Bottlenecks)
	assert.True(t, eval.Breakdown[0].NonBinding)
}

func TestEvaluate_EmptyRecipeTriviallyFeasible(t *testing.T) {
	rec := recipe.NewRecipe(id.New(), "Air Guitar")

	eval, err := Evaluate(rec, map[id.ID]Availability{}, 1000)
	require.NoError(t, err)

	assert.True(t, eval.Feasible)
	assert.Equal(t, int64(1000), eval.PossibleQuantity)
	assert.True(t, eval.TotalCost.IsZero())
}

func TestEvaluate_Monotonicity(t *testing.T) {
	matA := id.New()

	rec := recipe.NewRecipe(id.New(), "Syrup")
	rec.AddLine(matA, qty(2), "l", pct("10"))

	prev := int64(-1)
	for _, stock := range []float64{0, 2.2, 4.4, 10, 22, 44, 100} {
		stocks := map[id.ID]Availability{
			matA: {Stock: qty(stock), CostPerUnit: types.MustMoney("1.00")},
		}
		eval, err := Evaluate(rec, stocks, 20)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, eval.PossibleQuantity, prev, "stock %v", stock)
		prev = eval.PossibleQuantity
	}
}

func TestEvaluate_RejectsNonPositiveRequest(t *testing.T) {
	rec := recipe.NewRecipe(id.New(), "Syrup")

	_, err := Evaluate(rec, map[id.ID]Availability{}, 0)
	require.Error(t, err)

	_, err = Evaluate(rec, map[id.ID]Availability{}, -5)
	require.Error(t, err)
}

func TestEvaluate_UnknownMaterial(t *testing.T) {
	rec := recipe.NewRecipe(id.New(), "Syrup")
	rec.AddLine(id.New(), qty(1), "l", pct("0"))

	_, err := Evaluate(rec, map[id.ID]Availability{}, 1)
	require.Error(t, err)
}
