// Package production implements production batches and the feasibility
// engine that projects recipes against available material stock.
package production

import (
	"sort"

	"github.com/shopspring/decimal"

	"stockpile/internal/core/apperror"
	"stockpile/internal/core/id"
	"stockpile/internal/core/types"
	"stockpile/internal/domain/catalog/recipe"
)

// Availability is one material's stock and cost as seen by the engine.
type Availability struct {
	Stock       types.Quantity
	CostPerUnit types.Money
}

// MaterialBreakdown is the per-material detail of an evaluation.
type MaterialBreakdown struct {
	MaterialID id.ID `json:"materialId"`

	PerUnit          decimal.Decimal `json:"perUnit"`
	WastagePercent   decimal.Decimal `json:"wastagePercent"`
	EffectivePerUnit decimal.Decimal `json:"effectivePerUnit"`

	// RequiredAtRequested is the amount needed to produce the full
	// requested quantity, including wastage.
	RequiredAtRequested decimal.Decimal `json:"requiredAtRequested"`
	Available           decimal.Decimal `json:"available"`

	// Ceiling is how many output units this material alone allows.
	// Non-binding materials (zero effective requirement) report no
	// ceiling.
	Ceiling    int64 `json:"ceiling"`
	NonBinding bool  `json:"nonBinding"`
	Bottleneck bool  `json:"bottleneck"`
}

// Evaluation is the result of a feasibility preview.
type Evaluation struct {
	RequestedQuantity int64 `json:"requestedQuantity"`

	// PossibleQuantity is the achievable output, never above the request.
	PossibleQuantity int64 `json:"possibleQuantity"`

	Feasible bool `json:"feasible"`

	// TotalCost is priced at PossibleQuantity, so the number matches
	// what can actually be produced.
	TotalCost types.Money `json:"totalCost"`

	Bottlenecks []id.ID             `json:"bottlenecks"`
	Breakdown   []MaterialBreakdown `json:"breakdown"`
}

// Evaluate computes how much of a recipe's product can be produced from
// the given material stocks. Read only: no stock moves here.
func Evaluate(rec *recipe.Recipe, stocks map[id.ID]Availability, requested int64) (*Evaluation, error) {
	if requested <= 0 {
		return nil, apperror.NewValidation("requested quantity must be positive").
			WithDetail("requested", requested)
	}

	eval := &Evaluation{
		RequestedQuantity: requested,
		PossibleQuantity:  requested,
		Bottlenecks:       make([]id.ID, 0),
		Breakdown:         make([]MaterialBreakdown, 0, len(rec.Lines)),
	}

	requestedDec := decimal.NewFromInt(requested)

	for _, line := range rec.Lines {
		avail, ok := stocks[line.MaterialID]
		if !ok {
			return nil, apperror.NewNotFound("raw material", line.MaterialID.String())
		}

		eff := line.EffectivePerUnit()
		bd := MaterialBreakdown{
			MaterialID:          line.MaterialID,
			PerUnit:             line.PerUnit.Decimal(),
			WastagePercent:      line.WastagePercent,
			EffectivePerUnit:    eff,
			RequiredAtRequested: eff.Mul(requestedDec),
			Available:           avail.Stock.Decimal(),
		}

		// A zero effective requirement puts no ceiling on output.
		if eff.IsZero() {
			bd.NonBinding = true
			eval.Breakdown = append(eval.Breakdown, bd)
			continue
		}

		ceiling := avail.Stock.Decimal().Div(eff).Floor().IntPart()
		if ceiling < 0 {
			ceiling = 0
		}
		bd.Ceiling = ceiling

		if ceiling < requested {
			bd.Bottleneck = true
			eval.Bottlenecks = append(eval.Bottlenecks, line.MaterialID)
		}
		if ceiling < eval.PossibleQuantity {
			eval.PossibleQuantity = ceiling
		}

		eval.Breakdown = append(eval.Breakdown, bd)
	}

	eval.Feasible = eval.PossibleQuantity == eval.RequestedQuantity
	eval.TotalCost = costAt(rec, stocks, eval.PossibleQuantity)

	sort.Slice(eval.Bottlenecks, func(i, j int) bool {
		return eval.Bottlenecks[i].String() < eval.Bottlenecks[j].String()
	})

	return eval, nil
}

// costAt prices the material consumption for producing quantity units.
func costAt(rec *recipe.Recipe, stocks map[id.ID]Availability, quantity int64) types.Money {
	total := types.Zero()
	if quantity <= 0 {
		return total
	}

	quantityDec := decimal.NewFromInt(quantity)
	for _, line := range rec.Lines {
		avail := stocks[line.MaterialID]
		consumed := line.EffectivePerUnit().Mul(quantityDec)
		total = total.Add(consumed.Mul(avail.CostPerUnit))
	}
	return total
}
