package engine

import (
	"github.com/gymnasticsgadzooks/bundle-kit/internal/constants"
	"github.com/gymnasticsgadzooks/bundle-kit/internal/types"
	"github.com/shopspring/decimal"
)

// candidateEmitter converts committed matches into discount candidates.
// It owns the pool for the duration of one evaluation.
type candidateEmitter struct {
	pool              []*PoolLine
	orderCandidates   []types.OrderDiscountCandidate
	productCandidates []types.ProductDiscountCandidate
}

// originalPriceSum is the undiscounted value of the matched quantity.
func originalPriceSum(matches []Match) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range matches {
		sum = sum.Add(m.PricePerItem.Mul(decimal.NewFromInt(int64(m.Quantity))))
	}
	return sum
}

// monetaryAmount resolves the discount value union into a cart-currency
// amount for the matched prices. The boolean is false for an unhandled
// discount type so a bad payload cannot silently become a zero discount.
func monetaryAmount(b BundleConfig, priceSum decimal.Decimal) (decimal.Decimal, bool) {
	switch b.DiscountType {
	case DiscountTypePercentage:
		return priceSum.Mul(b.DiscountValue).Div(oneHundred), true
	case DiscountTypeFixedAmount:
		return b.DiscountValue, true
	case DiscountTypeFixedPrice:
		savings := priceSum.Sub(b.DiscountValue)
		if savings.IsNegative() {
			savings = decimal.Zero
		}
		return savings, true
	}
	return decimal.Zero, false
}

// emitProductBundles runs each bundle's match loop and emits line-level
// candidates. When withReservation is set, quantity needed by
// lower-priority exact-match bundles is set aside first, unless doing so
// would make this bundle unmatchable.
func (e *candidateEmitter) emitProductBundles(bundles []BundleConfig, withReservation bool) {
	for _, b := range bundles {
		var reserved ReservationMap
		if withReservation {
			computed := ComputeReservation(b, bundles)
			if len(computed) > 0 && CanMatchWithReservation(b, e.pool, computed) {
				reserved = computed
			}
		}
		forEachMatch(b, e.pool, reserved, func(matches []Match) {
			e.addProductCandidate(b, matches)
		})
	}
}

// emitOrderBundles runs each bundle's match loop and emits order-subtotal
// candidates. Order-level emission never applies reservations.
func (e *candidateEmitter) emitOrderBundles(bundles []BundleConfig) {
	for _, b := range bundles {
		forEachMatch(b, e.pool, nil, func(matches []Match) {
			e.addOrderCandidate(b, matches)
		})
	}
}

// addProductCandidate emits one line-level candidate for a committed
// match. A non-positive computed amount suppresses the candidate; the
// matched quantity stays consumed from the pool either way.
func (e *candidateEmitter) addProductCandidate(b BundleConfig, matches []Match) {
	targets := make([]types.ProductDiscountTarget, len(matches))
	for i, m := range matches {
		targets[i] = types.ProductDiscountTarget{
			CartLine: types.CartLineTarget{ID: m.LineID, Quantity: m.Quantity},
		}
	}

	switch b.DiscountType {
	case DiscountTypePercentage:
		// The raw percentage passes through unrounded.
		if !b.DiscountValue.IsPositive() {
			return
		}
		e.productCandidates = append(e.productCandidates, types.ProductDiscountCandidate{
			Message: b.Title,
			Targets: targets,
			Value: types.DiscountValue{
				Percentage: &types.PercentageValue{Value: b.DiscountValue.InexactFloat64()},
			},
		})
	case DiscountTypeFixedAmount, DiscountTypeFixedPrice:
		amount, ok := monetaryAmount(b, originalPriceSum(matches))
		if !ok {
			return
		}
		amount = amount.Round(2)
		if !amount.IsPositive() {
			return
		}
		e.productCandidates = append(e.productCandidates, types.ProductDiscountCandidate{
			Message: b.Title,
			Targets: targets,
			Value: types.DiscountValue{
				FixedAmount: &types.FixedAmountValue{Amount: amount.InexactFloat64()},
			},
		})
	}
}

// addOrderCandidate emits one order-subtotal candidate for a committed
// match. All discount types collapse to a fixed amount against the
// subtotal; non-positive amounts are suppressed.
func (e *candidateEmitter) addOrderCandidate(b BundleConfig, matches []Match) {
	amount, ok := monetaryAmount(b, originalPriceSum(matches))
	if !ok {
		return
	}
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return
	}

	e.orderCandidates = append(e.orderCandidates, types.OrderDiscountCandidate{
		Message: b.Title,
		Targets: []types.OrderDiscountTarget{
			{OrderSubtotal: types.OrderSubtotalTarget{ExcludedCartLineIDs: []string{}}},
		},
		Value: types.DiscountValue{
			FixedAmount: &types.FixedAmountValue{Amount: amount.InexactFloat64()},
		},
	})
}

// buildOperations packages candidates into the final operations. Order
// candidates cannot be combined as a set by the host API, so each becomes
// its own operation with a "first" strategy; product candidates group
// into a single "apply all" operation.
func buildOperations(orderCandidates []types.OrderDiscountCandidate, productCandidates []types.ProductDiscountCandidate) []types.Operation {
	operations := make([]types.Operation, 0, len(orderCandidates)+1)

	for _, candidate := range orderCandidates {
		operations = append(operations, types.Operation{
			OrderDiscountsAdd: &types.OrderDiscountsAdd{
				Candidates:        []types.OrderDiscountCandidate{candidate},
				SelectionStrategy: constants.SelectionStrategyFirst,
			},
		})
	}

	if len(productCandidates) > 0 {
		operations = append(operations, types.Operation{
			ProductDiscountsAdd: &types.ProductDiscountsAdd{
				Candidates:        productCandidates,
				SelectionStrategy: constants.SelectionStrategyAll,
			},
		})
	}

	return operations
}
