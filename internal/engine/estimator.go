package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// EstimateSavings computes the discount value a bundle would yield against
// the given pool snapshot. The estimate is used only to rank bundles; the
// matcher recomputes real amounts against the live pool.
func EstimateSavings(b BundleConfig, snapshot []*PoolLine) decimal.Decimal {
	if b.DiscountType == DiscountTypeFixedAmount {
		return b.DiscountValue
	}

	sumOfOriginalPrices := decimal.Zero
	if b.IsFlexible() {
		// Mirror the matcher: take quantityNeeded units from eligible
		// lines in pool order so the ranking reflects the claimable
		// amount.
		targetQty := b.TargetQuantity
		if targetQty <= 0 {
			return decimal.Zero
		}
		eligible := b.EligibleProducts()

		quantityNeeded := targetQty
		if b.Type == BundleTypeVolume {
			totalAvailable := 0
			for _, line := range snapshot {
				if line.QuantityRemaining > 0 && eligible[line.ProductID] {
					totalAvailable += line.QuantityRemaining
				}
			}
			// A capped tier only applies when availability is in range.
			if b.TargetQuantityMax != nil {
				if totalAvailable < targetQty || totalAvailable > *b.TargetQuantityMax {
					return decimal.Zero
				}
				quantityNeeded = min(totalAvailable, *b.TargetQuantityMax)
			} else {
				quantityNeeded = totalAvailable
			}
			if quantityNeeded < targetQty {
				return decimal.Zero
			}
		}

		qtyRemaining := quantityNeeded
		for _, line := range snapshot {
			if qtyRemaining == 0 {
				break
			}
			if line.QuantityRemaining > 0 && eligible[line.ProductID] {
				qtyToTake := min(qtyRemaining, line.QuantityRemaining)
				qtyRemaining -= qtyToTake
				sumOfOriginalPrices = sumOfOriginalPrices.Add(
					line.PricePerItem.Mul(decimal.NewFromInt(int64(qtyToTake))))
			}
		}
		if qtyRemaining > 0 {
			return decimal.Zero
		}
	} else {
		for _, reqItem := range b.Items {
			for _, line := range snapshot {
				if line.ProductID == reqItem.ProductID {
					sumOfOriginalPrices = sumOfOriginalPrices.Add(
						line.PricePerItem.Mul(decimal.NewFromInt(int64(reqItem.RequiredQuantity))))
					break
				}
			}
		}
	}

	switch b.DiscountType {
	case DiscountTypePercentage:
		return sumOfOriginalPrices.Mul(b.DiscountValue).Div(oneHundred)
	case DiscountTypeFixedPrice:
		savings := sumOfOriginalPrices.Sub(b.DiscountValue)
		if savings.IsPositive() {
			return savings
		}
		return decimal.Zero
	}

	return decimal.Zero
}

// SortBundles orders bundles for matching: priority descending, ties
// broken by estimated savings descending. The sort is stable so identical
// bundles keep their input order and the output stays deterministic. The
// order is fixed against the snapshot once; it does not track the pool as
// matching consumes quantity.
func SortBundles(bundles []BundleConfig, snapshot []*PoolLine) []BundleConfig {
	type rankedBundle struct {
		config  BundleConfig
		savings decimal.Decimal
	}

	ranked := make([]rankedBundle, len(bundles))
	for i, b := range bundles {
		ranked[i] = rankedBundle{config: b, savings: EstimateSavings(b, snapshot)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].config.Priority != ranked[j].config.Priority {
			return ranked[i].config.Priority > ranked[j].config.Priority
		}
		return ranked[i].savings.GreaterThan(ranked[j].savings)
	})

	sorted := make([]BundleConfig, len(ranked))
	for i, r := range ranked {
		sorted[i] = r.config
	}
	return sorted
}
