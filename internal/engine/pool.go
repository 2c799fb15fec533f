package engine

import (
	"github.com/gymnasticsgadzooks/bundle-kit/internal/types"
	"github.com/shopspring/decimal"
)

// PoolLine is the mutable working copy of one cart line for the duration
// of a single evaluation. QuantityRemaining shrinks as bundles claim
// units; PricePerItem never changes.
type PoolLine struct {
	LineID            string
	ProductID         string
	VariantID         string
	QuantityRemaining int
	PricePerItem      decimal.Decimal
}

// BuildCartPool normalizes raw cart lines into allocatable pool lines.
// Per-item price is the line subtotal divided by quantity. Zero-quantity
// lines are dropped. A line whose merchandise does not resolve to a
// product, or whose subtotal cannot be parsed, keeps its place in the
// pool with an empty product id so it can never match a bundle.
func BuildCartPool(lines []types.CartLine) []*PoolLine {
	pool := make([]*PoolLine, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}

		var productID, variantID string
		if line.Merchandise.Product != nil {
			productID = line.Merchandise.Product.ID
			variantID = line.Merchandise.ID
		}

		pricePerItem := decimal.Zero
		subtotal, err := decimal.NewFromString(line.Cost.SubtotalAmount.Amount)
		if err != nil {
			productID = ""
		} else {
			pricePerItem = subtotal.Div(decimal.NewFromInt(int64(line.Quantity)))
		}

		pool = append(pool, &PoolLine{
			LineID:            line.ID,
			ProductID:         productID,
			VariantID:         variantID,
			QuantityRemaining: line.Quantity,
			PricePerItem:      pricePerItem,
		})
	}
	return pool
}

// SnapshotPool deep-copies the pool so estimates can run against frozen
// quantities while matching mutates the original.
func SnapshotPool(pool []*PoolLine) []*PoolLine {
	snapshot := make([]*PoolLine, len(pool))
	for i, line := range pool {
		copied := *line
		snapshot[i] = &copied
	}
	return snapshot
}

// TotalQuantity sums the remaining quantity across the pool.
func TotalQuantity(pool []*PoolLine) int {
	total := 0
	for _, line := range pool {
		total += line.QuantityRemaining
	}
	return total
}
