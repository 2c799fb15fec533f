package engine

import (
	"github.com/shopspring/decimal"
)

// Match is one claimed slice of a pool line: the quantity a bundle
// instance takes from that line at the line's per-item price.
type Match struct {
	LineID       string
	Quantity     int
	PricePerItem decimal.Decimal
}

// MatchQuantity sums the units carried by a set of matches.
func MatchQuantity(matches []Match) int {
	total := 0
	for _, m := range matches {
		total += m.Quantity
	}
	return total
}

// TryMatchBundle attempts to extract one instance of the bundle from the
// current pool. It returns the per-line matches (merged by line) or nil
// when the bundle cannot be satisfied. The pool is not mutated; callers
// commit accepted matches with CommitMatches.
func TryMatchBundle(b BundleConfig, pool []*PoolLine, reserved ReservationMap) []Match {
	if b.IsFlexible() {
		return tryMatchFlexible(b, pool, reserved)
	}
	return tryMatchExact(b, pool)
}

// tryMatchFlexible matches MIX_MATCH and VOLUME bundles: collect units
// from any eligible lines, in pool order, up to each product's takeable
// limit after reservation.
func tryMatchFlexible(b BundleConfig, pool []*PoolLine, reserved ReservationMap) []Match {
	targetQty := b.TargetQuantity
	if targetQty == 0 {
		return nil
	}

	eligible := b.EligibleProducts()
	totalByProduct := make(map[string]int)
	for _, line := range pool {
		if line.QuantityRemaining > 0 && eligible[line.ProductID] {
			totalByProduct[line.ProductID] += line.QuantityRemaining
		}
	}

	maxTakeableByProduct := make(map[string]int, len(totalByProduct))
	totalAvailable := 0
	for productID, total := range totalByProduct {
		takeable := total - reserved[productID]
		if takeable < 0 {
			takeable = 0
		}
		maxTakeableByProduct[productID] = takeable
		totalAvailable += takeable
	}

	quantityNeeded := targetQty
	if b.Type == BundleTypeVolume {
		// A capped tier applies only when availability falls inside
		// [targetQuantity, targetQuantityMax]; an uncapped tier consumes
		// everything available.
		if b.TargetQuantityMax != nil {
			if totalAvailable < targetQty || totalAvailable > *b.TargetQuantityMax {
				return nil
			}
			quantityNeeded = min(totalAvailable, *b.TargetQuantityMax)
		} else {
			quantityNeeded = totalAvailable
		}
		if quantityNeeded < targetQty {
			return nil
		}
	}

	var rawMatches []Match
	takenByProduct := make(map[string]int)
	for _, line := range pool {
		if quantityNeeded == 0 {
			break
		}
		if line.QuantityRemaining <= 0 || !eligible[line.ProductID] {
			continue
		}
		limitByReservation := maxTakeableByProduct[line.ProductID] - takenByProduct[line.ProductID]
		if limitByReservation < 0 {
			limitByReservation = 0
		}
		qtyToTake := min(quantityNeeded, line.QuantityRemaining, limitByReservation)
		if qtyToTake <= 0 {
			continue
		}
		quantityNeeded -= qtyToTake
		takenByProduct[line.ProductID] += qtyToTake
		rawMatches = append(rawMatches, Match{
			LineID:       line.LineID,
			Quantity:     qtyToTake,
			PricePerItem: line.PricePerItem,
		})
	}

	if quantityNeeded > 0 {
		return nil
	}
	return mergeMatches(rawMatches)
}

// tryMatchExact matches FBT and CLASSIC bundles: every required item must
// be fully satisfiable, walking pool lines in their original order. Any
// shortfall fails the whole attempt.
func tryMatchExact(b BundleConfig, pool []*PoolLine) []Match {
	var rawMatches []Match
	for _, reqItem := range b.Items {
		quantityNeeded := reqItem.RequiredQuantity
		for _, line := range pool {
			if quantityNeeded == 0 {
				break
			}
			if line.QuantityRemaining > 0 && line.ProductID == reqItem.ProductID {
				qtyToTake := min(quantityNeeded, line.QuantityRemaining)
				quantityNeeded -= qtyToTake
				rawMatches = append(rawMatches, Match{
					LineID:       line.LineID,
					Quantity:     qtyToTake,
					PricePerItem: line.PricePerItem,
				})
			}
		}
		if quantityNeeded > 0 {
			return nil
		}
	}
	return mergeMatches(rawMatches)
}

// mergeMatches folds raw matches into one match per line, preserving
// first-seen order.
func mergeMatches(matches []Match) []Match {
	merged := make([]Match, 0, len(matches))
	indexByLine := make(map[string]int, len(matches))
	for _, m := range matches {
		if i, ok := indexByLine[m.LineID]; ok {
			merged[i].Quantity += m.Quantity
			continue
		}
		indexByLine[m.LineID] = len(merged)
		merged = append(merged, m)
	}
	return merged
}

// CommitMatches reduces QuantityRemaining on the matched pool lines so
// later iterations see updated availability.
func CommitMatches(pool []*PoolLine, matches []Match) {
	byLine := make(map[string]*PoolLine, len(pool))
	for _, line := range pool {
		byLine[line.LineID] = line
	}
	for _, m := range matches {
		if line, ok := byLine[m.LineID]; ok {
			line.QuantityRemaining -= m.Quantity
		}
	}
}

// forEachMatch repeatedly extracts instances of the bundle until no
// further match is possible, invoking fn after each commit. Termination:
// a match must carry at least one unit, so every committed iteration
// strictly shrinks the pool. A zero-quantity "match" (e.g. an exact
// bundle whose items all require zero units) is treated as no-match.
func forEachMatch(b BundleConfig, pool []*PoolLine, reserved ReservationMap, fn func([]Match)) {
	for {
		matches := TryMatchBundle(b, pool, reserved)
		if matches == nil || MatchQuantity(matches) == 0 {
			return
		}
		CommitMatches(pool, matches)
		fn(matches)
	}
}
