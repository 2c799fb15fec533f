package engine

// ReservationMap records, per product id, how much cart quantity must be
// set aside for lower-priority exact-match bundles before a flexible
// bundle is allowed to consume from the pool. It is always threaded as an
// explicit value; nothing ambient survives between evaluations.
type ReservationMap map[string]int

// ComputeReservation sums the required quantities of every FBT/CLASSIC
// bundle whose priority is strictly lower than the current bundle's,
// grouped by product. The result protects exact-match bundles from being
// starved by a higher-priority flexible bundle.
func ComputeReservation(current BundleConfig, all []BundleConfig) ReservationMap {
	reserved := make(ReservationMap)
	for _, b := range all {
		if b.Priority >= current.Priority {
			continue
		}
		if !b.IsExactMatch() {
			continue
		}
		for _, item := range b.Items {
			reserved[item.ProductID] += item.RequiredQuantity
		}
	}
	return reserved
}

// CanMatchWithReservation reports whether the bundle can still reach its
// target quantity with the reservation in force. When it cannot, the
// caller skips the reservation and lets the bundle compete freely
// (best-effort fallback, not a fairness guarantee).
func CanMatchWithReservation(b BundleConfig, pool []*PoolLine, reserved ReservationMap) bool {
	if !b.IsFlexible() {
		return true
	}
	if b.TargetQuantity == 0 {
		return false
	}

	eligible := b.EligibleProducts()
	totalAvailable := 0
	for _, line := range pool {
		if line.QuantityRemaining > 0 && eligible[line.ProductID] {
			takeable := line.QuantityRemaining - reserved[line.ProductID]
			if takeable > 0 {
				totalAvailable += takeable
			}
		}
	}
	return totalAvailable >= b.TargetQuantity
}
