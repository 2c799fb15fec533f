package engine

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// BundleType distinguishes how a bundle's items are matched against the
// cart pool.
type BundleType string

const (
	// BundleTypeFBT is a "frequently bought together" bundle requiring
	// exact quantities of specific products.
	BundleTypeFBT BundleType = "FBT"
	// BundleTypeClassic matches identically to FBT.
	BundleTypeClassic BundleType = "CLASSIC"
	// BundleTypeVolume is one tier of quantity-based pricing.
	BundleTypeVolume BundleType = "VOLUME"
	// BundleTypeMixMatch is satisfied by any mix of eligible products
	// reaching a target quantity.
	BundleTypeMixMatch BundleType = "MIX_MATCH"
)

// DiscountType is the kind of discount a bundle grants.
type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "PERCENTAGE"
	DiscountTypeFixedAmount DiscountType = "FIXED_AMOUNT"
	DiscountTypeFixedPrice  DiscountType = "FIXED_PRICE"
)

// BundleItem declares one eligible product. For FBT/CLASSIC the required
// quantity is exact; for VOLUME/MIX_MATCH membership alone makes the
// product eligible.
type BundleItem struct {
	ProductID        string `json:"productId"`
	RequiredQuantity int    `json:"requiredQuantity"`
}

// BundleConfig is the immutable in-memory form of one active bundle rule,
// decoded from the consolidated metafield payload. A tiered volume rule
// arrives as one BundleConfig per tier.
type BundleConfig struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	Type              BundleType      `json:"type"`
	Priority          int             `json:"priority"`
	DiscountType      DiscountType    `json:"discountType"`
	DiscountValue     decimal.Decimal `json:"discountValue"`
	TargetQuantity    int             `json:"targetQuantity"`
	TargetQuantityMax *int            `json:"targetQuantityMax,omitempty"`
	Items             []BundleItem    `json:"items"`
}

// IsFlexible reports whether the bundle consumes any mix of eligible
// products rather than an exact item list.
func (b BundleConfig) IsFlexible() bool {
	return b.Type == BundleTypeMixMatch || b.Type == BundleTypeVolume
}

// IsExactMatch reports whether the bundle requires exact item quantities.
func (b BundleConfig) IsExactMatch() bool {
	return b.Type == BundleTypeFBT || b.Type == BundleTypeClassic
}

// EligibleProducts returns the set of product ids the bundle may consume.
func (b BundleConfig) EligibleProducts() map[string]bool {
	eligible := make(map[string]bool, len(b.Items))
	for _, item := range b.Items {
		eligible[item.ProductID] = true
	}
	return eligible
}

// DecodeBundleConfigs parses the metafield payload into bundle configs.
// The payload is either a single object or an array of objects. Anything
// malformed yields an empty list so the evaluation degrades to "no
// discount" instead of failing. Unmatchable configs (zero target, empty
// items) are not rejected here; the matcher reports them as no-match.
func DecodeBundleConfigs(payload string) []BundleConfig {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return nil
	}

	var many []BundleConfig
	if err := json.Unmarshal([]byte(trimmed), &many); err == nil {
		return many
	}

	var one BundleConfig
	if err := json.Unmarshal([]byte(trimmed), &one); err == nil {
		return []BundleConfig{one}
	}

	return nil
}
