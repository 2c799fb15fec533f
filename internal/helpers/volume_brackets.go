package helpers

import (
	"fmt"
	"sort"

	"github.com/gymnasticsgadzooks/bundle-kit/internal/engine"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// VolumeTier is one row of a tiered volume rule as configured upstream.
// The engine contract wants one BundleConfig per tier; these helpers
// derive the quantity brackets and perform that expansion.
type VolumeTier struct {
	Quantity      int
	Uncapped      bool
	DiscountType  engine.DiscountType
	DiscountValue decimal.Decimal
}

// DerivedBracket is a tier's quantity range. Max is nil for an uncapped
// last tier.
type DerivedBracket struct {
	Min int
	Max *int
}

// DeriveBrackets derives bracket ranges from tier quantities: each tier's
// max is the next tier's min minus one, and the last tier is uncapped.
// Tiers below quantity 1 are ignored.
func DeriveBrackets(tiers []VolumeTier) []DerivedBracket {
	sorted := sortedValidTiers(tiers)

	brackets := make([]DerivedBracket, len(sorted))
	for i, t := range sorted {
		bracket := DerivedBracket{Min: t.Quantity}
		if i < len(sorted)-1 {
			max := sorted[i+1].Quantity - 1
			bracket.Max = &max
		}
		brackets[i] = bracket
	}
	return brackets
}

// BracketLabel returns a human-readable bracket label, e.g. "2 items",
// "3-5 items", "6+ items".
func BracketLabel(min int, max *int) string {
	if max == nil {
		return fmt.Sprintf("%d+ items", min)
	}
	if min == *max {
		if min == 1 {
			return "1 item"
		}
		return fmt.Sprintf("%d items", min)
	}
	return fmt.Sprintf("%d-%d items", min, *max)
}

// TierValidationError reports an invalid tier by its position in the
// input slice.
type TierValidationError struct {
	Index int
	Err   error
}

func (e TierValidationError) Error() string {
	return fmt.Sprintf("tier %d: %v", e.Index, e.Err)
}

// ValidateTiers checks that tier quantities are at least 1 and strictly
// increasing. It returns one entry per offending tier; an empty result
// means the tiers are valid.
func ValidateTiers(tiers []VolumeTier) []TierValidationError {
	var validationErrors []TierValidationError

	type indexedTier struct {
		index    int
		quantity int
	}
	var valid []indexedTier
	for i, t := range tiers {
		if t.Quantity < 1 {
			validationErrors = append(validationErrors, TierValidationError{
				Index: i,
				Err:   errors.New("quantity must be 1 or greater"),
			})
			continue
		}
		valid = append(valid, indexedTier{index: i, quantity: t.Quantity})
	}

	sort.SliceStable(valid, func(i, j int) bool { return valid[i].quantity < valid[j].quantity })
	for i := 0; i < len(valid)-1; i++ {
		if valid[i].quantity >= valid[i+1].quantity {
			validationErrors = append(validationErrors, TierValidationError{
				Index: valid[i+1].index,
				Err:   errors.Errorf("quantity must be greater than %d; tier quantities must increase", valid[i].quantity),
			})
		}
	}

	return validationErrors
}

// ExpandVolumeTiers turns one tiered volume rule into one BundleConfig
// per tier, the shape the evaluation engine consumes. Each config gets
// the derived bracket as its target quantity range and a bracket label
// appended to the title.
func ExpandVolumeTiers(base engine.BundleConfig, tiers []VolumeTier) []engine.BundleConfig {
	sorted := sortedValidTiers(tiers)
	brackets := DeriveBrackets(tiers)

	configs := make([]engine.BundleConfig, len(sorted))
	for i, t := range sorted {
		config := base
		config.ID = fmt.Sprintf("%s-tier-%d", base.ID, t.Quantity)
		config.Title = fmt.Sprintf("%s (%s)", base.Title, BracketLabel(brackets[i].Min, brackets[i].Max))
		config.Type = engine.BundleTypeVolume
		config.TargetQuantity = brackets[i].Min
		config.TargetQuantityMax = brackets[i].Max
		config.DiscountType = t.DiscountType
		config.DiscountValue = t.DiscountValue
		configs[i] = config
	}
	return configs
}

func sortedValidTiers(tiers []VolumeTier) []VolumeTier {
	valid := make([]VolumeTier, 0, len(tiers))
	for _, t := range tiers {
		if t.Quantity >= 1 {
			valid = append(valid, t)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].Quantity < valid[j].Quantity })
	return valid
}
