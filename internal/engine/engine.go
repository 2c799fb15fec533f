package engine

import (
	"github.com/gymnasticsgadzooks/bundle-kit/internal/constants"
	"github.com/gymnasticsgadzooks/bundle-kit/internal/logger"
	"github.com/gymnasticsgadzooks/bundle-kit/internal/types"
	"go.uber.org/zap"
)

// EvaluationService runs the discount allocation engine. One call to
// Evaluate processes one cart snapshot against one configuration payload
// to completion; no state survives between calls.
type EvaluationService struct {
	logger *zap.Logger
}

// NewEvaluationService creates a new evaluation service
func NewEvaluationService() *EvaluationService {
	return &EvaluationService{
		logger: logger.Log,
	}
}

// Evaluate decides which bundles match the cart, how much quantity each
// consumes, what discount each produces, and packages the result into
// non-conflicting discount operations. It always returns a well-formed
// (possibly empty) operations list; a bad configuration payload or an
// unmatchable bundle degrades to "no discount", never an error.
func (s *EvaluationService) Evaluate(input types.CartInput) types.EvaluateResult {
	empty := types.EvaluateResult{Operations: []types.Operation{}}

	if len(input.Cart.Lines) == 0 {
		return empty
	}

	hasOrderClass := input.Discount.HasDiscountClass(constants.OrderDiscountClass)
	hasProductClass := input.Discount.HasDiscountClass(constants.ProductDiscountClass)
	if !hasOrderClass && !hasProductClass {
		return empty
	}

	payload := input.Discount.MetafieldValue()
	if payload == "" {
		return empty
	}

	bundles := DecodeBundleConfigs(payload)
	if len(bundles) == 0 {
		s.logger.Debug("No usable bundle configs in metafield payload",
			zap.Int("payload_bytes", len(payload)))
		return empty
	}

	pool := BuildCartPool(input.Cart.Lines)

	// One frozen snapshot ranks every bundle before any matching mutates
	// the pool. The order is a heuristic proxy for "best bundle first",
	// not a global optimum.
	snapshot := SnapshotPool(pool)

	var nonVolume, volume []BundleConfig
	for _, b := range bundles {
		if b.Type == BundleTypeVolume {
			volume = append(volume, b)
		} else {
			nonVolume = append(nonVolume, b)
		}
	}

	emitter := &candidateEmitter{pool: pool}

	// Line-level discounting is preferred when granted: some checkout
	// surfaces apply line discounts consistently while subtotal discounts
	// may not surface. VOLUME bundles only ever emit line-level
	// candidates.
	if hasProductClass {
		emitter.emitProductBundles(SortBundles(nonVolume, snapshot), true)
		emitter.emitProductBundles(SortBundles(volume, snapshot), false)
	} else if hasOrderClass {
		emitter.emitOrderBundles(SortBundles(nonVolume, snapshot))
	}

	operations := buildOperations(emitter.orderCandidates, emitter.productCandidates)

	s.logger.Debug("Bundle evaluation complete",
		zap.Int("bundles", len(bundles)),
		zap.Int("order_candidates", len(emitter.orderCandidates)),
		zap.Int("product_candidates", len(emitter.productCandidates)),
		zap.Int("operations", len(operations)))

	return types.EvaluateResult{Operations: operations}
}
