package engine_test

import (
	"encoding/json"
	"testing"

	"github.com/gymnasticsgadzooks/bundle-kit/internal/constants"
	"github.com/gymnasticsgadzooks/bundle-kit/internal/engine"
	"github.com/gymnasticsgadzooks/bundle-kit/internal/logger"
	"github.com/gymnasticsgadzooks/bundle-kit/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitLogger(constants.TestEnvironment)
}

func cartLine(id, productID string, quantity int, subtotal string) types.CartLine {
	return types.CartLine{
		ID:       id,
		Quantity: quantity,
		Cost:     types.CartLineCost{SubtotalAmount: types.Money{Amount: subtotal}},
		Merchandise: types.Merchandise{
			ID:      id + "-variant",
			Product: &types.Product{ID: productID},
		},
	}
}

func evaluationInput(t *testing.T, lines []types.CartLine, classes []string, bundles interface{}) types.CartInput {
	t.Helper()
	payload, err := json.Marshal(bundles)
	require.NoError(t, err)
	return types.CartInput{
		Cart: types.Cart{Lines: lines},
		Discount: types.DiscountContext{
			DiscountClasses: classes,
			Metafield:       &types.Metafield{Value: string(payload)},
		},
	}
}

func productCandidates(result types.EvaluateResult) []types.ProductDiscountCandidate {
	var candidates []types.ProductDiscountCandidate
	for _, op := range result.Operations {
		if op.ProductDiscountsAdd != nil {
			candidates = append(candidates, op.ProductDiscountsAdd.Candidates...)
		}
	}
	return candidates
}

func candidateMessages(result types.EvaluateResult) []string {
	var messages []string
	for _, op := range result.Operations {
		if op.ProductDiscountsAdd != nil {
			for _, c := range op.ProductDiscountsAdd.Candidates {
				messages = append(messages, c.Message)
			}
		}
		if op.OrderDiscountsAdd != nil {
			for _, c := range op.OrderDiscountsAdd.Candidates {
				messages = append(messages, c.Message)
			}
		}
	}
	return messages
}

// assertAllocationSafety checks that candidates never target more quantity
// than a cart line holds, across all product candidates combined.
func assertAllocationSafety(t *testing.T, lines []types.CartLine, result types.EvaluateResult) {
	t.Helper()
	available := make(map[string]int, len(lines))
	for _, line := range lines {
		available[line.ID] = line.Quantity
	}
	allocated := make(map[string]int)
	for _, candidate := range productCandidates(result) {
		for _, target := range candidate.Targets {
			allocated[target.CartLine.ID] += target.CartLine.Quantity
		}
	}
	for lineID, quantity := range allocated {
		assert.LessOrEqual(t, quantity, available[lineID], "line %s over-allocated", lineID)
	}
}

func intPtr(v int) *int { return &v }

func TestEvaluate_MixMatchAndFBTBothEmitted(t *testing.T) {
	service := engine.NewEvaluationService()

	lines := []types.CartLine{
		cartLine("gid://cart/line/1", "gid://product/oxygen", 2, "2050.00"),
		cartLine("gid://cart/line/2", "gid://product/liquid", 1, "749.95"),
		cartLine("gid://cart/line/3", "gid://product/untracked", 2, "1899.90"),
		cartLine("gid://cart/line/4", "gid://product/managed", 2, "1259.90"),
	}
	bundles := []engine.BundleConfig{
		{
			ID:             "bundle-mix",
			Title:          "Mix & Match 3 (45%)",
			Type:           engine.BundleTypeMixMatch,
			Priority:       30,
			DiscountType:   engine.DiscountTypePercentage,
			DiscountValue:  decimal.NewFromInt(45),
			TargetQuantity: 3,
			Items: []engine.BundleItem{
				{ProductID: "gid://product/oxygen", RequiredQuantity: 1},
				{ProductID: "gid://product/liquid", RequiredQuantity: 1},
				{ProductID: "gid://product/untracked", RequiredQuantity: 1},
				{ProductID: "gid://product/managed", RequiredQuantity: 1},
			},
		},
		{
			ID:            "bundle-fbt",
			Title:         "FBT - 1 (25%)",
			Type:          engine.BundleTypeFBT,
			DiscountType:  engine.DiscountTypePercentage,
			DiscountValue: decimal.NewFromInt(25),
			Items: []engine.BundleItem{
				{ProductID: "gid://product/oxygen", RequiredQuantity: 1},
				{ProductID: "gid://product/untracked", RequiredQuantity: 1},
				{ProductID: "gid://product/managed", RequiredQuantity: 1},
			},
		},
	}

	input := evaluationInput(t, lines, []string{constants.ProductDiscountClass}, bundles)
	result := service.Evaluate(input)

	messages := candidateMessages(result)
	assert.Contains(t, messages, "Mix & Match 3 (45%)")
	assert.Contains(t, messages, "FBT - 1 (25%)")
	assertAllocationSafety(t, lines, result)

	// The reservation holds one unit of each FBT product back, so the mix
	// and match picks one unit from each of the first three lines.
	candidates := productCandidates(result)
	require.Len(t, candidates, 2)
	require.Len(t, candidates[0].Targets, 3)
	for _, target := range candidates[0].Targets {
		assert.Equal(t, 1, target.CartLine.Quantity)
	}
}

func TestEvaluate_VolumeTierRange(t *testing.T) {
	service := engine.NewEvaluationService()

	tier := engine.BundleConfig{
		ID:                "vol-2",
		Title:             "Buy 2",
		Type:              engine.BundleTypeVolume,
		DiscountType:      engine.DiscountTypePercentage,
		DiscountValue:     decimal.NewFromInt(10),
		TargetQuantity:    2,
		TargetQuantityMax: intPtr(2),
		Items:             []engine.BundleItem{{ProductID: "gid://product/a", RequiredQuantity: 1}},
	}

	t.Run("below tier minimum", func(t *testing.T) {
		lines := []types.CartLine{cartLine("l1", "gid://product/a", 1, "10.00")}
		result := service.Evaluate(evaluationInput(t, lines, []string{constants.ProductDiscountClass}, []engine.BundleConfig{tier}))
		assert.Empty(t, result.Operations)
	})

	t.Run("above tier maximum with no higher tier", func(t *testing.T) {
		lines := []types.CartLine{cartLine("l1", "gid://product/a", 3, "30.00")}
		result := service.Evaluate(evaluationInput(t, lines, []string{constants.ProductDiscountClass}, []engine.BundleConfig{tier}))
		assert.Empty(t, result.Operations)
	})

	t.Run("inside tier range", func(t *testing.T) {
		lines := []types.CartLine{cartLine("l1", "gid://product/a", 2, "20.00")}
		result := service.Evaluate(evaluationInput(t, lines, []string{constants.ProductDiscountClass}, []engine.BundleConfig{tier}))
		candidates := productCandidates(result)
		require.Len(t, candidates, 1)
		require.Len(t, candidates[0].Targets, 1)
		assert.Equal(t, 2, candidates[0].Targets[0].CartLine.Quantity)
	})

	t.Run("uncapped tier consumes all availability", func(t *testing.T) {
		uncapped := tier
		uncapped.TargetQuantityMax = nil
		lines := []types.CartLine{cartLine("l1", "gid://product/a", 5, "50.00")}
		result := service.Evaluate(evaluationInput(t, lines, []string{constants.ProductDiscountClass}, []engine.BundleConfig{uncapped}))
		candidates := productCandidates(result)
		require.Len(t, candidates, 1)
		assert.Equal(t, 5, candidates[0].Targets[0].CartLine.Quantity)
	})
}

func TestEvaluate_FixedPriceUnderwaterSuppressesButConsumes(t *testing.T) {
	service := engine.NewEvaluationService()

	lines := []types.CartLine{cartLine("l1", "gid://product/a", 1, "50.00")}
	bundles := []engine.BundleConfig{
		{
			ID:            "underwater",
			Title:         "Bundle for 100",
			Type:          engine.BundleTypeFBT,
			Priority:      10,
			DiscountType:  engine.DiscountTypeFixedPrice,
			DiscountValue: decimal.NewFromInt(100),
			Items:         []engine.BundleItem{{ProductID: "gid://product/a", RequiredQuantity: 1}},
		},
		{
			ID:            "runner-up",
			Title:         "10% off",
			Type:          engine.BundleTypeFBT,
			Priority:      0,
			DiscountType:  engine.DiscountTypePercentage,
			DiscountValue: decimal.NewFromInt(10),
			Items:         []engine.BundleItem{{ProductID: "gid://product/a", RequiredQuantity: 1}},
		},
	}

	result := service.Evaluate(evaluationInput(t, lines, []string{constants.ProductDiscountClass}, bundles))

	// The underwater fixed price clamps to zero and emits nothing, but the
	// matched quantity stays consumed, so the lower-priority bundle finds
	// an empty pool.
	assert.Empty(t, result.Operations)
}

func TestEvaluate_EmptyCart(t *testing.T) {
	service := engine.NewEvaluationService()

	result := service.Evaluate(types.CartInput{
		Cart: types.Cart{Lines: []types.CartLine{}},
		Discount: types.DiscountContext{
			DiscountClasses: []string{constants.ProductDiscountClass},
			Metafield:       &types.Metafield{Value: `[{"id":"b1"}]`},
		},
	})

	assert.Equal(t, types.EvaluateResult{Operations: []types.Operation{}}, result)
}

func TestEvaluate_OrderClassOnly(t *testing.T) {
	service := engine.NewEvaluationService()

	lines := []types.CartLine{cartLine("l1", "gid://product/a", 2, "200.00")}
	bundles := []engine.BundleConfig{
		{
			ID:            "fbt",
			Title:         "Single 25%",
			Type:          engine.BundleTypeFBT,
			DiscountType:  engine.DiscountTypePercentage,
			DiscountValue: decimal.NewFromInt(25),
			Items:         []engine.BundleItem{{ProductID: "gid://product/a", RequiredQuantity: 1}},
		},
		{
			ID:             "vol",
			Title:          "Volume 10%",
			Type:           engine.BundleTypeVolume,
			DiscountType:   engine.DiscountTypePercentage,
			DiscountValue:  decimal.NewFromInt(10),
			TargetQuantity: 2,
			Items:          []engine.BundleItem{{ProductID: "gid://product/a", RequiredQuantity: 1}},
		},
	}

	result := service.Evaluate(evaluationInput(t, lines, []string{constants.OrderDiscountClass}, bundles))

	// The FBT matches twice (one unit each), producing one operation per
	// candidate with a "first" strategy; the volume bundle emits nothing
	// in order-only mode.
	require.Len(t, result.Operations, 2)
	for _, op := range result.Operations {
		require.NotNil(t, op.OrderDiscountsAdd)
		assert.Nil(t, op.ProductDiscountsAdd)
		require.Len(t, op.OrderDiscountsAdd.Candidates, 1)
		assert.Equal(t, constants.SelectionStrategyFirst, op.OrderDiscountsAdd.SelectionStrategy)

		candidate := op.OrderDiscountsAdd.Candidates[0]
		assert.Equal(t, "Single 25%", candidate.Message)
		require.NotNil(t, candidate.Value.FixedAmount)
		assert.InDelta(t, 25.0, candidate.Value.FixedAmount.Amount, 0.0001)
		require.Len(t, candidate.Targets, 1)
		assert.Empty(t, candidate.Targets[0].OrderSubtotal.ExcludedCartLineIDs)
	}
}

func TestEvaluate_PriorityPrecedence(t *testing.T) {
	service := engine.NewEvaluationService()

	lines := []types.CartLine{cartLine("l1", "gid://product/a", 3, "300.00")}
	low := engine.BundleConfig{
		ID:             "low",
		Title:          "Low priority",
		Type:           engine.BundleTypeMixMatch,
		Priority:       0,
		DiscountType:   engine.DiscountTypePercentage,
		DiscountValue:  decimal.NewFromInt(10),
		TargetQuantity: 3,
		Items:          []engine.BundleItem{{ProductID: "gid://product/a", RequiredQuantity: 1}},
	}
	high := engine.BundleConfig{
		ID:             "high",
		Title:          "High priority",
		Type:           engine.BundleTypeMixMatch,
		Priority:       30,
		DiscountType:   engine.DiscountTypePercentage,
		DiscountValue:  decimal.NewFromInt(20),
		TargetQuantity: 3,
		Items:          []engine.BundleItem{{ProductID: "gid://product/a", RequiredQuantity: 1}},
	}

	// Input order deliberately lists the low-priority bundle first.
	result := service.Evaluate(evaluationInput(t, lines, []string{constants.ProductDiscountClass}, []engine.BundleConfig{low, high}))

	messages := candidateMessages(result)
	require.Len(t, messages, 1)
	assert.Equal(t, "High priority", messages[0])
}

func TestEvaluate_SavingsTieBreak(t *testing.T) {
	service := engine.NewEvaluationService()

	lines := []types.CartLine{cartLine("l1", "gid://product/a", 1, "100.00")}
	smaller := engine.BundleConfig{
		ID:            "smaller",
		Title:         "10% off",
		Type:          engine.BundleTypeFBT,
		DiscountType:  engine.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(10),
		Items:         []engine.BundleItem{{ProductID: "gid://product/a", RequiredQuantity: 1}},
	}
	bigger := engine.BundleConfig{
		ID:            "bigger",
		Title:         "20% off",
		Type:          engine.BundleTypeFBT,
		DiscountType:  engine.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(20),
		Items:         []engine.BundleItem{{ProductID: "gid://product/a", RequiredQuantity: 1}},
	}

	result := service.Evaluate(evaluationInput(t, lines, []string{constants.ProductDiscountClass}, []engine.BundleConfig{smaller, bigger}))

	// Equal priority: the higher estimated savings wins the only unit.
	messages := candidateMessages(result)
	require.Len(t, messages, 1)
	assert.Equal(t, "20% off", messages[0])
}

func TestEvaluate_Determinism(t *testing.T) {
	lines := []types.CartLine{
		cartLine("l1", "gid://product/a", 2, "199.98"),
		cartLine("l2", "gid://product/b", 3, "89.97"),
	}
	bundles := []engine.BundleConfig{
		{
			ID:             "mix",
			Title:          "Mix 2",
			Type:           engine.BundleTypeMixMatch,
			Priority:       5,
			DiscountType:   engine.DiscountTypeFixedAmount,
			DiscountValue:  decimal.NewFromInt(7),
			TargetQuantity: 2,
			Items: []engine.BundleItem{
				{ProductID: "gid://product/a", RequiredQuantity: 1},
				{ProductID: "gid://product/b", RequiredQuantity: 1},
			},
		},
		{
			ID:            "fbt",
			Title:         "Pair up",
			Type:          engine.BundleTypeClassic,
			DiscountType:  engine.DiscountTypeFixedPrice,
			DiscountValue: decimal.NewFromFloat(59.99),
			Items: []engine.BundleItem{
				{ProductID: "gid://product/a", RequiredQuantity: 1},
				{ProductID: "gid://product/b", RequiredQuantity: 1},
			},
		},
	}
	input := evaluationInput(t, lines, []string{constants.ProductDiscountClass}, bundles)

	first, err := json.Marshal(engine.NewEvaluationService().Evaluate(input))
	require.NoError(t, err)
	second, err := json.Marshal(engine.NewEvaluationService().Evaluate(input))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assertAllocationSafety(t, lines, engine.NewEvaluationService().Evaluate(input))
}

func TestEvaluate_DegradedInputs(t *testing.T) {
	service := engine.NewEvaluationService()
	lines := []types.CartLine{cartLine("l1", "gid://product/a", 1, "10.00")}

	tests := []struct {
		name  string
		input types.CartInput
	}{
		{
			name: "no discount classes",
			input: types.CartInput{
				Cart:     types.Cart{Lines: lines},
				Discount: types.DiscountContext{Metafield: &types.Metafield{Value: "[]"}},
			},
		},
		{
			name: "missing metafield",
			input: types.CartInput{
				Cart:     types.Cart{Lines: lines},
				Discount: types.DiscountContext{DiscountClasses: []string{constants.ProductDiscountClass}},
			},
		},
		{
			name: "malformed metafield payload",
			input: types.CartInput{
				Cart: types.Cart{Lines: lines},
				Discount: types.DiscountContext{
					DiscountClasses: []string{constants.ProductDiscountClass},
					Metafield:       &types.Metafield{Value: "{not json"},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := service.Evaluate(tt.input)
			assert.Equal(t, types.EvaluateResult{Operations: []types.Operation{}}, result)
		})
	}
}

func TestEvaluate_ZeroQuantityBundleTerminates(t *testing.T) {
	service := engine.NewEvaluationService()

	lines := []types.CartLine{cartLine("l1", "gid://product/a", 1, "10.00")}
	bundles := []engine.BundleConfig{{
		ID:            "degenerate",
		Title:         "Nothing required",
		Type:          engine.BundleTypeFBT,
		DiscountType:  engine.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(10),
		Items:         []engine.BundleItem{{ProductID: "gid://product/a", RequiredQuantity: 0}},
	}}

	// A bundle that can only claim zero quantity must terminate as
	// no-match rather than looping forever.
	result := service.Evaluate(evaluationInput(t, lines, []string{constants.ProductDiscountClass}, bundles))
	assert.Empty(t, result.Operations)
}

func TestEvaluate_UnresolvableMerchandiseFailsSafe(t *testing.T) {
	service := engine.NewEvaluationService()

	lines := []types.CartLine{
		{
			ID:       "l1",
			Quantity: 1,
			Cost:     types.CartLineCost{SubtotalAmount: types.Money{Amount: "10.00"}},
			// Not a product variant: no product reference at all.
			Merchandise: types.Merchandise{ID: "gid://custom/thing"},
		},
	}
	bundles := []engine.BundleConfig{{
		ID:            "fbt",
		Title:         "FBT",
		Type:          engine.BundleTypeFBT,
		DiscountType:  engine.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(10),
		Items:         []engine.BundleItem{{ProductID: "gid://product/a", RequiredQuantity: 1}},
	}}

	result := service.Evaluate(evaluationInput(t, lines, []string{constants.ProductDiscountClass}, bundles))
	assert.Empty(t, result.Operations)
}
