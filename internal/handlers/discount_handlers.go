package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gymnasticsgadzooks/bundle-kit/internal/constants"
	"github.com/gymnasticsgadzooks/bundle-kit/internal/logger"
	"github.com/gymnasticsgadzooks/bundle-kit/internal/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Evaluator runs one discount evaluation against a cart snapshot.
type Evaluator interface {
	Evaluate(input types.CartInput) types.EvaluateResult
}

// DiscountHandler exposes the discount evaluation engine over HTTP.
type DiscountHandler struct {
	evaluator Evaluator
}

// NewDiscountHandler creates a new DiscountHandler instance
func NewDiscountHandler(evaluator Evaluator) *DiscountHandler {
	return &DiscountHandler{evaluator: evaluator}
}

// EvaluateDiscounts runs the engine against the posted cart snapshot and
// returns the discount operations. The configuration collaborator must
// keep the metafield payload under the byte budget; oversized payloads
// degrade to "no discount" rather than failing the checkout evaluation.
func (h *DiscountHandler) EvaluateDiscounts(c *gin.Context) {
	var input types.CartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid evaluation input", errors.Wrap(err, "bind evaluation input"))
		return
	}

	evaluationID := uuid.NewString()

	if payload := input.Discount.MetafieldValue(); len(payload) > constants.MaxMetafieldBytes {
		logger.Warn("Metafield payload exceeds byte budget, applying no discounts",
			zap.String("evaluation_id", evaluationID),
			zap.Int("payload_bytes", len(payload)),
			zap.Int("budget_bytes", constants.MaxMetafieldBytes),
		)
		c.JSON(http.StatusOK, types.EvaluateResult{Operations: []types.Operation{}})
		return
	}

	result := h.evaluator.Evaluate(input)

	logger.Debug("Evaluated cart discounts",
		zap.String("evaluation_id", evaluationID),
		zap.Int("cart_lines", len(input.Cart.Lines)),
		zap.Int("operations", len(result.Operations)),
	)

	c.JSON(http.StatusOK, result)
}
