package types

// EvaluateResult is the full output of one evaluation: a possibly empty
// list of discount operations for the host platform to apply.
type EvaluateResult struct {
	Operations []Operation `json:"operations"`
}

// Operation wraps exactly one of the operation kinds.
type Operation struct {
	OrderDiscountsAdd   *OrderDiscountsAdd   `json:"orderDiscountsAdd,omitempty"`
	ProductDiscountsAdd *ProductDiscountsAdd `json:"productDiscountsAdd,omitempty"`
}

// OrderDiscountsAdd proposes order-subtotal discount candidates.
type OrderDiscountsAdd struct {
	Candidates        []OrderDiscountCandidate `json:"candidates"`
	SelectionStrategy string                   `json:"selectionStrategy"`
}

// ProductDiscountsAdd proposes line-level discount candidates.
type ProductDiscountsAdd struct {
	Candidates        []ProductDiscountCandidate `json:"candidates"`
	SelectionStrategy string                     `json:"selectionStrategy"`
}

// OrderDiscountCandidate is a discount against the order subtotal.
type OrderDiscountCandidate struct {
	Message string                `json:"message"`
	Targets []OrderDiscountTarget `json:"targets"`
	Value   DiscountValue         `json:"value"`
}

// OrderDiscountTarget targets the order subtotal.
type OrderDiscountTarget struct {
	OrderSubtotal OrderSubtotalTarget `json:"orderSubtotal"`
}

// OrderSubtotalTarget optionally excludes cart lines from the subtotal.
type OrderSubtotalTarget struct {
	ExcludedCartLineIDs []string `json:"excludedCartLineIds"`
}

// ProductDiscountCandidate is a discount against specific cart line
// quantities.
type ProductDiscountCandidate struct {
	Message string                  `json:"message"`
	Targets []ProductDiscountTarget `json:"targets"`
	Value   DiscountValue           `json:"value"`
}

// ProductDiscountTarget targets a quantity of one cart line.
type ProductDiscountTarget struct {
	CartLine CartLineTarget `json:"cartLine"`
}

// CartLineTarget names a cart line and how many of its units the discount
// covers.
type CartLineTarget struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// DiscountValue is either a percentage or a fixed amount; exactly one of
// the fields is set.
type DiscountValue struct {
	Percentage  *PercentageValue  `json:"percentage,omitempty"`
	FixedAmount *FixedAmountValue `json:"fixedAmount,omitempty"`
}

// PercentageValue is a percentage discount, e.g. 45 for 45% off.
type PercentageValue struct {
	Value float64 `json:"value"`
}

// FixedAmountValue is a monetary discount in the cart currency.
type FixedAmountValue struct {
	Amount            float64 `json:"amount"`
	AppliesToEachItem bool    `json:"appliesToEachItem"`
}
