package types

// CartInput is the JSON document the host platform hands to one discount
// evaluation: the cart snapshot plus the resolved discount context.
type CartInput struct {
	Cart     Cart            `json:"cart"`
	Discount DiscountContext `json:"discount"`
}

// Cart holds the shopper's cart lines at evaluation time.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

// CartLine is one entry in the shopper's cart.
type CartLine struct {
	ID          string       `json:"id"`
	Quantity    int          `json:"quantity"`
	Cost        CartLineCost `json:"cost"`
	Merchandise Merchandise  `json:"merchandise"`
}

// CartLineCost carries the line subtotal.
type CartLineCost struct {
	SubtotalAmount Money `json:"subtotalAmount"`
}

// Money is a decimal amount serialized as a string by the host platform.
type Money struct {
	Amount string `json:"amount"`
}

// Merchandise references the purchasable variant on a cart line. Product is
// nil when the merchandise is not a product variant.
type Merchandise struct {
	ID      string   `json:"id,omitempty"`
	Product *Product `json:"product,omitempty"`
}

// Product identifies the parent product of a variant.
type Product struct {
	ID string `json:"id"`
}

// DiscountContext carries the discount classes granted to this evaluation
// and the metafield holding the serialized bundle configuration.
type DiscountContext struct {
	DiscountClasses []string   `json:"discountClasses"`
	Metafield       *Metafield `json:"metafield,omitempty"`
}

// Metafield is the key-value slot carrying the active-bundle payload.
type Metafield struct {
	Value string `json:"value"`
}

// HasDiscountClass reports whether the given class was granted.
func (d DiscountContext) HasDiscountClass(class string) bool {
	for _, c := range d.DiscountClasses {
		if c == class {
			return true
		}
	}
	return false
}

// MetafieldValue returns the raw bundle payload, or "" when absent.
func (d DiscountContext) MetafieldValue() string {
	if d.Metafield == nil {
		return ""
	}
	return d.Metafield.Value
}
