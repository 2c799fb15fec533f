package constants

// Common string constants used throughout the codebase
const (
	// Log levels
	ErrorLevel = "error"

	// Environments
	ProdEnvironment = "prod"
	TestEnvironment = "test"

	// Discount classes accepted from the host platform
	OrderDiscountClass   = "ORDER"
	ProductDiscountClass = "PRODUCT"

	// Candidate selection strategies understood by the host platform
	SelectionStrategyFirst = "FIRST"
	SelectionStrategyAll   = "ALL"

	// MaxMetafieldBytes is the byte budget the configuration collaborator
	// must keep the serialized bundle payload under. Oversized payloads are
	// treated as "no active bundles".
	MaxMetafieldBytes = 128 << 10
)
