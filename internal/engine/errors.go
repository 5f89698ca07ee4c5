package engine

import "fmt"

// InsufficientDataError means a SKU has no sales history at all, so no
// demand profile can be computed. Recoverable: the caller may widen the
// window or skip the SKU. Short-but-nonempty history is not an error,
// it only lowers confidence.
type InsufficientDataError struct {
	SKU string
}

func (e *InsufficientDataError) Error() string {
	if e.SKU == "" {
		return "insufficient data: no sales records in history"
	}
	return fmt.Sprintf("insufficient data: no sales records for sku %s", e.SKU)
}

// InvalidConfigError means supplier or policy parameters are outside
// their valid domain (negative stock, non-positive pack size, negative
// lead time). Not recoverable; rejected before any computation.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s %s", e.Field, e.Reason)
}
