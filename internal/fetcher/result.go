package fetcher

// Result represents the outcome of processing one symbol.
// It is handed to failure handlers by the coordinator.
type Result struct {
	// Symbol is the ticker that was processed
	Symbol string

	// Value is the average midpoint price
	Value float64

	// Error contains any error that occurred while fetching or averaging.
	// If Error is not nil, Value should be considered invalid.
	Error error
}

// OK reports whether the symbol was processed successfully
func (r Result) OK() bool {
	return r.Error == nil
}
