package results

import (
	"slices"
	"strings"
	"sync"
)

// Entry is one symbol and its average price
type Entry struct {
	Symbol string
	Value  float64
}

// Store maps symbols to average prices. Put is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	values map[string]float64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{values: make(map[string]float64)}
}

// Put records the value for symbol, replacing any earlier value
func (s *Store) Put(symbol string, value float64) {
	s.mu.Lock()
	s.values[symbol] = value
	s.mu.Unlock()
}

// Len returns the number of stored symbols
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

// Sorted returns a snapshot ordered by symbol using byte-wise comparison,
// so "AAPL" sorts before "aapl".
func (s *Store) Sorted() []Entry {
	s.mu.Lock()
	out := make([]Entry, 0, len(s.values))
	for sym, v := range s.values {
		out = append(out, Entry{Symbol: sym, Value: v})
	}
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b Entry) int {
		return strings.Compare(a.Symbol, b.Symbol)
	})
	return out
}
