// Package strategy holds the pluggable entry predicate. The control loop
// asks the configured strategy whether to enter a market; swapping the
// placeholder for a real signal never touches the loop itself.
package strategy

// Entry decides whether to open a position in a market at the current price.
type Entry interface {
	// Name returns the strategy's unique identifier.
	Name() string

	// ShouldEnter reports whether to place an entry order for the market at
	// the given price. Called at most once per market per tick, and only
	// when the market holds no position.
	ShouldEnter(market string, price float64) bool
}

// Registry indexes the available entry strategies by name.
type Registry map[string]Entry

// NewRegistry creates an empty registry.
func NewRegistry() Registry {
	return make(Registry)
}

// Register adds a strategy to the registry.
func (r Registry) Register(s Entry) {
	r[s.Name()] = s
}

// Get returns the strategy by name.
func (r Registry) Get(name string) (Entry, bool) {
	s, ok := r[name]
	return s, ok
}
