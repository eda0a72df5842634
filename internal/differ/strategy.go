package differ

import "fmt"

// StrategyName identifies a registered comparison strategy.
type StrategyName string

const (
	// StrategyPerceptual tolerates anti-aliasing noise up to the tolerance.
	StrategyPerceptual StrategyName = "perceptual"
	// StrategyExact requires byte-for-byte channel equality.
	StrategyExact StrategyName = "exact"
)

// DefaultStrategy is used when a request names no strategy.
const DefaultStrategy = StrategyPerceptual

// NewComparator creates the comparator registered under the given name.
// An empty name selects the default strategy.
func NewComparator(name string) (Comparator, error) {
	switch StrategyName(name) {
	case "", DefaultStrategy:
		return NewPerceptualComparator(), nil
	case StrategyExact:
		return NewExactComparator(), nil
	default:
		return nil, fmt.Errorf("unsupported comparison strategy: %q", name)
	}
}

// Strategies lists the registered strategy names.
func Strategies() []StrategyName {
	return []StrategyName{StrategyPerceptual, StrategyExact}
}
