package differ

import "image"

// Comparator is the pluggable pixel-comparison capability: given two
// equal-dimension RGBA bitmaps and a tolerance in [0,1], it counts the
// perceptually differing pixels and renders the diff visualization.
//
// Implementations must be deterministic (same inputs, same count, same
// output bytes) and monotone in tolerance: raising the tolerance never
// raises the differing count. At tolerance 0 exact channel equality is
// required, with one perceptual exception: two fully transparent pixels
// count as equal whatever their hidden color channels hold, since no
// renderer can tell them apart.
type Comparator interface {
	Compare(a, b *image.RGBA, tolerance float64) (diffCount int, diff *image.RGBA)
	Name() string
}
