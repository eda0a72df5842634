package differ

import (
	"bytes"
	"image"
)

// exactComparator requires byte-for-byte channel equality and ignores the
// tolerance entirely. Useful when the screenshot pipeline is known to be
// deterministic and any divergence is a regression.
type exactComparator struct{}

// NewExactComparator returns the byte-strict comparator.
func NewExactComparator() Comparator {
	return &exactComparator{}
}

func (ec *exactComparator) Name() string {
	return "exact"
}

func (ec *exactComparator) Compare(a, b *image.RGBA, _ float64) (int, *image.RGBA) {
	bounds := a.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	diff := image.NewRGBA(image.Rect(0, 0, w, h))

	diffCount := 0
	rowBytes := w * 4
	for y := 0; y < h; y++ {
		aRow := a.Pix[y*a.Stride : y*a.Stride+rowBytes]
		bRow := b.Pix[y*b.Stride : y*b.Stride+rowBytes]
		if bytes.Equal(aRow, bRow) {
			for x := 0; x < w; x++ {
				i := x * 4
				diff.SetRGBA(x, y, dimmed(aRow[i], aRow[i+1], aRow[i+2]))
			}
			continue
		}
		for x := 0; x < w; x++ {
			i := x * 4
			if aRow[i] != bRow[i] || aRow[i+1] != bRow[i+1] ||
				aRow[i+2] != bRow[i+2] || aRow[i+3] != bRow[i+3] {
				diffCount++
				diff.SetRGBA(x, y, diffMarker)
			} else {
				diff.SetRGBA(x, y, dimmed(aRow[i], aRow[i+1], aRow[i+2]))
			}
		}
	}
	return diffCount, diff
}
