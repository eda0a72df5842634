package differ

import (
	"image"
	"image/color"
	"math"
)

// maxColorDistance is the largest possible distance between two opaque
// pixels under the metric below: black against white, sqrt(3)*255.
const maxColorDistance = 441.6729559300637

// Dimming factor applied to matching pixels in the diff render. The
// background stays legible while red markers dominate visually.
const backgroundBlend = 0.3

var diffMarker = color.RGBA{R: 255, G: 0, B: 0, A: 255}

// perceptualComparator flags a pixel pair as different when its
// alpha-weighted RGB distance exceeds tolerance×maxColorDistance.
type perceptualComparator struct{}

// NewPerceptualComparator returns the default comparator. It tolerates
// anti-aliasing and rendering noise proportionally to the tolerance value;
// at tolerance 0 it degenerates to exact equality.
func NewPerceptualComparator() Comparator {
	return &perceptualComparator{}
}

func (pc *perceptualComparator) Name() string {
	return "perceptual"
}

func (pc *perceptualComparator) Compare(a, b *image.RGBA, tolerance float64) (int, *image.RGBA) {
	bounds := a.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	diff := image.NewRGBA(image.Rect(0, 0, w, h))

	maxDelta := tolerance * maxColorDistance
	diffCount := 0

	for y := 0; y < h; y++ {
		aRow := a.Pix[y*a.Stride:]
		bRow := b.Pix[y*b.Stride:]
		for x := 0; x < w; x++ {
			i := x * 4
			d := colorDistance(
				aRow[i], aRow[i+1], aRow[i+2], aRow[i+3],
				bRow[i], bRow[i+1], bRow[i+2], bRow[i+3],
			)
			if d > maxDelta {
				diffCount++
				diff.SetRGBA(x, y, diffMarker)
			} else {
				diff.SetRGBA(x, y, dimmed(aRow[i], aRow[i+1], aRow[i+2]))
			}
		}
	}
	return diffCount, diff
}

// colorDistance measures how far apart two pixels are: the Euclidean RGB
// distance weighted by the pair's average opacity, plus a damped alpha
// difference. Two fully transparent pixels are identical whatever their
// hidden channel values. Range is [0, maxColorDistance].
func colorDistance(r1, g1, b1, a1, r2, g2, b2, a2 uint8) float64 {
	if a1 == 0 && a2 == 0 {
		return 0
	}

	dr := float64(int(r1) - int(r2))
	dg := float64(int(g1) - int(g2))
	db := float64(int(b1) - int(b2))
	distance := math.Sqrt(dr*dr + dg*dg + db*db)

	alphaFactor := float64(int(a1)+int(a2)) / (2.0 * 255.0)
	alphaDiff := math.Abs(float64(int(a1) - int(a2)))

	return distance*alphaFactor + alphaDiff*0.3
}

// dimmed renders a matching pixel: the original's luminance pushed toward
// white so that unchanged regions read as a pale ghost of the source.
func dimmed(r, g, b uint8) color.RGBA {
	luma := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	v := uint8(luma*backgroundBlend + 255.0*(1.0-backgroundBlend))
	return color.RGBA{R: v, G: v, B: v, A: 255}
}
