package differ

import (
	"fmt"
	"image"

	apperrors "github.com/visualdiff/image-diff-go/internal/errors"
	"github.com/visualdiff/image-diff-go/internal/raster"
)

// Result holds the raw outcome of one pixel comparison, before any
// reporting or persistence concerns apply.
type Result struct {
	// Region is the compared overlap, anchored top-left.
	RegionWidth  int
	RegionHeight int

	OriginalSize   image.Point
	ScreenshotSize image.Point
	SizeMismatch   bool

	DiffCount int
	DiffImage *image.RGBA
}

// TotalPixels returns the pixel count of the compared region.
func (r *Result) TotalPixels() int {
	return r.RegionWidth * r.RegionHeight
}

// Differ aligns two images to their shared region and runs a Comparator
// over it. One Differ is safe for sequential reuse; each Diff call is an
// independent, deterministic computation.
type Differ struct {
	cmp Comparator
}

// New creates a Differ around the given comparator.
func New(cmp Comparator) *Differ {
	return &Differ{cmp: cmp}
}

// Diff compares original against screenshot with the given tolerance.
// Differing dimensions are recoverable: only the top-left overlap is
// compared and the mismatch is recorded on the result, never returned
// as an error.
func (d *Differ) Diff(original, screenshot image.Image, tolerance float64) (*Result, error) {
	if tolerance < 0 || tolerance > 1 {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("tolerance must be within [0,1], got %v", tolerance), nil)
	}

	a := raster.ToRGBA(original)
	b := raster.ToRGBA(screenshot)

	w, h := raster.Overlap(a, b)
	result := &Result{
		RegionWidth:    w,
		RegionHeight:   h,
		OriginalSize:   image.Point{X: a.Bounds().Dx(), Y: a.Bounds().Dy()},
		ScreenshotSize: image.Point{X: b.Bounds().Dx(), Y: b.Bounds().Dy()},
	}
	result.SizeMismatch = result.OriginalSize != result.ScreenshotSize

	a = raster.CropTopLeft(a, w, h)
	b = raster.CropTopLeft(b, w, h)

	result.DiffCount, result.DiffImage = d.cmp.Compare(a, b, tolerance)
	return result, nil
}

// Strategy reports the name of the underlying comparator.
func (d *Differ) Strategy() string {
	return d.cmp.Name()
}
