package raster

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "github.com/visualdiff/image-diff-go/internal/errors"
)

// Load reads and decodes an image file into a 4-channel RGBA bitmap.
// Design exports are PNG in practice, but screenshots arrive in whatever
// format the capturing tool produced, so every registered decoder applies.
func Load(path string) (*image.RGBA, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewDecodeError(fmt.Sprintf("cannot read image %q", path), err)
	}
	defer file.Close()

	img, err := Decode(file)
	if err != nil {
		return nil, apperrors.NewDecodeError(fmt.Sprintf("cannot decode image %q", path), err)
	}
	return img, nil
}

// Decode decodes an encoded raster stream into RGBA.
func Decode(r io.Reader) (*image.RGBA, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return ToRGBA(img), nil
}

// ToRGBA converts any decoded image into a zero-origin *image.RGBA.
// Already-conforming images are returned as-is.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}

// Overlap computes the comparison region shared by two images: the
// element-wise minimum of their widths and heights, anchored top-left.
func Overlap(a, b image.Image) (width, height int) {
	aw, ah := a.Bounds().Dx(), a.Bounds().Dy()
	bw, bh := b.Bounds().Dx(), b.Bounds().Dy()
	width, height = aw, ah
	if bw < width {
		width = bw
	}
	if bh < height {
		height = bh
	}
	return width, height
}

// CropTopLeft extracts the top-left w×h sub-rectangle as a fresh bitmap.
// This is a byte-span row copy, never a resample: an image that already has
// the requested size is returned unchanged.
func CropTopLeft(img *image.RGBA, w, h int) *image.RGBA {
	if img.Bounds().Dx() == w && img.Bounds().Dy() == h {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	rowBytes := w * 4
	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+rowBytes]
		dst := out.Pix[y*out.Stride : y*out.Stride+rowBytes]
		copy(dst, src)
	}
	return out
}

// SavePNG writes an image as a PNG file, creating parent directories as
// needed. A failed encode does not leave a partial artifact behind.
func SavePNG(img image.Image, path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.NewFilesystemError(fmt.Sprintf("cannot create output directory %q", dir), err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewFilesystemError(fmt.Sprintf("cannot create diff image %q", path), err)
	}

	if err := png.Encode(file, img); err != nil {
		file.Close()
		os.Remove(path)
		return apperrors.NewFilesystemError(fmt.Sprintf("cannot encode diff image %q", path), err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return apperrors.NewFilesystemError(fmt.Sprintf("cannot write diff image %q", path), err)
	}
	return nil
}
