package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"speechable/internal/domain"
)

// MaxSide is the longest edge sent to the recognizer.
const MaxSide = 2048

const (
	// contrastPercent is a 1.2x contrast stretch.
	contrastPercent = 20
	sharpenSigma    = 0.5
)

// Preprocess decodes an uploaded image, bounds its size and boosts contrast
// and sharpness. The result is PNG encoded.
func Preprocess(data []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", domain.ErrInvalidInput, err)
	}
	img := flatten(src)
	img = imaging.Fit(img, MaxSide, MaxSide, imaging.Lanczos)
	img = imaging.AdjustContrast(img, contrastPercent)
	img = imaging.Sharpen(img, sharpenSigma)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// flatten draws src onto white so transparent regions read as paper.
func flatten(src image.Image) *image.NRGBA {
	size := src.Bounds().Size()
	paper := imaging.New(size.X, size.Y, color.White)
	return imaging.Overlay(paper, src, image.Pt(0, 0), 1.0)
}
