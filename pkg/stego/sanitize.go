package stego

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"

	"github.com/disintegration/imaging"

	"github.com/stashapp/stego/pkg/logger"
)

const sanitizeJPEGQuality = 85

// SanitizeImage re-encodes src as a metadata-stripped JPEG at dst:
// alpha is flattened against white, color reduced to RGB, and no EXIF or
// other ancillary chunks survive the round-trip. It never overwrites the
// original and returns true only on a fully successful write.
func SanitizeImage(src, dst string) (bool, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return false, fmt.Errorf("stego: reading source for sanitize: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return false, fmt.Errorf("stego: decoding source for sanitize: %w", err)
	}

	flattened := flattenAlpha(img)

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return false, fmt.Errorf("stego: creating sanitized output: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, flattened, &jpeg.Options{Quality: sanitizeJPEGQuality}); err != nil {
		return false, fmt.Errorf("stego: encoding sanitized output: %w", err)
	}

	if drift, err := perceptualHashDrift(img, flattened); err == nil && drift > hashDriftThreshold {
		logger.Warnf("sanitize: perceptual hash drift %d for %s exceeds threshold %d", drift, src, hashDriftThreshold)
	}

	return true, nil
}

// flattenAlpha composites img over an opaque white background and
// returns a plain image.RGBA with no alpha channel, using the same
// resize/compose library the complexity estimator already depends on.
func flattenAlpha(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	white := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	composed := imaging.Overlay(white, img, image.Point{}, 1.0)

	rgba := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgba.Set(x, y, composed.At(x-bounds.Min.X, y-bounds.Min.Y))
		}
	}
	return rgba
}
