package stego

import (
	"fmt"
	"image"

	"github.com/corona10/goimagehash"
)

// perceptualHashDrift computes the Hamming distance between the
// perceptual hashes (pHash) of an image before and after a round-trip
// through the sanitizer. A nonzero drift past hashDriftThreshold means
// sanitization changed the image's visual content rather than just its
// metadata; SanitizeImage logs a warning when that happens.
const hashDriftThreshold = 8

func perceptualHashDrift(original, sanitized image.Image) (int, error) {
	h1, err := goimagehash.PerceptionHash(original)
	if err != nil {
		return 0, fmt.Errorf("stego: perceptual hash of original failed: %w", err)
	}
	h2, err := goimagehash.PerceptionHash(sanitized)
	if err != nil {
		return 0, fmt.Errorf("stego: perceptual hash of sanitized failed: %w", err)
	}
	distance, err := h1.Distance(h2)
	if err != nil {
		return 0, fmt.Errorf("stego: hash distance failed: %w", err)
	}
	return distance, nil
}
