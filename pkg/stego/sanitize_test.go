package stego

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenAlphaProducesOpaqueRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.NRGBA{R: 10, G: 20, B: 30, A: 0}) // fully transparent
		}
	}
	flattened := flattenAlpha(src)
	r, g, b, a := flattened.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), a, "flattened output must be fully opaque")
	// Fully transparent source composited over white should be white, not
	// the source's nominal (but invisible) color.
	assert.Greater(t, r, uint32(0xf000))
	assert.Greater(t, g, uint32(0xf000))
	assert.Greater(t, b, uint32(0xf000))
}

func TestSanitizeImageWritesJPEGAndNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "in.png")
	require.NoError(t, os.WriteFile(srcPath, encodePNG(t, 20, 20), 0o644))

	dstPath := filepath.Join(dir, "out.jpg")
	ok, err := SanitizeImage(srcPath, dstPath)
	require.NoError(t, err)
	assert.True(t, ok)

	info, err := os.Stat(dstPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	_, err = SanitizeImage(srcPath, dstPath)
	assert.Error(t, err, "must not silently overwrite an existing sanitized file")
}

func TestPerceptualHashDriftIdenticalImageIsZero(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 5), B: 100, A: 255})
		}
	}
	drift, err := perceptualHashDrift(img, img)
	require.NoError(t, err)
	assert.Equal(t, 0, drift)
}
