package stego

import (
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func syntheticImage(w, h int, fill func(x, y int) RGB) *DecodedImage {
	pix := make([]RGB, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix[y*w+x] = fill(x, y)
		}
	}
	return &DecodedImage{Width: w, Height: h, Pix: pix, Image: image.NewRGBA(image.Rect(0, 0, w, h))}
}

func TestAnalyzeFrequencySmoothGradientHasHighCentralEnergy(t *testing.T) {
	d := syntheticImage(64, 64, func(x, y int) RGB {
		v := uint8((x + y) * 2)
		return RGB{R: v, G: v, B: v}
	})
	out := AnalyzeFrequency(d)
	assert.False(t, out.Detected, "a smooth gradient should concentrate energy near DC")
}

func TestAnalyzeFrequencyNoiseHasLowCentralEnergy(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	d := syntheticImage(64, 64, func(x, y int) RGB {
		v := uint8(r.Intn(256))
		return RGB{R: v, G: v, B: v}
	})
	out := AnalyzeFrequency(d)
	assert.True(t, out.Detected, "uniform noise should scatter energy away from DC")
}

func TestFftshiftCentersDC(t *testing.T) {
	grid := make([]float64, 4*4)
	grid[0] = 100 // DC at (0,0) pre-shift
	shifted := fftshift(grid, 4, 4)
	assert.Equal(t, 100.0, shifted[2*4+2])
}

func TestGrayscaleWeighting(t *testing.T) {
	d := &DecodedImage{Width: 1, Height: 1, Pix: []RGB{{R: 255, G: 0, B: 0}}}
	vals, w, h := grayscale(d)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
	assert.InDelta(t, 0.299*255, vals[0], 1e-6)
}
