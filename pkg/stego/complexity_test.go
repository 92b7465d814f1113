package stego

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateComplexityFlatImageIsLowComplexity(t *testing.T) {
	d := syntheticImage(64, 64, func(x, y int) RGB { return RGB{R: 100, G: 100, B: 100} })
	m := EstimateComplexity(d)
	assert.Less(t, m.ComplexityScore, 0.3)
}

// A flat image scores exactly 0.25 (block uniformity 1, the other three
// terms 0); random noise drives block uniformity toward 0 but raises the
// edge, texture and saturation terms, so it scores above that floor.
func TestEstimateComplexityNoiseImageScoresAboveFlatImage(t *testing.T) {
	r := rand.New(rand.NewSource(21))
	d := syntheticImage(64, 64, func(x, y int) RGB {
		return RGB{R: uint8(r.Intn(256)), G: uint8(r.Intn(256)), B: uint8(r.Intn(256))}
	})
	m := EstimateComplexity(d)
	assert.Greater(t, m.ComplexityScore, 0.25)
}

func TestComplexityScoreIsClamped(t *testing.T) {
	d := syntheticImage(32, 32, func(x, y int) RGB { return RGB{R: 255, G: 255, B: 255} })
	m := EstimateComplexity(d)
	assert.GreaterOrEqual(t, m.ComplexityScore, 0.0)
	assert.LessOrEqual(t, m.ComplexityScore, 1.0)
}

func TestJPEGQualityEstimateEmptyTablesReturnsZero(t *testing.T) {
	assert.Equal(t, 0.0, jpegQualityEstimate(nil))
}

func TestMeanVar(t *testing.T) {
	mean, v := meanVar([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, 1e-9)
	assert.InDelta(t, 4.0, v, 1e-9)
}

func TestMaxMinByte(t *testing.T) {
	assert.Equal(t, uint8(200), maxByte(10, 200, 50))
	assert.Equal(t, uint8(10), minByte(10, 200, 50))
}

func TestDownscaleNoopBelowMaxSide(t *testing.T) {
	d := syntheticImage(32, 32, func(x, y int) RGB { return RGB{} })
	small := downscale(d, 256)
	assert.Same(t, d, small)
}
