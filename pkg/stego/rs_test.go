package stego

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlipLSBTogglesLowBit(t *testing.T) {
	assert.Equal(t, uint8(1), flipLSB(0))
	assert.Equal(t, uint8(0), flipLSB(1))
	assert.Equal(t, uint8(255), flipLSB(254))
}

func TestDiscriminantOfConstantBlockIsZero(t *testing.T) {
	assert.Equal(t, 0.0, discriminant(10, 10, 10, 10))
}

func TestAnalyzeRSOnFlatImageHasZeroGroups(t *testing.T) {
	d := &DecodedImage{Width: 1, Height: 1, Pix: []RGB{{R: 10}}}
	out := analyzeRS(d)
	assert.Equal(t, 0, out.Groups)
	assert.False(t, out.Detected)
}

func TestAnalyzeRSOnUniformImageLowConfidence(t *testing.T) {
	d := syntheticImage(16, 16, func(x, y int) RGB { return RGB{R: 128, G: 128, B: 128} })
	out := analyzeRS(d)
	assert.False(t, out.Detected)
}
