package stego

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateGenericStructureAcceptsNormalImage(t *testing.T) {
	d := &DecodedImage{Width: 1920, Height: 1080}
	assert.NoError(t, validateGenericStructure(d, 2_000_000))
}

func TestValidateGenericStructureRejectsEmptyFile(t *testing.T) {
	d := &DecodedImage{Width: 10, Height: 10}
	assert.ErrorIs(t, validateGenericStructure(d, 0), ErrStructuralInvariant)
}

func TestValidateGenericStructureRejectsZeroDimensions(t *testing.T) {
	d := &DecodedImage{Width: 0, Height: 10}
	assert.Error(t, validateGenericStructure(d, 100))
}

func TestValidateGenericStructureRejectsOversizedPixelEnvelope(t *testing.T) {
	d := &DecodedImage{Width: 10000, Height: 10000}
	assert.Error(t, validateGenericStructure(d, 100))
}

func TestValidateGenericStructureRejectsExtremeAspectRatio(t *testing.T) {
	d := &DecodedImage{Width: 10000, Height: 10}
	assert.Error(t, validateGenericStructure(d, 100))
}

func TestReconcileExtensionAcceptsMatchingCategory(t *testing.T) {
	assert.NoError(t, reconcileExtension("photo.jpg", "JPEG"))
	assert.NoError(t, reconcileExtension("photo.png", "GIF"), "both image category")
}

func TestReconcileExtensionRejectsMismatchedCategory(t *testing.T) {
	assert.Error(t, reconcileExtension("song.mp3", "PNG"))
}

func TestReconcileExtensionIgnoresUnknownExtensionOrFormat(t *testing.T) {
	assert.NoError(t, reconcileExtension("file.xyz", "PNG"))
	assert.NoError(t, reconcileExtension("file.jpg", "UNKNOWNFORMAT"))
}

func TestExtOf(t *testing.T) {
	assert.Equal(t, "jpg", extOf("photo.jpg"))
	assert.Equal(t, "", extOf("noext"))
	assert.Equal(t, "gz", extOf("archive.tar.gz"))
}
