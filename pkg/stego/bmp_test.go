package stego

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

// validBMP builds a minimal well-formed 24bpp BMP header + pixel data for
// a width x height image, with no padding beyond what the format requires.
func validBMP(width, height int32) []byte {
	rowStride := ((24*uint32(width) + 31) / 32) * 4
	pixelOffset := uint32(54)
	pixelDataSize := rowStride * uint32(height)
	fileSize := pixelOffset + pixelDataSize

	buf := make([]byte, fileSize)
	buf[0], buf[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(buf[2:], fileSize)
	binary.LittleEndian.PutUint32(buf[10:], pixelOffset)
	binary.LittleEndian.PutUint32(buf[14:], 40) // BITMAPINFOHEADER
	binary.LittleEndian.PutUint32(buf[18:], uint32(width))
	binary.LittleEndian.PutUint32(buf[22:], uint32(height))
	binary.LittleEndian.PutUint16(buf[26:], 1) // planes
	binary.LittleEndian.PutUint16(buf[28:], 24)
	// Non-zero filler beyond the reserved zero-window check so the
	// "suspiciously uniform header" rule doesn't trip on our own fixture.
	for i := 54; i < len(buf) && i < 256; i++ {
		buf[i] = 0xAB
	}
	return buf
}

func TestValidateBMPHeaderAcceptsWellFormedHeader(t *testing.T) {
	data := validBMP(10, 10)
	assert.NoError(t, validateBMPHeader(data, int64(len(data))))
}

func TestValidateBMPHeaderRejectsTruncated(t *testing.T) {
	assert.Error(t, validateBMPHeader([]byte("BM"), 2))
}

func TestValidateBMPHeaderRejectsBadMagic(t *testing.T) {
	data := validBMP(10, 10)
	data[0] = 'X'
	assert.Error(t, validateBMPHeader(data, int64(len(data))))
}

func TestValidateBMPHeaderRejectsSizeMismatch(t *testing.T) {
	data := validBMP(10, 10)
	// Tolerance is max(1024 bytes, 3%); one byte past 1024 must be rejected.
	assert.Error(t, validateBMPHeader(data, int64(len(data))+1025))
}

func TestValidateBMPHeaderRejectsBadPlanes(t *testing.T) {
	data := validBMP(10, 10)
	binary.LittleEndian.PutUint16(data[26:], 2)
	assert.Error(t, validateBMPHeader(data, int64(len(data))))
}

func TestValidateBMPHeaderRejectsEmbeddedJPEGSignature(t *testing.T) {
	data := validBMP(10, 10)
	copy(data[54:], []byte{0xFF, 0xD8})
	assert.Error(t, validateBMPHeader(data, int64(len(data))))
}

func TestValidateBMPHeaderRejectsUniformHeaderRegion(t *testing.T) {
	data := validBMP(10, 10)
	for i := 54; i < 256 && i < len(data); i++ {
		data[i] = 0
	}
	assert.Error(t, validateBMPHeader(data, int64(len(data))))
}

func TestIndexOfAndContainsAny(t *testing.T) {
	assert.Equal(t, 2, indexOf([]byte("abCDEf"), []byte("CDE")))
	assert.Equal(t, -1, indexOf([]byte("abc"), []byte("xyz")))
	assert.True(t, containsAny([]byte("hello world"), [][]byte{[]byte("xyz"), []byte("world")}))
	assert.False(t, containsAny([]byte("hello"), [][]byte{[]byte("xyz")}))
}
