package stego

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

// DecodedImage is a decoded 3-channel RGB 8-bit pixel array together with
// the format and (for JPEG) quantization tables the rest of the pipeline
// needs. It is scoped to a single validate_file call — never cached.
type DecodedImage struct {
	Format      string
	Width       int
	Height      int
	Pix         []RGB // row-major, len == Width*Height
	Image       image.Image
	QuantTables [][64]int // JPEG only; nil otherwise
}

// RGB is a single pixel's 8-bit channel triple.
type RGB struct {
	R, G, B uint8
}

// At returns the pixel at (x, y), assuming 0 <= x < Width, 0 <= y < Height.
func (d *DecodedImage) At(x, y int) RGB {
	return d.Pix[y*d.Width+x]
}

// DecodeImage decodes raw bytes into a DecodedImage, detecting format from
// content signatures rather than trusting the file extension. Returns
// ErrDecodeFailed wrapped with the underlying decoder error on failure.
func DecodeImage(data []byte) (*DecodedImage, error) {
	format := sniffImageFormat(data)

	var img image.Image
	var err error

	switch format {
	case "JPEG":
		img, err = jpeg.Decode(bytes.NewReader(data))
	case "PNG":
		img, err = png.Decode(bytes.NewReader(data))
	case "GIF":
		img, err = gif.Decode(bytes.NewReader(data))
	case "BMP":
		img, err = bmp.Decode(bytes.NewReader(data))
	case "WEBP":
		img, err = webp.Decode(bytes.NewReader(data))
	default:
		// Fall back to the standard registry in case sniffing missed a
		// variant (e.g. progressive JPEG with an unusual APP segment).
		img, format, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: zero-sized image", ErrDecodeFailed)
	}

	pix := make([]RGB, w*h)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			pix[i] = RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
			i++
		}
	}

	d := &DecodedImage{
		Format: format,
		Width:  w,
		Height: h,
		Pix:    pix,
		Image:  img,
	}

	if format == "JPEG" {
		d.QuantTables = parseJPEGQuantTables(data)
	}

	return d, nil
}

// sniffImageFormat identifies an image format from its leading bytes,
// independent of any filename extension. Unknown content returns "".
func sniffImageFormat(data []byte) string {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "JPEG"
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}):
		return "PNG"
	case len(data) >= 6 && (bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a"))):
		return "GIF"
	case len(data) >= 2 && data[0] == 'B' && data[1] == 'M':
		return "BMP"
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "WEBP"
	default:
		return ""
	}
}

// parseJPEGQuantTables scans DQT (0xFFDB) marker segments and returns each
// 8x8 quantization table found, in the zig-zag order they are stored in. A
// best-effort scan: malformed segments are skipped rather than failing the
// whole decode, since quant tables are only used for a quality estimate.
func parseJPEGQuantTables(data []byte) [][64]int {
	var tables [][64]int
	i := 2 // skip SOI
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			i++
			continue
		}
		marker := data[i+1]
		if marker == 0xD8 || marker == 0xD9 || (marker >= 0xD0 && marker <= 0xD7) || marker == 0x01 {
			i += 2
			continue
		}
		if i+4 > len(data) {
			break
		}
		segLen := int(data[i+2])<<8 | int(data[i+3])
		if segLen < 2 || i+2+segLen > len(data) {
			break
		}
		if marker == 0xDB {
			payload := data[i+4 : i+2+segLen]
			tables = append(tables, extractQuantTablesFromDQT(payload)...)
		}
		if marker == 0xDA {
			break // start of scan; tables are always before this
		}
		i += 2 + segLen
	}
	return tables
}

func extractQuantTablesFromDQT(payload []byte) [][64]int {
	var tables [][64]int
	p := 0
	for p < len(payload) {
		precisionAndID := payload[p]
		precision := precisionAndID >> 4
		p++
		var table [64]int
		if precision == 0 {
			if p+64 > len(payload) {
				break
			}
			for k := 0; k < 64; k++ {
				table[k] = int(payload[p+k])
			}
			p += 64
		} else {
			if p+128 > len(payload) {
				break
			}
			for k := 0; k < 64; k++ {
				table[k] = int(payload[p+2*k])<<8 | int(payload[p+2*k+1])
			}
			p += 128
		}
		tables = append(tables, table)
	}
	return tables
}
