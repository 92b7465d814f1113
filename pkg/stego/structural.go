package stego

import (
	"fmt"
	"strings"
)

const maxPixelEnvelope = 25_000_000
const maxAspectRatio = 20.0

// formatCategory groups a detected or claimed format string into the
// coarse category used for extension/MIME reconciliation.
var formatCategory = map[string]string{
	"JPEG": "image",
	"PNG":  "image",
	"GIF":  "image",
	"BMP":  "image",
	"WEBP": "image",
	"WAV":  "audio",
	"MP3":  "audio",
	"FLAC": "audio",
	"MP4":  "video",
	"AVI":  "video",
	"MKV":  "video",
	"PDF":  "document",
	"DOCX": "document",
}

var extensionCategory = map[string]string{
	"jpg": "image", "jpeg": "image", "png": "image", "gif": "image", "bmp": "image", "webp": "image",
	"wav": "audio", "mp3": "audio", "flac": "audio",
	"mp4": "video", "avi": "video", "mkv": "video",
	"pdf": "document", "docx": "document",
}

// validateGenericStructure checks the format-independent structural
// invariants (component G, generic branch): nonzero size, a sane pixel
// count, and a bounded aspect ratio.
func validateGenericStructure(d *DecodedImage, fileSize int64) error {
	if fileSize <= 0 {
		return fmt.Errorf("%w: file is empty", ErrStructuralInvariant)
	}
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: non-positive dimensions %dx%d", ErrStructuralInvariant, d.Width, d.Height)
	}

	pixels := int64(d.Width) * int64(d.Height)
	if pixels > maxPixelEnvelope {
		return fmt.Errorf("%w: %d pixels exceeds the %d envelope", ErrStructuralInvariant, pixels, maxPixelEnvelope)
	}

	long, short := float64(d.Width), float64(d.Height)
	if short > long {
		long, short = short, long
	}
	if short == 0 || long/short > maxAspectRatio {
		return fmt.Errorf("%w: aspect ratio %.1f exceeds %.0f", ErrStructuralInvariant, long/short, maxAspectRatio)
	}

	return nil
}

// reconcileExtension checks the claimed file extension against the
// format actually detected during decode; they must fall in the same
// coarse category (image|audio|video|document).
func reconcileExtension(originalName, detectedFormat string) error {
	ext := strings.ToLower(strings.TrimPrefix(extOf(originalName), "."))
	claimedCategory, known := extensionCategory[ext]
	if !known {
		return nil
	}
	actualCategory, known := formatCategory[detectedFormat]
	if !known {
		return nil
	}
	if claimedCategory != actualCategory {
		return fmt.Errorf("%w: extension %q implies %s content but decoded as %s (%s)",
			ErrStructuralInvariant, ext, claimedCategory, detectedFormat, actualCategory)
	}
	return nil
}

func extOf(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return name[idx+1:]
}
