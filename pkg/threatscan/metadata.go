package threatscan

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// metadataSuspiciousFields are the EXIF tags scanned for injected
// payloads; these are the fields most commonly abused to smuggle
// executable fragments through an otherwise-inert image.
var metadataSuspiciousFields = map[string]bool{
	"Software":         true,
	"Comment":          true,
	"UserComment":      true,
	"ImageDescription": true,
}

var metadataSuspiciousSubstrings = []string{"script", "eval", "exec", "base64", "stego"}

const metadataMaxValueLen = 1000

// ScanMetadata scans an image's EXIF tags for suspicious substrings in
// {Software, Comment, UserComment, ImageDescription} and flags any value
// that is oversized or carries a base64 blob.
func ScanMetadata(data []byte) ([]Result, error) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		// Absence of EXIF data is not itself a threat.
		return nil, nil
	}

	var results []Result
	walker := &metadataWalker{results: &results}
	if err := x.Walk(walker); err != nil {
		return results, fmt.Errorf("threatscan: exif walk failed: %w", err)
	}
	return results, nil
}

type metadataWalker struct {
	results *[]Result
}

func (w *metadataWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if !metadataSuspiciousFields[string(name)] {
		return nil
	}
	val, err := tag.StringVal()
	if err != nil {
		return nil
	}

	lower := strings.ToLower(val)
	for _, needle := range metadataSuspiciousSubstrings {
		if strings.Contains(lower, needle) {
			*w.results = append(*w.results, Result{
				Type:    "metadata",
				Message: fmt.Sprintf("EXIF field %s contains suspicious fragment %q", name, needle),
			})
			break
		}
	}

	if len(val) > metadataMaxValueLen {
		*w.results = append(*w.results, Result{
			Type:    "metadata",
			Message: fmt.Sprintf("EXIF field %s value is %d bytes, exceeds %d", name, len(val), metadataMaxValueLen),
		})
	}
	if strings.Contains(lower, "base64") {
		*w.results = append(*w.results, Result{
			Type:    "metadata",
			Message: fmt.Sprintf("EXIF field %s appears to carry a base64 payload", name),
		})
	}

	return nil
}
