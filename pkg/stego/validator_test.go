package stego

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, data []byte, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestValidateFileSmallFileReturnsReport(t *testing.T) {
	path := writeTempFile(t, encodePNG(t, 4, 4), "small.png")
	// The 50MB size gate is not exercised here (that would need a 50MB
	// file on disk); this checks the happy path, and the name gate is
	// exercised by the tests below.
	report, err := ValidateFile(context.Background(), path, "small.png")
	require.NoError(t, err)
	assert.NotNil(t, report)
}

func TestValidateFileRejectsSuspiciousName(t *testing.T) {
	path := writeTempFile(t, encodePNG(t, 4, 4), "img.png")
	report, err := ValidateFile(context.Background(), path, "../../etc/passwd.png")
	require.NoError(t, err)
	assert.False(t, report.IsSafe)
	assert.Contains(t, report.ThreatLevel.String(), "HIGH")
}

func TestValidateFilePlainPNGIsSafe(t *testing.T) {
	path := writeTempFile(t, encodePNG(t, 64, 64), "clean.png")
	report, err := ValidateFile(context.Background(), path, "clean.png")
	require.NoError(t, err)
	assert.True(t, report.IsSafe)
	assert.NotNil(t, report.Metadata["complexity"])
	assert.NotNil(t, report.Metadata["fusion"])
}

func TestValidateFileDetectsExtensionMismatch(t *testing.T) {
	path := writeTempFile(t, encodePNG(t, 16, 16), "audio.mp3")
	report, err := ValidateFile(context.Background(), path, "audio.mp3")
	require.NoError(t, err)
	found := false
	for _, w := range report.Warnings {
		if w != "" {
			found = true
		}
	}
	assert.True(t, found, "extension/content mismatch should surface as a warning")
}

func TestValidateFileMissingFileReturnsError(t *testing.T) {
	_, err := ValidateFile(context.Background(), filepath.Join(t.TempDir(), "missing.png"), "missing.png")
	assert.Error(t, err)
}

func TestSuspiciousNameViolation(t *testing.T) {
	assert.Equal(t, "..", suspiciousNameViolation("../escape.png"))
	assert.Equal(t, "", suspiciousNameViolation("normal-file_name.png"))
	assert.Equal(t, "..", suspiciousNameViolation("a.b.c.d.png"))
}

func TestCalculateFileHashIsDeterministic(t *testing.T) {
	path := writeTempFile(t, []byte("hash me"), "file.bin")
	h1, err := CalculateFileHash(path)
	require.NoError(t, err)
	h2, err := CalculateFileHash(path)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestDetectVisualAnomaliesFlatOpaqueImage(t *testing.T) {
	d := syntheticImage(16, 16, func(x, y int) RGB { return RGB{R: 10, G: 10, B: 10} })
	count, warnings := detectVisualAnomalies(d, 1000)
	assert.Equal(t, 0, count)
	assert.Empty(t, warnings)
}

func TestDetectVisualAnomaliesOversizedImageWarns(t *testing.T) {
	d := &DecodedImage{Width: 5000, Height: 5000, Image: image.NewRGBA(image.Rect(0, 0, 5000, 5000))}
	count, warnings := detectVisualAnomalies(d, 1000)
	assert.Equal(t, 1, count)
	assert.Contains(t, warnings, "Excessively large image")
}

// TestValidateFileSingleVisualAnomalyReachesMedium drives a single visual
// anomaly (an extreme aspect ratio, not the oversized-pixel case — a real
// 5000x5000 image would force the full-resolution frequency analyzer
// through a multi-billion-operation DFT, impractical for a unit test; see
// DESIGN.md's note on AnalyzeFrequency's accepted cost for large images)
// through the real ValidateFile pipeline end-to-end. A 2000x10 image also
// fails the generic structural aspect check, which adds a High issue, so
// the level here is not down to the anomaly alone; the single-anomaly rule
// by itself is covered by TestFuseSingleVisualAnomalyEscalatesToAtLeastMedium.
func TestValidateFileSingleVisualAnomalyReachesMedium(t *testing.T) {
	path := writeTempFile(t, encodePNG(t, 2000, 10), "wide.png")
	report, err := ValidateFile(context.Background(), path, "wide.png")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, report.ThreatLevel, Medium)
	assert.Contains(t, report.Warnings, "Unusual image aspect ratio")
}
