package stego

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/stashapp/stego/pkg/logger"
	"github.com/stashapp/stego/pkg/threatscan"
)

const (
	maxFileSize        = 50 * 1024 * 1024
	entropyAnalysisMin = 100 * 1024
	hashReadChunk      = 4096
)

var suspiciousNameFragments = []string{"..", "~", "${", "%(", "<", ">", "|", "&"}

// ValidateFile is the top-level entry point (component L): basic size
// and filename checks, signature scan, format-dependent analyzer
// dispatch, fusion, and recommendation attachment.
func ValidateFile(ctx context.Context, path, originalName string) (*SecurityReport, error) {
	report := newReport()

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stego: stat %s: %w", path, err)
	}
	fileSize := info.Size()

	if fileSize > maxFileSize {
		report.addIssue(fmt.Sprintf("file size %d exceeds the %d byte limit", fileSize, maxFileSize), Critical)
	}
	if name := suspiciousNameViolation(originalName); name != "" {
		report.addIssue(fmt.Sprintf("filename contains suspicious fragment %q", name), High)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stego: reading %s: %w", path, err)
	}

	sigResults := threatscan.ScanSignatures(data, extOf(originalName))
	for _, r := range sigResults {
		if r.Type == "signature" {
			report.Warnings = append(report.Warnings, r.Message)
		}
	}
	stegoToolSignature := threatscan.HasStegoToolMarker(sigResults)

	detectedFormat := sniffImageFormat(data)
	if detectedFormat != "" {
		if err := reconcileExtension(originalName, detectedFormat); err != nil {
			report.Warnings = append(report.Warnings, err.Error())
		}
	}

	var fusionIn FusionInput
	fusionIn.FileSize = fileSize
	fusionIn.StegoToolSignature = stegoToolSignature

	isImage := detectedFormat != ""
	if isImage {
		decoded, err := DecodeImage(data)
		if err != nil {
			report.addIssue(fmt.Sprintf("image failed to decode: %v", err), High)
			isImage = false
		} else {
			runImageAnalyzers(ctx, decoded, data, fileSize, report, &fusionIn)
		}
	}

	if fileSize > entropyAnalysisMin {
		fusionIn.Entropy = FileEntropy(data)
		report.Metadata["cryptoEntropy"] = applyCryptoEntropyCheck(data, &fusionIn.Entropy)
	}

	outcome := Fuse(fusionIn, DefaultFusionWeights())
	applyFusionOutcome(report, outcome)

	report.finalize()
	attachRecommendations(report)

	logger.LogSecurityEvent(originalName, report.ThreatLevel.String(), report.IsSafe, report.Confidence)

	return report, nil
}

// applyCryptoEntropyCheck runs the byte-compressibility/chi-square
// corroborating check and folds a Suspicious verdict into the entropy
// analyzer's outcome in place, raising its confidence and forcing
// Detected rather than adding a fifth fusion weight.
func applyCryptoEntropyCheck(data []byte, entropy *AnalyzerOutcome) CryptoEntropyResult {
	result := CryptoEntropyCheck(data)
	if result.Suspicious {
		entropy.Detected = true
		entropy.Confidence = clamp01(math.Max(entropy.Confidence, 0.7))
	}
	return result
}

// runImageAnalyzers runs, in this order: the generic structural check,
// complexity -> thresholds -> LSB -> pair chi-square -> frequency ->
// metadata -> (BMP only) the BMP header check -> visual anomalies.
// File-level entropy and the crypto entropy check run separately in
// ValidateFile; only the image's contribution to fusionIn is set here.
func runImageAnalyzers(ctx context.Context, decoded *DecodedImage, data []byte, fileSize int64, report *SecurityReport, fusionIn *FusionInput) {
	if err := validateGenericStructure(decoded, fileSize); err != nil {
		report.addIssue(err.Error(), High)
		fusionIn.StructuralViolation = true
	}

	complexity := EstimateComplexity(decoded)
	fusionIn.ComplexityScore = complexity.ComplexityScore
	report.Metadata["complexity"] = complexity

	thresholds := DeriveThresholds(complexity.ComplexityScore, decoded.Format)
	report.Metadata["thresholds"] = thresholds

	lsb := AnalyzeLSB(decoded, thresholds)
	fusionIn.LSB = lsb
	report.Metadata["lsb"] = lsb.Details

	chi := PairChiSquare(decoded)
	fusionIn.Chi = chi
	report.Metadata["chi"] = chi.Details

	freq := AnalyzeFrequency(decoded)
	fusionIn.Frequency = freq
	report.Metadata["frequency"] = freq.Details

	metaResults, err := threatscan.ScanMetadata(data)
	if err != nil {
		logger.Warnf("stego: metadata scan failed: %v", err)
	}
	for _, r := range metaResults {
		report.Warnings = append(report.Warnings, r.Message)
	}

	if decoded.Format == "BMP" {
		if err := validateBMPHeader(data, fileSize); err != nil {
			report.addIssue(err.Error(), High)
			fusionIn.StructuralViolation = true
		}
	}

	needsSanitization := lsb.Detected || chi.Detected || freq.Detected
	report.Metadata["needs_sanitization"] = needsSanitization

	count, anomalyWarnings := detectVisualAnomalies(decoded, fileSize)
	fusionIn.VisualAnomalies = count
	report.Warnings = append(report.Warnings, anomalyWarnings...)
}

// detectVisualAnomalies checks the three visual-anomaly kinds spec.md
// §4.J names — an oversized pixel count, an extreme aspect ratio, and a
// high-stddev alpha channel — and returns how many fired along with
// their human-readable warnings. Any single anomaly is enough to
// escalate the threat level (see Fuse): detect_visual_attacks in the
// original implementation flags on any one issue, not a count threshold,
// which resolves spec.md §4.J's "≥4 anomalies" wording against only
// three ever-countable kinds. The pixel envelope uses >= rather than the
// structural validator's strict >, so the boundary case spec.md §8
// names (5000×5000 = 25,000,000 pixels) reaches this check.
func detectVisualAnomalies(d *DecodedImage, fileSize int64) (int, []string) {
	var warnings []string

	if int64(d.Width)*int64(d.Height) >= maxPixelEnvelope {
		warnings = append(warnings, "Excessively large image")
	}

	long, short := float64(d.Width), float64(d.Height)
	if short > long {
		long, short = short, long
	}
	if short == 0 || long/short > maxAspectRatio {
		warnings = append(warnings, "Unusual image aspect ratio")
	}

	if alphaStdDev(d) > 100 {
		warnings = append(warnings, "Suspicious alpha channel patterns")
	}

	return len(warnings), warnings
}

// alphaStdDev returns the standard deviation of the image's alpha
// channel (0 for an opaque image, since RGBA() reports full alpha for
// color models without one).
func alphaStdDev(d *DecodedImage) float64 {
	bounds := d.Image.Bounds()
	var alphas []float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			_, _, _, a := d.Image.At(x, y).RGBA()
			alphas = append(alphas, float64(a>>8))
		}
	}
	if len(alphas) == 0 {
		return 0
	}
	_, v := meanVar(alphas)
	return math.Sqrt(v)
}

// applyFusionOutcome folds the fusion decision into the report: issues,
// warnings, and the monotonic threat-level raise.
func applyFusionOutcome(report *SecurityReport, outcome FusionOutcome) {
	report.Confidence = outcome.Mean
	report.raiseThreat(outcome.ThreatLevel)
	report.Issues = append(report.Issues, outcome.Issues...)
	report.Warnings = append(report.Warnings, outcome.Warnings...)
	report.Metadata["fusion"] = map[string]interface{}{
		"compositeScore":   outcome.CompositeScore,
		"mean":             outcome.Mean,
		"stdDev":           outcome.StdDev,
		"positive":         outcome.Positive,
		"strong":           outcome.Strong,
		"hasSteganography": outcome.HasSteganography,
	}
}

// attachRecommendations sets the recommendation list per spec.md §4.L's
// threat-level table.
func attachRecommendations(report *SecurityReport) {
	switch report.ThreatLevel {
	case Critical:
		report.Recommendations = append(report.Recommendations, "Reject immediately")
	case High:
		report.Recommendations = append(report.Recommendations, "Reject — multiple issues")
	case Medium:
		report.Recommendations = append(report.Recommendations, "Manual review")
	default:
		if report.IsSafe && len(report.Warnings) > 0 {
			report.Recommendations = append(report.Recommendations, "Approve with monitoring; consider re-encoding")
		}
	}
}

// suspiciousNameViolation returns the first offending fragment in name,
// or "" if the name is clean. More than two dots is itself a violation,
// reported as "..".
func suspiciousNameViolation(name string) string {
	if strings.Count(name, ".") > 2 {
		return ".."
	}
	for _, frag := range suspiciousNameFragments {
		if strings.Contains(name, frag) {
			return frag
		}
	}
	return ""
}

// CalculateFileHash streams path through SHA-256 in 4KB reads and
// returns the hex digest.
func CalculateFileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("stego: opening %s for hashing: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, hashReadChunk)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("stego: reading %s for hashing: %w", path, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
