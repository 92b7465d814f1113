package stego

import (
	"bytes"
	"compress/zlib"
	"math"
)

// PairChiSquare is the pair-based chi-square test (component E): per
// channel, consecutive pixel values are paired and classified by whether
// the first of the pair is even or odd. Even-value-replacement
// steganography flattens this distribution toward 50/50.
func PairChiSquare(d *DecodedImage) AnalyzerOutcome {
	channels := [][]uint8{
		channelValues(d, 0),
		channelValues(d, 1),
		channelValues(d, 2),
	}

	var pValues []float64
	lowCount := 0
	for _, values := range channels {
		p := pairChiSquareP(values)
		pValues = append(pValues, p)
		if p < 0.05 {
			lowCount++
		}
	}

	minP := pValues[0]
	sum := 0.0
	for _, p := range pValues {
		sum += p
		if p < minP {
			minP = p
		}
	}
	meanP := sum / float64(len(pValues))

	detected := minP < 0.01 || (lowCount >= 2 && meanP < 0.1)

	var confidence float64
	if lowCount >= 2 {
		confidence = math.Min(1, 1.5*(1-meanP))
	} else {
		confidence = 1 - minP
	}
	confidence = clamp01(confidence)

	return AnalyzerOutcome{
		Detected:   detected,
		Confidence: confidence,
		Details: map[string]interface{}{
			"minP":           minP,
			"meanP":          meanP,
			"channelsLowP":   lowCount,
			"perChannelP":    pValues,
		},
	}
}

// channelValues extracts one 8-bit channel (0=R, 1=G, 2=B) in raster
// order.
func channelValues(d *DecodedImage, channel int) []uint8 {
	out := make([]uint8, len(d.Pix))
	for i, p := range d.Pix {
		switch channel {
		case 0:
			out[i] = p.R
		case 1:
			out[i] = p.G
		default:
			out[i] = p.B
		}
	}
	return out
}

// pairChiSquareP pairs consecutive values, classifies each pair by the
// parity of its first element, and returns the chi-square p-value (1
// degree of freedom) of the even/odd split against a uniform 50/50
// expectation.
func pairChiSquareP(values []uint8) float64 {
	nEven, nOdd := 0, 0
	for i := 0; i+1 < len(values); i += 2 {
		if values[i]%2 == 0 {
			nEven++
		} else {
			nOdd++
		}
	}
	total := nEven + nOdd
	if total == 0 {
		return 1
	}
	expected := float64(total) / 2
	chi2 := math.Pow(float64(nEven)-expected, 2)/expected + math.Pow(float64(nOdd)-expected, 2)/expected
	return chiSquarePValue1DoF(chi2)
}

// chiSquarePValue1DoF returns the upper-tail p-value of a chi-square
// statistic with 1 degree of freedom: 1-CDF(x) = erfc(sqrt(x/2)).
func chiSquarePValue1DoF(chi2 float64) float64 {
	if chi2 < 0 {
		chi2 = 0
	}
	return math.Erfc(math.Sqrt(chi2 / 2))
}

// fileEntropyThresholds returns the {base, stego} Shannon-entropy
// breakpoints (bits/byte) for the given file size, per spec.md's
// size-dependent offsets.
func fileEntropyThresholds(fileSize int) (base, stego float64) {
	const (
		smallFile = 50 * 1024
		largeFile = 500 * 1024
	)
	switch {
	case fileSize < smallFile:
		return 7.5 + 0.2, 7.8 + 0.15
	case fileSize > largeFile:
		return 7.5, 7.8
	default:
		return 7.5 + 0.1, 7.8 + 0.05
	}
}

// FileEntropy is the whole-file Shannon entropy analyzer (component E).
func FileEntropy(data []byte) AnalyzerOutcome {
	entropy := shannonEntropy(data)
	base, stego := fileEntropyThresholds(len(data))

	detected := entropy > stego
	confidence := 0.0
	if entropy > base {
		confidence = clamp01((entropy - base) / (8.0 - base))
	}

	return AnalyzerOutcome{
		Detected:   detected,
		Confidence: confidence,
		Details: map[string]interface{}{
			"entropy":         entropy,
			"baseThreshold":   base,
			"stegoThreshold":  stego,
			"fileSize":        len(data),
		},
	}
}

// shannonEntropy computes the Shannon entropy (bits/byte) of a byte
// stream from its 256-bin histogram.
func shannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var hist [256]int
	for _, b := range data {
		hist[b]++
	}
	n := float64(len(data))
	entropy := 0.0
	for _, c := range hist {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// CryptoEntropyResult holds the byte-chi-square / compressibility /
// entropy triad used to flag likely encrypted-or-compressed payloads.
type CryptoEntropyResult struct {
	Entropy           float64
	CompressionRatio  float64
	ChiSquare         float64
	PValue            float64
	Suspicious        bool
}

// CryptoEntropyCheck analyzes byte-entropy, zlib-compressibility, and a
// byte-level chi-square against the uniform distribution (component E's
// secondary check). Its Suspicious verdict is folded into FileEntropy's
// confidence by ValidateFile (applyCryptoEntropyCheck, files over 100KB), since spec.md's
// fusion weights name only {lsb, entropy, chi, freq} and this check is a
// corroborating signal for the entropy slot rather than a fifth weight.
func CryptoEntropyCheck(data []byte) CryptoEntropyResult {
	entropy := shannonEntropy(data)
	ratio := compressionRatio(data)
	chi2 := byteChiSquare(data)
	p := byteChiSquarePValue(chi2, len(data))

	suspicious := (entropy > 7.8 && ratio > 0.9) || p < 0.001

	return CryptoEntropyResult{
		Entropy:          entropy,
		CompressionRatio: ratio,
		ChiSquare:        chi2,
		PValue:           p,
		Suspicious:       suspicious,
	}
}

// compressionRatio is (compressed size / original size); higher means
// less compressible, a hallmark of encrypted or already-compressed data.
func compressionRatio(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, _ = w.Write(data)
	_ = w.Close()
	compressedSize := buf.Len()
	return float64(compressedSize) / float64(len(data))
}

// byteChiSquare is the chi-square statistic of the byte histogram against
// a uniform distribution over 256 values (255 degrees of freedom).
func byteChiSquare(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var hist [256]int
	for _, b := range data {
		hist[b]++
	}
	expected := float64(len(data)) / 256
	chi2 := 0.0
	for _, c := range hist {
		d := float64(c) - expected
		chi2 += d * d / expected
	}
	return chi2
}

// byteChiSquarePValue approximates the upper-tail p-value of a
// chi-square(255) statistic. A full chi-square CDF is not in the Go
// standard library; we use the approximation spec.md names as the
// no-scipy fallback: p ~= exp(-chi2/(N/2)).
func byteChiSquarePValue(chi2 float64, n int) float64 {
	if n == 0 {
		return 1
	}
	return math.Exp(-chi2 / (float64(n) / 2))
}
