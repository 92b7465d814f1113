package stego

import "math"

// AnalyzeFrequency is the frequency-domain analyzer (component F):
// convert to grayscale, take the 2-D DFT, shift the DC term to center, and
// compare the energy concentrated near the center against the total
// energy. Steganographic payloads tend to inject high-frequency energy,
// so a low central-energy ratio is the detection signal.
//
// Unlike B/D, this analyzer does NOT downscale first: a low-pass bilinear
// downsample would wash out the high-frequency energy it exists to
// detect, inflating energyRatio and suppressing true positives (see
// DESIGN.md for the perf tradeoff this implies on very large images).
func AnalyzeFrequency(d *DecodedImage) AnalyzerOutcome {
	gray, w, h := grayscale(d)
	if w == 0 || h == 0 {
		return AnalyzerOutcome{Detected: false, Confidence: 0}
	}

	spectrum := magnitudeSpectrumShifted(gray, w, h)

	radius := float64(minInt(w, h)) / 8
	cx, cy := float64(w)/2, float64(h)/2

	var centralEnergy, totalEnergy float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := spectrum[y*w+x]
			totalEnergy += m
			dx := float64(x) - cx
			dy := float64(y) - cy
			if dx*dx+dy*dy <= radius*radius {
				centralEnergy += m
			}
		}
	}

	var energyRatio float64
	if totalEnergy > 0 {
		energyRatio = centralEnergy / totalEnergy
	}

	detected := energyRatio < 0.3
	confidence := 0.0
	if energyRatio < 0.5 {
		confidence = clamp01(1 - energyRatio)
	}

	return AnalyzerOutcome{
		Detected:   detected,
		Confidence: confidence,
		Details: map[string]interface{}{
			"energyRatio":   energyRatio,
			"centralEnergy": centralEnergy,
			"totalEnergy":   totalEnergy,
			"radius":        radius,
		},
	}
}

// grayscale converts an image's RGB buffer to a row-major float64
// luminance grid.
func grayscale(d *DecodedImage) (vals []float64, w, h int) {
	w, h = d.Width, d.Height
	vals = make([]float64, w*h)
	for i, p := range d.Pix {
		vals[i] = 0.299*float64(p.R) + 0.587*float64(p.G) + 0.114*float64(p.B)
	}
	return vals, w, h
}

// magnitudeSpectrumShifted computes |FFT2D(gray)| with the DC component
// shifted to the center of the grid, matching the conventional
// fftshift(fft2(image)) pipeline.
func magnitudeSpectrumShifted(gray []float64, w, h int) []float64 {
	re := make([]float64, w*h)
	im := make([]float64, w*h)
	copy(re, gray)

	// Rows, then columns: a separable 2-D DFT.
	rowRe := make([]float64, w)
	rowIm := make([]float64, w)
	for y := 0; y < h; y++ {
		copy(rowRe, re[y*w:y*w+w])
		for i := range rowIm {
			rowIm[i] = 0
		}
		dft1D(rowRe, rowIm)
		copy(re[y*w:y*w+w], rowRe)
		copy(im[y*w:y*w+w], rowIm)
	}

	colRe := make([]float64, h)
	colIm := make([]float64, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			colRe[y] = re[y*w+x]
			colIm[y] = im[y*w+x]
		}
		dft1D(colRe, colIm)
		for y := 0; y < h; y++ {
			re[y*w+x] = colRe[y]
			im[y*w+x] = colIm[y]
		}
	}

	mag := make([]float64, w*h)
	for i := range mag {
		mag[i] = math.Hypot(re[i], im[i])
	}
	return fftshift(mag, w, h)
}

// dft1D computes an in-place, naive O(n^2) discrete Fourier transform of a
// real/imaginary pair. n is the full image width or height (the frequency
// analyzer does not downscale), so each row or column costs O(n^2).
func dft1D(re, im []float64) {
	n := len(re)
	outRe := make([]float64, n)
	outIm := make([]float64, n)
	for k := 0; k < n; k++ {
		var sumRe, sumIm float64
		for t := 0; t < n; t++ {
			angle := -2 * math.Pi * float64(k) * float64(t) / float64(n)
			c, s := math.Cos(angle), math.Sin(angle)
			sumRe += re[t]*c - im[t]*s
			sumIm += re[t]*s + im[t]*c
		}
		outRe[k] = sumRe
		outIm[k] = sumIm
	}
	copy(re, outRe)
	copy(im, outIm)
}

// fftshift swaps quadrants so that the zero-frequency term lands at the
// center of the grid, mirroring numpy.fft.fftshift for a 2-D array.
func fftshift(grid []float64, w, h int) []float64 {
	out := make([]float64, w*h)
	hw, hh := w/2, h/2
	for y := 0; y < h; y++ {
		sy := (y + hh) % h
		for x := 0; x < w; x++ {
			sx := (x + hw) % w
			out[sy*w+sx] = grid[y*w+x]
		}
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
