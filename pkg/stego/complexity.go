package stego

import (
	"math"

	"github.com/disintegration/imaging"
)

const complexityMaxSide = 256

// EstimateComplexity derives a [0,1] complexity score from a downscaled
// copy of the image plus, for JPEG, the average quantization step. Natural
// photographs carry high entropy; the adaptive thresholds in thresholds.go
// widen with complexity to avoid false positives on detailed images.
func EstimateComplexity(d *DecodedImage) ComplexityMetrics {
	small := downscale(d, complexityMaxSide)

	edgeDensity := edgeDensity(small)
	colorVariance := colorVariance(small)
	saturationVariance := saturationVariance(small)
	blockUniformity := blockUniformity(small)

	m := ComplexityMetrics{
		EdgeDensity:        edgeDensity,
		ColorVariance:      colorVariance,
		SaturationVariance: saturationVariance,
		BlockUniformity:    blockUniformity,
		Format:             d.Format,
	}

	terms := []float64{
		edgeDensity,
		math.Tanh(colorVariance / 5000),
		math.Tanh(2 * saturationVariance),
		blockUniformity,
	}

	if d.Format == "JPEG" && len(d.QuantTables) > 0 {
		q := jpegQualityEstimate(d.QuantTables)
		m.JPEGQualityEstimate = &q
		terms = append(terms, q)
	}

	sum := 0.0
	for _, t := range terms {
		sum += t
	}
	m.ComplexityScore = clamp01(sum / float64(len(terms)))

	return m
}

// downscale returns a copy of the image's RGB array with the longest side
// clamped to maxSide, using bilinear interpolation. No-op if already small
// enough.
func downscale(d *DecodedImage, maxSide int) *DecodedImage {
	longest := d.Width
	if d.Height > longest {
		longest = d.Height
	}
	if longest <= maxSide {
		return d
	}

	var newW, newH int
	if d.Width >= d.Height {
		newW = maxSide
		newH = int(math.Round(float64(d.Height) * float64(maxSide) / float64(d.Width)))
	} else {
		newH = maxSide
		newW = int(math.Round(float64(d.Width) * float64(maxSide) / float64(d.Height)))
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	resized := imaging.Resize(d.Image, newW, newH, imaging.Linear)
	bounds := resized.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pix := make([]RGB, w*h)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			pix[i] = RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
			i++
		}
	}

	return &DecodedImage{Format: d.Format, Width: w, Height: h, Pix: pix, Image: resized}
}

// edgeDensity is the fraction of pixels whose |gradX|+|gradY| (first
// difference, edge-replicated) exceeds mean+std of that sum.
func edgeDensity(d *DecodedImage) float64 {
	w, h := d.Width, d.Height
	if w == 0 || h == 0 {
		return 0
	}
	sums := make([]float64, w*h)

	lum := func(p RGB) float64 {
		return 0.299*float64(p.R) + 0.587*float64(p.G) + 0.114*float64(p.B)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			xr := x + 1
			if xr >= w {
				xr = w - 1
			}
			yr := y + 1
			if yr >= h {
				yr = h - 1
			}
			center := lum(d.At(x, y))
			gx := math.Abs(lum(d.At(xr, y)) - center)
			gy := math.Abs(lum(d.At(x, yr)) - center)
			sums[y*w+x] = gx + gy
		}
	}

	mean, std := meanStd(sums)
	threshold := mean + std
	count := 0
	for _, s := range sums {
		if s > threshold {
			count++
		}
	}
	return float64(count) / float64(len(sums))
}

// colorVariance is the mean of per-channel variances.
func colorVariance(d *DecodedImage) float64 {
	n := len(d.Pix)
	if n == 0 {
		return 0
	}
	var rs, gs, bs []float64
	for _, p := range d.Pix {
		rs = append(rs, float64(p.R))
		gs = append(gs, float64(p.G))
		bs = append(bs, float64(p.B))
	}
	_, rv := meanVar(rs)
	_, gv := meanVar(gs)
	_, bv := meanVar(bs)
	return (rv + gv + bv) / 3
}

// saturationVariance is the variance of per-pixel (max-min)/max, 0 when
// max=0.
func saturationVariance(d *DecodedImage) float64 {
	sats := make([]float64, len(d.Pix))
	for i, p := range d.Pix {
		mx := maxByte(p.R, p.G, p.B)
		mn := minByte(p.R, p.G, p.B)
		if mx == 0 {
			sats[i] = 0
			continue
		}
		sats[i] = float64(mx-mn) / float64(mx)
	}
	_, v := meanVar(sats)
	return v
}

// blockUniformity is 1/(1+mean_block_variance) over non-overlapping 8x8
// luminance blocks. Every full 8x8 block is used; partial boundary blocks
// (when a dimension isn't a multiple of 8) are excluded rather than
// averaged over a truncated block.
func blockUniformity(d *DecodedImage) float64 {
	w, h := d.Width, d.Height
	if w < 1 || h < 1 {
		return 1
	}
	var blockVariances []float64
	for by := 0; by+8 <= h; by += 8 {
		for bx := 0; bx+8 <= w; bx += 8 {
			var lums []float64
			for y := by; y < by+8; y++ {
				for x := bx; x < bx+8; x++ {
					p := d.At(x, y)
					lums = append(lums, 0.299*float64(p.R)+0.587*float64(p.G)+0.114*float64(p.B))
				}
			}
			if len(lums) > 0 {
				_, v := meanVar(lums)
				blockVariances = append(blockVariances, v)
			}
		}
	}
	if len(blockVariances) == 0 {
		return 1
	}
	meanBV, _ := meanVar(blockVariances)
	return 1 / (1 + meanBV)
}

// jpegQualityEstimate derives 1/(1+avg_quant/50) from the average value of
// all coefficients in all quantization tables present in the file.
func jpegQualityEstimate(tables [][64]int) float64 {
	sum, count := 0, 0
	for _, t := range tables {
		for _, v := range t {
			sum += v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	avg := float64(sum) / float64(count)
	return 1 / (1 + avg/50)
}

func meanStd(vs []float64) (float64, float64) {
	mean, v := meanVar(vs)
	return mean, math.Sqrt(v)
}

func meanVar(vs []float64) (float64, float64) {
	if len(vs) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	mean := sum / float64(len(vs))
	varSum := 0.0
	for _, v := range vs {
		d := v - mean
		varSum += d * d
	}
	return mean, varSum / float64(len(vs))
}

func maxByte(vs ...uint8) uint8 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minByte(vs ...uint8) uint8 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
