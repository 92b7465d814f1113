package stego

import "math"

// FusionWeights are the base per-analyzer weights before dispersion
// adjustment. Mirrors the shape of a SimilarityWeights struct: named
// per-factor weights with a package-level default constructor.
type FusionWeights struct {
	LSB     float64
	Entropy float64
	Chi     float64
	Freq    float64
}

// DefaultFusionWeights returns the base weights w0 from which the
// dispersion-adjusted per-call weights are derived.
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{
		LSB:     0.35,
		Entropy: 0.25,
		Chi:     0.20,
		Freq:    0.20,
	}
}

// analyzerSignal is one named analyzer's contribution to fusion.
type analyzerSignal struct {
	name       string
	baseWeight float64
	confidence float64
	detected   bool
}

// FusionInput collects every analyzer outcome the orchestrator has
// available for one file. Analyzers outside {lsb, entropy, chi, freq}
// (complexity, metadata, structural) feed threat-level escalation and
// warnings directly rather than the weighted composite score.
type FusionInput struct {
	LSB       AnalyzerOutcome
	Entropy   AnalyzerOutcome
	Chi       AnalyzerOutcome
	Frequency AnalyzerOutcome

	ComplexityScore float64

	LSBExtractedLen int // length of a successfully decoded LSB payload, if any

	StructuralViolation bool
	StegoToolSignature  bool

	FileSize        int64
	VisualAnomalies int // count of {oversized, odd aspect ratio, alpha stddev > 100}; any nonzero count escalates, matching the original's single-issue gate
}

// FusionOutcome is the weighted-fusion decision (component J).
type FusionOutcome struct {
	HasSteganography bool
	CompositeScore   float64
	Mean             float64
	StdDev           float64
	Positive         []string
	Strong           []string
	ThreatLevel      ThreatLevel
	Issues           []string
	Warnings         []string
}

// Fuse implements spec.md's dispersion-adjusted weighted fusion rule:
// reweight each active analyzer by how far its confidence sits from the
// group mean, renormalize, then apply the four detection rules and the
// threat-level mapping table.
func Fuse(in FusionInput, weights FusionWeights) FusionOutcome {
	signals := []analyzerSignal{
		{name: "lsb", baseWeight: weights.LSB, confidence: in.LSB.Confidence, detected: in.LSB.Detected},
		{name: "entropy", baseWeight: weights.Entropy, confidence: in.Entropy.Confidence, detected: in.Entropy.Detected},
		{name: "chi", baseWeight: weights.Chi, confidence: in.Chi.Confidence, detected: in.Chi.Detected},
		{name: "freq", baseWeight: weights.Freq, confidence: in.Frequency.Confidence, detected: in.Frequency.Detected},
	}

	var active []analyzerSignal
	for _, s := range signals {
		if s.confidence > 0 {
			active = append(active, s)
		}
	}

	out := FusionOutcome{ThreatLevel: Safe}

	confidences := make([]float64, len(active))
	for i, s := range active {
		confidences[i] = s.confidence
	}
	mean, variance := meanVar(confidences)
	stddev := math.Sqrt(variance)

	weighted := make([]analyzerSignal, len(active))
	sumW := 0.0
	for i, s := range active {
		w := s.baseWeight
		if stddev > 0 {
			w *= 1 + 0.5*math.Tanh((s.confidence-mean)/(2*stddev))
		}
		weighted[i] = s
		weighted[i].baseWeight = w
		sumW += w
	}
	if sumW > 0 {
		for i := range weighted {
			weighted[i].baseWeight /= sumW
		}
	}

	composite := 0.0
	for _, s := range weighted {
		composite += s.baseWeight * s.confidence
	}

	positiveThreshold := math.Max(0.8*mean, 0.3)
	var positive, strong []string
	for _, s := range active {
		if s.confidence > positiveThreshold {
			positive = append(positive, s.name)
		}
		if s.confidence > mean+stddev {
			strong = append(strong, s.name)
		}
	}

	hasStego := false

	// Rule 1: successful LSB extraction.
	if in.LSBExtractedLen >= 10 {
		hasStego = true
	}
	// Rule 2: consensus across analyzers, or composite well above the mean.
	if (len(positive) >= 2 && len(strong) >= 1) || composite > mean+0.5*stddev {
		hasStego = true
	}
	// Rule 3: LSB deviation plus elevated entropy both above the pack mean.
	if in.LSB.Confidence > 0.18 && in.Entropy.Confidence > 0.9*mean && composite > 1.1*mean {
		hasStego = true
	}
	// Rule 4: high entropy in a visually flat image — a textbook hidden payload.
	if in.Entropy.Confidence > 0.55 && in.LSB.Confidence < 0.10 && in.ComplexityScore < 0.65 {
		hasStego = true
	}

	threat := Safe
	var issues, warnings []string

	if in.StegoToolSignature {
		threat = Critical
		issues = append(issues, "stego-tool signature detected in file content")
	}

	if hasStego {
		if composite > 0.8 && len(positive) >= 2 {
			threat = raise(threat, Critical)
			issues = append(issues, "steganography detected by multiple independent analyzers: "+joinNames(positive))
		} else {
			threat = raise(threat, High)
			issues = append(issues, "steganography detected")
		}
	}

	if in.StructuralViolation {
		threat = raise(threat, High)
		issues = append(issues, "structural invariant violated")
	}

	if !hasStego && in.FileSize > 100*1024 && in.Entropy.Confidence > 0.8 {
		if threat == Safe {
			threat = raise(threat, Low)
		}
		warnings = append(warnings, "elevated file entropy for file size")
	}

	if in.VisualAnomalies >= 1 {
		threat = raise(threat, Medium)
	}

	out.HasSteganography = hasStego
	out.CompositeScore = clamp01(composite)
	out.Mean = mean
	out.StdDev = stddev
	out.Positive = positive
	out.Strong = strong
	out.ThreatLevel = threat
	out.Issues = issues
	out.Warnings = warnings

	return out
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
