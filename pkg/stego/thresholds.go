package stego

// DeriveThresholds maps a complexity score and image format to the LSB
// deviation breakpoints the LSB analyzer uses. All three are absolute
// deviations of the ones-ratio from 0.5.
func DeriveThresholds(complexityScore float64, format string) AdaptiveThresholds {
	tol := 0.05 + 0.15*complexityScore
	switch format {
	case "BMP":
		tol *= 0.7
	case "JPEG":
		tol *= 1.3
	}

	minor := 0.20 + 0.50*tol
	moderate := minor + 0.05 + 0.30*tol
	strong := moderate + 0.07 + 0.20*tol

	t := AdaptiveThresholds{Minor: minor, Moderate: moderate, Strong: strong}
	// Monotonicity is an algebraic consequence of tol >= 0 for every branch
	// above, but we assert it per spec.md's invariant rather than trust it
	// silently — a future constant change that breaks it should fail loud.
	if err := t.validate(); err != nil {
		panic(err)
	}
	return t
}
