package stego

import "errors"

// Error kinds the core surfaces. Analyzer-level failures never reach the
// caller as Go errors — they degrade the analyzer to a (false, 0.0)
// outcome and are folded into the report instead. I/O errors on the target
// file are wrapped without a sentinel. Of these, only ErrDecodeFailed and
// ErrStructuralInvariant are wrapped by the core today; the rest are
// declared but not returned.
var (
	ErrDecodeFailed        = errors.New("stego: file cannot be decoded as its claimed type")
	ErrSizeExceeded        = errors.New("stego: file exceeds the maximum allowed size")
	ErrSuspiciousName      = errors.New("stego: filename contains a suspicious fragment")
	ErrStructuralInvariant = errors.New("stego: structural invariant violated")
	ErrToolSignature       = errors.New("stego: stego-tool signature found")
	ErrStegoDetected       = errors.New("stego: fusion rule detected steganography")
)
