package threatscan

import (
	"bytes"
	"fmt"
	"strings"
)

// stegoToolMarkers are the tool fingerprints this scanner looks for; any
// hit raises the caller's threat level to Critical (pkg/stego applies
// that mapping, not this package).
var stegoToolMarkers = []string{
	"OpenStego", "steghide", "outguess", "jsteg", "F5-steganography", "camouflage", "SilentEye",
}

// maliciousScriptMarkers are only scanned for text-like extensions; a
// binary image legitimately contains bytes that collide with these
// fragments by chance, so they are not checked there.
var maliciousScriptMarkers = []string{
	"<?php", "<script", "javascript:", "eval(", "exec(", "system(", "shell_exec(",
	"passthru(", "<iframe", "onload=", "onerror=", "<jsp:", "Runtime.exec",
}

var textLikeExtensions = map[string]bool{
	"html": true, "htm": true, "php": true, "js": true, "jsp": true,
	"asp": true, "txt": true, "xml": true,
}

const signatureScanWindow = 1 << 20 // first 1MB

// ScanSignatures performs a linear byte scan of the first megabyte of
// data for stego-tool markers, and, for text-like extensions, for
// malicious script markers.
func ScanSignatures(data []byte, extension string) []Result {
	window := data
	if len(window) > signatureScanWindow {
		window = window[:signatureScanWindow]
	}

	var results []Result
	for _, marker := range stegoToolMarkers {
		if bytes.Contains(window, []byte(marker)) {
			results = append(results, Result{
				Type:    "signature",
				Message: fmt.Sprintf("stego-tool marker %q found in file content", marker),
			})
		}
	}

	ext := strings.ToLower(strings.TrimPrefix(extension, "."))
	if !textLikeExtensions[ext] {
		return results
	}

	for _, marker := range maliciousScriptMarkers {
		if bytes.Contains(window, []byte(marker)) {
			results = append(results, Result{
				Type:    "signature",
				Message: fmt.Sprintf("malicious script marker %q found in content", marker),
			})
		}
	}

	return results
}

// HasStegoToolMarker reports whether any result in results is a
// stego-tool-marker finding; the caller uses this to force the
// Critical threat level per spec.
func HasStegoToolMarker(results []Result) bool {
	for _, r := range results {
		if strings.Contains(r.Message, "stego-tool marker") {
			return true
		}
	}
	return false
}
