package threatscan

import (
	"fmt"
	"strings"
)

// Result represents a single flagged finding from the metadata or
// signature scanners.
type Result struct {
	Type    string // "metadata" or "signature"
	Message string
}

// FormatThreats renders a slice of Results as a newline-joined, typed
// summary line per finding.
func FormatThreats(results []Result) string {
	if len(results) == 0 {
		return ""
	}
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("[%s] %s", r.Type, r.Message)
	}
	return strings.Join(parts, "\n")
}
