package stego

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBatchRunsAllFiles(t *testing.T) {
	paths := make([]string, 3)
	names := make([]string, 3)
	for i := range paths {
		paths[i] = writeTempFile(t, encodePNG(t, 8, 8), "img.png")
		names[i] = "img.png"
	}

	var progressCalls int
	results := ValidateBatch(context.Background(), paths, names, 2, func(description string, completed, total int) {
		progressCalls++
	})

	require.Len(t, results, 3)
	for _, r := range results {
		require.NoError(t, r.Err)
		assert.True(t, r.Report.IsSafe)
	}
	assert.Equal(t, 3, progressCalls)
}
