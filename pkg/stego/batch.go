package stego

import (
	"context"
	"sync"

	"github.com/stashapp/stego/pkg/job"
)

// BatchResult pairs one path's ValidateFile outcome with any error.
type BatchResult struct {
	Path     string
	Report   *SecurityReport
	Err      error
}

// ValidateBatch validates every (path, originalName) pair concurrently,
// bounded to concurrency workers, using the same job.TaskQueue the rest
// of this module's background work runs on. onProgress may be nil.
func ValidateBatch(ctx context.Context, paths []string, originalNames []string, concurrency int, onProgress func(description string, completed, total int)) []BatchResult {
	results := make([]BatchResult, len(paths))
	progress := job.NewProgress(len(paths), onProgress)
	queue := job.NewTaskQueue(ctx, progress, len(paths), concurrency)

	var mu sync.Mutex
	for i := range paths {
		i := i
		queue.Add(paths[i], func(ctx context.Context) {
			report, err := ValidateFile(ctx, paths[i], originalNames[i])
			mu.Lock()
			results[i] = BatchResult{Path: paths[i], Report: report, Err: err}
			mu.Unlock()
		})
	}

	queue.Close()
	return results
}
