package job

import (
	"context"
	"sync"
)

// task carries the description used for progress reporting; separated
// from taskExec so the execution closure isn't duplicated into progress
// bookkeeping.
type task struct {
	description string
}

// Progress tracks completed/total task counts for one TaskQueue run and
// reports them through an optional callback, e.g. to stream progress
// over a websocket.
type Progress struct {
	mu        sync.Mutex
	total     int
	completed int
	onUpdate  func(description string, completed, total int)
}

// NewProgress creates a Progress tracker for total tasks. onUpdate may
// be nil.
func NewProgress(total int, onUpdate func(description string, completed, total int)) *Progress {
	return &Progress{total: total, onUpdate: onUpdate}
}

// ExecuteTask runs fn, then records it as completed and reports the new
// count through onUpdate.
func (p *Progress) ExecuteTask(description string, fn func()) {
	fn()

	p.mu.Lock()
	p.completed++
	completed, total := p.completed, p.total
	p.mu.Unlock()

	if p.onUpdate != nil {
		p.onUpdate(description, completed, total)
	}
}

// Completed returns the current completed/total counts.
func (p *Progress) Completed() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed, p.total
}

// IsCancelled reports whether ctx has been cancelled or timed out.
func IsCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
