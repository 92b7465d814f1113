package job

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressExecuteTaskTracksCompletion(t *testing.T) {
	var gotDescription string
	var gotCompleted, gotTotal int

	p := NewProgress(3, func(description string, completed, total int) {
		gotDescription = description
		gotCompleted = completed
		gotTotal = total
	})

	p.ExecuteTask("task-1", func() {})
	assert.Equal(t, "task-1", gotDescription)
	assert.Equal(t, 1, gotCompleted)
	assert.Equal(t, 3, gotTotal)

	p.ExecuteTask("task-2", func() {})
	completed, total := p.Completed()
	assert.Equal(t, 2, completed)
	assert.Equal(t, 3, total)
}

func TestProgressNilCallbackDoesNotPanic(t *testing.T) {
	p := NewProgress(1, nil)
	assert.NotPanics(t, func() { p.ExecuteTask("x", func() {}) })
}

func TestIsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	assert.False(t, IsCancelled(ctx))
	cancel()
	assert.True(t, IsCancelled(ctx))
}

func TestIsCancelledOnTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	time.Sleep(5 * time.Millisecond)
	assert.True(t, IsCancelled(ctx))
}

func TestTaskQueueRunsAllTasks(t *testing.T) {
	p := NewProgress(5, nil)
	queue := NewTaskQueue(context.Background(), p, 5, 2)

	var mu sync.Mutex
	var ran []int
	for i := 0; i < 5; i++ {
		i := i
		queue.Add("task", func(ctx context.Context) {
			mu.Lock()
			ran = append(ran, i)
			mu.Unlock()
		})
	}
	queue.Close()

	assert.Len(t, ran, 5)
}
