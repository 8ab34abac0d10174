package copier

import (
	"context"
	"io"
	"sync/atomic"
)

// Task is a copy running in background.
type Task struct {
	done    chan struct{}
	current atomic.Int64

	written int64
	err     error
}

// Start runs Copy in a new goroutine.
func (c *Copier) Start(ctx context.Context, dst io.Writer, src io.Reader, progress Progress) *Task {
	t := &Task{done: make(chan struct{})}

	go func() {
		defer close(t.done)

		t.written, t.err = c.Copy(ctx, dst, src, ProgressFunc(func(total int64) {
			t.current.Store(total)
			if progress != nil {
				progress.Report(total)
			}
		}))
	}()

	return t
}

// Done is closed when copy completes.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until copy completes and returns its result.
func (t *Task) Wait() (int64, error) {
	<-t.done
	return t.written, t.err
}

// Written returns amount of bytes written so far. Safe to call while copy is running.
func (t *Task) Written() int64 { return t.current.Load() }
