package bufferpool

import (
	"runtime"
	"sync/atomic"
)

// Buffer is an exclusively reserved region of a Pool.
// It must be released after use, subsequent releases do nothing.
type Buffer struct {
	state   *bufferState
	cleanup runtime.Cleanup
}

// bufferState is kept apart from Buffer so the cleanup can reach it without keeping Buffer alive.
type bufferState struct {
	pool     *Pool
	region   []byte
	released atomic.Bool
}

func (s *bufferState) release() bool {
	if s.released.Swap(true) {
		return false
	}

	s.pool.put(s.region)
	return true
}

// Bytes returns reserved region or nil if buffer was released.
func (b *Buffer) Bytes() []byte {
	if b.state.released.Load() {
		return nil
	}

	return b.state.region
}

func (b *Buffer) Release() {
	if b.state.release() {
		b.cleanup.Stop()
	}
}
