// Package bufferpool provides a fixed set of equally sized buffers carved from a single allocation.
package bufferpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
)

var (
	ErrNoFreeBuffer = errors.New("no free buffer available")
	ErrInvalidSize  = errors.New("buffer size and count must be positive")
)

type Pool struct {
	backing    []byte
	bufferSize int
	free       chan []byte
}

func New(bufferSize, numBuffers int) (*Pool, error) {
	if bufferSize <= 0 || numBuffers <= 0 {
		return nil, fmt.Errorf("%w: got size %d, count %d", ErrInvalidSize, bufferSize, numBuffers)
	}

	p := &Pool{
		backing:    make([]byte, bufferSize*numBuffers),
		bufferSize: bufferSize,
		free:       make(chan []byte, numBuffers),
	}

	for i := 0; i < numBuffers; i++ {
		start, end := i*bufferSize, (i+1)*bufferSize
		// cap is limited so append on a region can't spill into the next one
		p.free <- p.backing[start:end:end]
	}

	return p, nil
}

// TryGet reserves a free buffer without blocking.
func (p *Pool) TryGet() (*Buffer, error) {
	select {
	case region := <-p.free:
		return p.reserve(region), nil
	default:
		return nil, ErrNoFreeBuffer
	}
}

// Get waits until a buffer is released or ctx is done.
func (p *Pool) Get(ctx context.Context) (*Buffer, error) {
	// prefer a free buffer even if ctx is already done, Do/Copy callers check ctx themselves
	select {
	case region := <-p.free:
		return p.reserve(region), nil
	default:
	}

	select {
	case region := <-p.free:
		return p.reserve(region), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for free buffer failed: %w", context.Cause(ctx))
	}
}

// Do reserves a buffer for the duration of fn.
func (p *Pool) Do(ctx context.Context, fn func(b *Buffer) error) error {
	b, err := p.Get(ctx)
	if err != nil {
		return err
	}

	defer b.Release()

	return fn(b)
}

func (p *Pool) BufferSize() int { return p.bufferSize }

// Len returns total amount of buffers, reserved and free.
func (p *Pool) Len() int { return cap(p.free) }

// Free returns amount of buffers available for reservation.
func (p *Pool) Free() int { return len(p.free) }

func (p *Pool) reserve(region []byte) *Buffer {
	b := &Buffer{
		state: &bufferState{pool: p, region: region},
	}

	b.cleanup = runtime.AddCleanup(b, func(s *bufferState) {
		if s.release() {
			slog.Warn("Buffer was not released explicitly, returned to pool by cleanup",
				slog.Int("size", len(s.region)))
		}
	}, b.state)

	return b
}

func (p *Pool) put(region []byte) {
	select {
	case p.free <- region:
	default:
		// every region is returned exactly once, so the free list can't overflow
		panic("bufferpool: free list overflow")
	}
}
