// Package copier copies data between streams reading and writing concurrently.
//
// Reader goroutine fills buffers from a fixed pool and passes them to writer through a bounded queue,
// so next chunk is being read while previous one is being written.
package copier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xakep666/asynccopy-go/internal/logutil"
	"github.com/xakep666/asynccopy-go/pkg/bufferpool"
)

const (
	DefaultBufferSize = 4096
	// DefaultBufferCount is a minimum for overlapping: one buffer is written while other is filled.
	DefaultBufferCount = 2

	maxConsecutiveEmptyReads = 100
)

var (
	ErrRead  = errors.New("source read failed")
	ErrWrite = errors.New("destination write failed")

	errInvalidRead = errors.New("invalid read result")
)

// Copier holds copy settings. Zero value is ready to use and uses defaults.
type Copier struct {
	BufferSize  int
	BufferCount int
	Logger      *slog.Logger
}

// Copy copies src to dst with default settings.
func Copy(ctx context.Context, dst io.Writer, src io.Reader, progress Progress) (int64, error) {
	var c Copier
	return c.Copy(ctx, dst, src, progress)
}

// Copy copies src to dst until EOF on src or first error.
// Progress may be nil. On failure dst contains a prefix of src.
// Copy doesn't interrupt blocked Read or Write calls, close streams to unblock them on cancellation.
func (c *Copier) Copy(ctx context.Context, dst io.Writer, src io.Reader, progress Progress) (int64, error) {
	pool, err := bufferpool.New(c.bufferSize(), c.bufferCount())
	if err != nil {
		return 0, err
	}

	return c.copyWithPool(ctx, pool, dst, src, progress)
}

func (c *Copier) copyWithPool(
	ctx context.Context, pool *bufferpool.Pool, dst io.Writer, src io.Reader, progress Progress,
) (written int64, err error) {
	if progress == nil {
		progress = nopProgress{}
	}

	log := c.logger().With(slog.Int("buffer_size", pool.BufferSize()), slog.Int("buffer_count", pool.Len()))
	started := time.Now()

	chunks := make(chan chunk, pool.Len())

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return readChunks(egCtx, src, pool, chunks)
	})
	eg.Go(func() error {
		var err error
		written, err = writeChunks(egCtx, dst, chunks, progress)
		return err
	})

	err = eg.Wait()

	// reader closed the channel on exit, only chunks abandoned by a failed writer may remain
	for abandoned := range chunks {
		abandoned.release()
	}

	if err != nil {
		log.DebugContext(ctx, "Copy failed", logutil.BytesAttr("written", written), logutil.ErrorAttr(err))
		return written, err
	}

	log.DebugContext(ctx, "Copy finished",
		logutil.BytesAttr("written", written), slog.Duration("elapsed", time.Since(started)))

	return written, nil
}

func readChunks(ctx context.Context, src io.Reader, pool *bufferpool.Pool, chunks chan<- chunk) error {
	defer close(chunks)

	emptyReads := 0
	for {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}

		buf, err := pool.Get(ctx)
		if err != nil {
			return err
		}

		n, err := src.Read(buf.Bytes())
		if n < 0 || n > len(buf.Bytes()) {
			buf.Release()
			return fmt.Errorf("%w: %w: %d bytes", ErrRead, errInvalidRead, n)
		}

		if n > 0 {
			emptyReads = 0

			select {
			case chunks <- chunk{buf: buf, n: n}:
			case <-ctx.Done():
				buf.Release()
				return context.Cause(ctx)
			}
		} else {
			buf.Release()
		}

		switch {
		case errors.Is(err, nil):
			if n == 0 {
				emptyReads++
				if emptyReads >= maxConsecutiveEmptyReads {
					return fmt.Errorf("%w: %w", ErrRead, io.ErrNoProgress)
				}
			}
		case errors.Is(err, io.EOF):
			return nil
		default:
			return fmt.Errorf("%w: %w", ErrRead, err)
		}
	}
}

func writeChunks(ctx context.Context, dst io.Writer, chunks <-chan chunk, progress Progress) (int64, error) {
	var total int64
	for {
		var (
			c  chunk
			ok bool
		)

		select {
		case c, ok = <-chunks:
		case <-ctx.Done():
			return total, context.Cause(ctx)
		}

		if !ok {
			return total, nil
		}

		if err := writeChunk(dst, c); err != nil {
			c.release()
			return total, err
		}

		total += int64(c.n)
		progress.Report(total)
		c.release()
	}
}

func writeChunk(dst io.Writer, c chunk) error {
	n, err := dst.Write(c.bytes())
	switch {
	case err != nil:
		return fmt.Errorf("%w: %w", ErrWrite, err)
	case n != c.n:
		return fmt.Errorf("%w: %w", ErrWrite, io.ErrShortWrite)
	default:
		return nil
	}
}

func (c *Copier) bufferSize() int {
	if c.BufferSize == 0 {
		return DefaultBufferSize
	}

	return c.BufferSize
}

func (c *Copier) bufferCount() int {
	if c.BufferCount == 0 {
		return DefaultBufferCount
	}

	return c.BufferCount
}

func (c *Copier) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}

	return c.Logger
}
