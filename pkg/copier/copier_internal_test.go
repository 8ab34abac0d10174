package copier

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xakep666/asynccopy-go/pkg/bufferpool"
)

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

type readerFunc func(p []byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }

func TestChunkBytesValidPrefix(t *testing.T) {
	pool, err := bufferpool.New(8, 1)
	require.NoError(t, err)

	buf, err := pool.TryGet()
	require.NoError(t, err)

	copy(buf.Bytes(), "abcdefgh")

	c := chunk{buf: buf, n: 3}
	assert.Equal(t, []byte("abc"), c.bytes())

	c.release()
	c.release()
	assert.Equal(t, 1, pool.Free())
}

func TestCopyReadsWhileWriting(t *testing.T) {
	pool, err := bufferpool.New(4, 2)
	require.NoError(t, err)

	var out bytes.Buffer
	first := true
	dst := writerFunc(func(p []byte) (int, error) {
		if first {
			first = false
			// second buffer must be filled while first one is being written
			deadline := time.Now().Add(5 * time.Second)
			for pool.Free() != 0 {
				if time.Now().After(deadline) {
					return 0, errors.New("reader did not overlap with writer")
				}
				time.Sleep(time.Millisecond)
			}
		}
		return out.Write(p)
	})

	var c Copier
	n, err := c.copyWithPool(context.Background(), pool, dst, bytes.NewReader([]byte("0123456789abcdef")), nil)
	require.NoError(t, err)

	assert.EqualValues(t, 16, n)
	assert.Equal(t, "0123456789abcdef", out.String())
	assert.Equal(t, pool.Len(), pool.Free())
}

func TestCopyReservesAtMostBufferCount(t *testing.T) {
	const count = 3

	pool, err := bufferpool.New(16, count)
	require.NoError(t, err)

	src := readerFunc(func(p []byte) (int, error) {
		assert.GreaterOrEqual(t, pool.Free(), 0)
		assert.LessOrEqual(t, pool.Len()-pool.Free(), count)
		return len(p), nil
	})

	var writes int
	dst := writerFunc(func(p []byte) (int, error) {
		writes++
		if writes == 50 {
			return 0, io.ErrClosedPipe
		}
		return len(p), nil
	})

	var c Copier
	_, err = c.copyWithPool(context.Background(), pool, dst, src, nil)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.Equal(t, count, pool.Free(), "all buffers must be returned after failure")
}

func TestCopyReleasesBuffersOnCancel(t *testing.T) {
	pool, err := bufferpool.New(32, 4)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := readerFunc(func(p []byte) (int, error) { return len(p), nil })
	dst := writerFunc(func(p []byte) (int, error) {
		cancel()
		return len(p), nil
	})

	var c Copier
	_, err = c.copyWithPool(ctx, pool, dst, src, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, pool.Len(), pool.Free())
}

func TestCopyReaderFailureCancelsBlockedWriter(t *testing.T) {
	pool, err := bufferpool.New(32, 2)
	require.NoError(t, err)

	readErr := errors.New("read failed")
	src := readerFunc(func([]byte) (int, error) { return 0, readErr })

	var c Copier
	n, err := c.copyWithPool(context.Background(), pool, io.Discard, src, nil)
	assert.ErrorIs(t, err, ErrRead)
	assert.ErrorIs(t, err, readErr)
	assert.Zero(t, n)
	assert.Equal(t, pool.Len(), pool.Free())
}
